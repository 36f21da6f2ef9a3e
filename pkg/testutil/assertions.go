package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/showroom/pkg/model"
)

// AssertRecordCount verifies the expected number of catalog rows.
func AssertRecordCount(t *testing.T, rows map[string]model.Record, expected int) {
	t.Helper()
	if len(rows) != expected {
		t.Errorf("expected %d records, got %d", expected, len(rows))
	}
}

// AssertField verifies one field of one row.
func AssertField(t *testing.T, rows map[string]model.Record, rowID, field, expected string) {
	t.Helper()
	rec, ok := rows[rowID]
	if !ok {
		t.Errorf("row %s not found", rowID)
		return
	}
	if got := rec.Field(field); got != expected {
		t.Errorf("row %s field %s = %q, want %q", rowID, field, got, expected)
	}
}

// AssertCanonicalIDs verifies every key is in canonical row identifier form.
func AssertCanonicalIDs(t *testing.T, rows map[string]model.Record) {
	t.Helper()
	for rawID := range rows {
		if canonical := model.NormalizeRowID(rawID).String(); canonical != rawID {
			t.Errorf("non-canonical row key %q (canonical %q)", rawID, canonical)
		}
	}
}

// AssertVisibleOrder verifies a visible set matches the expected identifiers
// in order.
func AssertVisibleOrder(t *testing.T, got []model.RowID, expected ...model.RowID) {
	t.Helper()
	if len(got) != len(expected) {
		t.Errorf("visible set = %v, want %v", got, expected)
		return
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("visible[%d] = %s, want %s (full: %v)", i, got[i], expected[i], got)
			return
		}
	}
}

// AssertJSONEqual compares two values after JSON round-tripping. Useful for
// comparing structs that may have different Go representations but
// equivalent JSON forms.
func AssertJSONEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()

	expectedJSON, err := json.Marshal(expected)
	if err != nil {
		t.Fatalf("failed to marshal expected: %v", err)
	}

	actualJSON, err := json.Marshal(actual)
	if err != nil {
		t.Fatalf("failed to marshal actual: %v", err)
	}

	if string(expectedJSON) != string(actualJSON) {
		t.Errorf("JSON mismatch:\nexpected: %s\nactual:   %s", expectedJSON, actualJSON)
	}
}

// Golden file helpers

// GoldenFile handles golden file comparisons.
type GoldenFile struct {
	t      *testing.T
	dir    string
	name   string
	update bool
}

// NewGoldenFile creates a golden file helper.
// If GENERATE_GOLDEN env var is set, golden files will be updated.
func NewGoldenFile(t *testing.T, dir, name string) *GoldenFile {
	t.Helper()
	return &GoldenFile{
		t:      t,
		dir:    dir,
		name:   name,
		update: os.Getenv("GENERATE_GOLDEN") != "",
	}
}

// Path returns the full path to the golden file.
func (g *GoldenFile) Path() string {
	return filepath.Join(g.dir, g.name)
}

// Assert compares actual content against the golden file.
// If GENERATE_GOLDEN is set, updates the golden file instead.
func (g *GoldenFile) Assert(actual string) {
	g.t.Helper()

	path := g.Path()

	if g.update {
		if err := os.MkdirAll(g.dir, 0755); err != nil {
			g.t.Fatalf("failed to create golden dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(actual), 0644); err != nil {
			g.t.Fatalf("failed to write golden file: %v", err)
		}
		g.t.Logf("updated golden file: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			g.t.Fatalf("golden file does not exist: %s\nRun with GENERATE_GOLDEN=1 to create it", path)
		}
		g.t.Fatalf("failed to read golden file: %v", err)
	}

	if string(expected) != actual {
		// Find first difference for helpful error message
		expectedLines := strings.Split(string(expected), "\n")
		actualLines := strings.Split(actual, "\n")

		for i := 0; i < len(expectedLines) || i < len(actualLines); i++ {
			var expLine, actLine string
			if i < len(expectedLines) {
				expLine = expectedLines[i]
			}
			if i < len(actualLines) {
				actLine = actualLines[i]
			}
			if expLine != actLine {
				g.t.Errorf("golden file mismatch at line %d:\nexpected: %s\nactual:   %s",
					i+1, expLine, actLine)
				return
			}
		}
		g.t.Errorf("golden file mismatch (length differs)")
	}
}

// AssertJSON compares actual value as JSON against the golden file.
func (g *GoldenFile) AssertJSON(actual interface{}) {
	g.t.Helper()

	data, err := json.MarshalIndent(actual, "", "  ")
	if err != nil {
		g.t.Fatalf("failed to marshal actual value: %v", err)
	}

	g.Assert(string(data))
}
