package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vanderheijden86/showroom/pkg/fieldmap"
	"github.com/vanderheijden86/showroom/pkg/filter"
	"github.com/vanderheijden86/showroom/pkg/model"
	"github.com/vanderheijden86/showroom/pkg/testutil"
)

// testSchema scores 100 for a fully filled row, 80 with the optional field
// missing, 0 for an empty row.
func testSchema() fieldmap.Schema {
	return fieldmap.Schema{
		Collection: model.CollectionSinks,
		Required:   []string{model.FieldTitle, model.FieldBrand},
		Optional:   []string{"material"},
	}
}

func testRows() map[model.RowID]model.Record {
	return map[model.RowID]model.Record{
		"1": {model.FieldTitle: "Belfast Sink", model.FieldBrand: "Shaws", "material": "fireclay"},
		"2": {model.FieldTitle: "Butler Sink", model.FieldBrand: "Shaws"},
		"3": {},
	}
}

func TestSummarizeBands(t *testing.T) {
	s := Summarize(model.CollectionSinks, testRows(), testSchema(), nil)

	if s.Rows != 3 {
		t.Fatalf("rows = %d, want 3", s.Rows)
	}
	if s.Complete != 1 || s.Partial != 1 || s.Critical != 1 {
		t.Errorf("bands = %d/%d/%d, want 1/1/1", s.Complete, s.Partial, s.Critical)
	}
	if s.Mean != 60 {
		t.Errorf("mean = %v, want 60", s.Mean)
	}
	if s.Median != 80 {
		t.Errorf("median = %v, want 80", s.Median)
	}
}

func TestSummarizeWorstIsOrdered(t *testing.T) {
	s := Summarize(model.CollectionSinks, testRows(), testSchema(), nil)

	if len(s.Worst) != 3 {
		t.Fatalf("worst has %d rows, want 3", len(s.Worst))
	}
	if s.Worst[0].ID != "3" || s.Worst[0].Score != 0 {
		t.Errorf("worst[0] = %s (%d), want row 3 at 0", s.Worst[0].ID, s.Worst[0].Score)
	}
	if s.Worst[2].Score != 100 {
		t.Errorf("worst[2] score = %d, want 100", s.Worst[2].Score)
	}
}

func TestSummarizeMissingTallies(t *testing.T) {
	report := filter.Report{
		"2": {fieldmap.MissingDimensions, fieldmap.MissingContent},
		"3": {fieldmap.MissingDimensions},
	}
	s := Summarize(model.CollectionSinks, testRows(), testSchema(), report)

	if s.Missing[fieldmap.MissingDimensions] != 2 {
		t.Errorf("dimensions tally = %d, want 2", s.Missing[fieldmap.MissingDimensions])
	}
	if s.Missing[fieldmap.MissingContent] != 1 {
		t.Errorf("content tally = %d, want 1", s.Missing[fieldmap.MissingContent])
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(model.CollectionSinks, nil, testSchema(), nil)
	if s.Rows != 0 || s.Mean != 0 || len(s.Worst) != 0 {
		t.Errorf("empty summary not zero-valued: %+v", s)
	}
}

func TestSummarizeHistogram(t *testing.T) {
	s := Summarize(model.CollectionSinks, testRows(), testSchema(), nil)

	total := 0
	for _, n := range s.Histogram {
		total += n
	}
	if total != 3 {
		t.Errorf("histogram totals %d, want 3", total)
	}
	if s.Histogram[0] != 1 || s.Histogram[8] != 1 || s.Histogram[9] != 1 {
		t.Errorf("histogram = %v, want rows in bins 0, 8 and 9", s.Histogram)
	}
}

func TestGenerateMarkdown(t *testing.T) {
	report := filter.Report{"3": {fieldmap.MissingContent}}
	s := Summarize(model.CollectionSinks, testRows(), testSchema(), report)
	at := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	md := GenerateMarkdown(s, at)

	for _, want := range []string{
		"# Catalog completeness: sinks",
		"**Rows:** 3",
		"| Complete | 1 | 33% |",
		"| content | 1 |",
		"| 3 | - | - | 0 |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestGenerateMarkdownSanitizesCells(t *testing.T) {
	rows := map[model.RowID]model.Record{
		"1": {model.FieldTitle: "Pipe | Sink", model.FieldBrand: "Shaws"},
	}
	md := GenerateMarkdown(Summarize(model.CollectionSinks, rows, testSchema(), nil), time.Now())

	if !strings.Contains(md, "Pipe / Sink") {
		t.Errorf("pipe not sanitized:\n%s", md)
	}
}

func TestSaveMarkdownToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "sinks.md")
	if err := SaveMarkdownToFile("# report\n", path); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "# report\n" {
		t.Errorf("content = %q", data)
	}
}

func TestWriteHistogramSVG(t *testing.T) {
	s := Summarize(model.CollectionSinks, testRows(), testSchema(), nil)

	var sb strings.Builder
	WriteHistogramSVG(&sb, s)
	out := sb.String()

	if !strings.Contains(out, "<svg") || !strings.Contains(out, "</svg>") {
		t.Fatalf("not an svg document:\n%s", out)
	}
	if !strings.Contains(out, "score distribution (3 rows)") {
		t.Errorf("title missing:\n%s", out)
	}
}

func TestWriteHistogramSVGEmpty(t *testing.T) {
	var sb strings.Builder
	WriteHistogramSVG(&sb, Summary{Collection: model.CollectionTaps})

	if !strings.Contains(sb.String(), "no rows") {
		t.Errorf("empty histogram missing placeholder:\n%s", sb.String())
	}
}

func TestSummarizeGeneratedCatalog(t *testing.T) {
	schema, ok := fieldmap.Defaults().Lookup(model.CollectionSinks)
	if !ok {
		t.Fatal("no default schema for sinks")
	}

	raw := testutil.New(testutil.DefaultConfig()).Catalog(schema, 50)
	rows := make(map[model.RowID]model.Record, len(raw))
	for id, rec := range raw {
		rows[model.RowID(id)] = rec
	}

	s := Summarize(model.CollectionSinks, rows, schema, nil)
	if s.Complete+s.Partial+s.Critical != 50 {
		t.Errorf("bands %d/%d/%d do not cover all 50 rows", s.Complete, s.Partial, s.Critical)
	}
	if s.Mean <= 0 || s.Mean > 100 {
		t.Errorf("mean %v out of range", s.Mean)
	}
}
