package datasource

import (
	"fmt"
	"sort"

	"github.com/vanderheijden86/showroom/pkg/model"
)

// SnapshotDiff describes how a stored snapshot differs from the live
// catalog. Shown at startup when the tool falls back to the mirror, so the
// user knows how stale the offline view is.
type SnapshotDiff struct {
	// MissingInSnapshot contains row identifiers present live but not mirrored.
	MissingInSnapshot []string
	// MissingLive contains row identifiers mirrored but gone from the catalog.
	MissingLive []string
	// FieldMismatches lists rows whose field values differ.
	FieldMismatches []FieldDifference
	// SnapshotCount and LiveCount are the respective row totals.
	SnapshotCount int
	LiveCount     int
}

// FieldDifference records the differing fields of one row.
type FieldDifference struct {
	RowID  string   `json:"row_id"`
	Fields []string `json:"fields"`
}

// HasDrift reports whether the snapshot and the live catalog disagree.
func (d SnapshotDiff) HasDrift() bool {
	return len(d.MissingInSnapshot) > 0 || len(d.MissingLive) > 0 || len(d.FieldMismatches) > 0
}

// Summary returns a one-line description of the drift.
func (d SnapshotDiff) Summary() string {
	if !d.HasDrift() {
		return fmt.Sprintf("snapshot in sync (%d rows)", d.SnapshotCount)
	}
	return fmt.Sprintf("snapshot drift: %d new live, %d removed, %d changed",
		len(d.MissingInSnapshot), len(d.MissingLive), len(d.FieldMismatches))
}

// DiffSnapshot compares the stored snapshot of a collection against live
// rows.
func (m *Mirror) DiffSnapshot(coll model.Collection, live map[string]model.Record) (SnapshotDiff, error) {
	stored, err := m.LoadRows(coll)
	if err != nil {
		return SnapshotDiff{}, err
	}
	return diffRows(stored, live), nil
}

func diffRows(stored, live map[string]model.Record) SnapshotDiff {
	diff := SnapshotDiff{
		SnapshotCount: len(stored),
		LiveCount:     len(live),
	}

	seen := make(map[string]struct{}, len(live))
	for rawID, liveRec := range live {
		id := model.NormalizeRowID(rawID).String()
		seen[id] = struct{}{}
		storedRec, ok := stored[id]
		if !ok {
			diff.MissingInSnapshot = append(diff.MissingInSnapshot, id)
			continue
		}
		if fields := differingFields(storedRec, liveRec); len(fields) > 0 {
			diff.FieldMismatches = append(diff.FieldMismatches, FieldDifference{RowID: id, Fields: fields})
		}
	}

	for id := range stored {
		if _, ok := seen[id]; !ok {
			diff.MissingLive = append(diff.MissingLive, id)
		}
	}

	sort.Strings(diff.MissingInSnapshot)
	sort.Strings(diff.MissingLive)
	sort.Slice(diff.FieldMismatches, func(i, j int) bool {
		return diff.FieldMismatches[i].RowID < diff.FieldMismatches[j].RowID
	})
	return diff
}

func differingFields(a, b model.Record) []string {
	var fields []string
	for k, v := range b {
		if a[k] != v {
			fields = append(fields, k)
		}
	}
	for k, v := range a {
		if _, ok := b[k]; !ok && v != "" {
			fields = append(fields, k)
		}
	}
	sort.Strings(fields)
	return fields
}
