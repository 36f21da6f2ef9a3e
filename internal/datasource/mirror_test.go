package datasource

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/vanderheijden86/showroom/pkg/model"
	"github.com/vanderheijden86/showroom/pkg/queue"
)

func openTestMirror(t *testing.T) *Mirror {
	t.Helper()
	m, err := Open(filepath.Join(t.TempDir(), "showroom.db"))
	if err != nil {
		t.Fatalf("opening mirror: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestSnapshotRoundTrip(t *testing.T) {
	m := openTestMirror(t)

	rows := map[string]model.Record{
		"1":   {model.FieldTitle: "Belfast Sink", model.FieldBrand: "Shaws"},
		"007": {model.FieldTitle: "Butler Sink"},
	}
	if err := m.SaveRows(model.CollectionSinks, rows); err != nil {
		t.Fatal(err)
	}

	got, err := m.LoadRows(model.CollectionSinks)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("loaded %d rows", len(got))
	}
	// Identifiers are canonical in the mirror.
	if got["7"].Field(model.FieldTitle) != "Butler Sink" {
		t.Errorf("row 7 = %v", got["7"])
	}

	count, err := m.CountRows(model.CollectionSinks)
	if err != nil || count != 2 {
		t.Errorf("count = %d, %v", count, err)
	}
}

func TestSaveRowsReplacesSnapshot(t *testing.T) {
	m := openTestMirror(t)

	_ = m.SaveRows(model.CollectionTaps, map[string]model.Record{
		"1": {model.FieldTitle: "old"},
		"2": {model.FieldTitle: "gone"},
	})
	_ = m.SaveRows(model.CollectionTaps, map[string]model.Record{
		"1": {model.FieldTitle: "new"},
	})

	got, err := m.LoadRows(model.CollectionTaps)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got["1"].Field(model.FieldTitle) != "new" {
		t.Errorf("snapshot = %v", got)
	}
}

func TestSnapshotsAreIsolatedPerCollection(t *testing.T) {
	m := openTestMirror(t)

	_ = m.SaveRows(model.CollectionSinks, map[string]model.Record{"1": {"title": "sink"}})
	_ = m.SaveRows(model.CollectionTaps, map[string]model.Record{"1": {"title": "tap"}})

	sinks, _ := m.LoadRows(model.CollectionSinks)
	taps, _ := m.LoadRows(model.CollectionTaps)
	if sinks["1"].Field("title") != "sink" || taps["1"].Field("title") != "tap" {
		t.Errorf("cross-collection bleed: %v / %v", sinks, taps)
	}
}

func TestLastSaved(t *testing.T) {
	m := openTestMirror(t)

	when, err := m.LastSaved(model.CollectionLighting)
	if err != nil {
		t.Fatal(err)
	}
	if !when.IsZero() {
		t.Errorf("empty collection reported %v", when)
	}

	_ = m.SaveRows(model.CollectionLighting, map[string]model.Record{"1": {"title": "x"}})
	when, err = m.LastSaved(model.CollectionLighting)
	if err != nil || when.IsZero() {
		t.Errorf("LastSaved = %v, %v", when, err)
	}
}

func TestJournalLifecycleAndTakePending(t *testing.T) {
	m := openTestMirror(t)
	j := m.NewJournal(model.CollectionSinks)

	tasks := []queue.SaveTask{
		{TaskID: 1, RowID: "7", Fields: map[string]string{"title": "A"}, EnqueuedAt: time.Now()},
		{TaskID: 2, RowID: "7", Fields: map[string]string{"title": "B"}, EnqueuedAt: time.Now()},
		{TaskID: 3, RowID: "9", Fields: map[string]string{"brand": "Vola"}, EnqueuedAt: time.Now()},
	}
	for _, task := range tasks {
		if err := j.Append(task); err != nil {
			t.Fatal(err)
		}
	}

	// Task 1 confirmed, task 3 failed terminally, task 2 still pending.
	if err := j.MarkDone(1); err != nil {
		t.Fatal(err)
	}
	if err := j.MarkFailed(3, "mirror 500"); err != nil {
		t.Fatal(err)
	}

	pending, err := m.TakePending(model.CollectionSinks)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %+v", pending)
	}
	if pending[0].RowID != "7" || pending[0].Fields["title"] != "B" {
		t.Errorf("wrong survivor: %+v", pending[0])
	}

	// Taking is destructive: a second call finds nothing.
	again, err := m.TakePending(model.CollectionSinks)
	if err != nil || len(again) != 0 {
		t.Errorf("second take = %v, %v", again, err)
	}
}

func TestTakePendingPreservesEnqueueOrder(t *testing.T) {
	m := openTestMirror(t)
	j := m.NewJournal(model.CollectionTaps)

	for i := uint64(1); i <= 5; i++ {
		_ = j.Append(queue.SaveTask{TaskID: i, RowID: "1", Fields: map[string]string{"n": string(rune('a' + i))}, EnqueuedAt: time.Now()})
	}

	pending, err := m.TakePending(model.CollectionTaps)
	if err != nil {
		t.Fatal(err)
	}
	for i, task := range pending {
		if task.TaskID != uint64(i+1) {
			t.Fatalf("order broken: %+v", pending)
		}
	}
}

func TestJournalsAreIsolatedPerCollection(t *testing.T) {
	m := openTestMirror(t)

	_ = m.NewJournal(model.CollectionSinks).Append(queue.SaveTask{TaskID: 1, RowID: "1", Fields: map[string]string{"a": "1"}, EnqueuedAt: time.Now()})
	_ = m.NewJournal(model.CollectionTaps).Append(queue.SaveTask{TaskID: 1, RowID: "2", Fields: map[string]string{"b": "2"}, EnqueuedAt: time.Now()})

	sinks, _ := m.TakePending(model.CollectionSinks)
	if len(sinks) != 1 || sinks[0].RowID != "1" {
		t.Errorf("sinks pending = %+v", sinks)
	}
	taps, _ := m.TakePending(model.CollectionTaps)
	if len(taps) != 1 || taps[0].RowID != "2" {
		t.Errorf("taps pending = %+v", taps)
	}
}

func TestJournalKeepsTasksFromEarlierSessions(t *testing.T) {
	m := openTestMirror(t)
	j := m.NewJournal(model.CollectionSinks)

	// Task counters restart at 1 every session. A crashed session's
	// unsaved edit must survive a later session reusing the same id.
	_ = j.Append(queue.SaveTask{TaskID: 1, RowID: "7", Fields: map[string]string{"title": "first session"}, EnqueuedAt: time.Now()})
	_ = j.Append(queue.SaveTask{TaskID: 1, RowID: "9", Fields: map[string]string{"title": "second session"}, EnqueuedAt: time.Now()})

	pending, err := m.TakePending(model.CollectionSinks)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %+v", pending)
	}
	if pending[0].Fields["title"] != "first session" || pending[1].Fields["title"] != "second session" {
		t.Errorf("order or content lost: %+v", pending)
	}
}

func TestJournalReusedIDAcrossCollections(t *testing.T) {
	m := openTestMirror(t)

	// A sinks session left an unsaved edit; a later taps session starts
	// its counter at 1 again. The sinks row must still come back.
	_ = m.NewJournal(model.CollectionSinks).Append(queue.SaveTask{TaskID: 1, RowID: "7", Fields: map[string]string{"title": "unsaved"}, EnqueuedAt: time.Now()})
	_ = m.NewJournal(model.CollectionTaps).Append(queue.SaveTask{TaskID: 1, RowID: "2", Fields: map[string]string{"brand": "Vola"}, EnqueuedAt: time.Now()})

	pending, err := m.TakePending(model.CollectionSinks)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].Fields["title"] != "unsaved" {
		t.Fatalf("sinks pending = %+v", pending)
	}
}

func TestMarkDoneLeavesFinishedRowsAlone(t *testing.T) {
	m := openTestMirror(t)
	j := m.NewJournal(model.CollectionSinks)

	_ = j.Append(queue.SaveTask{TaskID: 1, RowID: "7", Fields: map[string]string{"title": "x"}, EnqueuedAt: time.Now()})
	_ = j.MarkFailed(1, "remote 500")

	// A later session reuses id 1; confirming it must not flip the failed
	// row kept for inspection.
	_ = j.Append(queue.SaveTask{TaskID: 1, RowID: "8", Fields: map[string]string{"title": "y"}, EnqueuedAt: time.Now()})
	if err := j.MarkDone(1); err != nil {
		t.Fatal(err)
	}

	var failed int
	if err := m.db.QueryRow(`SELECT COUNT(*) FROM save_journal WHERE state = 'failed'`).Scan(&failed); err != nil {
		t.Fatal(err)
	}
	if failed != 1 {
		t.Errorf("failed rows = %d, want 1", failed)
	}

	pending, _ := m.TakePending(model.CollectionSinks)
	if len(pending) != 0 {
		t.Errorf("confirmed task still pending: %+v", pending)
	}
}

func TestDiffSnapshot(t *testing.T) {
	m := openTestMirror(t)
	_ = m.SaveRows(model.CollectionSinks, map[string]model.Record{
		"1": {"title": "same"},
		"2": {"title": "old value"},
		"3": {"title": "removed live"},
	})

	live := map[string]model.Record{
		"1": {"title": "same"},
		"2": {"title": "new value"},
		"4": {"title": "brand new"},
	}

	diff, err := m.DiffSnapshot(model.CollectionSinks, live)
	if err != nil {
		t.Fatal(err)
	}
	if !diff.HasDrift() {
		t.Fatal("drift not detected")
	}
	if len(diff.MissingInSnapshot) != 1 || diff.MissingInSnapshot[0] != "4" {
		t.Errorf("missing in snapshot: %v", diff.MissingInSnapshot)
	}
	if len(diff.MissingLive) != 1 || diff.MissingLive[0] != "3" {
		t.Errorf("missing live: %v", diff.MissingLive)
	}
	if len(diff.FieldMismatches) != 1 || diff.FieldMismatches[0].RowID != "2" {
		t.Errorf("mismatches: %v", diff.FieldMismatches)
	}
}

func TestStatAbsentMirror(t *testing.T) {
	info := Stat(filepath.Join(t.TempDir(), "nope.db"))
	if info.Exists {
		t.Error("absent file reported as existing")
	}
}
