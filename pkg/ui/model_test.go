package ui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/showroom/pkg/engine"
	"github.com/vanderheijden86/showroom/pkg/fieldmap"
	"github.com/vanderheijden86/showroom/pkg/filter"
	"github.com/vanderheijden86/showroom/pkg/model"
	"github.com/vanderheijden86/showroom/pkg/queue"
	"github.com/vanderheijden86/showroom/pkg/reconcile"
	"github.com/vanderheijden86/showroom/pkg/remote"
)

// fakeBackend implements engine.Backend in memory.
type fakeBackend struct {
	mu      sync.Mutex
	rows    map[string]model.Record
	missing map[string][]string
	writes  []map[string]string
	events  chan remote.PushEvent
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		rows: map[string]model.Record{
			"1": {
				model.FieldSKU:          "SR-sinks-0001",
				model.FieldTitle:        "Belfast Sink",
				model.FieldBrand:        "Shaws",
				model.FieldSpecSheetURL: "https://docs.example.com/1.pdf",
			},
			"2": {
				model.FieldSKU:   "SR-sinks-0002",
				model.FieldTitle: "Butler Sink",
				model.FieldBrand: "Vola",
			},
			"3": {
				model.FieldSKU: "SR-sinks-0003",
			},
		},
		events: make(chan remote.PushEvent),
	}
}

func (f *fakeBackend) LoadAll(ctx context.Context) (map[string]model.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]model.Record, len(f.rows))
	for id, rec := range f.rows {
		out[id] = rec.Clone()
	}
	return out, nil
}

func (f *fakeBackend) MissingInfo(ctx context.Context) (map[string][]string, error) {
	return f.missing, nil
}

func (f *fakeBackend) LoadOne(ctx context.Context, rowID model.RowID) (model.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.rows[rowID.String()]
	if !ok {
		return nil, errors.New("no such row")
	}
	return rec.Clone(), nil
}

func (f *fakeBackend) WriteFields(ctx context.Context, rowID model.RowID, fields map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, fields)
	f.rows[rowID.String()] = f.rows[rowID.String()].Merge(fields)
	return nil
}

func (f *fakeBackend) VerifyDocument(ctx context.Context, rowID model.RowID, url string) (model.MatchCategory, error) {
	return model.MatchExact, nil
}

func (f *fakeBackend) GenerateContent(ctx context.Context, rowID model.RowID, fields []string) error {
	return nil
}

func (f *fakeBackend) Subscribe(ctx context.Context) (<-chan remote.PushEvent, error) {
	return f.events, nil
}

func (f *fakeBackend) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writes)
}

func uiSchema() fieldmap.Schema {
	return fieldmap.Schema{
		Collection: model.CollectionSinks,
		Required:   []string{model.FieldTitle, model.FieldBrand},
		Optional:   []string{model.FieldSpecSheetURL},
		Searchable: []string{model.FieldTitle, model.FieldSKU, model.FieldBrand},
	}
}

func newTestModel(t *testing.T) (Model, *fakeBackend) {
	t.Helper()

	backend := newFakeBackend()
	eng := engine.New(backend, model.CollectionSinks, uiSchema(),
		engine.WithQueueOptions(queue.WithPacing(time.Millisecond)))
	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("engine start: %v", err)
	}

	worker := NewWorker(eng, nil)
	worker.Start()

	t.Cleanup(func() {
		worker.Stop()
		eng.Close()
	})

	m := NewModel(eng, worker, TestTheme())
	m.width, m.height = 100, 30
	m.list.SetSize(100, 26)
	return m, backend
}

func press(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return out
}

func waitForWrites(t *testing.T, backend *fakeBackend, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if backend.writeCount() >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("backend never saw %d writes", n)
}

func TestModelListsCatalog(t *testing.T) {
	m, _ := newTestModel(t)
	if got := len(m.list.Items()); got != 3 {
		t.Fatalf("list has %d items, want 3", got)
	}
}

func TestQuickFilterKeyCycles(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, keyRunes("f"))
	if m.spec.Quick != filter.QuickMissingCritical {
		t.Fatalf("quick = %v after one press", m.spec.Quick)
	}
	// Row 3 has neither title nor brand; row 2 is partial at 80.
	if got := len(m.list.Items()); got != 1 {
		t.Errorf("critical band shows %d rows, want 1", got)
	}

	m = press(t, m, keyRunes("f"))
	if m.spec.Quick != filter.QuickMissingSome {
		t.Errorf("quick = %v after two presses", m.spec.Quick)
	}
}

func TestSearchNarrowsList(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, keyRunes("/"))
	if m.focus != focusSearch {
		t.Fatal("slash did not focus search")
	}
	for _, r := range "belfast" {
		m = press(t, m, keyRunes(string(r)))
	}
	if got := len(m.list.Items()); got != 1 {
		t.Errorf("search shows %d rows, want 1", got)
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.focus != focusList || m.spec.Search != "" {
		t.Error("esc did not clear the search")
	}
	if got := len(m.list.Items()); got != 3 {
		t.Errorf("list shows %d rows after clearing, want 3", got)
	}
}

func TestSpaceTogglesSelection(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if got := m.eng.SelectedCount(); got != 1 {
		t.Fatalf("selected count = %d, want 1", got)
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if got := m.eng.SelectedCount(); got != 0 {
		t.Errorf("selected count after second toggle = %d, want 0", got)
	}
}

func TestBrandFilterFromCursor(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, keyRunes("b"))
	if m.spec.Brand == "" {
		t.Fatal("brand filter not set from cursor row")
	}
	if got := len(m.list.Items()); got != 1 {
		t.Errorf("brand filter shows %d rows, want 1", got)
	}

	m = press(t, m, keyRunes("B"))
	if m.spec.Brand != "" {
		t.Error("brand filter not cleared")
	}
}

func TestEditFlowSavesThroughEngine(t *testing.T) {
	m, backend := newTestModel(t)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.focus != focusEdit || m.editing == nil {
		t.Fatal("enter did not open the edit modal")
	}
	if m.session == nil {
		t.Fatal("no verification session for the open row")
	}

	m = press(t, m, keyRunes("!"))
	if !m.editing.Dirty() {
		t.Fatal("modal not dirty after typing")
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if m.focus != focusList {
		t.Fatal("save did not return to the list")
	}
	if m.session != nil || m.editing != nil {
		t.Error("edit session not torn down after save")
	}

	waitForWrites(t, backend, 1)
}

func TestEditCancelWritesNothing(t *testing.T) {
	m, backend := newTestModel(t)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = press(t, m, keyRunes("!"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	if m.focus != focusList {
		t.Fatal("esc did not close the modal")
	}
	time.Sleep(20 * time.Millisecond)
	if backend.writeCount() != 0 {
		t.Errorf("cancel still produced %d writes", backend.writeCount())
	}
}

func TestQueueEventClearsSavingFlag(t *testing.T) {
	m, _ := newTestModel(t)
	m.saving["1"] = true

	m = press(t, m, QueueEventMsg{Event: queue.Event{
		Kind:      queue.EventTaskDone,
		Task:      queue.SaveTask{RowID: "1"},
		Remaining: 0,
	}})
	if m.saving["1"] {
		t.Error("saving flag not cleared on task done")
	}
	if m.statusMsg != "all changes saved" {
		t.Errorf("status = %q", m.statusMsg)
	}
}

func TestNoticeRepaintsOpenModal(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	id := m.editing.RowID()

	// A push landed on the open row: the cache already carries the new
	// value, and the notice tells the modal to repaint from it.
	m.eng.Save(id, map[string]string{model.FieldTitle: "Fireclay Belfast"})
	m = press(t, m, NoticeMsg{Notice: reconcile.Notice{RowID: id, Fields: []string{model.FieldTitle}, OpenSession: true}})

	if got := m.editing.Values()[model.FieldTitle]; got != "Fireclay Belfast" {
		t.Errorf("modal title = %q after repaint", got)
	}
}

func TestReportViewToggle(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, keyRunes("R"))
	if m.focus != focusReport {
		t.Fatal("R did not open the report view")
	}
	if m.report.Markdown() == "" {
		t.Error("report markdown empty")
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.focus != focusList {
		t.Error("esc did not close the report view")
	}
}

func TestViewRendersHeaderAndStatus(t *testing.T) {
	m, _ := newTestModel(t)
	view := m.View()
	if view == "" {
		t.Fatal("empty view")
	}
}
