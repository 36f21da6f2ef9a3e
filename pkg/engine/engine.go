// Package engine wires the sync core together for one collection: the
// record cache, the background save queue, the filter and scoring passes,
// spec-sheet verification sessions, and the live-update path. The UI talks
// to an Engine and nothing else; every dependency comes in through the
// constructor, so tests assemble engines from fakes.
package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/vanderheijden86/showroom/pkg/cache"
	"github.com/vanderheijden86/showroom/pkg/debug"
	"github.com/vanderheijden86/showroom/pkg/fieldmap"
	"github.com/vanderheijden86/showroom/pkg/filter"
	"github.com/vanderheijden86/showroom/pkg/loader"
	"github.com/vanderheijden86/showroom/pkg/model"
	"github.com/vanderheijden86/showroom/pkg/queue"
	"github.com/vanderheijden86/showroom/pkg/reconcile"
	"github.com/vanderheijden86/showroom/pkg/remote"
	"github.com/vanderheijden86/showroom/pkg/score"
	"github.com/vanderheijden86/showroom/pkg/verify"
)

// Backend is the collection-bound view of the catalog API the engine needs.
// Bind adapts the HTTP client; tests implement it directly.
type Backend interface {
	LoadAll(ctx context.Context) (map[string]model.Record, error)
	MissingInfo(ctx context.Context) (map[string][]string, error)
	LoadOne(ctx context.Context, rowID model.RowID) (model.Record, error)
	WriteFields(ctx context.Context, rowID model.RowID, fields map[string]string) error
	VerifyDocument(ctx context.Context, rowID model.RowID, url string) (model.MatchCategory, error)
	GenerateContent(ctx context.Context, rowID model.RowID, fields []string) error
	Subscribe(ctx context.Context) (<-chan remote.PushEvent, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithMirror attaches the local snapshot mirror used for offline fallback.
func WithMirror(m loader.Mirror) Option {
	return func(e *Engine) { e.mirror = m }
}

// WithJournal attaches the durable save-queue journal.
func WithJournal(j queue.Journal) Option {
	return func(e *Engine) { e.journal = j }
}

// WithPendingTasks re-enqueues saves a previous session left unfinished.
// They drain before anything enqueued this session.
func WithPendingTasks(tasks []queue.SaveTask) Option {
	return func(e *Engine) { e.pending = tasks }
}

// WithQueueOptions forwards extra options to the save queue.
func WithQueueOptions(opts ...queue.Option) Option {
	return func(e *Engine) { e.queueOpts = append(e.queueOpts, opts...) }
}

// WithVerifyOptions forwards options to every verification session.
func WithVerifyOptions(opts ...verify.Option) Option {
	return func(e *Engine) { e.verifyOpts = append(e.verifyOpts, opts...) }
}

// Engine is the sync core for one collection.
type Engine struct {
	coll    model.Collection
	schema  fieldmap.Schema
	backend Backend

	cache      *cache.Store
	queue      *queue.Queue
	filters    *filter.Engine
	reconciler *reconcile.Reconciler
	stale      *reconcile.StaleTracker

	mirror     loader.Mirror
	journal    queue.Journal
	pending    []queue.SaveTask
	queueOpts  []queue.Option
	verifyOpts []verify.Option

	mu           sync.Mutex
	selected     map[model.RowID]bool
	degraded     bool
	fromSnapshot bool
	warnings     []string

	cancel context.CancelFunc
}

// New assembles an engine. Call Start before using it.
func New(backend Backend, coll model.Collection, schema fieldmap.Schema, opts ...Option) *Engine {
	e := &Engine{
		coll:     coll,
		schema:   schema,
		backend:  backend,
		cache:    cache.New(),
		filters:  filter.New(schema),
		selected: make(map[model.RowID]bool),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.reconciler = reconcile.New(e.cache)
	e.stale = reconcile.NewStaleTracker(e.cache, backendRefresher{backend})

	queueOpts := e.queueOpts
	if e.journal != nil {
		queueOpts = append(queueOpts, queue.WithJournal(e.journal))
	}
	e.queue = queue.New(backendWriter{backend}, queueOpts...)
	return e
}

// Start performs the bulk load and brings up the live-update path. When the
// push channel cannot be opened the engine runs degraded: server-side
// changes are fetched on demand instead of pushed.
func (e *Engine) Start(ctx context.Context) error {
	result, err := loader.Load(ctx, loaderRemote{e.backend}, e.mirror, e.coll)
	if err != nil {
		return fmt.Errorf("starting %s engine: %w", e.coll, err)
	}

	e.cache.Load(result.Rows)
	e.filters.SetReport(result.Report)

	e.mu.Lock()
	e.fromSnapshot = result.FromSnapshot
	e.warnings = result.Warnings
	e.mu.Unlock()

	for _, task := range e.pending {
		e.queue.Enqueue(task.RowID, task.Fields)
	}
	if n := len(e.pending); n > 0 {
		debug.Log("engine: re-enqueued %d saves from previous session", n)
		e.pending = nil
	}

	runCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel

	events, err := e.backend.Subscribe(runCtx)
	if err != nil {
		debug.Log("engine: push channel unavailable, running degraded: %v", err)
		e.mu.Lock()
		e.degraded = true
		e.warnings = append(e.warnings, "live updates unavailable; changes refresh on demand")
		e.mu.Unlock()
		return nil
	}
	go e.reconciler.Run(runCtx, events)
	return nil
}

// Close shuts the engine down. Unfinished saves stay in the journal.
func (e *Engine) Close() {
	if e.cancel != nil {
		e.cancel()
	}
	e.queue.Close()
}

// Collection returns the collection this engine serves.
func (e *Engine) Collection() model.Collection { return e.coll }

// Schema returns the collection's field schema.
func (e *Engine) Schema() fieldmap.Schema { return e.schema }

// Degraded reports whether the push channel is down.
func (e *Engine) Degraded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.degraded
}

// FromSnapshot reports whether the current data came from the local mirror.
func (e *Engine) FromSnapshot() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fromSnapshot
}

// Warnings returns startup warnings for the banner.
func (e *Engine) Warnings() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.warnings))
	copy(out, e.warnings)
	return out
}

// Record returns a copy of one record.
func (e *Engine) Record(id model.RowID) (model.Record, bool) {
	return e.cache.Get(id.String())
}

// Len returns the number of cached records.
func (e *Engine) Len() int { return e.cache.Len() }

// Version returns the cache mutation counter. The UI polls it to decide
// when the visible set needs rebuilding.
func (e *Engine) Version() uint64 { return e.cache.Version() }

// Visible evaluates the filter spec against a fresh snapshot and returns
// the passing row identifiers in display order.
func (e *Engine) Visible(spec filter.Spec) []model.RowID {
	e.mu.Lock()
	sel := make(map[model.RowID]bool, len(e.selected))
	for id, on := range e.selected {
		sel[id] = on
	}
	e.mu.Unlock()

	e.filters.SetSelected(sel)
	return e.filters.Visible(e.cache.Snapshot(), spec)
}

// Score computes the quality score of one record.
func (e *Engine) Score(id model.RowID) int {
	rec, ok := e.cache.Get(id.String())
	if !ok {
		return 0
	}
	return score.Compute(rec, e.schema)
}

// Explain returns the full scoring breakdown for the detail pane.
func (e *Engine) Explain(id model.RowID) (score.Breakdown, bool) {
	rec, ok := e.cache.Get(id.String())
	if !ok {
		return score.Breakdown{}, false
	}
	return score.Explain(rec, e.schema), true
}

// Save applies an edit session's field values: the changed fields are
// collected against the current record, upserted into the cache
// synchronously, and enqueued for background write. Returns the collected
// payload; an empty payload means nothing changed and nothing was queued.
func (e *Engine) Save(id model.RowID, edits map[string]string) map[string]string {
	current, _ := e.cache.Get(id.String())
	fields := queue.Collect(e.schema, current, edits)
	if len(fields) == 0 {
		return nil
	}

	e.cache.Upsert(id.String(), fields)
	e.queue.Enqueue(id, fields)
	return fields
}

// QueueDepth returns the number of saves awaiting drain.
func (e *Engine) QueueDepth() int { return e.queue.Depth() }

// QueueEvents returns the save queue's event stream.
func (e *Engine) QueueEvents() <-chan queue.Event { return e.queue.Events() }

// Notices returns the live-update notice stream.
func (e *Engine) Notices() <-chan reconcile.Notice { return e.reconciler.Notices() }

// OpenEdit starts an edit session on a row: the reconciler is told which
// row is open, a stale row is refreshed first in degraded mode, and a
// verification session is created for the spec-sheet field.
func (e *Engine) OpenEdit(ctx context.Context, id model.RowID) *verify.Session {
	if e.Degraded() {
		if err := e.stale.Refresh(ctx, id); err != nil {
			debug.Log("engine: deferred refresh on open failed: %v", err)
		}
	}
	e.reconciler.SetOpenRow(id)
	return verify.NewSession(backendVerifier{e.backend}, id, e.verifyOpts...)
}

// CloseEdit ends an edit session.
func (e *Engine) CloseEdit(session *verify.Session) {
	e.reconciler.SetOpenRow("")
	if session != nil {
		session.Dispose()
	}
}

// Generate requests server-side content generation for a row. The result
// arrives via the push channel; in degraded mode the row is marked stale so
// the next visit refreshes it.
func (e *Engine) Generate(ctx context.Context, id model.RowID, fields []string) error {
	if err := e.backend.GenerateContent(ctx, id, fields); err != nil {
		return err
	}
	if e.Degraded() {
		e.stale.MarkStale(id)
	}
	return nil
}

// StaleCount returns the number of rows awaiting a deferred refresh.
func (e *Engine) StaleCount() int { return e.stale.Len() }

// ToggleSelected flips a row's manual selection and reports the new state.
func (e *Engine) ToggleSelected(id model.RowID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.selected[id] {
		delete(e.selected, id)
		return false
	}
	e.selected[id] = true
	return true
}

// IsSelected reports whether a row is manually selected.
func (e *Engine) IsSelected(id model.RowID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected[id]
}

// SelectedCount returns the number of manually selected rows.
func (e *Engine) SelectedCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.selected)
}

// ClearSelection drops all manual selections.
func (e *Engine) ClearSelection() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selected = make(map[model.RowID]bool)
}

// Snapshot returns a deep copy of all records, for exports.
func (e *Engine) Snapshot() map[model.RowID]model.Record {
	return e.cache.Snapshot()
}

// Adapters binding the Backend to the narrow interfaces of the core
// packages.

type loaderRemote struct{ b Backend }

func (l loaderRemote) LoadAll(ctx context.Context, _ model.Collection) (map[string]model.Record, error) {
	return l.b.LoadAll(ctx)
}

func (l loaderRemote) MissingInfo(ctx context.Context, _ model.Collection) (map[string][]string, error) {
	return l.b.MissingInfo(ctx)
}

type backendWriter struct{ b Backend }

func (w backendWriter) WriteFields(ctx context.Context, rowID model.RowID, fields map[string]string) error {
	return w.b.WriteFields(ctx, rowID, fields)
}

type backendVerifier struct{ b Backend }

func (v backendVerifier) VerifyDocument(ctx context.Context, rowID model.RowID, url string) (model.MatchCategory, error) {
	return v.b.VerifyDocument(ctx, rowID, url)
}

type backendRefresher struct{ b Backend }

func (r backendRefresher) LoadOne(ctx context.Context, rowID model.RowID) (model.Record, error) {
	return r.b.LoadOne(ctx, rowID)
}
