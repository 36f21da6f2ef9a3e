// Package reconcile merges server-side changes into the local record cache.
//
// In the normal mode a Reconciler consumes the push channel: each event's
// data is upserted into the cache as-is. Server state wins unconditionally,
// including over a row the user has open for editing; the UI gets a Notice
// so the open session can repaint with the fresher values.
//
// When the push channel is unavailable the tool runs degraded: rows with
// outstanding server-side work are marked stale, and StaleTracker refreshes
// them on demand with a single-flight fetch so repeated navigation onto the
// same row costs one request.
package reconcile

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/vanderheijden86/showroom/pkg/debug"
	"github.com/vanderheijden86/showroom/pkg/metrics"
	"github.com/vanderheijden86/showroom/pkg/model"
	"github.com/vanderheijden86/showroom/pkg/remote"
)

// Upserter is the cache mutation the reconciler needs.
type Upserter interface {
	Upsert(rawID string, fields map[string]string) model.Record
}

// Notice tells the UI that a row changed underneath it.
type Notice struct {
	RowID  model.RowID
	Fields []string
	// OpenSession is true when the changed row was open for editing at the
	// time, so the modal must repaint, not just the list.
	OpenSession bool
}

// Reconciler applies push events to the cache and reports them to the UI.
type Reconciler struct {
	cache Upserter

	mu      sync.Mutex
	openRow model.RowID

	notices chan Notice
}

// New creates a reconciler writing into cache.
func New(cache Upserter) *Reconciler {
	return &Reconciler{
		cache:   cache,
		notices: make(chan Notice, 16),
	}
}

// Notices returns the stream of applied-change notices. Slow consumers miss
// notices; the cache itself is always current.
func (r *Reconciler) Notices() <-chan Notice {
	return r.notices
}

// SetOpenRow records which row the user currently has open for editing.
// Pass the zero RowID when no edit session is open.
func (r *Reconciler) SetOpenRow(id model.RowID) {
	r.mu.Lock()
	r.openRow = id
	r.mu.Unlock()
}

// Run consumes push events until the channel closes or ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context, events <-chan remote.PushEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			r.Apply(ev)
		}
	}
}

// Apply merges one event into the cache. The event's data overwrites the
// local values for the named fields; any optimistic edit to those fields
// loses. The corresponding save task, if one is still queued, will drain
// later and settle the remote side the same way.
func (r *Reconciler) Apply(ev remote.PushEvent) {
	if ev.RowID.IsZero() || len(ev.Data) == 0 {
		return
	}
	defer metrics.Timer(metrics.ReconcileApply)()

	r.cache.Upsert(ev.RowID.String(), ev.Data)

	r.mu.Lock()
	open := r.openRow == ev.RowID
	r.mu.Unlock()
	if open {
		debug.Log("reconcile: row %s changed while open for editing", ev.RowID)
	}

	notice := Notice{RowID: ev.RowID, Fields: ev.Fields, OpenSession: open}
	select {
	case r.notices <- notice:
	default:
		debug.Log("reconcile: dropping notice for row %s (consumer behind)", ev.RowID)
	}
}

// Refresher fetches the current server state of one row.
type Refresher interface {
	LoadOne(ctx context.Context, rowID model.RowID) (model.Record, error)
}

// StaleTracker is the degraded-mode fallback when no push channel exists.
// Rows with pending server-side work are marked stale; the next time the
// user lands on one, Refresh fetches it once and clears the mark.
type StaleTracker struct {
	cache     Upserter
	refresher Refresher

	mu    sync.Mutex
	stale map[model.RowID]struct{}
	group singleflight.Group
}

// NewStaleTracker creates a tracker refreshing through refresher into cache.
func NewStaleTracker(cache Upserter, refresher Refresher) *StaleTracker {
	return &StaleTracker{
		cache:     cache,
		refresher: refresher,
		stale:     make(map[model.RowID]struct{}),
	}
}

// MarkStale flags a row as having pending server-side changes.
func (t *StaleTracker) MarkStale(id model.RowID) {
	if id.IsZero() {
		return
	}
	t.mu.Lock()
	t.stale[id] = struct{}{}
	t.mu.Unlock()
}

// IsStale reports whether a row awaits a refresh.
func (t *StaleTracker) IsStale(id model.RowID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.stale[id]
	return ok
}

// Len returns the number of rows awaiting refresh.
func (t *StaleTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.stale)
}

// Refresh fetches the row if it is stale and merges the result. Concurrent
// calls for the same row share one fetch. A fetch error leaves the stale
// mark in place so a later visit retries.
func (t *StaleTracker) Refresh(ctx context.Context, id model.RowID) error {
	if !t.IsStale(id) {
		return nil
	}

	_, err, _ := t.group.Do(id.String(), func() (any, error) {
		rec, err := t.refresher.LoadOne(ctx, id)
		if err != nil {
			return nil, err
		}
		t.cache.Upsert(id.String(), rec)
		t.mu.Lock()
		delete(t.stale, id)
		t.mu.Unlock()
		return nil, nil
	})
	if err != nil {
		debug.Log("reconcile: deferred refresh of row %s failed: %v", id, err)
	}
	return err
}
