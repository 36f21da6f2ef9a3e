// Package cache implements the in-memory record cache at the heart of the
// sync core. Every component reads and writes catalog state through it:
// the UI renders from it, the filter and scoring engines consume snapshots
// of it, optimistic saves mutate it synchronously, and the live-update
// reconciler merges server pushes into it.
//
// All row identifiers are normalized at this boundary (model.NormalizeRowID),
// which removes the string-vs-number key ambiguity of the remote store in one
// place instead of probing both forms at every call site.
package cache

import (
	"sync"

	"github.com/vanderheijden86/showroom/pkg/metrics"
	"github.com/vanderheijden86/showroom/pkg/model"
)

// Store is a mutex-guarded mapping from canonical row identifier to record.
//
// Reads hand out deep copies. No caller ever holds a reference into the
// cache's own maps, so nothing can carry a stale record across a suspension
// point and write it back over newer state.
type Store struct {
	mu      sync.RWMutex
	records map[model.RowID]model.Record
	version uint64
}

// New returns an empty cache.
func New() *Store {
	return &Store{records: make(map[model.RowID]model.Record)}
}

// Load replaces the entire cache contents. Identifiers from a prior load are
// not retained. Input records are copied; the caller keeps ownership of rows.
func (s *Store) Load(rows map[string]model.Record) {
	fresh := make(map[model.RowID]model.Record, len(rows))
	for raw, rec := range rows {
		id := model.NormalizeRowID(raw)
		if id.IsZero() {
			continue
		}
		fresh[id] = rec.Clone()
	}

	s.mu.Lock()
	s.records = fresh
	s.version++
	s.mu.Unlock()
}

// Get returns a copy of the record for the given identifier. The identifier
// may be in numeric or string form; both resolve to the same row.
func (s *Store) Get(rawID string) (model.Record, bool) {
	id := model.NormalizeRowID(rawID)

	s.mu.RLock()
	rec, ok := s.records[id]
	s.mu.RUnlock()

	if !ok {
		metrics.RecordLookup.Miss()
		return nil, false
	}
	metrics.RecordLookup.Hit()
	return rec.Clone(), true
}

// Upsert shallow-merges fields into the record for rawID, creating an empty
// record first if none exists. Re-applying the same fields is a no-op beyond
// the version bump: the operation is idempotent on cache contents.
//
// Upsert never fails; it is the synchronous half of the optimistic save path.
func (s *Store) Upsert(rawID string, fields map[string]string) model.Record {
	id := model.NormalizeRowID(rawID)
	if id.IsZero() {
		return nil
	}

	s.mu.Lock()
	rec, ok := s.records[id]
	if !ok {
		rec = make(model.Record, len(fields))
		s.records[id] = rec
	}
	for k, v := range fields {
		rec[k] = v
	}
	out := rec.Clone()
	s.version++
	s.mu.Unlock()

	return out
}

// Snapshot returns a deep copy of the full cache contents. Filter and
// scoring passes iterate the snapshot so a concurrent upsert cannot change
// the set mid-evaluation.
func (s *Store) Snapshot() map[model.RowID]model.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[model.RowID]model.Record, len(s.records))
	for id, rec := range s.records {
		out[id] = rec.Clone()
	}
	return out
}

// IDs returns the canonical identifiers of every cached record.
func (s *Store) IDs() []model.RowID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.RowID, 0, len(s.records))
	for id := range s.records {
		out = append(out, id)
	}
	return out
}

// Len returns the number of cached records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Version returns a counter that increments on every mutation. The UI polls
// it to decide whether a visible-set rebuild is needed.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}
