package datasource

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/showroom/pkg/metrics"
	"github.com/vanderheijden86/showroom/pkg/model"
)

// Mirror is the local SQLite store: catalog row snapshots keyed by
// collection, plus the save-queue journal tables.
type Mirror struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS snapshot_rows (
	collection TEXT NOT NULL,
	row_id     TEXT NOT NULL,
	fields     TEXT NOT NULL,
	saved_at   TIMESTAMP NOT NULL,
	PRIMARY KEY (collection, row_id)
);
CREATE TABLE IF NOT EXISTS save_journal (
	journal_id  INTEGER PRIMARY KEY,
	task_id     INTEGER NOT NULL,
	collection  TEXT NOT NULL,
	row_id      TEXT NOT NULL,
	fields      TEXT NOT NULL,
	enqueued_at TIMESTAMP NOT NULL,
	state       TEXT NOT NULL DEFAULT 'pending',
	reason      TEXT
);
CREATE INDEX IF NOT EXISTS idx_journal_state ON save_journal(state);
CREATE INDEX IF NOT EXISTS idx_journal_task ON save_journal(collection, task_id);
`

// Open opens or creates the mirror database at path.
func Open(path string) (*Mirror, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open mirror database: %w", err)
	}

	pragmas := []string{
		"PRAGMA cache_size = -16000",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		_, _ = db.Exec(pragma)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing mirror schema: %w", err)
	}
	return &Mirror{db: db, path: path}, nil
}

// Path returns the database file path.
func (m *Mirror) Path() string {
	return m.path
}

// Close closes the database connection.
func (m *Mirror) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

// SaveRows replaces the snapshot of one collection with the given rows.
// Field maps are stored as JSON blobs; the snapshot is a cache, not a
// queryable store.
func (m *Mirror) SaveRows(coll model.Collection, rows map[string]model.Record) error {
	defer metrics.Timer(metrics.SnapshotWrite)()

	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning snapshot write: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM snapshot_rows WHERE collection = ?`, coll.String()); err != nil {
		return fmt.Errorf("clearing %s snapshot: %w", coll, err)
	}

	stmt, err := tx.Prepare(`INSERT INTO snapshot_rows (collection, row_id, fields, saved_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing snapshot insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for rawID, rec := range rows {
		id := model.NormalizeRowID(rawID)
		if id.IsZero() {
			continue
		}
		blob, err := json.Marshal(map[string]string(rec))
		if err != nil {
			return fmt.Errorf("encoding row %s: %w", id, err)
		}
		if _, err := stmt.Exec(coll.String(), id.String(), string(blob), now); err != nil {
			return fmt.Errorf("writing row %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing %s snapshot: %w", coll, err)
	}
	return nil
}

// LoadRows reads the snapshot of one collection. An empty map with no error
// means no snapshot exists yet.
func (m *Mirror) LoadRows(coll model.Collection) (map[string]model.Record, error) {
	rows, err := m.db.Query(`SELECT row_id, fields FROM snapshot_rows WHERE collection = ?`, coll.String())
	if err != nil {
		return nil, fmt.Errorf("reading %s snapshot: %w", coll, err)
	}
	defer rows.Close()

	out := make(map[string]model.Record)
	for rows.Next() {
		var id, blob string
		if err := rows.Scan(&id, &blob); err != nil {
			continue
		}
		var fields map[string]string
		if err := json.Unmarshal([]byte(blob), &fields); err != nil {
			continue
		}
		out[id] = model.Record(fields)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s snapshot: %w", coll, err)
	}
	return out, nil
}

// LastSaved returns the most recent snapshot write time for a collection,
// or the zero time when no snapshot exists.
func (m *Mirror) LastSaved(coll model.Collection) (time.Time, error) {
	var saved sql.NullTime
	err := m.db.QueryRow(`SELECT MAX(saved_at) FROM snapshot_rows WHERE collection = ?`, coll.String()).Scan(&saved)
	if err != nil {
		return time.Time{}, err
	}
	if !saved.Valid {
		return time.Time{}, nil
	}
	return saved.Time, nil
}

// CountRows returns the number of snapshot rows for a collection.
func (m *Mirror) CountRows(coll model.Collection) (int, error) {
	var count int
	err := m.db.QueryRow(`SELECT COUNT(*) FROM snapshot_rows WHERE collection = ?`, coll.String()).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
