package datasource

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/showroom/pkg/model"
	"github.com/vanderheijden86/showroom/pkg/queue"
)

// Journal is the durable record of save-queue activity for one collection.
// Pending rows are writes that were enqueued but never confirmed; they are
// re-enqueued at the start of the next session via TakePending.
type Journal struct {
	mirror *Mirror
	coll   model.Collection
}

// NewJournal returns the journal view for one collection.
func (m *Mirror) NewJournal(coll model.Collection) *Journal {
	return &Journal{mirror: m, coll: coll}
}

// Append records a newly enqueued task as pending. Task ids restart at 1
// every session, so each append gets its own journal row; the surrogate
// journal_id key keeps reused ids from touching rows of earlier sessions.
func (j *Journal) Append(task queue.SaveTask) error {
	blob, err := json.Marshal(task.Fields)
	if err != nil {
		return fmt.Errorf("encoding task %d fields: %w", task.TaskID, err)
	}
	_, err = j.mirror.db.Exec(
		`INSERT INTO save_journal (task_id, collection, row_id, fields, enqueued_at, state)
		 VALUES (?, ?, ?, ?, ?, 'pending')`,
		task.TaskID, j.coll.String(), task.RowID.String(), string(blob), task.EnqueuedAt.UTC())
	if err != nil {
		return fmt.Errorf("journaling task %d: %w", task.TaskID, err)
	}
	return nil
}

// MarkDone records that a task reached the remote store.
func (j *Journal) MarkDone(taskID uint64) error {
	_, err := j.mirror.db.Exec(
		`UPDATE save_journal SET state = 'done' WHERE task_id = ? AND collection = ? AND state = 'pending'`,
		taskID, j.coll.String())
	if err != nil {
		return fmt.Errorf("marking task %d done: %w", taskID, err)
	}
	return nil
}

// MarkFailed records a write failure. Failed tasks are terminal; they are
// kept for inspection, never re-enqueued.
func (j *Journal) MarkFailed(taskID uint64, reason string) error {
	_, err := j.mirror.db.Exec(
		`UPDATE save_journal SET state = 'failed', reason = ? WHERE task_id = ? AND collection = ? AND state = 'pending'`,
		reason, taskID, j.coll.String())
	if err != nil {
		return fmt.Errorf("marking task %d failed: %w", taskID, err)
	}
	return nil
}

// TakePending removes and returns the tasks a previous session enqueued but
// never finished, in enqueue order. Callers re-enqueue them; the re-enqueue
// journals them again under fresh identifiers.
func (m *Mirror) TakePending(coll model.Collection) ([]queue.SaveTask, error) {
	rows, err := m.db.Query(
		`SELECT task_id, row_id, fields, enqueued_at FROM save_journal
		 WHERE collection = ? AND state = 'pending' ORDER BY journal_id`,
		coll.String())
	if err != nil {
		return nil, fmt.Errorf("reading pending journal: %w", err)
	}
	defer rows.Close()

	var tasks []queue.SaveTask
	for rows.Next() {
		var task queue.SaveTask
		var rowID, blob string
		var enqueued time.Time
		if err := rows.Scan(&task.TaskID, &rowID, &blob, &enqueued); err != nil {
			continue
		}
		var fields map[string]string
		if err := json.Unmarshal([]byte(blob), &fields); err != nil {
			continue
		}
		task.RowID = model.NormalizeRowID(rowID)
		task.Fields = fields
		task.EnqueuedAt = enqueued
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pending journal: %w", err)
	}

	if len(tasks) > 0 {
		if _, err := m.db.Exec(
			`DELETE FROM save_journal WHERE collection = ? AND state = 'pending'`,
			coll.String()); err != nil {
			return nil, fmt.Errorf("clearing pending journal: %w", err)
		}
	}
	return tasks, nil
}

// PruneFinished deletes done and failed journal rows older than the cutoff.
func (m *Mirror) PruneFinished(cutoff time.Time) error {
	_, err := m.db.Exec(
		`DELETE FROM save_journal WHERE state != 'pending' AND enqueued_at < ?`,
		cutoff.UTC())
	if err != nil {
		return fmt.Errorf("pruning journal: %w", err)
	}
	return nil
}
