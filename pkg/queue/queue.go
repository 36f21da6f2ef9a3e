// Package queue implements the background save queue behind optimistic
// edits. A save mutates the record cache synchronously and enqueues an
// immutable SaveTask here; a single drain loop pushes tasks to the remote
// store in strict FIFO order, one at a time, with a pacing delay between
// writes so the slow sheet mirror is never hammered.
//
// Failure policy: a failed write is reported and skipped, never retried and
// never re-enqueued. The optimistic local value stays the user-visible truth
// (the user already saw a success indicator); the failure surfaces as a
// low-urgency warning event instead. No task is ever dropped silently.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/vanderheijden86/showroom/pkg/debug"
	"github.com/vanderheijden86/showroom/pkg/metrics"
	"github.com/vanderheijden86/showroom/pkg/model"
)

// Defaults, overridable via Options.
const (
	DefaultPacing       = 350 * time.Millisecond
	DefaultWriteTimeout = 30 * time.Second
)

// Writer is the remote effect of a SaveTask. Implementations must tolerate
// repeated calls with the same payload: the queue guarantees at-least-once,
// order-preserving delivery per row, nothing stronger.
type Writer interface {
	WriteFields(ctx context.Context, rowID model.RowID, fields map[string]string) error
}

// Journal durably records queue activity so pending writes survive a
// restart. Implementations must be safe for use from the drain goroutine.
type Journal interface {
	Append(task SaveTask) error
	MarkDone(taskID uint64) error
	MarkFailed(taskID uint64, reason string) error
}

// SaveTask is one unit of deferred remote write work. Immutable once
// enqueued; later edits to the same row become new, independent tasks that
// drain in enqueue order rather than being merged.
type SaveTask struct {
	TaskID     uint64
	RowID      model.RowID
	Fields     map[string]string
	EnqueuedAt time.Time
}

// EventKind classifies queue events.
type EventKind int

const (
	// EventTaskDone means a task reached the remote store.
	EventTaskDone EventKind = iota
	// EventTaskFailed means a write failed and will not be retried.
	EventTaskFailed
	// EventIdle means the drain loop emptied the queue and parked.
	EventIdle
)

// Event is emitted after each drain step for the UI's save indicator.
type Event struct {
	Kind      EventKind
	Task      SaveTask
	Err       error
	Remaining int
}

// Option configures a Queue.
type Option func(*Queue)

// WithPacing sets the inter-task delay between drains.
func WithPacing(d time.Duration) Option {
	return func(q *Queue) { q.pacing = d }
}

// WithWriteTimeout bounds each remote write.
func WithWriteTimeout(d time.Duration) Option {
	return func(q *Queue) { q.writeTimeout = d }
}

// WithJournal attaches a durable journal.
func WithJournal(j Journal) Option {
	return func(q *Queue) { q.journal = j }
}

// WithEventBuffer sets the event channel buffer size.
func WithEventBuffer(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.events = make(chan Event, n)
		}
	}
}

// Queue drains save tasks sequentially against a Writer.
type Queue struct {
	writer       Writer
	pacing       time.Duration
	writeTimeout time.Duration
	journal      Journal
	events       chan Event

	mu       sync.Mutex
	tasks    []SaveTask
	draining bool
	nextID   uint64
	closed   bool

	ctx    context.Context
	cancel context.CancelFunc
	idle   chan struct{} // closed and replaced each time the loop parks
}

// New creates a queue draining into writer. The drain loop starts lazily on
// the first enqueue.
func New(writer Writer, opts ...Option) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		writer:       writer,
		pacing:       DefaultPacing,
		writeTimeout: DefaultWriteTimeout,
		events:       make(chan Event, 16),
		ctx:          ctx,
		cancel:       cancel,
		idle:         make(chan struct{}),
	}
	close(q.idle) // starts idle
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue appends a new task and returns it. Fields are copied; the caller
// may reuse its map. Starts the drain loop if it is parked — exactly one
// loop runs at any time.
func (q *Queue) Enqueue(rowID model.RowID, fields map[string]string) SaveTask {
	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}

	q.mu.Lock()
	q.nextID++
	task := SaveTask{
		TaskID:     q.nextID,
		RowID:      rowID,
		Fields:     copied,
		EnqueuedAt: time.Now(),
	}
	q.tasks = append(q.tasks, task)
	startLoop := !q.draining && !q.closed
	if startLoop {
		q.draining = true
		q.idle = make(chan struct{})
	}
	q.mu.Unlock()

	if q.journal != nil {
		if err := q.journal.Append(task); err != nil {
			debug.Log("queue: journal append failed: %v", err)
		}
	}
	if startLoop {
		go q.drainLoop()
	}
	return task
}

// Depth returns the number of tasks not yet drained.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Events returns the queue's event stream. Slow consumers lose events
// rather than blocking the drain; Depth() is always authoritative.
func (q *Queue) Events() <-chan Event {
	return q.events
}

// Idle returns a channel closed when the drain loop has parked with an
// empty queue. Mostly useful in tests.
func (q *Queue) Idle() <-chan struct{} {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.idle
}

// Close stops the queue. The in-flight write is cancelled; remaining tasks
// stay in the journal for the next session.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cancel()
}

func (q *Queue) drainLoop() {
	for {
		select {
		case <-q.ctx.Done():
			q.park()
			return
		default:
		}

		q.mu.Lock()
		if len(q.tasks) == 0 {
			q.draining = false
			idle := q.idle
			q.mu.Unlock()
			close(idle)
			q.emit(Event{Kind: EventIdle})
			return
		}
		task := q.tasks[0]
		q.tasks = q.tasks[1:]
		remaining := len(q.tasks)
		q.mu.Unlock()

		q.runTask(task, remaining)

		// Pacing between tasks, not after the last one.
		if remaining > 0 {
			select {
			case <-q.ctx.Done():
			case <-time.After(q.pacing):
			}
		}
	}
}

func (q *Queue) runTask(task SaveTask, remaining int) {
	defer metrics.Timer(metrics.QueueDrainTask)()

	ctx, cancel := context.WithTimeout(q.ctx, q.writeTimeout)
	err := q.writer.WriteFields(ctx, task.RowID, task.Fields)
	cancel()

	if err != nil {
		debug.Log("queue: task %d (row %s) failed: %v", task.TaskID, task.RowID, err)
		if q.journal != nil {
			if jerr := q.journal.MarkFailed(task.TaskID, err.Error()); jerr != nil {
				debug.Log("queue: journal mark-failed: %v", jerr)
			}
		}
		q.emit(Event{Kind: EventTaskFailed, Task: task, Err: err, Remaining: remaining})
		return
	}

	if q.journal != nil {
		if jerr := q.journal.MarkDone(task.TaskID); jerr != nil {
			debug.Log("queue: journal mark-done: %v", jerr)
		}
	}
	q.emit(Event{Kind: EventTaskDone, Task: task, Remaining: remaining})
}

// park clears the draining flag on shutdown so Idle() observers unblock.
func (q *Queue) park() {
	q.mu.Lock()
	if q.draining {
		q.draining = false
		close(q.idle)
	}
	q.mu.Unlock()
}

func (q *Queue) emit(ev Event) {
	select {
	case q.events <- ev:
	default:
		debug.Log("queue: dropping event (consumer behind)")
	}
}
