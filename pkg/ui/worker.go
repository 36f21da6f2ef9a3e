package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/showroom/pkg/debug"
	"github.com/vanderheijden86/showroom/pkg/engine"
	"github.com/vanderheijden86/showroom/pkg/queue"
	"github.com/vanderheijden86/showroom/pkg/reconcile"
	"github.com/vanderheijden86/showroom/pkg/watcher"
)

// Messages the worker forwards into the Bubble Tea loop.

// QueueEventMsg wraps a save-queue event.
type QueueEventMsg struct{ Event queue.Event }

// NoticeMsg wraps a live-update notice.
type NoticeMsg struct{ Notice reconcile.Notice }

// MirrorChangedMsg reports that another process rewrote the local mirror.
type MirrorChangedMsg struct{}

// WorkerDoneMsg is sent when the worker's channels have all closed.
type WorkerDoneMsg struct{}

// Worker forwards the engine's background streams into a single tea.Msg
// channel so the UI loop stays single-threaded. The watcher is optional.
type Worker struct {
	eng     *engine.Engine
	watcher *watcher.Watcher

	msgs chan tea.Msg
	done chan struct{}
	once sync.Once
}

// NewWorker creates a worker for an engine. Pass a nil watcher when no
// mirror file is being watched.
func NewWorker(eng *engine.Engine, w *watcher.Watcher) *Worker {
	return &Worker{
		eng:     eng,
		watcher: w,
		msgs:    make(chan tea.Msg, 64),
		done:    make(chan struct{}),
	}
}

// Start begins forwarding. Safe to call once.
func (w *Worker) Start() {
	go w.forward()
}

// Stop terminates forwarding.
func (w *Worker) Stop() {
	w.once.Do(func() { close(w.done) })
}

// Messages returns the forwarded message stream.
func (w *Worker) Messages() <-chan tea.Msg { return w.msgs }

func (w *Worker) forward() {
	queueEvents := w.eng.QueueEvents()
	notices := w.eng.Notices()

	var mirrorChanged <-chan struct{}
	if w.watcher != nil {
		mirrorChanged = w.watcher.Changed()
	}

	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-queueEvents:
			if !ok {
				queueEvents = nil
				break
			}
			w.send(QueueEventMsg{Event: ev})
		case n, ok := <-notices:
			if !ok {
				notices = nil
				break
			}
			w.send(NoticeMsg{Notice: n})
		case _, ok := <-mirrorChanged:
			if !ok {
				mirrorChanged = nil
				break
			}
			w.send(MirrorChangedMsg{})
		}

		if queueEvents == nil && notices == nil && mirrorChanged == nil {
			debug.Log("ui: worker channels closed, stopping")
			w.send(WorkerDoneMsg{})
			return
		}
	}
}

// send drops messages rather than blocking; the UI reads in a tight loop
// and a full buffer means it is already behind on repaints anyway.
func (w *Worker) send(msg tea.Msg) {
	select {
	case w.msgs <- msg:
	case <-w.done:
	default:
		debug.Log("ui: worker message dropped (buffer full)")
	}
}

// WaitForMessage is a tea.Cmd that delivers the next worker message. The
// model re-issues it after handling each message.
func WaitForMessage(w *Worker) tea.Cmd {
	return func() tea.Msg {
		select {
		case msg, ok := <-w.msgs:
			if !ok {
				return WorkerDoneMsg{}
			}
			return msg
		case <-w.done:
			return WorkerDoneMsg{}
		}
	}
}
