// Package verify implements the debounced spec-sheet verification pipeline
// for an open edit session. While the user types a document URL, rapid
// input events collapse into a single delayed verification call; losing
// focus verifies almost immediately. Every scheduled call carries a token,
// and a timer that fires after its token was superseded does nothing, so a
// stale verification can never repaint the badge of a newer edit.
//
// Verification status is an explicit tagged value with a small state
// machine; the UI renders it and does nothing else. Network failures map to
// StatusUnverifiable, deliberately distinct from StatusNoMatch: failing to
// reach the verifier is absence of evidence, not evidence of mismatch.
package verify

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/vanderheijden86/showroom/pkg/debug"
	"github.com/vanderheijden86/showroom/pkg/model"
)

// Status is the verification badge state for one edit session.
type Status int

const (
	StatusIdle Status = iota
	StatusTyping
	StatusValidating
	StatusMatched
	StatusPartialMatch
	StatusNoMatch
	StatusUnverifiable
)

// String returns the badge label.
func (s Status) String() string {
	switch s {
	case StatusTyping:
		return "typing"
	case StatusValidating:
		return "validating"
	case StatusMatched:
		return "matched"
	case StatusPartialMatch:
		return "partial match"
	case StatusNoMatch:
		return "no match"
	case StatusUnverifiable:
		return "could not verify"
	default:
		return "idle"
	}
}

// Terminal reports whether the status is a settled verification outcome.
func (s Status) Terminal() bool {
	switch s {
	case StatusMatched, StatusPartialMatch, StatusNoMatch, StatusUnverifiable:
		return true
	}
	return false
}

// StatusForResult maps a verification outcome onto a badge status.
// Pure; the only place result categories become UI states.
func StatusForResult(cat model.MatchCategory, err error) Status {
	if err != nil {
		return StatusUnverifiable
	}
	switch cat {
	case model.MatchExact:
		return StatusMatched
	case model.MatchPartial:
		return StatusPartialMatch
	case model.MatchNone:
		return StatusNoMatch
	default:
		return StatusUnverifiable
	}
}

// State pairs a status with its display message.
type State struct {
	Status  Status
	Message string
}

// Verifier is the remote verification effect.
type Verifier interface {
	VerifyDocument(ctx context.Context, rowID model.RowID, url string) (model.MatchCategory, error)
}

// Delays, overridable via Options. Typing uses a long delay so a paste
// followed by corrections coalesces; blur verifies near-immediately.
const (
	DefaultTypingDelay    = 900 * time.Millisecond
	DefaultBlurDelay      = 100 * time.Millisecond
	DefaultRequestTimeout = 15 * time.Second
)

// minURLLength filters obviously incomplete input before scheduling.
const minURLLength = 12

// LooksLikeURL reports whether text is plausible enough to verify: a
// recognized scheme and a minimum length.
func LooksLikeURL(text string) bool {
	t := strings.TrimSpace(text)
	if len(t) < minURLLength {
		return false
	}
	return strings.HasPrefix(t, "http://") || strings.HasPrefix(t, "https://")
}

// Option configures a Session.
type Option func(*Session)

// WithTypingDelay sets the debounce delay applied while typing.
func WithTypingDelay(d time.Duration) Option {
	return func(s *Session) { s.typingDelay = d }
}

// WithBlurDelay sets the delay applied on focus loss.
func WithBlurDelay(d time.Duration) Option {
	return func(s *Session) { s.blurDelay = d }
}

// WithRequestTimeout bounds each verification request.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Session) { s.requestTimeout = d }
}

// Session is the verification state machine for one open edit session.
// Safe for concurrent use; timer callbacks run on their own goroutines.
type Session struct {
	verifier       Verifier
	rowID          model.RowID
	typingDelay    time.Duration
	blurDelay      time.Duration
	requestTimeout time.Duration

	mu         sync.Mutex
	token      uint64
	timer      *time.Timer
	inProgress bool
	state      State
	disposed   bool

	ctx     cancelCtx
	updates chan State
}

type cancelCtx struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSession creates a verification session for one row.
func NewSession(verifier Verifier, rowID model.RowID, opts ...Option) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		verifier:       verifier,
		rowID:          rowID,
		typingDelay:    DefaultTypingDelay,
		blurDelay:      DefaultBlurDelay,
		requestTimeout: DefaultRequestTimeout,
		state:          State{Status: StatusIdle},
		ctx:            cancelCtx{ctx: ctx, cancel: cancel},
		updates:        make(chan State, 16),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current verification state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Updates returns the state change stream for the UI. Slow consumers miss
// intermediate states; State() is always current.
func (s *Session) Updates() <-chan State {
	return s.updates
}

// Input handles a keystroke or paste. Any pending timer is cancelled; a new
// verification is scheduled only when the text is URL-shaped.
func (s *Session) Input(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}

	s.cancelTimerLocked()

	if strings.TrimSpace(text) == "" {
		s.setStateLocked(State{Status: StatusIdle})
		return
	}

	s.setStateLocked(State{Status: StatusTyping, Message: "waiting for you to finish typing"})
	if !LooksLikeURL(text) {
		return
	}
	s.scheduleLocked(text, s.typingDelay)
}

// Blur handles focus leaving the field. If nothing is in flight, any
// pending typing timer is superseded by a near-immediate verification.
func (s *Session) Blur(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed || s.inProgress {
		return
	}
	if !LooksLikeURL(text) {
		return
	}

	s.cancelTimerLocked()
	s.scheduleLocked(text, s.blurDelay)
}

// Clear resets the session to neutral: the pending timer is cancelled and
// any in-flight result is orphaned. Reachable from every path that empties
// the field, including full modal reset.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelTimerLocked()
	s.setStateLocked(State{Status: StatusIdle})
}

// Retrigger forces an immediate verification of the given text, bypassing
// the typing delay. Used by the manual "verify now" action.
func (s *Session) Retrigger(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed || !LooksLikeURL(text) {
		return
	}
	s.cancelTimerLocked()
	s.scheduleLocked(text, 0)
}

// Dispose tears the session down. Pending timers never fire afterwards and
// in-flight requests are cancelled.
func (s *Session) Dispose() {
	s.mu.Lock()
	s.disposed = true
	s.cancelTimerLocked()
	s.setStateLocked(State{Status: StatusIdle})
	s.mu.Unlock()
	s.ctx.cancel()
}

// cancelTimerLocked invalidates the current token and stops any pending
// timer. A timer that already fired will notice its stale token and bail.
func (s *Session) cancelTimerLocked() {
	s.token++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) scheduleLocked(text string, delay time.Duration) {
	token := s.token
	s.timer = time.AfterFunc(delay, func() {
		s.fire(token, text)
	})
}

// fire runs one verification request. The token is checked both before the
// request (a stale timer must not start one) and after (a stale result must
// not repaint the badge).
func (s *Session) fire(token uint64, text string) {
	s.mu.Lock()
	if s.disposed || token != s.token {
		s.mu.Unlock()
		return
	}
	s.inProgress = true
	s.setStateLocked(State{Status: StatusValidating, Message: "checking document"})
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(s.ctx.ctx, s.requestTimeout)
	cat, err := s.verifier.VerifyDocument(ctx, s.rowID, strings.TrimSpace(text))
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	// Always cleared, including on error: the session can never be stuck
	// in "validating".
	s.inProgress = false

	if s.disposed || token != s.token {
		debug.Log("verify: dropping stale result for row %s", s.rowID)
		return
	}

	status := StatusForResult(cat, err)
	s.setStateLocked(State{Status: status, Message: messageFor(status)})
}

func messageFor(status Status) string {
	switch status {
	case StatusMatched:
		return "document matches this product's SKU"
	case StatusPartialMatch:
		return "document partially matches; check the model number"
	case StatusNoMatch:
		return "document does not mention this SKU"
	case StatusUnverifiable:
		return "could not verify the document; try again"
	default:
		return ""
	}
}

func (s *Session) setStateLocked(st State) {
	s.state = st
	select {
	case s.updates <- st:
	default:
	}
}
