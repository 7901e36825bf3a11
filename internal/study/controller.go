// Package study runs a single review session: it shows due cards one at a
// time, reveals their answers and forwards the user's rating to a Backend.
package study

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	// ErrInvalidTransition is returned when an operation is not allowed in
	// the current phase. The session is left unchanged.
	ErrInvalidTransition = errors.New("study: invalid transition")
	// ErrBusy is returned while a fetch or submit is outstanding.
	ErrBusy = errors.New("study: request in flight")
	// ErrSessionClosed is returned once the session has been exited. A
	// request that completes after Exit gets it too; its result is dropped.
	ErrSessionClosed = errors.New("study: session closed")
)

// FetchError wraps a backend failure while loading or submitting. It ends
// the session; the user has to start a new one to retry.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Backend is the service that selects due cards and records feedback.
type Backend interface {
	// NextDue returns the next card to review, or nil when none is due.
	NextDue(ctx context.Context) (*StudyCard, error)
	SubmitFeedback(ctx context.Context, cmd FeedbackCommand) error
}

// Controller owns the state of one session. Backend calls are made without
// holding the lock; at most one is outstanding at a time.
type Controller struct {
	backend Backend
	log     *slog.Logger

	mu        sync.Mutex
	state     State
	epoch     uint64 // bumped on every transition
	completed int
	total     int
	done      chan struct{}
}

// NewController creates a session over total due cards. Call LoadNext to
// show the first one.
func NewController(backend Backend, total int, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		backend: backend,
		log:     logger,
		state:   Loading{},
		total:   max(total, 0),
		done:    make(chan struct{}),
	}
}

// Done is closed when the session is exited.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Snapshot returns a copy of the current session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		State:      c.state,
		Phase:      c.state.Phase(),
		Ended:      c.state.Phase().Terminal(),
		Completed:  c.completed,
		Total:      c.total,
		Percentage: Percentage(c.completed, c.total),
	}
	if card, ok := currentCard(c.state); ok {
		s.Card = &card
	}
	switch st := c.state.(type) {
	case Revealed, Submitting:
		s.Revealed = true
	case Failed:
		s.Error = st.Message
	}
	return s
}

// LoadNext fetches the first card of the session.
func (c *Controller) LoadNext(ctx context.Context) error {
	c.mu.Lock()
	st, ok := c.state.(Loading)
	switch {
	case !ok:
		err := c.rejectLocked("load next")
		c.mu.Unlock()
		return err
	case st.Pending:
		c.mu.Unlock()
		return ErrBusy
	}
	epoch := c.beginFetchLocked()
	c.mu.Unlock()

	if epoch == 0 {
		return nil
	}
	return c.fetch(ctx, epoch)
}

// Reveal shows the back of the current card.
func (c *Controller) Reveal() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.state.(Reviewing)
	if !ok {
		return c.rejectLocked("reveal")
	}
	c.setLocked(Revealed{Card: st.Card})
	return nil
}

// SubmitFeedback sends rating for the revealed card, counts it as completed
// and loads the next card. The rating is validated before anything is sent.
func (c *Controller) SubmitFeedback(ctx context.Context, rating string) error {
	c.mu.Lock()
	st, ok := c.state.(Revealed)
	if !ok {
		err := c.rejectLocked("submit feedback")
		c.mu.Unlock()
		return err
	}
	cmd, err := Collect(st.Card.ID, rating)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.setLocked(Submitting{Card: st.Card, Rating: cmd.Difficulty})
	epoch := c.epoch
	c.mu.Unlock()

	err = c.backend.SubmitFeedback(ctx, cmd)

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		c.log.Debug("discarding feedback result for closed session", "card", cmd.FlashcardID)
		return ErrSessionClosed
	}
	if err != nil {
		fe := &FetchError{Op: "submit feedback", Err: err}
		c.failLocked(fe)
		c.mu.Unlock()
		return fe
	}
	c.completed++
	c.log.Debug("feedback recorded", "card", cmd.FlashcardID, "rating", cmd.Difficulty,
		"completed", c.completed, "total", c.total)
	epoch = c.beginFetchLocked()
	c.mu.Unlock()

	if epoch == 0 {
		return nil
	}
	return c.fetch(ctx, epoch)
}

// Exit closes the session. It may be called in any phase except Exited; an
// outstanding request is left to finish and its result is ignored.
func (c *Controller) Exit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.state.(Exited); ok {
		return ErrSessionClosed
	}
	c.log.Debug("session exited", "from", c.state.Phase(), "completed", c.completed)
	c.setLocked(Exited{})
	close(c.done)
	return nil
}

// beginFetchLocked moves to a pending Loading state and returns its epoch.
// Once every card is completed it finishes instead and returns 0.
func (c *Controller) beginFetchLocked() uint64 {
	if c.completed >= c.total {
		c.setLocked(Finished{})
		return 0
	}
	c.setLocked(Loading{Pending: true})
	return c.epoch
}

func (c *Controller) fetch(ctx context.Context, epoch uint64) error {
	card, err := c.backend.NextDue(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.epoch != epoch {
		return ErrSessionClosed
	}
	if err != nil {
		fe := &FetchError{Op: "load next card", Err: err}
		c.failLocked(fe)
		return fe
	}
	if card == nil {
		c.setLocked(Finished{})
		return nil
	}
	c.setLocked(Reviewing{Card: *card})
	return nil
}

func (c *Controller) failLocked(fe *FetchError) {
	c.log.Warn("study session failed", "op", fe.Op, "error", fe.Err)
	c.setLocked(Failed{Message: fmt.Sprintf("Could not %s: %v", fe.Op, fe.Err)})
}

func (c *Controller) rejectLocked(op string) error {
	switch st := c.state.(type) {
	case Submitting:
		return ErrBusy
	case Loading:
		if st.Pending {
			return ErrBusy
		}
	case Exited:
		return ErrSessionClosed
	}
	return fmt.Errorf("%w: cannot %s while %s", ErrInvalidTransition, op, c.state.Phase())
}

func (c *Controller) setLocked(s State) {
	c.state = s
	c.epoch++
}
