// Package dialog implements the single confirmation/alert slot shared by a
// page. At most one dialog is open at a time; opening another while one is
// pending fails with ErrBusy.
package dialog

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

type Kind string

const (
	KindConfirm Kind = "confirm"
	KindAlert   Kind = "alert"
)

type Outcome int

const (
	Dismissed Outcome = iota
	Accepted
)

func (o Outcome) String() string {
	if o == Accepted {
		return "accepted"
	}
	return "dismissed"
}

var (
	ErrBusy   = errors.New("another dialog is already open")
	ErrNoOpen = errors.New("no dialog is open")
)

// Dialogs is what page controllers use to ask the viewer something. Both
// calls block until the viewer answers or ctx ends.
type Dialogs interface {
	Confirm(ctx context.Context, title, body string) (Outcome, error)
	Alert(ctx context.Context, title, body string) error
}

type Session struct {
	ID    string
	Kind  Kind
	Title string
	Body  string

	slot    *Slot
	once    sync.Once
	done    chan struct{}
	outcome Outcome
}

// Wait blocks until the session resolves. If ctx ends first the session is
// dismissed and the slot released.
func (s *Session) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-s.done:
		return s.outcome, nil
	case <-ctx.Done():
		s.slot.resolve(s, Dismissed)
		<-s.done
		return s.outcome, ctx.Err()
	}
}

func (s *Session) Resolved() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

type Slot struct {
	mu      sync.Mutex
	current *Session

	listenersMu sync.Mutex
	onOpen      []func(*Session)
	onClose     []func(*Session, Outcome)
}

func NewSlot() *Slot {
	return &Slot{}
}

// OnOpen registers fn to run whenever a dialog opens. Listeners run on the
// goroutine that opened the dialog, outside the slot lock.
func (s *Slot) OnOpen(fn func(*Session)) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.onOpen = append(s.onOpen, fn)
}

func (s *Slot) OnClose(fn func(*Session, Outcome)) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.onClose = append(s.onClose, fn)
}

func (s *Slot) Open(kind Kind, title, body string) (*Session, error) {
	s.mu.Lock()
	if s.current != nil {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	sess := &Session{
		ID:    uuid.NewString(),
		Kind:  kind,
		Title: title,
		Body:  body,
		slot:  s,
		done:  make(chan struct{}),
	}
	s.current = sess
	s.mu.Unlock()

	s.listenersMu.Lock()
	listeners := append([]func(*Session){}, s.onOpen...)
	s.listenersMu.Unlock()
	for _, fn := range listeners {
		fn(sess)
	}

	return sess, nil
}

func (s *Slot) Current() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Slot) Busy() bool {
	return s.Current() != nil
}

func (s *Slot) Accept() error {
	return s.answer(Accepted)
}

func (s *Slot) Dismiss() error {
	return s.answer(Dismissed)
}

func (s *Slot) answer(outcome Outcome) error {
	sess := s.Current()
	if sess == nil {
		return ErrNoOpen
	}
	s.resolve(sess, outcome)
	return nil
}

// resolve settles sess exactly once. Close listeners run while sess still
// holds the slot and before its waiter wakes, so they observe the close
// before anything that follows it.
func (s *Slot) resolve(sess *Session, outcome Outcome) {
	sess.once.Do(func() {
		sess.outcome = outcome

		s.listenersMu.Lock()
		listeners := append([]func(*Session, Outcome){}, s.onClose...)
		s.listenersMu.Unlock()
		for _, fn := range listeners {
			fn(sess, outcome)
		}

		s.mu.Lock()
		if s.current == sess {
			s.current = nil
		}
		s.mu.Unlock()
		close(sess.done)
	})
}

func (s *Slot) Confirm(ctx context.Context, title, body string) (Outcome, error) {
	sess, err := s.Open(KindConfirm, title, body)
	if err != nil {
		return Dismissed, err
	}
	return sess.Wait(ctx)
}

// Alert returns once the viewer has closed the alert, however they closed it.
func (s *Slot) Alert(ctx context.Context, title, body string) error {
	sess, err := s.Open(KindAlert, title, body)
	if err != nil {
		return err
	}
	_, err = sess.Wait(ctx)
	return err
}

// Close dismisses whatever is open. Used when the page goes away.
func (s *Slot) Close() {
	if sess := s.Current(); sess != nil {
		s.resolve(sess, Dismissed)
	}
}
