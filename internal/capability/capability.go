// Package capability defines what happens on each session event.  Each
// Capability covers one observable behaviour (greet the peer, log the
// data, log the teardown) and Chain composes them, the way an event
// emitter lets several listeners subscribe to the same event.
package capability

import (
	"greetlog/internal/session"
)

// Capability is a session.Handler.  The alias keeps call sites in this
// package readable.
type Capability = session.Handler

// Nop implements every callback as a no-op.  Embed it to handle only
// the events you care about.
type Nop struct{}

func (Nop) OnEstablish(*session.Session) error { return nil }
func (Nop) OnData(*session.Session, []byte)     {}
func (Nop) OnEnd(*session.Session)              {}
func (Nop) OnError(*session.Session, error)     {}

// Chain fans each event out to its members in order.  OnEstablish stops
// at the first error, which the session then treats as terminal.
type Chain []Capability

func (c Chain) OnEstablish(s *session.Session) error {
	for _, h := range c {
		if err := h.OnEstablish(s); err != nil {
			return err
		}
	}
	return nil
}

func (c Chain) OnData(s *session.Session, chunk []byte) {
	for _, h := range c {
		h.OnData(s, chunk)
	}
}

func (c Chain) OnEnd(s *session.Session) {
	for _, h := range c {
		h.OnEnd(s)
	}
}

func (c Chain) OnError(s *session.Session, err error) {
	for _, h := range c {
		h.OnError(s, err)
	}
}
