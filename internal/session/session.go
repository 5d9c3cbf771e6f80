// Package session represents a single connection lifecycle.
//
// A Session owns one accepted connection.  Transport events (establish,
// data, end, error) are fed to Dispatch, which hands them to a Handler in
// arrival order and stops delivering anything once a terminal event has
// been seen.  Serve drives Dispatch from a blocking read loop.
package session

import (
	"context"
	"crypto/tls"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	gerrors "greetlog/internal/errors"
	"greetlog/internal/metrics"
	"greetlog/util"
)

// State is the lifecycle state of a Session.
type State int32

const (
	StateOpen State = iota
	StateClosed
)

func (s State) String() string {
	if s == StateClosed {
		return "closed"
	}
	return "open"
}

// Handler reacts to session events.  OnData's chunk aliases the read
// buffer and is only valid for the duration of the call.
type Handler interface {
	OnEstablish(s *Session) error
	OnData(s *Session, chunk []byte)
	OnEnd(s *Session)
	OnError(s *Session, err error)
}

// Options configures a Session.
type Options struct {
	Handler Handler
	Logger  *util.Logger
	Metrics *metrics.Collector
	Decoder *util.TextDecoder

	// IdleTimeout closes the session with an error when no data arrives
	// for this long.  Zero disables it.
	IdleTimeout time.Duration

	// HandshakeTimeout bounds the TLS handshake.  Zero means no limit.
	HandshakeTimeout time.Duration
}

// Session encapsulates the runtime context for a single connection.
type Session struct {
	ID      string
	Conn    net.Conn
	Logger  *util.Logger
	Metrics *metrics.Collector

	handler          Handler
	decoder          *util.TextDecoder
	idleTimeout      time.Duration
	handshakeTimeout time.Duration
	remote           string

	mu          sync.Mutex // serialises Dispatch
	state       atomic.Int32
	established bool

	// dispatching is set while a handler callback runs.  A Close issued
	// meanwhile only sets closePending; Dispatch delivers the End once
	// the callback returns.
	dispatching  atomic.Bool
	closePending atomic.Bool

	greeting atomic.Bool // a Greet call has claimed the greeting
	greeted  atomic.Bool // the greeting was written
}

// New creates a Session bound to conn.  The session takes ownership of
// the connection and closes it on its terminal event.
func New(conn net.Conn, opts Options) *Session {
	id := uuid.NewString()
	remote := "unknown"
	if addr := conn.RemoteAddr(); addr != nil {
		remote = addr.String()
	}

	logger := opts.Logger
	if logger == nil {
		logger = util.NewLogger(int(util.LogNormal))
	}
	decoder := opts.Decoder
	if decoder == nil {
		decoder, _ = util.NewTextDecoder(util.DefaultEncoding)
	}

	s := &Session{
		ID:               id,
		Conn:             conn,
		Logger:           logger.With("session", id[:8]).With("remote", remote),
		Metrics:          opts.Metrics,
		handler:          opts.Handler,
		decoder:          decoder,
		idleTimeout:      opts.IdleTimeout,
		handshakeTimeout: opts.HandshakeTimeout,
		remote:           remote,
	}
	s.Metrics.SessionOpened()
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State { return State(s.state.Load()) }

// Remote returns the peer address as text.
func (s *Session) Remote() string { return s.remote }

// Greeted reports whether Greet has written its message.
func (s *Session) Greeted() bool { return s.greeted.Load() }

// Decode renders a data chunk as text with the session's encoding.
func (s *Session) Decode(chunk []byte) string { return s.decoder.Decode(chunk) }

// Dispatch delivers ev to the handler.  It returns false, doing nothing,
// when the session is already closed or ev is a repeated establish.
func (s *Session) Dispatch(ev Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() == StateClosed {
		return false
	}

	if ev.Kind == EventEstablish {
		if s.established {
			return false
		}
		s.established = true
	}

	s.dispatching.Store(true)
	switch ev.Kind {
	case EventEstablish:
		if s.handler != nil {
			if err := s.handler.OnEstablish(s); err != nil {
				s.terminate(Fault(err))
			}
		}
	case EventData:
		s.Metrics.ChunkReceived(len(ev.Data))
		if s.handler != nil {
			s.handler.OnData(s, ev.Data)
		}
	case EventEnd, EventError:
		s.terminate(ev)
	}
	s.dispatching.Store(false)

	// A Close that saw dispatching set left its end for us.  terminate
	// marks the session closed before its callbacks run, so a Close from
	// OnEnd or OnError returns without dispatching.
	if s.closePending.Swap(false) && s.State() != StateClosed {
		s.terminate(End())
	}
	return true
}

// terminate runs the terminal handler and releases the connection.
// Callers hold s.mu.
func (s *Session) terminate(ev Event) {
	s.state.Store(int32(StateClosed))

	if s.handler != nil {
		if ev.Kind == EventError {
			s.handler.OnError(s, ev.Err)
		} else {
			s.handler.OnEnd(s)
		}
	}
	s.Conn.Close() //nolint:errcheck

	if ev.Kind == EventError {
		s.Metrics.SessionFailed(ev.Err)
	} else {
		s.Metrics.SessionEnded()
	}
}

// Close ends the session from the local side.  It is reported to the
// handler as a normal end of stream.  Called from inside a handler
// callback it returns at once and the end is delivered when the
// callback returns.
func (s *Session) Close() error {
	if s.State() == StateClosed {
		return gerrors.ErrSessionClosed
	}
	s.closePending.Store(true)
	if s.dispatching.Load() {
		return nil
	}
	if !s.Dispatch(End()) && s.closePending.Swap(false) {
		return gerrors.ErrSessionClosed
	}
	return nil
}

// Greet writes msg to the peer the first time it is called and is a
// no-op afterwards, even when that first write failed.
func (s *Session) Greet(msg string) error {
	if !s.greeting.CompareAndSwap(false, true) {
		return nil
	}
	if _, err := s.Write([]byte(msg)); err != nil {
		return err
	}
	s.greeted.Store(true)
	s.Metrics.GreetingSent()
	return nil
}

// Write sends p to the peer.
func (s *Session) Write(p []byte) (int, error) {
	n, err := s.Conn.Write(p)
	s.Metrics.BytesSent(n)
	if err != nil {
		return n, gerrors.Connection("write", s.remote, err)
	}
	return n, nil
}

// Serve runs the session until its terminal event: TLS handshake (for
// TLS connections), establish, then one data event per read.  It blocks,
// so callers run it in its own goroutine.
func (s *Session) Serve() {
	if tc, ok := s.Conn.(*tls.Conn); ok {
		if err := s.handshake(tc); err != nil {
			s.Dispatch(Fault(gerrors.Connection("handshake", s.remote, err)))
			return
		}
	}

	s.Dispatch(Establish())
	if s.State() == StateClosed {
		return
	}

	buf := util.GetBuf()
	defer util.PutBuf(buf)

	for {
		if s.idleTimeout > 0 {
			s.Conn.SetReadDeadline(time.Now().Add(s.idleTimeout)) //nolint:errcheck
		}

		n, err := s.Conn.Read(*buf)
		if n > 0 {
			if !s.Dispatch(Data((*buf)[:n])) {
				return
			}
		}
		if err != nil {
			if gerrors.IsClosed(err) {
				s.Dispatch(End())
			} else {
				s.Dispatch(Fault(gerrors.Connection("read", s.remote, err)))
			}
			return
		}
	}
}

func (s *Session) handshake(tc *tls.Conn) error {
	ctx := context.Background()
	if s.handshakeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.handshakeTimeout)
		defer cancel()
	}
	if err := tc.HandshakeContext(ctx); err != nil {
		return err
	}

	s.Metrics.HandshakeCompleted()

	st := tc.ConnectionState()
	s.Logger.Verbose("TLS handshake complete: %s, %s, server name %q",
		tls.VersionName(st.Version), tls.CipherSuiteName(st.CipherSuite), st.ServerName)
	if len(st.PeerCertificates) > 0 {
		s.Logger.Verbose("peer certificate subject %q", st.PeerCertificates[0].Subject.String())
	}
	return nil
}
