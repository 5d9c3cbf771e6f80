package core

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"greetlog/internal/capability"
	gerrors "greetlog/internal/errors"
	"greetlog/internal/metrics"
	"greetlog/internal/retry"
	"greetlog/internal/session"
	"greetlog/internal/transport"
	"greetlog/util"
)

// ListenMode binds a listener and runs one Session per accepted
// connection.  Sessions are independent of each other and of the
// listener: Stop closes the socket but leaves live sessions running.
type ListenMode struct {
	Address string // host:port
	Binder  transport.Binder
	Handler capability.Capability
	Logger  *util.Logger
	Metrics *metrics.Collector
	Decoder *util.TextDecoder

	IdleTimeout      time.Duration
	HandshakeTimeout time.Duration

	// Backoff paces retries of temporary accept errors.  Nil uses
	// retry.DefaultBackoff.
	Backoff *retry.Backoff

	mu      sync.Mutex
	ln      net.Listener
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// Start binds the listener and begins accepting in the background.  A
// bind failure is returned as *errors.BindError and nothing is logged.
func (m *ListenMode) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ln != nil {
		return gerrors.ErrAlreadyStarted
	}
	if m.Binder == nil {
		m.Binder = &transport.TCPBinder{}
	}
	if m.Logger == nil {
		m.Logger = util.NewLogger(int(util.LogNormal))
	}

	ln, err := m.Binder.Listen(ctx, m.Address)
	if err != nil {
		return gerrors.Bind(m.Binder.Name(), m.Address, err)
	}
	m.logListening(ln.Addr())

	loopCtx, cancel := context.WithCancel(context.Background())
	m.ln = ln
	m.stopped = false
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.acceptLoop(loopCtx, ln, m.done)
	return nil
}

// Stop closes the listening socket and waits for the accept loop to
// exit.  In-flight sessions are not touched.  Stopping again returns
// ErrListenerClosed; stopping a listener never started returns
// ErrNotStarted.
func (m *ListenMode) Stop() error {
	m.mu.Lock()
	ln, cancel, done, stopped := m.ln, m.cancel, m.done, m.stopped
	m.ln = nil
	if ln != nil {
		m.stopped = true
	}
	m.mu.Unlock()

	if ln == nil {
		if stopped {
			return gerrors.ErrListenerClosed
		}
		return gerrors.ErrNotStarted
	}
	cancel()
	err := ln.Close()
	<-done
	if err != nil && !gerrors.IsClosed(err) {
		return err
	}
	return nil
}

// Addr returns the bound address, or nil before Start.
func (m *ListenMode) Addr() net.Addr {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ln == nil {
		return nil
	}
	return m.ln.Addr()
}

// Run starts the listener and blocks until ctx is cancelled.
func (m *ListenMode) Run(ctx context.Context) error {
	if err := m.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()

	m.Logger.Verbose("shutting down listener on %s", m.Address)
	err := m.Stop()
	if m.Metrics != nil {
		m.Logger.Verbose("metrics: %s", m.Metrics.JSON())
	}
	return err
}

// ── accept loop ──────────────────────────────────────────────────────

func (m *ListenMode) acceptLoop(ctx context.Context, ln net.Listener, done chan struct{}) {
	defer close(done)

	bo := retry.DefaultBackoff()
	if m.Backoff != nil {
		copied := *m.Backoff
		bo = &copied
	}
	bo.OnRetry = func(attempt int, err error, wait time.Duration) {
		m.Logger.Warn("accept: %v (retry %d in %v)", err, attempt, wait.Round(time.Millisecond))
	}

	for {
		var conn net.Conn
		err := bo.Do(ctx, func(int) error {
			c, err := ln.Accept()
			switch {
			case err == nil:
				conn = c
				return nil
			case gerrors.IsClosed(err):
				return retry.Permanent(fmt.Errorf("%w: %v", gerrors.ErrListenerClosed, err))
			case !gerrors.IsTemporary(err):
				return retry.Permanent(err)
			}
			return err
		})
		if err != nil {
			if ctx.Err() == nil && !gerrors.Is(err, gerrors.ErrListenerClosed) {
				m.Metrics.ListenerFailed(gerrors.Connection("accept", m.Address, err))
				m.Logger.Error("accept: %v", err)
			}
			return
		}

		m.Logger.Debug("accepted %s", conn.RemoteAddr())
		// One goroutine per session; the loop never waits on a peer.
		go m.serve(conn)
	}
}

func (m *ListenMode) serve(conn net.Conn) {
	session.New(conn, session.Options{
		Handler:          m.Handler,
		Logger:           m.Logger,
		Metrics:          m.Metrics,
		Decoder:          m.Decoder,
		IdleTimeout:      m.IdleTimeout,
		HandshakeTimeout: m.HandshakeTimeout,
	}).Serve()
}

func (m *ListenMode) logListening(addr net.Addr) {
	host, port, err := util.SplitAddr(addr)
	if err != nil {
		m.Logger.Info("listening on %s", addr)
		return
	}
	if m.Binder.Name() == "tls" {
		m.Logger.Info("I'm listening at %s, on port %d", host, port)
		return
	}
	m.Logger.Info("Server listening for connection requests on socket localhost:%d", port)
}
