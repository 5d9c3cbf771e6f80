package transport

import (
	"context"
	"net"
	"time"
)

// TCPBinder listens for plain TCP connections.
type TCPBinder struct {
	// KeepAlive is the TCP keep-alive period for accepted connections.
	// Zero uses the operating system default; negative disables it.
	KeepAlive time.Duration
}

// Listen binds address over TCP.
func (b *TCPBinder) Listen(ctx context.Context, address string) (net.Listener, error) {
	lc := net.ListenConfig{KeepAlive: b.KeepAlive}
	return lc.Listen(ctx, "tcp", address)
}

// Name returns "tcp".
func (b *TCPBinder) Name() string { return "tcp" }
