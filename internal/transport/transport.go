// Package transport opens listening sockets.  Transports handle the
// "how" of accepting connections (cleartext TCP or TLS-terminated TCP)
// independent of what happens on each connection, which is the session
// layer's job.
package transport

import (
	"context"
	"net"
)

// Binder opens a listening socket.  Implementations differ only in
// whether accepted connections are wrapped in TLS.
type Binder interface {
	// Listen binds address and returns a listener whose Accept yields
	// ready-to-use connections.
	Listen(ctx context.Context, address string) (net.Listener, error)

	// Name is the transport mode as shown in logs and errors.
	Name() string
}
