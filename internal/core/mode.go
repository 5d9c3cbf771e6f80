// Package core is the orchestration layer.  It composes a transport
// binder and a capability chain into a running listener and provides
// a builder that assembles both from a Config.
//
// Architecture layers (bottom → top):
//
//	transport  →  session  →  capability  →  core  →  cmd (CLI)
package core

import "context"

// Mode represents a complete operational mode of greetlog.  It owns its
// full lifecycle from binding to shutdown.
type Mode interface {
	Run(ctx context.Context) error
}
