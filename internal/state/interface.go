package state

import "io"

// Store persists session checkpoints keyed by session id. Implementations
// must allow concurrent access for distinct session ids; concurrent writers
// to the same id are excluded by the driver's single-writer invariant.
type Store interface {
	io.Closer
	// Get loads the last checkpoint for a session, or nil if none exists.
	Get(sessionID string) (*SessionState, error)
	// Put writes a checkpoint, replacing any previous one for the session.
	Put(s *SessionState) error
	// Delete removes a session's checkpoint.
	Delete(sessionID string) error
}

// Migrator applies pending schema migrations.
type Migrator interface {
	Migrate() error
}

// Compile-time verification that DB implements the store interfaces.
var (
	_ Store    = (*DB)(nil)
	_ Migrator = (*DB)(nil)
)
