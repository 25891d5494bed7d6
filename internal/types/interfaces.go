// internal/types/interfaces.go
package types

import "context"

// TurnStore is durable key-value storage for session turn sequences.
// Put has full-overwrite semantics: it replaces any prior value for the key.
// Get on an unknown session returns an empty sequence, not an error.
type TurnStore interface {
	Get(ctx context.Context, id SessionID) ([]Turn, error)
	Put(ctx context.Context, id SessionID, turns []Turn) error
	List(ctx context.Context) ([]*SessionInfo, error)
	Delete(ctx context.Context, id SessionID) error
}

// ArchiveStore records turns that compaction removed from a session's active
// window, so the full history remains durably available.
type ArchiveStore interface {
	Append(ctx context.Context, id SessionID, turns []Turn) error
	Read(ctx context.Context, id SessionID) ([]Turn, error)
}
