// internal/types/ids.go
package types

import "github.com/google/uuid"

// SessionID is the opaque identifier for a conversation thread. It is stable
// for the lifetime of the conversation and is the storage key for its turns.
type SessionID string

func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}
