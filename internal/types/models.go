// internal/types/models.go
package types

import (
	"fmt"
	"time"
)

// Role identifies the author of a turn. It is a closed set: only the three
// constants below are valid.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// ParseRole converts a raw string into a Role, rejecting anything outside the
// closed set.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("invalid role: %q", s)
	}
	return r, nil
}

// Turn is one message unit in a conversation. Turns are immutable once
// appended; compaction replaces old turns with new synthetic ones rather
// than editing them in place.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Metadata describes the caller's current external context (e.g. spreadsheet
// shape). It is supplied fresh on every call, not cumulative.
type Metadata map[string]any

// SessionInfo is summary information about a stored session, used by the CLI
// and the debug API.
type SessionInfo struct {
	SessionID SessionID `json:"session_id"`
	TurnCount int       `json:"turn_count"`
	UpdatedAt time.Time `json:"updated_at"`
}
