// Package query implements the caller-facing operation: one inference round
// against a session, with the error taxonomy applied at its boundary.
package query

import "github.com/user/sheetpilot/internal/types"

// Request is one query from the extension. SessionID may be empty, in which
// case a fresh identifier is generated and returned for reuse on subsequent
// turns. Metadata describes the caller's current spreadsheet context.
type Request struct {
	SessionID string         `json:"session_id,omitempty"`
	Prompt    string         `json:"prompt"`
	Metadata  types.Metadata `json:"metadata,omitempty"`
	Model     string         `json:"model,omitempty"`
}

// Response is the result of one query. ResponseText is always present and
// user-safe, even on failure; Error carries the diagnostic detail separately
// and is empty on success.
type Response struct {
	SessionID    string         `json:"session_id"`
	ResponseText string         `json:"response"`
	ModelUsed    string         `json:"model_used,omitempty"`
	Metadata     types.Metadata `json:"metadata,omitempty"`
	Error        string         `json:"error,omitempty"`
}

// Failed reports whether the response carries an error.
func (r *Response) Failed() bool {
	return r.Error != ""
}
