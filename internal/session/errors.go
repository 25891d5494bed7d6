package session

import (
	"fmt"

	"github.com/user/sheetpilot/internal/types"
)

// PersistenceError reports an unrecoverable storage failure during a session
// operation. Recoverable conditions (missing directories, corrupt reads) are
// handled inside the store and never surface as this type.
type PersistenceError struct {
	Op        string
	SessionID types.SessionID
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("session %s: %s: %v", e.SessionID, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
