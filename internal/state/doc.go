// Package state provides filesystem-backed storage implementations.
package state

import "github.com/user/sheetpilot/internal/types"

// Compile-time interface compliance checks.
var _ types.TurnStore = (*TurnStore)(nil)
var _ types.ArchiveStore = (*ArchiveStore)(nil)
