package context

import (
	"strings"

	"github.com/user/sheetpilot/internal/types"
)

// roleLabel maps a role to its transcript label.
func roleLabel(r types.Role) string {
	switch r {
	case types.RoleSystem:
		return "System"
	case types.RoleUser:
		return "User"
	case types.RoleAssistant:
		return "Assistant"
	}
	return string(r)
}

// BuildTranscript renders an ordered turn sequence as the flat text fed to
// the inference engine: one labeled block per turn in sequence order, closed
// with an open Assistant cue so the model produces the next turn. It is a
// pure function; identical input always yields byte-identical output.
func BuildTranscript(turns []types.Turn) string {
	var sb strings.Builder
	for _, turn := range turns {
		sb.WriteString(roleLabel(turn.Role))
		sb.WriteString(": ")
		sb.WriteString(turn.Content)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Assistant:")
	return sb.String()
}
