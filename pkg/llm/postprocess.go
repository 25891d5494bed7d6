package llm

import "strings"

// StopSequences are the turn-boundary markers observed with transcript-style
// prompting. Generation is truncated at the first occurrence of either.
var StopSequences = []string{"User:", "Human:"}

// ExtractAssistantReply cleans raw completion output into assistant turn
// content: truncate at the first stop marker, keep only the text after the
// last "Assistant:" label if one is present, and drop any residual lines that
// still begin with a role label.
func ExtractAssistantReply(raw string) string {
	text := raw
	for _, stop := range StopSequences {
		if idx := strings.Index(text, stop); idx >= 0 {
			text = text[:idx]
		}
	}

	if idx := strings.LastIndex(text, "Assistant:"); idx >= 0 {
		text = text[idx+len("Assistant:"):]
	}

	var kept []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "User:") ||
			strings.HasPrefix(trimmed, "Human:") ||
			strings.HasPrefix(trimmed, "Assistant:") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
