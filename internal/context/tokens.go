package context

import (
	"github.com/pkoukk/tiktoken-go"
)

// Estimator estimates token counts for transcripts so the query layer can
// log prompt size and clamp the generation budget against the model's
// context window.
type Estimator struct {
	tokenizer *tiktoken.Tiktoken
}

// NewEstimator creates an Estimator for the given model name. When no
// tokenizer is available for the model (or the encoding data cannot be
// loaded), the estimator falls back to a bytes/4 heuristic rather than
// failing: the estimate only steers logging and budget clamping.
func NewEstimator(model string) *Estimator {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return &Estimator{}
		}
	}
	return &Estimator{tokenizer: enc}
}

// Count returns the estimated token count for the given text.
func (e *Estimator) Count(text string) int {
	if e.tokenizer == nil {
		// Rough heuristic: ~4 bytes per token for English-heavy text.
		return (len(text) + 3) / 4
	}
	return len(e.tokenizer.Encode(text, nil, nil))
}

// minBudget is the floor for the generation budget. A zero budget would be
// omitted from the inference request, and the server treats an absent limit
// as unbounded generation.
const minBudget = 16

// ClampBudget returns the generation budget for a prompt of promptTokens
// given the model's context window and the configured maximum. The result is
// always positive: even a prompt that overflows the window gets a small
// budget so the request stays bounded.
func (e *Estimator) ClampBudget(promptTokens, window, maxTokens int) int {
	if window <= 0 {
		return maxTokens
	}
	remaining := window - promptTokens
	if remaining < minBudget {
		remaining = minBudget
	}
	if maxTokens > 0 && maxTokens < remaining {
		return maxTokens
	}
	return remaining
}
