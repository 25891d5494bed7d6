package llm

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout marks an inference call that did not respond within its budget.
// Clients wrap it so callers can distinguish timeouts from other failures
// with errors.Is.
var ErrTimeout = errors.New("inference timed out")

// Provider defines the interface for text-completion backends.
// Implementations handle protocol-specific details such as request
// formatting, authentication, and response parsing. The engine is opaque:
// it may fail or time out, and callers own any retry policy.
type Provider interface {
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
}

// Config holds common configuration for completion providers.
type Config struct {
	BaseURL       string
	APIKey        string
	Model         string
	MaxTokens     int
	Temperature   float32
	TopP          float32
	RepeatPenalty float32
	Timeout       time.Duration
}
