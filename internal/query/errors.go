package query

import "errors"

// ErrEmptyPrompt rejects a request before any state mutation. Terminal, not
// retried.
var ErrEmptyPrompt = errors.New("prompt is required")

// Error kinds, recorded in the diagnostic field of failure responses.
const (
	kindValidation       = "validation"
	kindPersistence      = "persistence"
	kindInferenceTimeout = "inference_timeout"
	kindInferenceFailure = "inference_failure"
	kindUnexpected       = "unexpected"
)

// User-safe fallback texts. Diagnostic details never reach these.
const (
	fallbackGeneric    = "Sorry, something went wrong while generating a response. Please try again."
	fallbackValidation = "Please provide a prompt describing what you need."
)
