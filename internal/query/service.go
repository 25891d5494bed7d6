package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	ctxprompt "github.com/user/sheetpilot/internal/context"
	"github.com/user/sheetpilot/internal/models"
	"github.com/user/sheetpilot/internal/session"
	"github.com/user/sheetpilot/internal/types"
	"github.com/user/sheetpilot/pkg/llm"
)

// GenParams are the generation parameters applied to every inference call.
type GenParams struct {
	MaxTokens     int
	Temperature   float32
	TopP          float32
	RepeatPenalty float32
	ContextWindow int
}

// Service runs one inference round per request: commit the user turn, build
// the transcript, call the engine, commit the assistant turn. The user turn
// is persisted before the engine call and the assistant turn only after a
// successful response, so a failed inference never loses the conversation.
type Service struct {
	store     *session.Store
	registry  *models.Registry
	estimator *ctxprompt.Estimator
	params    GenParams
}

// NewService creates a query Service.
func NewService(store *session.Store, registry *models.Registry, estimator *ctxprompt.Estimator, params GenParams) *Service {
	if estimator == nil {
		estimator = &ctxprompt.Estimator{}
	}
	return &Service{
		store:     store,
		registry:  registry,
		estimator: estimator,
		params:    params,
	}
}

// Handle executes one query. It never returns an error: failures of any kind
// are converted into a Response with a user-safe text and a separate
// diagnostic, so one request's failure cannot take down its worker.
func (s *Service) Handle(ctx context.Context, req *Request) (resp *Response) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("query panicked", "session_id", req.SessionID, "panic", r)
			resp = failure(req.SessionID, kindUnexpected, fmt.Errorf("panic: %v", r))
		}
	}()

	if strings.TrimSpace(req.Prompt) == "" {
		return failure(req.SessionID, kindValidation, ErrEmptyPrompt)
	}

	// Resolve the model before touching session state so an unknown model
	// choice leaves no trace.
	provider, modelUsed, err := s.registry.Resolve(req.Model)
	if err != nil {
		return failure(req.SessionID, kindValidation, err)
	}

	sessionID := types.SessionID(req.SessionID)
	if sessionID == "" {
		sessionID = types.NewSessionID()
	}

	turns, err := s.store.AppendTurn(ctx, sessionID, types.RoleUser, req.Prompt, req.Metadata)
	if err != nil {
		return failure(string(sessionID), classifyStoreError(err), err)
	}

	transcript := ctxprompt.BuildTranscript(turns)
	promptTokens := s.estimator.Count(transcript)
	budget := s.estimator.ClampBudget(promptTokens, s.params.ContextWindow, s.params.MaxTokens)
	slog.Debug("built transcript",
		"session_id", string(sessionID),
		"turns", len(turns),
		"prompt_tokens", promptTokens,
		"generation_budget", budget,
	)

	result, err := provider.Complete(ctx, &llm.CompletionRequest{
		Prompt:        transcript,
		MaxTokens:     budget,
		Temperature:   s.params.Temperature,
		TopP:          s.params.TopP,
		RepeatPenalty: s.params.RepeatPenalty,
		Stop:          llm.StopSequences,
	})
	if err != nil {
		// The user turn stays persisted: the conversation survives the
		// failed reply.
		kind := kindInferenceFailure
		if errors.Is(err, llm.ErrTimeout) {
			kind = kindInferenceTimeout
		}
		slog.Error("inference failed", "session_id", string(sessionID), "model", modelUsed, "error", err)
		return failure(string(sessionID), kind, err)
	}

	replyText := llm.ExtractAssistantReply(result.Text)
	if replyText == "" {
		return failure(string(sessionID), kindInferenceFailure, errors.New("engine returned no usable text"))
	}

	if _, err := s.store.AppendTurn(ctx, sessionID, types.RoleAssistant, replyText, req.Metadata); err != nil {
		return failure(string(sessionID), classifyStoreError(err), err)
	}

	return &Response{
		SessionID:    string(sessionID),
		ResponseText: replyText,
		ModelUsed:    modelUsed,
		Metadata:     req.Metadata,
	}
}

// classifyStoreError maps session store errors into the taxonomy.
func classifyStoreError(err error) string {
	var perr *session.PersistenceError
	if errors.As(err, &perr) {
		return kindPersistence
	}
	return kindUnexpected
}

// failure builds a failure response: a user-safe text plus the diagnostic,
// kept apart so internals never leak to the end user.
func failure(sessionID, kind string, err error) *Response {
	text := fallbackGeneric
	if kind == kindValidation {
		text = fallbackValidation
	}
	return &Response{
		SessionID:    sessionID,
		ResponseText: text,
		Error:        fmt.Sprintf("%s: %v", kind, err),
	}
}
