package query

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/user/sheetpilot/internal/compact"
	"github.com/user/sheetpilot/internal/models"
	"github.com/user/sheetpilot/internal/session"
	"github.com/user/sheetpilot/internal/state"
	"github.com/user/sheetpilot/internal/types"
	"github.com/user/sheetpilot/pkg/llm"
)

// fakeProvider records the last request and returns a canned result.
type fakeProvider struct {
	text    string
	err     error
	lastReq *llm.CompletionRequest
}

func (f *fakeProvider) Complete(_ context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Text: f.text}, nil
}

func newTestService(t *testing.T, provider llm.Provider) (*Service, *session.Store) {
	t.Helper()
	dir := t.TempDir()
	store := session.New(state.NewTurnStore(dir), state.NewArchiveStore(dir), compact.New(compact.DefaultConfig()))
	registry := models.NewRegistry()
	registry.Register("test-model", provider)
	svc := NewService(store, registry, nil, GenParams{MaxTokens: 512, Temperature: 0.7, ContextWindow: 8192})
	return svc, store
}

func TestHandleSuccess(t *testing.T) {
	provider := &fakeProvider{text: "Use =SUM(A:A)."}
	svc, store := newTestService(t, provider)

	resp := svc.Handle(context.Background(), &Request{
		Prompt:   "Sum column A",
		Metadata: types.Metadata{"sheet_name": "Budget"},
	})

	if resp.Failed() {
		t.Fatalf("unexpected failure: %s", resp.Error)
	}
	if resp.SessionID == "" {
		t.Error("expected generated session id")
	}
	if resp.ResponseText != "Use =SUM(A:A)." {
		t.Errorf("unexpected response text: %q", resp.ResponseText)
	}
	if resp.ModelUsed != "test-model" {
		t.Errorf("unexpected model: %q", resp.ModelUsed)
	}

	turns, err := store.Load(context.Background(), types.SessionID(resp.SessionID))
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 3 {
		t.Fatalf("expected [system, user, assistant], got %d turns", len(turns))
	}
	if turns[2].Role != types.RoleAssistant || turns[2].Content != "Use =SUM(A:A)." {
		t.Errorf("assistant turn not persisted: %+v", turns[2])
	}

	if !strings.HasSuffix(provider.lastReq.Prompt, "Assistant:") {
		t.Error("expected transcript to end with assistant cue")
	}
	if len(provider.lastReq.Stop) != 2 {
		t.Errorf("expected stop sequences, got %v", provider.lastReq.Stop)
	}
}

func TestHandleSessionContinuity(t *testing.T) {
	provider := &fakeProvider{text: "ok"}
	svc, store := newTestService(t, provider)
	ctx := context.Background()

	first := svc.Handle(ctx, &Request{Prompt: "first question"})
	if first.Failed() {
		t.Fatal(first.Error)
	}
	second := svc.Handle(ctx, &Request{SessionID: first.SessionID, Prompt: "second question"})
	if second.Failed() {
		t.Fatal(second.Error)
	}
	if second.SessionID != first.SessionID {
		t.Error("expected session id reuse")
	}

	turns, err := store.Load(ctx, types.SessionID(first.SessionID))
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 5 {
		t.Errorf("expected 5 turns across two rounds, got %d", len(turns))
	}
	if !strings.Contains(provider.lastReq.Prompt, "first question") {
		t.Error("expected earlier turns in second transcript")
	}
}

func TestHandleEmptyPromptNoSideEffects(t *testing.T) {
	provider := &fakeProvider{text: "ok"}
	svc, store := newTestService(t, provider)
	ctx := context.Background()

	resp := svc.Handle(ctx, &Request{SessionID: "s2", Prompt: "   "})

	if !resp.Failed() {
		t.Fatal("expected validation failure")
	}
	if !strings.HasPrefix(resp.Error, "validation:") {
		t.Errorf("expected validation diagnostic, got %q", resp.Error)
	}
	if resp.ResponseText == "" {
		t.Error("expected user-safe text even on failure")
	}
	if provider.lastReq != nil {
		t.Error("expected no inference call")
	}

	turns, err := store.Load(ctx, "s2")
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 0 {
		t.Errorf("expected no session mutation, got %d turns", len(turns))
	}
}

func TestHandleInferenceTimeoutKeepsUserTurn(t *testing.T) {
	provider := &fakeProvider{err: llm.ErrTimeout}
	svc, store := newTestService(t, provider)
	ctx := context.Background()

	resp := svc.Handle(ctx, &Request{Prompt: "Sum column A"})

	if !resp.Failed() {
		t.Fatal("expected failure")
	}
	if !strings.HasPrefix(resp.Error, "inference_timeout:") {
		t.Errorf("expected timeout diagnostic, got %q", resp.Error)
	}
	if resp.ResponseText == "" {
		t.Error("expected non-empty fallback text")
	}
	if strings.Contains(resp.ResponseText, "timed out") {
		t.Error("diagnostic detail leaked into user-safe text")
	}

	turns, err := store.Load(ctx, types.SessionID(resp.SessionID))
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected [system, user] persisted, got %d turns", len(turns))
	}
	if turns[1].Role != types.RoleUser {
		t.Error("expected user turn to survive the failed reply")
	}
}

func TestHandleInferenceFailure(t *testing.T) {
	provider := &fakeProvider{err: errors.New("model crashed")}
	svc, _ := newTestService(t, provider)

	resp := svc.Handle(context.Background(), &Request{Prompt: "hello"})
	if !strings.HasPrefix(resp.Error, "inference_failure:") {
		t.Errorf("expected inference_failure diagnostic, got %q", resp.Error)
	}
}

func TestHandleUnknownModelNoSideEffects(t *testing.T) {
	provider := &fakeProvider{text: "ok"}
	svc, store := newTestService(t, provider)
	ctx := context.Background()

	resp := svc.Handle(ctx, &Request{SessionID: "s3", Prompt: "hi", Model: "gpt-17"})
	if !strings.HasPrefix(resp.Error, "validation:") {
		t.Errorf("expected validation diagnostic, got %q", resp.Error)
	}

	turns, err := store.Load(ctx, "s3")
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 0 {
		t.Error("expected no session mutation for unknown model")
	}
}

func TestHandleCleansEngineOutput(t *testing.T) {
	provider := &fakeProvider{text: "Assistant: Use =SUM(A:A).\nUser: next question"}
	svc, _ := newTestService(t, provider)

	resp := svc.Handle(context.Background(), &Request{Prompt: "sum?"})
	if resp.Failed() {
		t.Fatal(resp.Error)
	}
	if resp.ResponseText != "Use =SUM(A:A)." {
		t.Errorf("expected cleaned output, got %q", resp.ResponseText)
	}
}

func TestHandleEmptyEngineOutput(t *testing.T) {
	provider := &fakeProvider{text: "User: echo"}
	svc, _ := newTestService(t, provider)

	resp := svc.Handle(context.Background(), &Request{Prompt: "hi"})
	if !strings.HasPrefix(resp.Error, "inference_failure:") {
		t.Errorf("expected failure for unusable output, got %q", resp.Error)
	}
}
