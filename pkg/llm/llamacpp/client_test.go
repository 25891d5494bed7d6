package llamacpp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/user/sheetpilot/pkg/llm"
)

func TestCompleteRoundTrip(t *testing.T) {
	var gotReq completionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/completion" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(completionResponse{
			Content:         "Use =SUM(A:A).",
			TokensEvaluated: 100,
			TokensPredicted: 10,
		})
	}))
	defer server.Close()

	client := New(&llm.Config{BaseURL: server.URL})
	resp, err := client.Complete(context.Background(), &llm.CompletionRequest{
		Prompt:        "User: sum column A\n\nAssistant:",
		MaxTokens:     512,
		Temperature:   0.7,
		TopP:          0.9,
		RepeatPenalty: 1.1,
		Stop:          llm.StopSequences,
	})
	if err != nil {
		t.Fatal(err)
	}

	if resp.Text != "Use =SUM(A:A)." {
		t.Errorf("unexpected text: %q", resp.Text)
	}
	if resp.Usage.TotalTokens != 110 {
		t.Errorf("unexpected total tokens: %d", resp.Usage.TotalTokens)
	}
	if gotReq.NPredict != 512 {
		t.Errorf("expected n_predict 512, got %d", gotReq.NPredict)
	}
	if len(gotReq.Stop) != 2 || gotReq.Stop[0] != "User:" {
		t.Errorf("expected stop sequences forwarded, got %v", gotReq.Stop)
	}
	if gotReq.Stream {
		t.Error("expected stream disabled")
	}
}

func TestCompleteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(&llm.Config{BaseURL: server.URL})
	if _, err := client.Complete(context.Background(), &llm.CompletionRequest{Prompt: "x"}); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestCompleteTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := New(&llm.Config{BaseURL: server.URL, Timeout: 20 * time.Millisecond})
	_, err := client.Complete(context.Background(), &llm.CompletionRequest{Prompt: "x"})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !errors.Is(err, llm.ErrTimeout) {
		t.Errorf("expected llm.ErrTimeout, got %v", err)
	}
}

func TestCompleteContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := New(&llm.Config{BaseURL: server.URL})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Complete(ctx, &llm.CompletionRequest{Prompt: "x"})
	if !errors.Is(err, llm.ErrTimeout) {
		t.Errorf("expected llm.ErrTimeout for context deadline, got %v", err)
	}
}
