// internal/httpapi/server_test.go
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/user/sheetpilot/internal/query"
	"github.com/user/sheetpilot/internal/state"
	"github.com/user/sheetpilot/internal/types"
)

func newTestServer(t *testing.T, handler query.Handler) (*Server, *state.TurnStore) {
	t.Helper()
	dir := t.TempDir()
	turns := state.NewTurnStore(dir)
	archive := state.NewArchiveStore(dir)

	q := query.NewQueue(2, handler)
	q.Start(context.Background())
	t.Cleanup(q.Stop)

	return NewServer(q, turns, archive), turns
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t, func(_ context.Context, req *query.Request) *query.Response {
		return &query.Response{SessionID: req.SessionID}
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("unexpected health body: %v", body)
	}
}

func TestQueryEndpoint(t *testing.T) {
	server, _ := newTestServer(t, func(_ context.Context, req *query.Request) *query.Response {
		return &query.Response{
			SessionID:    req.SessionID,
			ResponseText: "Use =SUM(A:A).",
			ModelUsed:    "phi-3.5-mini",
		}
	})

	body := `{"prompt":"Sum column A","metadata":{"sheet_name":"Budget"}}`
	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(body))
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp query.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.SessionID == "" {
		t.Error("expected session id in response")
	}
	if resp.ResponseText != "Use =SUM(A:A)." {
		t.Errorf("unexpected response text: %q", resp.ResponseText)
	}
}

func TestQueryEndpointInvalidJSON(t *testing.T) {
	server, _ := newTestServer(t, func(_ context.Context, req *query.Request) *query.Response {
		return &query.Response{SessionID: req.SessionID}
	})

	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader("{nope"))
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestQueryEndpointFailureShape(t *testing.T) {
	server, _ := newTestServer(t, func(_ context.Context, req *query.Request) *query.Response {
		return &query.Response{
			SessionID:    req.SessionID,
			ResponseText: "Sorry, something went wrong.",
			Error:        "inference_timeout: inference timed out",
		}
	})

	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"prompt":"x"}`))
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	// Handled failures still return 200 with the error in the body, which is
	// what the extension expects.
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp query.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error == "" || resp.ResponseText == "" {
		t.Errorf("expected both error and user-safe text, got %+v", resp)
	}
}

func TestSessionsAPI(t *testing.T) {
	server, turns := newTestServer(t, func(_ context.Context, req *query.Request) *query.Response {
		return &query.Response{SessionID: req.SessionID}
	})
	ctx := context.Background()

	id := types.SessionID("s1")
	if err := turns.Put(ctx, id, []types.Turn{
		{Role: types.RoleSystem, Content: "sys"},
		{Role: types.RoleUser, Content: "hello"},
	}); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	var infos []*types.SessionInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &infos); err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 || infos[0].SessionID != id || infos[0].TurnCount != 2 {
		t.Errorf("unexpected sessions listing: %+v", infos)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/sessions/s1/turns", nil)
	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	var got []types.Turn
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[1].Content != "hello" {
		t.Errorf("unexpected turns: %+v", got)
	}
}
