// internal/httpapi/server.go
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/user/sheetpilot/internal/query"
	"github.com/user/sheetpilot/internal/types"
)

// Server is the HTTP surface the browser extension calls. Handlers only
// decode, dispatch, and encode; all semantics live in the query service.
type Server struct {
	dispatch func(r *http.Request, req *query.Request) *query.Response
	turns    types.TurnStore
	archive  types.ArchiveStore
	mux      *http.ServeMux
}

// NewServer creates a Server that routes queries through the given queue.
// turns and archive back the debug API and may be nil to disable it.
func NewServer(queue *query.Queue, turns types.TurnStore, archive types.ArchiveStore) *Server {
	s := &Server{
		dispatch: func(r *http.Request, req *query.Request) *query.Response {
			return queue.Dispatch(r.Context(), req)
		},
		turns:   turns,
		archive: archive,
		mux:     http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /query", s.handleQuery)
	s.mux.HandleFunc("GET /api/sessions", s.handleAPISessions)
	s.mux.HandleFunc("GET /api/sessions/", s.handleAPISessionTurns)
	return s
}

// ServeHTTP delegates to the internal mux, implementing http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req query.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}

	resp := s.dispatch(r, &req)
	if resp.Failed() {
		slog.Warn("query failed", "session_id", resp.SessionID, "error", resp.Error)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleAPISessions(w http.ResponseWriter, r *http.Request) {
	if s.turns == nil {
		http.Error(w, `{"error":"debug API not configured"}`, http.StatusServiceUnavailable)
		return
	}

	infos, err := s.turns.List(r.Context())
	if err != nil {
		slog.Error("list sessions failed", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	if infos == nil {
		infos = []*types.SessionInfo{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(infos)
}

func (s *Server) handleAPISessionTurns(w http.ResponseWriter, r *http.Request) {
	if s.turns == nil {
		http.Error(w, `{"error":"debug API not configured"}`, http.StatusServiceUnavailable)
		return
	}

	// Path: /api/sessions/{id}/turns
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) < 2 || parts[1] != "turns" {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	sessionID := types.SessionID(parts[0])

	turns, err := s.turns.Get(r.Context(), sessionID)
	if err != nil {
		slog.Error("get turns failed", "session_id", string(sessionID), "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	// ?archived=1 prepends turns that compaction removed.
	if s.archive != nil && r.URL.Query().Get("archived") != "" {
		if b, _ := strconv.ParseBool(r.URL.Query().Get("archived")); b {
			archived, err := s.archive.Read(r.Context(), sessionID)
			if err != nil {
				slog.Warn("read archive failed", "session_id", string(sessionID), "error", err)
			} else {
				turns = append(archived, turns...)
			}
		}
	}

	if turns == nil {
		turns = []types.Turn{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(turns)
}
