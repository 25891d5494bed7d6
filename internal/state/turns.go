// internal/state/turns.go
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/user/sheetpilot/internal/types"
)

// TurnStore is a JSON-file-backed turn store. Each session's turns live in
// sessions/<sessionID>/turns.json as a single JSON array that is replaced
// wholesale on every write.
type TurnStore struct {
	root string
	mu   sync.RWMutex
}

// NewTurnStore creates a new file-backed TurnStore rooted at the given directory.
func NewTurnStore(root string) *TurnStore {
	return &TurnStore{root: root}
}

func (s *TurnStore) sessionsDir() string {
	return filepath.Join(s.root, "sessions")
}

func (s *TurnStore) sessionDir(id types.SessionID) string {
	return filepath.Join(s.root, "sessions", string(id))
}

func (s *TurnStore) turnsPath(id types.SessionID) string {
	return filepath.Join(s.sessionDir(id), "turns.json")
}

// Get reads the stored turn sequence for the given session. An unknown
// session yields an empty sequence, not an error. A file that fails to parse
// is treated as empty history: conversational context is advisory, so a
// corrupt session is discarded rather than propagated.
func (s *TurnStore) Get(_ context.Context, id types.SessionID) ([]types.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.turnsPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read turns file: %w", err)
	}

	var turns []types.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		slog.Warn("discarding corrupt session history", "session_id", string(id), "error", err)
		return nil, nil
	}
	return turns, nil
}

// Put replaces the stored turn sequence for the given session. The session
// directory is provisioned on demand and the file is written atomically via
// temp file and rename.
func (s *TurnStore) Put(_ context.Context, id types.SessionID, turns []types.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(turns, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal turns: %w", err)
	}

	if err := os.MkdirAll(s.sessionDir(id), 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	path := s.turnsPath(id)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp turns file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp turns file: %w", err)
	}
	return nil
}

// List returns summary info for every stored session, found by scanning the
// sessions directory.
func (s *TurnStore) List(ctx context.Context) ([]*types.SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.sessionsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read sessions dir: %w", err)
	}

	infos := make([]*types.SessionInfo, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id := types.SessionID(entry.Name())
		fi, err := os.Stat(s.turnsPath(id))
		if err != nil {
			continue
		}

		count := 0
		if data, err := os.ReadFile(s.turnsPath(id)); err == nil {
			var turns []types.Turn
			if json.Unmarshal(data, &turns) == nil {
				count = len(turns)
			}
		}

		infos = append(infos, &types.SessionInfo{
			SessionID: id,
			TurnCount: count,
			UpdatedAt: fi.ModTime(),
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].UpdatedAt.After(infos[j].UpdatedAt)
	})
	return infos, nil
}

// Delete removes a session's directory, including its turns and archive.
func (s *TurnStore) Delete(_ context.Context, id types.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.RemoveAll(s.sessionDir(id)); err != nil {
		return fmt.Errorf("remove session dir: %w", err)
	}
	return nil
}
