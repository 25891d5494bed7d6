// internal/state/archive.go
package state

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/user/sheetpilot/internal/types"
)

// ArchiveStore is a JSONL-backed append-only store for turns that compaction
// removed from a session's active window. Archived turns are stored per
// session in sessions/<sessionID>/archive.jsonl.
type ArchiveStore struct {
	root  string
	mu    sync.Mutex
	locks map[types.SessionID]*sync.Mutex
}

// NewArchiveStore creates a new file-backed ArchiveStore rooted at the given directory.
func NewArchiveStore(root string) *ArchiveStore {
	return &ArchiveStore{
		root:  root,
		locks: make(map[types.SessionID]*sync.Mutex),
	}
}

// getLock returns the per-session mutex, creating one if it doesn't exist.
func (a *ArchiveStore) getLock(id types.SessionID) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()

	if lock, ok := a.locks[id]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	a.locks[id] = lock
	return lock
}

func (a *ArchiveStore) archivePath(id types.SessionID) string {
	return filepath.Join(a.root, "sessions", string(id), "archive.jsonl")
}

// Append adds turns to the session's archive log in order.
func (a *ArchiveStore) Append(_ context.Context, id types.SessionID, turns []types.Turn) error {
	if len(turns) == 0 {
		return nil
	}

	lock := a.getLock(id)
	lock.Lock()
	defer lock.Unlock()

	dir := filepath.Dir(a.archivePath(id))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	f, err := os.OpenFile(a.archivePath(id), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open archive file: %w", err)
	}
	defer f.Close()

	for _, turn := range turns {
		data, err := json.Marshal(turn)
		if err != nil {
			return fmt.Errorf("marshal turn: %w", err)
		}
		data = append(data, '\n')
		if _, err := f.Write(data); err != nil {
			return fmt.Errorf("write turn: %w", err)
		}
	}
	return nil
}

// Read returns all archived turns for the given session in archive order.
func (a *ArchiveStore) Read(_ context.Context, id types.SessionID) ([]types.Turn, error) {
	lock := a.getLock(id)
	lock.Lock()
	defer lock.Unlock()

	f, err := os.Open(a.archivePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open archive file: %w", err)
	}
	defer f.Close()

	var turns []types.Turn
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var turn types.Turn
		if err := json.Unmarshal(scanner.Bytes(), &turn); err != nil {
			return nil, fmt.Errorf("unmarshal turn: %w", err)
		}
		turns = append(turns, turn)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan archive file: %w", err)
	}
	return turns, nil
}
