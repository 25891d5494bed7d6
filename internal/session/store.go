// Package session owns the authoritative, durable turn history for each
// conversation and exposes the operations one inference round needs.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/user/sheetpilot/internal/compact"
	ctxprompt "github.com/user/sheetpilot/internal/context"
	"github.com/user/sheetpilot/internal/types"
)

// Store maintains per-session turn history on top of a TurnStore. A keyed
// mutex serializes the whole load-modify-persist cycle for each session, so
// concurrent appends to the same session cannot lose each other's turns.
// Different sessions proceed in parallel.
type Store struct {
	turns     types.TurnStore
	archive   types.ArchiveStore
	compactor *compact.Compactor

	mu    sync.Mutex
	locks map[types.SessionID]*sync.Mutex
}

// New creates a Store. archive may be nil to disable archiving of compacted
// turns.
func New(turns types.TurnStore, archive types.ArchiveStore, compactor *compact.Compactor) *Store {
	if compactor == nil {
		compactor = compact.New(compact.DefaultConfig())
	}
	return &Store{
		turns:     turns,
		archive:   archive,
		compactor: compactor,
		locks:     make(map[types.SessionID]*sync.Mutex),
	}
}

// getLock returns the per-session mutex, creating one if it doesn't exist.
func (s *Store) getLock(id types.SessionID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	if lock, ok := s.locks[id]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	s.locks[id] = lock
	return lock
}

// Load returns the persisted turns for the session. Unknown sessions yield
// an empty sequence.
func (s *Store) Load(ctx context.Context, id types.SessionID) ([]types.Turn, error) {
	turns, err := s.turns.Get(ctx, id)
	if err != nil {
		return nil, &PersistenceError{Op: "load", SessionID: id, Err: err}
	}
	return turns, nil
}

// AppendTurn appends one turn to the session, injecting a system turn on
// first use and compacting once the sequence exceeds the configured
// threshold. The resulting sequence fully replaces the stored value and is
// returned. The metadata supplied here becomes the basis for any system
// prompt regeneration but never edits past turns.
func (s *Store) AppendTurn(ctx context.Context, id types.SessionID, role types.Role, content string, metadata types.Metadata) ([]types.Turn, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("invalid role: %q", role)
	}

	lock := s.getLock(id)
	lock.Lock()
	defer lock.Unlock()

	turns, err := s.turns.Get(ctx, id)
	if err != nil {
		return nil, &PersistenceError{Op: "load", SessionID: id, Err: err}
	}

	if len(turns) == 0 {
		turns = append(turns, ctxprompt.NewSystemTurn(metadata, ""))
	}
	turns = append(turns, types.Turn{Role: role, Content: content})

	if s.compactor.ShouldCompact(len(turns)) {
		var dropped []types.Turn
		turns, dropped = s.compactor.Compact(turns, metadata)
		slog.Info("compacted session",
			"session_id", string(id),
			"active_turns", len(turns),
			"dropped_turns", len(dropped),
		)
		if s.archive != nil && len(dropped) > 0 {
			// Archiving is best effort: losing the archive must not fail the append.
			if err := s.archive.Append(ctx, id, dropped); err != nil {
				slog.Warn("archive compacted turns failed", "session_id", string(id), "error", err)
			}
		}
	}

	if err := s.turns.Put(ctx, id, turns); err != nil {
		return nil, &PersistenceError{Op: "persist", SessionID: id, Err: err}
	}
	return turns, nil
}
