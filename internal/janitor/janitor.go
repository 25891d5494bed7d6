// Package janitor removes sessions that have been idle longer than a
// configured retention period. Retention is optional; a zero TTL disables
// the sweep entirely and sessions live until explicitly cleared.
package janitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/user/sheetpilot/internal/types"
)

// Janitor periodically deletes sessions whose last update is older than TTL.
type Janitor struct {
	turns types.TurnStore
	ttl   time.Duration
	cron  *cron.Cron
}

// New creates a Janitor sweeping sessions idle longer than ttl.
func New(turns types.TurnStore, ttl time.Duration) *Janitor {
	return &Janitor{
		turns: turns,
		ttl:   ttl,
		cron:  cron.New(),
	}
}

// Start schedules the sweep on the given cron expression (standard 5-field
// syntax, e.g. "0 * * * *" for hourly) and runs it in the background until
// Stop is called.
func (j *Janitor) Start(schedule string) error {
	if j.ttl <= 0 {
		slog.Info("session retention disabled, janitor not started")
		return nil
	}
	_, err := j.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := j.Sweep(ctx); err != nil {
			slog.Error("retention sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule retention sweep: %w", err)
	}
	j.cron.Start()
	slog.Info("retention janitor started", "schedule", schedule, "ttl", j.ttl)
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
}

// Sweep deletes every session whose UpdatedAt is older than the TTL. Errors
// on individual sessions are logged and do not abort the sweep.
func (j *Janitor) Sweep(ctx context.Context) error {
	if j.ttl <= 0 {
		return nil
	}
	sessions, err := j.turns.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	cutoff := time.Now().Add(-j.ttl)
	removed := 0
	for _, info := range sessions {
		if info.UpdatedAt.After(cutoff) {
			continue
		}
		if err := j.turns.Delete(ctx, info.SessionID); err != nil {
			slog.Warn("failed to delete expired session",
				"session_id", info.SessionID, "error", err)
			continue
		}
		removed++
		slog.Info("expired session removed",
			"session_id", info.SessionID, "idle_since", info.UpdatedAt)
	}
	if removed > 0 {
		slog.Info("retention sweep complete", "removed", removed, "scanned", len(sessions))
	}
	return nil
}
