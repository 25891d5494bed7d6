// Package compact bounds a session's active turn window by folding older
// turns into a regenerated system turn while keeping recent turns verbatim.
package compact

import (
	"strings"

	ctxprompt "github.com/user/sheetpilot/internal/context"
	"github.com/user/sheetpilot/internal/types"
)

// Config holds the compaction thresholds. The defaults mirror the behavior
// the Sheets assistant shipped with; changing them is a product decision, so
// they are configurable rather than re-derived.
type Config struct {
	// Threshold triggers compaction when the turn count exceeds it.
	Threshold int `json:"threshold"`

	// SkipBelow is a lower guard: sequences at or under this length are left
	// alone even when compaction was requested, to avoid oscillating on
	// borderline-length sessions.
	SkipBelow int `json:"skip_below"`

	// RecentWindow is the number of trailing turns kept verbatim.
	RecentWindow int `json:"recent_window"`

	// SummaryWindow is how many of the newest middle turns are summarized;
	// middle turns older than that are dropped outright.
	SummaryWindow int `json:"summary_window"`

	// UserLineMax caps the paraphrase length for user turns.
	UserLineMax int `json:"user_line_max"`

	// AssistantLineMax caps the paraphrase length for assistant turns.
	AssistantLineMax int `json:"assistant_line_max"`
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		Threshold:        25,
		SkipBelow:        15,
		RecentWindow:     8,
		SummaryWindow:    12,
		UserLineMax:      150,
		AssistantLineMax: 100,
	}
}

// Compactor condenses older turns into a synthetic summary inside a
// regenerated system turn.
type Compactor struct {
	cfg Config
}

// New creates a Compactor. Zero-valued config fields fall back to defaults.
func New(cfg Config) *Compactor {
	def := DefaultConfig()
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.SkipBelow <= 0 {
		cfg.SkipBelow = def.SkipBelow
	}
	if cfg.RecentWindow <= 0 {
		cfg.RecentWindow = def.RecentWindow
	}
	if cfg.SummaryWindow <= 0 {
		cfg.SummaryWindow = def.SummaryWindow
	}
	if cfg.UserLineMax <= 0 {
		cfg.UserLineMax = def.UserLineMax
	}
	if cfg.AssistantLineMax <= 0 {
		cfg.AssistantLineMax = def.AssistantLineMax
	}
	return &Compactor{cfg: cfg}
}

// ShouldCompact reports whether a sequence of n turns is due for compaction.
func (c *Compactor) ShouldCompact(n int) bool {
	return n > c.cfg.Threshold
}

// Compact partitions the sequence into [system | middle | recent], summarizes
// the newest middle turns into a regenerated system turn built from the
// current metadata, and returns the new active sequence plus the middle turns
// that left it. Compaction never fails: malformed turns degrade to empty
// paraphrase lines. Sequences at or under SkipBelow are returned unchanged.
func (c *Compactor) Compact(turns []types.Turn, metadata types.Metadata) (active, dropped []types.Turn) {
	if len(turns) <= c.cfg.SkipBelow {
		return turns, nil
	}

	rest := turns
	for len(rest) > 0 && rest[0].Role == types.RoleSystem {
		rest = rest[1:]
	}

	if len(rest) <= c.cfg.RecentWindow {
		return turns, nil
	}
	recent := rest[len(rest)-c.cfg.RecentWindow:]
	middle := rest[:len(rest)-c.cfg.RecentWindow]

	window := middle
	if len(window) > c.cfg.SummaryWindow {
		window = window[len(window)-c.cfg.SummaryWindow:]
	}

	summary := c.summarize(window)
	system := ctxprompt.NewSystemTurn(metadata, summary)

	active = make([]types.Turn, 0, 1+len(recent))
	active = append(active, system)
	active = append(active, recent...)
	return active, middle
}

// summarize renders one line per turn in the window.
func (c *Compactor) summarize(window []types.Turn) string {
	lines := make([]string, 0, len(window))
	for _, turn := range window {
		switch turn.Role {
		case types.RoleUser:
			lines = append(lines, "- User asked: "+abbreviate(turn.Content, c.cfg.UserLineMax))
		case types.RoleAssistant:
			if ctxprompt.Classify(turn.Content).IsCodeSolution() {
				lines = append(lines, "- Assistant provided a code/formula solution.")
			} else {
				lines = append(lines, "- Assistant replied: "+abbreviate(turn.Content, c.cfg.AssistantLineMax))
			}
		default:
			lines = append(lines, "- "+abbreviate(turn.Content, c.cfg.AssistantLineMax))
		}
	}
	return strings.Join(lines, "\n")
}

// abbreviate collapses content onto one line and truncates it to max runes.
func abbreviate(content string, max int) string {
	line := strings.Join(strings.Fields(content), " ")
	runes := []rune(line)
	if len(runes) <= max {
		return line
	}
	return string(runes[:max]) + "..."
}
