package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/user/sheetpilot/internal/state"
	"github.com/user/sheetpilot/internal/types"
)

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionListCmd, sessionShowCmd, sessionClearCmd)

	sessionShowCmd.Flags().Bool("archived", false, "include compacted-away turns from the archive")
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage sessions",
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		turns := state.NewTurnStore(cfg.DataDir)

		list, err := turns.List(context.Background())
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}

		if len(list) == 0 {
			fmt.Println("No sessions found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTURNS\tUPDATED")
		for _, s := range list {
			fmt.Fprintf(w, "%s\t%d\t%s\n",
				s.SessionID,
				s.TurnCount,
				s.UpdatedAt.Format("2006-01-02 15:04:05"),
			)
		}
		return w.Flush()
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a session's transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		ctx := context.Background()
		id := types.SessionID(args[0])
		archived, _ := cmd.Flags().GetBool("archived")

		var all []types.Turn
		if archived {
			archive := state.NewArchiveStore(cfg.DataDir)
			old, err := archive.Read(ctx, id)
			if err != nil {
				return fmt.Errorf("read archive: %w", err)
			}
			all = append(all, old...)
		}

		turns := state.NewTurnStore(cfg.DataDir)
		active, err := turns.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("read session: %w", err)
		}
		all = append(all, active...)

		if len(all) == 0 {
			fmt.Println("Session is empty or does not exist.")
			return nil
		}

		for _, t := range all {
			fmt.Printf("[%s]\n%s\n\n", t.Role, t.Content)
		}
		return nil
	},
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear <id|all>",
	Short: "Clear a session or all sessions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		sessionsDir := filepath.Join(cfg.DataDir, "sessions")

		if args[0] == "all" {
			if err := os.RemoveAll(sessionsDir); err != nil {
				return fmt.Errorf("remove sessions directory: %w", err)
			}
			fmt.Println("All sessions cleared.")
			return nil
		}

		// Remove specific session directory (validate path to prevent traversal)
		sessionDir := filepath.Join(sessionsDir, args[0])
		resolved, err := filepath.Abs(sessionDir)
		if err != nil {
			return fmt.Errorf("resolve path: %w", err)
		}
		absSessionsDir, _ := filepath.Abs(sessionsDir)
		if !strings.HasPrefix(resolved, absSessionsDir+string(filepath.Separator)) {
			return fmt.Errorf("invalid session ID: %s", args[0])
		}
		if _, err := os.Stat(sessionDir); os.IsNotExist(err) {
			return fmt.Errorf("session not found: %s", args[0])
		}
		if err := os.RemoveAll(sessionDir); err != nil {
			return fmt.Errorf("remove session directory: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Session %s cleared.\n", args[0])
		return nil
	},
}
