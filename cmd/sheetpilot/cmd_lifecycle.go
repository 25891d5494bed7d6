package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd, stopCmd, restartCmd)
}

// daemonPID locates the pidfile under the data dir and checks the recorded
// process is actually alive (signal 0), so stale pidfiles left by a crash
// read as "not running" rather than targeting a reused PID.
func daemonPID() (int, error) {
	cfg := loadConfig()
	pidPath := filepath.Join(cfg.DataDir, "sheetpilot.pid")

	data, err := os.ReadFile(pidPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("daemon is not running (no pidfile at %s)", pidPath)
		}
		return 0, fmt.Errorf("read pidfile: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("pidfile %s is corrupt: %w", pidPath, err)
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return 0, fmt.Errorf("find process %d: %w", pid, err)
	}
	if err := proc.Signal(syscall.Signal(0)); err != nil {
		return 0, fmt.Errorf("daemon is not running (stale pidfile, process %d gone)", pid)
	}
	return pid, nil
}

// signalDaemon sends sig to the running daemon, resolving it via the pidfile.
func signalDaemon(sig syscall.Signal) (int, error) {
	pid, err := daemonPID()
	if err != nil {
		return 0, err
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return 0, fmt.Errorf("find process: %w", err)
	}
	if err := proc.Signal(sig); err != nil {
		return 0, fmt.Errorf("send %s: %w", sig, err)
	}
	return pid, nil
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the daemon is running",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		pid, err := daemonPID()
		if err != nil {
			fmt.Fprintln(os.Stdout, err)
			return nil
		}
		fmt.Fprintf(os.Stdout, "Daemon running (PID %d), listening on %s.\n", pid, cfg.Listen)
		return nil
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, err := signalDaemon(syscall.SIGTERM)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Stopping daemon (PID %d).\n", pid)
		return nil
	},
}

var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the running daemon in place",
	Long: "Sends SIGHUP to the daemon, which re-executes itself with the same\n" +
		"arguments. Sessions survive a restart; they live on disk.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, err := signalDaemon(syscall.SIGHUP)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Restarting daemon (PID %d).\n", pid)
		return nil
	},
}
