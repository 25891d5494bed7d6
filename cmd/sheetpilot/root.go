package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/sheetpilot/internal/config"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "sheetpilot",
	Short: "Local spreadsheet assistant daemon",
	Long: "sheetpilot runs a local daemon that serves spreadsheet questions from\n" +
		"the browser extension, keeping per-session conversation history and\n" +
		"talking to a llama.cpp-compatible inference server.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config",
		filepath.Join(os.Getenv("HOME"), ".sheetpilot", "config.json"),
		"config file path")
}

// loadConfig loads the config file from the --config path, exiting on failure.
// Commands call it after flag parsing so the CLI never runs with a half-read
// config.
func loadConfig() *config.Config {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// setupLogging installs the default slog handler at the configured level.
func setupLogging(cfg *config.Config) {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
