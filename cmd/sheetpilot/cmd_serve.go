package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/sheetpilot/internal/compact"
	ctxprompt "github.com/user/sheetpilot/internal/context"
	"github.com/user/sheetpilot/internal/httpapi"
	"github.com/user/sheetpilot/internal/janitor"
	"github.com/user/sheetpilot/internal/models"
	"github.com/user/sheetpilot/internal/query"
	"github.com/user/sheetpilot/internal/session"
	"github.com/user/sheetpilot/internal/state"
	"github.com/user/sheetpilot/pkg/llm"
	"github.com/user/sheetpilot/pkg/llm/llamacpp"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the sheetpilot daemon",
	RunE:  runServe,
}

func writePIDFile(dataDir string) (string, error) {
	pidPath := filepath.Join(dataDir, "sheetpilot.pid")
	pid := os.Getpid()
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		return "", fmt.Errorf("write PID file: %w", err)
	}
	return pidPath, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	pidPath, err := writePIDFile(cfg.DataDir)
	if err != nil {
		return err
	}
	defer os.Remove(pidPath)

	// Stores
	turns := state.NewTurnStore(cfg.DataDir)
	archive := state.NewArchiveStore(cfg.DataDir)

	// Model registry: the llm block is the default model, the models map
	// adds named alternates sharing the default generation parameters.
	timeout := time.Duration(cfg.LLM.TimeoutMinutes) * time.Minute
	registry := models.NewRegistry()
	registry.Register(cfg.LLM.Model, llamacpp.New(&llm.Config{
		BaseURL:       cfg.LLM.BaseURL,
		APIKey:        cfg.LLM.APIKey,
		Model:         cfg.LLM.Model,
		MaxTokens:     cfg.LLM.MaxTokens,
		Temperature:   cfg.LLM.Temperature,
		TopP:          cfg.LLM.TopP,
		RepeatPenalty: cfg.LLM.RepeatPenalty,
		Timeout:       timeout,
	}))
	for name, entry := range cfg.Models {
		registry.Register(name, llamacpp.New(&llm.Config{
			BaseURL:       entry.BaseURL,
			APIKey:        entry.APIKey,
			Model:         name,
			MaxTokens:     cfg.LLM.MaxTokens,
			Temperature:   cfg.LLM.Temperature,
			TopP:          cfg.LLM.TopP,
			RepeatPenalty: cfg.LLM.RepeatPenalty,
			Timeout:       timeout,
		}))
	}
	if err := registry.SetDefault(cfg.LLM.Model); err != nil {
		return fmt.Errorf("set default model: %w", err)
	}

	// Token estimator
	estimator := ctxprompt.NewEstimator(cfg.LLM.Model)

	// Compactor and session store
	compactor := compact.New(compact.Config{
		Threshold:     cfg.Context.CompactThreshold,
		SkipBelow:     cfg.Context.CompactMinLength,
		RecentWindow:  cfg.Context.RecentWindow,
		SummaryWindow: cfg.Context.SummaryWindow,
	})
	sessions := session.New(turns, archive, compactor)

	// Query pipeline
	service := query.NewService(sessions, registry, estimator, query.GenParams{
		MaxTokens:     cfg.LLM.MaxTokens,
		Temperature:   cfg.LLM.Temperature,
		TopP:          cfg.LLM.TopP,
		RepeatPenalty: cfg.LLM.RepeatPenalty,
		ContextWindow: cfg.LLM.ContextTokens,
	})
	queue := query.NewQueue(int64(cfg.MaxConcurrent), service.Handle)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue.Start(ctx)
	defer queue.Stop()

	// Retention janitor
	if cfg.Retention.TTLHours > 0 {
		jan := janitor.New(turns, time.Duration(cfg.Retention.TTLHours)*time.Hour)
		if err := jan.Start(cfg.Retention.SweepSchedule); err != nil {
			return fmt.Errorf("start janitor: %w", err)
		}
		defer jan.Stop()
	}

	// HTTP API
	apiServer := httpapi.NewServer(queue, turns, archive)
	httpServer := &http.Server{
		Addr:    cfg.Listen,
		Handler: apiServer,
	}
	go func() {
		slog.Info("http server started", "listen", cfg.Listen)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		httpServer.Close()
	}()

	slog.Info("sheetpilot started",
		"data_dir", cfg.DataDir,
		"log_level", cfg.LogLevel,
		"listen", cfg.Listen,
		"max_concurrent", cfg.MaxConcurrent,
		"model", cfg.LLM.Model,
		"models", registry.Names(),
		"retention_ttl_hours", cfg.Retention.TTLHours,
		"pid_file", pidPath,
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for {
		sig := <-sigChan
		if sig == syscall.SIGHUP {
			slog.Info("received SIGHUP, restarting")
			execPath, err := os.Executable()
			if err != nil {
				slog.Error("failed to get executable path", "error", err)
				continue
			}
			os.Remove(pidPath)
			if err := syscall.Exec(execPath, os.Args, os.Environ()); err != nil {
				slog.Error("failed to re-exec", "error", err)
				if _, writeErr := writePIDFile(cfg.DataDir); writeErr != nil {
					slog.Error("failed to re-write PID file", "error", writeErr)
				}
				continue
			}
		}
		slog.Info("shutting down", "signal", sig)
		return nil
	}
}
