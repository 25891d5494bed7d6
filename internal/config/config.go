package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ModelEntry configures an additional named model endpoint beyond the
// default one in the llm block.
type ModelEntry struct {
	BaseURL string `json:"base_url"`
	APIKey  string `json:"api_key,omitempty"`
}

type Config struct {
	DataDir       string `json:"data_dir"`
	LogLevel      string `json:"log_level"`
	Listen        string `json:"listen"`
	MaxConcurrent int    `json:"max_concurrent"`
	LLM           struct {
		BaseURL        string  `json:"base_url"`
		APIKey         string  `json:"api_key"`
		Model          string  `json:"model"`
		MaxTokens      int     `json:"max_tokens"`
		Temperature    float32 `json:"temperature"`
		TopP           float32 `json:"top_p"`
		RepeatPenalty  float32 `json:"repeat_penalty"`
		ContextTokens  int     `json:"context_tokens"`
		TimeoutMinutes int     `json:"timeout_minutes"`
	} `json:"llm"`
	Models  map[string]ModelEntry `json:"models,omitempty"`
	Context struct {
		CompactThreshold int `json:"compact_threshold"`
		CompactMinLength int `json:"compact_min_length"`
		RecentWindow     int `json:"recent_window"`
		SummaryWindow    int `json:"summary_window"`
	} `json:"context"`
	Retention struct {
		TTLHours      int    `json:"ttl_hours"`
		SweepSchedule string `json:"sweep_schedule"`
	} `json:"retention"`
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		DataDir:       filepath.Join(os.Getenv("HOME"), ".sheetpilot"),
		MaxConcurrent: 2,
	}
	cfg.LogLevel = "info"
	cfg.Listen = "127.0.0.1:8787"
	cfg.LLM.BaseURL = "http://127.0.0.1:8080"
	cfg.LLM.Model = "phi-3.5-mini"
	cfg.LLM.MaxTokens = 1024
	cfg.LLM.Temperature = 0.7
	cfg.LLM.TopP = 0.9
	cfg.LLM.RepeatPenalty = 1.1
	cfg.LLM.ContextTokens = 8192
	cfg.LLM.TimeoutMinutes = 5
	cfg.Context.CompactThreshold = 25
	cfg.Context.CompactMinLength = 15
	cfg.Context.RecentWindow = 8
	cfg.Context.SummaryWindow = 12
	cfg.Retention.TTLHours = 0 // disabled
	cfg.Retention.SweepSchedule = "0 * * * *"

	// Load from file if exists, otherwise write defaults
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if os.IsNotExist(err) {
		if err := Save(path, cfg); err != nil {
			return nil, err
		}
	}

	// Override from env (highest precedence)
	if baseURL := os.Getenv("LLAMACPP_BASE_URL"); baseURL != "" {
		cfg.LLM.BaseURL = baseURL
	}
	if apiKey := os.Getenv("LLAMACPP_API_KEY"); apiKey != "" {
		cfg.LLM.APIKey = apiKey
	}

	return cfg, nil
}

// Save writes the config as indented JSON, atomically via temp file and rename.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	data = append(data, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}
