package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete transcriber configuration
type Config struct {
	Audio    AudioConfig     `yaml:"audio"`
	Gemini   GeminiConfig    `yaml:"gemini"`
	Accounts []AccountConfig `yaml:"accounts"`
	Quota    QuotaConfig     `yaml:"quota"`
	Pipeline PipelineConfig  `yaml:"pipeline"`
	HTTP     HTTPConfig      `yaml:"http"`
	Logging  LoggingConfig   `yaml:"logging"`
}

// AudioConfig contains segmentation parameters
type AudioConfig struct {
	SegmentLengthMinutes int    `yaml:"segment_length_minutes"`
	OverlapSeconds       int    `yaml:"overlap_seconds"`
	FFmpegPath           string `yaml:"ffmpeg_path"`  // defaults to ffmpeg on PATH
	FFprobePath          string `yaml:"ffprobe_path"` // defaults to ffprobe on PATH
}

// SegmentLengthMS returns the segment length in milliseconds.
func (a *AudioConfig) SegmentLengthMS() int64 {
	return int64(a.SegmentLengthMinutes) * 60 * 1000
}

// OverlapMS returns the segment overlap in milliseconds.
func (a *AudioConfig) OverlapMS() int64 {
	return int64(a.OverlapSeconds) * 1000
}

// GeminiConfig contains the generateContent API configuration
type GeminiConfig struct {
	Endpoint        string `yaml:"endpoint"`
	Model           string `yaml:"model"`
	APIKey          string `yaml:"api_key"` // ${VAR} references are expanded from the environment
	Timeout         int    `yaml:"timeout"` // seconds
	MaxOutputTokens int    `yaml:"max_output_tokens"`
}

// AccountConfig declares one API account in priority order
type AccountConfig struct {
	ID         string `yaml:"id"`
	DailyLimit int64  `yaml:"daily_limit"` // tokens; 0 means the quota default
}

// QuotaConfig contains ledger persistence configuration
type QuotaConfig struct {
	LedgerPath        string `yaml:"ledger_path"`
	DefaultDailyLimit int64  `yaml:"default_daily_limit"` // tokens; 0 means built-in default
}

// PipelineConfig contains run orchestration parameters
type PipelineConfig struct {
	SegmentPause     float64 `yaml:"segment_pause"`     // seconds between segments
	ArtifactsBackend string  `yaml:"artifacts_backend"` // fs or sqlite
	ArtifactsDir     string  `yaml:"artifacts_dir"`
	ArtifactsDB      string  `yaml:"artifacts_db"` // sqlite file, used when backend is sqlite
	PromptPath       string  `yaml:"prompt_path"`  // optional base prompt override
}

// HTTPConfig contains the status/metrics server configuration
type HTTPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default returns a configuration with every optional field populated, so a
// minimal file only needs accounts and an API key.
func Default() *Config {
	return &Config{
		Audio: AudioConfig{
			SegmentLengthMinutes: 25,
			OverlapSeconds:       30,
		},
		Gemini: GeminiConfig{
			Endpoint:        "https://generativelanguage.googleapis.com/v1beta/models",
			Model:           "gemini-2.0-flash",
			APIKey:          "${GEMINI_API_KEY}",
			Timeout:         120,
			MaxOutputTokens: 8192,
		},
		Quota: QuotaConfig{
			LedgerPath: "quota_ledger.json",
		},
		Pipeline: PipelineConfig{
			SegmentPause:     2,
			ArtifactsBackend: "fs",
			ArtifactsDir:     "artifacts",
			ArtifactsDB:      "artifacts.db",
		},
		HTTP: HTTPConfig{
			Enabled: false,
			Address: "127.0.0.1",
			Port:    8090,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Load reads and parses the configuration file on top of the defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	config.Gemini.APIKey = os.ExpandEnv(config.Gemini.APIKey)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// TimeoutDuration returns the API timeout as a duration.
func (g *GeminiConfig) TimeoutDuration() time.Duration {
	return time.Duration(g.Timeout) * time.Second
}

// SegmentPauseDuration returns the inter-segment pause as a duration.
func (p *PipelineConfig) SegmentPauseDuration() time.Duration {
	return time.Duration(p.SegmentPause * float64(time.Second))
}

// AccountIDs returns the configured account identifiers in priority order.
func (c *Config) AccountIDs() []string {
	ids := make([]string, 0, len(c.Accounts))
	for _, account := range c.Accounts {
		ids = append(ids, account.ID)
	}
	return ids
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}

	if err := c.Gemini.Validate(); err != nil {
		return fmt.Errorf("gemini config: %w", err)
	}

	if len(c.Accounts) == 0 {
		return fmt.Errorf("accounts: at least one account is required")
	}
	seen := make(map[string]bool, len(c.Accounts))
	for i, account := range c.Accounts {
		if err := account.Validate(); err != nil {
			return fmt.Errorf("accounts[%d]: %w", i, err)
		}
		if seen[account.ID] {
			return fmt.Errorf("accounts[%d]: duplicate id '%s'", i, account.ID)
		}
		seen[account.ID] = true
	}

	if err := c.Quota.Validate(); err != nil {
		return fmt.Errorf("quota config: %w", err)
	}

	if err := c.Pipeline.Validate(); err != nil {
		return fmt.Errorf("pipeline config: %w", err)
	}

	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates segmentation configuration
func (a *AudioConfig) Validate() error {
	if a.SegmentLengthMinutes <= 0 {
		return fmt.Errorf("segment_length_minutes must be positive, got %d", a.SegmentLengthMinutes)
	}

	if a.OverlapSeconds < 0 {
		return fmt.Errorf("overlap_seconds cannot be negative, got %d", a.OverlapSeconds)
	}

	if a.OverlapMS() >= a.SegmentLengthMS() {
		return fmt.Errorf("overlap_seconds (%d) must be smaller than segment_length_minutes (%d) as a duration",
			a.OverlapSeconds, a.SegmentLengthMinutes)
	}

	return nil
}

// Validate validates Gemini API configuration
func (g *GeminiConfig) Validate() error {
	if g.Endpoint == "" {
		return fmt.Errorf("endpoint cannot be empty")
	}

	if g.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}

	if g.APIKey == "" {
		return fmt.Errorf("api_key cannot be empty (set it directly or via an environment variable reference)")
	}

	if g.Timeout < 1 {
		return fmt.Errorf("timeout must be at least 1 second, got %d", g.Timeout)
	}

	if g.MaxOutputTokens < 1 {
		return fmt.Errorf("max_output_tokens must be positive, got %d", g.MaxOutputTokens)
	}

	return nil
}

// Validate validates one account entry
func (a *AccountConfig) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("id cannot be empty")
	}

	if a.DailyLimit < 0 {
		return fmt.Errorf("daily_limit cannot be negative, got %d", a.DailyLimit)
	}

	return nil
}

// Validate validates quota configuration
func (q *QuotaConfig) Validate() error {
	if q.LedgerPath == "" {
		return fmt.Errorf("ledger_path cannot be empty")
	}

	if q.DefaultDailyLimit < 0 {
		return fmt.Errorf("default_daily_limit cannot be negative, got %d", q.DefaultDailyLimit)
	}

	return nil
}

// Validate validates pipeline configuration
func (p *PipelineConfig) Validate() error {
	if p.SegmentPause < 0 {
		return fmt.Errorf("segment_pause cannot be negative, got %f", p.SegmentPause)
	}

	switch p.ArtifactsBackend {
	case "fs":
		if p.ArtifactsDir == "" {
			return fmt.Errorf("artifacts_dir cannot be empty with the fs backend")
		}
	case "sqlite":
		if p.ArtifactsDB == "" {
			return fmt.Errorf("artifacts_db cannot be empty with the sqlite backend")
		}
	default:
		return fmt.Errorf("artifacts_backend must be 'fs' or 'sqlite', got '%s'", p.ArtifactsBackend)
	}

	return nil
}

// Validate validates HTTP configuration
func (h *HTTPConfig) Validate() error {
	if h.Enabled {
		if h.Port < 1 || h.Port > 65535 {
			return fmt.Errorf("http port must be between 1 and 65535, got %d", h.Port)
		}

		if h.Address == "" {
			return fmt.Errorf("http address cannot be empty when HTTP is enabled")
		}
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	validOutputs := map[string]bool{"stdout": true, "stderr": true}
	if !validOutputs[l.Output] {
		return fmt.Errorf("output must be 'stdout' or 'stderr', got '%s'", l.Output)
	}

	return nil
}
