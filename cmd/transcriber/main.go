package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tidharon/gemini-transcriptioner/internal/artifacts"
	"github.com/tidharon/gemini-transcriptioner/internal/audio"
	"github.com/tidharon/gemini-transcriptioner/internal/config"
	"github.com/tidharon/gemini-transcriptioner/internal/gemini"
	"github.com/tidharon/gemini-transcriptioner/internal/metrics"
	"github.com/tidharon/gemini-transcriptioner/internal/pipeline"
	"github.com/tidharon/gemini-transcriptioner/internal/quota"
	"github.com/tidharon/gemini-transcriptioner/internal/server"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "gemini-transcriptioner"
	serviceVersion    = "1.0.0"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	inputPath := flag.String("input", "", "Path to the audio file to transcribe (required)")
	outputPath := flag.String("output", "", "Path for the combined transcript (default: <input>.transcript.txt)")
	accountsFlag := flag.String("accounts", "", "Comma-separated account IDs, overriding the configured priority list")
	modelFlag := flag.String("model", "", "Gemini model name, overriding the configured one")
	flag.Parse()

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: transcriber -input <audio-file> [-config <path>] [-output <path>]")
		flag.PrintDefaults()
		return 2
	}

	// Local .env files carry API keys during development; absence is fine.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Failed to load .env file: %v\n", err)
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	if *modelFlag != "" {
		cfg.Gemini.Model = *modelFlag
	}

	logger := initLogger(cfg.Logging)

	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
		slog.String("input", *inputPath),
	)
	logger.Info("Configuration loaded",
		slog.String("model", cfg.Gemini.Model),
		slog.Int("segment_length_minutes", cfg.Audio.SegmentLengthMinutes),
		slog.Int("overlap_seconds", cfg.Audio.OverlapSeconds),
		slog.Int("accounts", len(cfg.Accounts)),
		slog.String("artifacts_backend", cfg.Pipeline.ArtifactsBackend),
		slog.String("log_level", cfg.Logging.Level),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appMetrics := metrics.NewMetrics()

	ledger, err := quota.NewLedger(quota.NewJSONStore(cfg.Quota.LedgerPath), logger)
	if err != nil {
		logger.Error("Failed to open quota ledger", slog.String("error", err.Error()))
		return 1
	}
	for _, account := range cfg.Accounts {
		limit := account.DailyLimit
		if limit == 0 {
			limit = cfg.Quota.DefaultDailyLimit
		}
		if err := ledger.Register(account.ID, limit); err != nil {
			logger.Error("Failed to register account",
				slog.String("account", account.ID),
				slog.String("error", err.Error()),
			)
			return 1
		}
	}
	scheduler := quota.NewScheduler(ledger, cfg.Quota.DefaultDailyLimit, logger)

	accountIDs := cfg.AccountIDs()
	if *accountsFlag != "" {
		accountIDs = splitAccounts(*accountsFlag)
	}

	client, err := gemini.NewClient(gemini.Config{
		Endpoint:        cfg.Gemini.Endpoint,
		Model:           cfg.Gemini.Model,
		APIKey:          cfg.Gemini.APIKey,
		Timeout:         cfg.Gemini.TimeoutDuration(),
		MaxOutputTokens: cfg.Gemini.MaxOutputTokens,
	}, logger)
	if err != nil {
		logger.Error("Failed to create Gemini client", slog.String("error", err.Error()))
		return 1
	}

	runKey, err := artifacts.RunKeyFromFile(*inputPath)
	if err != nil {
		logger.Error("Failed to derive run key from input",
			slog.String("input", *inputPath),
			slog.String("error", err.Error()),
		)
		return 1
	}
	logger.Info("Run key derived", slog.String("run_key", runKey))

	store, cleanup, err := openArtifactStore(cfg.Pipeline, runKey)
	if err != nil {
		logger.Error("Failed to open artifact store", slog.String("error", err.Error()))
		return 1
	}
	defer cleanup()

	basePrompt := ""
	if cfg.Pipeline.PromptPath != "" {
		data, err := os.ReadFile(cfg.Pipeline.PromptPath)
		if err != nil {
			logger.Error("Failed to read prompt file",
				slog.String("path", cfg.Pipeline.PromptPath),
				slog.String("error", err.Error()),
			)
			return 1
		}
		basePrompt = strings.TrimSpace(string(data))
	}

	events := pipeline.NewEventBus(500)

	var httpServer *server.HTTPServer
	if cfg.HTTP.Enabled {
		httpServer = server.NewHTTPServer(server.HTTPServerConfig{
			Address: cfg.HTTP.Address,
			Port:    cfg.HTTP.Port,
		}, logger, events, ledger, appMetrics)
		if err := httpServer.Start(); err != nil {
			logger.Error("Failed to start HTTP server", slog.String("error", err.Error()))
			return 1
		}
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			if err := httpServer.Stop(shutdownCtx); err != nil {
				logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
			}
		}()
	}

	codec := audio.NewFFmpegCodec(cfg.Audio.FFmpegPath, cfg.Audio.FFprobePath)
	executor := pipeline.NewStageExecutor(client, ledger, appMetrics, logger)
	controller := pipeline.NewController(codec, executor, scheduler, appMetrics, logger, pipeline.Config{
		SegmentLengthMS: cfg.Audio.SegmentLengthMS(),
		OverlapMS:       cfg.Audio.OverlapMS(),
		SegmentPause:    cfg.Pipeline.SegmentPauseDuration(),
		BasePrompt:      basePrompt,
	})

	result, err := controller.Run(ctx, pipeline.Request{
		InputPath:  *inputPath,
		AccountIDs: accountIDs,
		Artifacts:  store,
		Sink:       events.Sink(),
	})
	if err != nil {
		attrs := []any{slog.String("error", err.Error())}
		if last, ok := events.Last(); ok {
			attrs = append(attrs, slog.String("last_progress", last.Message))
		}
		switch {
		case errors.Is(err, quota.ErrNoneAvailable):
			logger.Error("No account has remaining quota", attrs...)
		case errors.Is(err, context.Canceled):
			logger.Error("Run cancelled", attrs...)
		default:
			logger.Error("Run failed", attrs...)
		}
		return 1
	}

	target := *outputPath
	if target == "" {
		target = defaultOutputPath(*inputPath)
	}
	if err := os.WriteFile(target, []byte(result.Transcript+"\n"), 0o644); err != nil {
		logger.Error("Failed to write transcript",
			slog.String("path", target),
			slog.String("error", err.Error()),
		)
		return 1
	}

	logger.Info("Transcription complete",
		slog.String("output", target),
		slog.String("account", result.Account),
		slog.Int("segments", result.SegmentCount),
		slog.Int("degraded_stages", result.DegradedStages),
	)

	for _, summary := range ledger.Summary() {
		logger.Info("Account usage",
			slog.String("account", summary.ID),
			slog.Int64("daily_usage", summary.DailyUsage),
			slog.Int64("daily_limit", summary.DailyLimit),
			slog.String("percent_used", fmt.Sprintf("%.1f%%", summary.PercentUsed)),
			slog.Int64("total_usage", summary.TotalUsage),
		)
	}

	if result.DegradedStages > 0 {
		logger.Warn("Transcript contains degraded segments",
			slog.Int("degraded_stages", result.DegradedStages),
		)
	}

	return 0
}

// openArtifactStore builds the configured checkpoint store. The fs backend
// scopes checkpoints by run key directory; the sqlite backend scopes rows.
func openArtifactStore(cfg config.PipelineConfig, runKey string) (artifacts.Store, func(), error) {
	switch cfg.ArtifactsBackend {
	case "sqlite":
		store, err := artifacts.OpenSQLiteStore(cfg.ArtifactsDB, runKey)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	default:
		store, err := artifacts.NewFSStore(filepath.Join(cfg.ArtifactsDir, runKey))
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}

func defaultOutputPath(inputPath string) string {
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, ext) + ".transcript.txt"
}

func splitAccounts(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var output *os.File
	switch cfg.Output {
	case "stdout":
		output = os.Stdout
	default:
		output = os.Stderr
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
