package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/tidharon/gemini-transcriptioner/internal/audio"
	"github.com/tidharon/gemini-transcriptioner/internal/gemini"
	"github.com/tidharon/gemini-transcriptioner/internal/metrics"
	"github.com/tidharon/gemini-transcriptioner/internal/quota"
)

// RemoteClient is the surface of the gemini client the executor needs.
type RemoteClient interface {
	Transcribe(ctx context.Context, prompt string, audio []byte) (string, error)
	Cleanup(ctx context.Context, prompt string) (string, error)
}

// StageExecutor wraps one remote call per stage and records the estimated
// token cost into the quota ledger after each success. Costs are estimates
// derived from duration and text length, not billed truth.
type StageExecutor struct {
	client  RemoteClient
	ledger  *quota.Ledger
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewStageExecutor creates an executor. metrics may be nil.
func NewStageExecutor(client RemoteClient, ledger *quota.Ledger, m *metrics.Metrics, logger *slog.Logger) *StageExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &StageExecutor{
		client:  client,
		ledger:  ledger,
		metrics: m,
		logger:  logger,
	}
}

// Transcribe runs stage 1 for one segment under the pinned account.
func (e *StageExecutor) Transcribe(ctx context.Context, account string, seg audio.Segment, prompt string) (string, error) {
	if e.metrics != nil {
		e.metrics.RecordStageRequest(StageTranscribing)
	}

	start := time.Now()
	text, err := e.client.Transcribe(ctx, prompt, seg.Data)
	if err != nil {
		if e.metrics != nil {
			e.metrics.RecordStageFailure(StageTranscribing, time.Since(start).Seconds())
		}
		return "", err
	}

	tokens := gemini.EstimateTranscribeTokens(seg.EndMS - seg.StartMS)
	if err := e.ledger.RecordUsage(account, tokens); err != nil {
		// The call already happened; a ledger write failure must not void it.
		e.logger.Warn("Failed to record token usage",
			slog.String("account", account),
			slog.Int64("tokens", tokens),
			slog.String("error", err.Error()),
		)
	}

	if e.metrics != nil {
		e.metrics.RecordStageSuccess(StageTranscribing, time.Since(start).Seconds())
		e.metrics.RecordTokens(account, tokens)
	}
	e.logger.Debug("Transcription stage complete",
		slog.Int("segment", seg.Index),
		slog.Int("chars", len(text)),
		slog.Int64("estimated_tokens", tokens),
	)

	return text, nil
}

// Cleanup runs stage 2 for one segment under the pinned account. rawText is
// the stage 1 output the prompt embeds; it also bounds the output estimate.
func (e *StageExecutor) Cleanup(ctx context.Context, account, prompt, rawText string) (string, error) {
	if e.metrics != nil {
		e.metrics.RecordStageRequest(StageProcessing)
	}

	start := time.Now()
	text, err := e.client.Cleanup(ctx, prompt)
	if err != nil {
		if e.metrics != nil {
			e.metrics.RecordStageFailure(StageProcessing, time.Since(start).Seconds())
		}
		return "", err
	}

	tokens := gemini.EstimateCleanupTokens(prompt, rawText)
	if err := e.ledger.RecordUsage(account, tokens); err != nil {
		e.logger.Warn("Failed to record token usage",
			slog.String("account", account),
			slog.Int64("tokens", tokens),
			slog.String("error", err.Error()),
		)
	}

	if e.metrics != nil {
		e.metrics.RecordStageSuccess(StageProcessing, time.Since(start).Seconds())
		e.metrics.RecordTokens(account, tokens)
	}

	return text, nil
}
