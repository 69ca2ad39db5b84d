package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tidharon/gemini-transcriptioner/internal/artifacts"
	"github.com/tidharon/gemini-transcriptioner/internal/audio"
	"github.com/tidharon/gemini-transcriptioner/internal/metrics"
	"github.com/tidharon/gemini-transcriptioner/internal/quota"
	"github.com/tidharon/gemini-transcriptioner/internal/transcript"
)

// Config contains controller tuning.
type Config struct {
	SegmentLengthMS int64
	OverlapMS       int64
	// SegmentPause is the fixed wait between segments, skipped after the
	// last one, to stay under upstream rate limits.
	SegmentPause time.Duration
	// BasePrompt overrides DefaultPrompt for both stages when non-empty.
	BasePrompt string
}

// Request describes one transcription run.
type Request struct {
	InputPath  string
	AccountIDs []string
	Artifacts  artifacts.Store
	Sink       Sink
}

// Result is the outcome of a completed run.
type Result struct {
	Transcript     string
	Account        string
	SegmentCount   int
	DegradedStages int
}

// Controller owns one run at a time: segmentation, the per-segment stage
// state machine, and combining. Execution is strictly sequential; the only
// suspension points are the remote calls and the inter-segment pause.
type Controller struct {
	codec     audio.Codec
	executor  *StageExecutor
	scheduler *quota.Scheduler
	metrics   *metrics.Metrics
	logger    *slog.Logger
	config    Config
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewController creates a pipeline controller. metrics may be nil.
func NewController(codec audio.Codec, executor *StageExecutor, scheduler *quota.Scheduler, m *metrics.Metrics, logger *slog.Logger, config Config) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if config.SegmentPause == 0 {
		config.SegmentPause = 2 * time.Second
	}
	if config.BasePrompt == "" {
		config.BasePrompt = DefaultPrompt
	}
	return &Controller{
		codec:     codec,
		executor:  executor,
		scheduler: scheduler,
		metrics:   m,
		logger:    logger,
		config:    config,
		sleep:     sleepCtx,
	}
}

// Run executes one full transcription run. Individual stage failures
// degrade that segment's output; Run aborts only on invalid configuration,
// audio decode failure, cancellation, or when no account has quota.
func (c *Controller) Run(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	if c.metrics != nil {
		c.metrics.RecordRunStarted()
	}

	result, err := c.run(ctx, req)
	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordRunFailed(time.Since(start).Seconds())
		}
		return Result{}, err
	}

	if c.metrics != nil {
		c.metrics.RecordRunCompleted(time.Since(start).Seconds())
	}
	return result, nil
}

func (c *Controller) run(ctx context.Context, req Request) (Result, error) {
	emit := func(event Event) {
		if req.Sink != nil {
			req.Sink(event)
		}
	}

	emit(Event{Stage: StageSegmenting, SegmentIndex: -1, Percent: 0, Message: "Splitting audio into segments"})

	segmenter := audio.NewSegmenter(c.codec, c.config.SegmentLengthMS, c.config.OverlapMS)
	segments, totalMS, err := segmenter.Segment(ctx, req.InputPath)
	if err != nil {
		return Result{}, err
	}
	count := len(segments)

	c.logger.Info("Audio segmented",
		slog.String("input", req.InputPath),
		slog.Float64("duration_min", float64(totalMS)/1000/60),
		slog.Int("segments", count),
	)
	if c.metrics != nil {
		for _, seg := range segments {
			c.metrics.RecordSegmentPlanned(float64(seg.EndMS-seg.StartMS)/1000, len(seg.Data))
		}
	}
	emit(Event{
		Stage:        StageSegmenting,
		SegmentIndex: -1,
		SegmentCount: count,
		Percent:      100.0 / 3,
		Message:      fmt.Sprintf("Audio split into %d segments", count),
	})

	// One account serves the whole run, so resumed checkpoints stay
	// attributable to a single account and billing stays predictable.
	account, err := c.scheduler.Select(req.AccountIDs)
	if err != nil {
		return Result{}, err
	}
	c.logger.Info("Account pinned for run", slog.String("account", account))

	degraded := 0
	cleaned := make([]string, 0, count)

	for i, seg := range segments {
		rawText, rawDegraded, err := c.runTranscribeStage(ctx, req, emit, account, seg, count)
		if err != nil {
			return Result{}, err
		}
		if rawDegraded {
			degraded++
		}

		processed, procDegraded, err := c.runCleanupStage(ctx, req, emit, account, seg.Index, count, rawText)
		if err != nil {
			return Result{}, err
		}
		if procDegraded {
			degraded++
		}
		cleaned = append(cleaned, processed)

		if i < count-1 {
			if err := c.sleep(ctx, c.config.SegmentPause); err != nil {
				return Result{}, err
			}
		}
	}

	emit(Event{Stage: StageCombining, SegmentIndex: -1, SegmentCount: count, Percent: 95, Message: "Combining segment transcripts"})

	combined, err := transcript.Combine(cleaned)
	if err != nil {
		return Result{}, err
	}

	emit(Event{Stage: StageDone, SegmentIndex: -1, SegmentCount: count, Percent: 100, Message: "Transcription complete"})

	return Result{
		Transcript:     combined,
		Account:        account,
		SegmentCount:   count,
		DegradedStages: degraded,
	}, nil
}

// runTranscribeStage resolves stage 1 for one segment: checkpoint hit,
// successful remote call, or degraded error-marker output.
func (c *Controller) runTranscribeStage(ctx context.Context, req Request, emit Sink, account string, seg audio.Segment, count int) (string, bool, error) {
	if cached, ok, err := req.Artifacts.Get(seg.Index, artifacts.StageRaw); err != nil {
		return "", false, fmt.Errorf("reading raw checkpoint for segment %d: %w", seg.Index, err)
	} else if ok {
		if c.metrics != nil {
			c.metrics.RecordCheckpointHit(StageTranscribing)
		}
		c.logger.Info("Using existing raw transcript",
			slog.Int("segment", seg.Index),
			slog.Int("chars", len(cached)),
		)
		return cached, false, nil
	}

	emit(Event{
		Stage:        StageTranscribing,
		SegmentIndex: seg.Index,
		SegmentCount: count,
		Percent:      stagePercent(2*seg.Index, count),
		Message:      fmt.Sprintf("Transcribing segment %d/%d", seg.Index+1, count),
	})

	prompt := transcribePrompt(c.config.BasePrompt, seg.Index, count)
	text, err := c.executor.Transcribe(ctx, account, seg, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}
		text = fmt.Sprintf("[error: transcribing segment %d failed: %v]", seg.Index+1, err)
		c.logger.Error("Transcription stage failed, continuing degraded",
			slog.Int("segment", seg.Index),
			slog.String("error", err.Error()),
		)
		if err := req.Artifacts.Put(seg.Index, artifacts.StageRaw, text); err != nil {
			return "", false, fmt.Errorf("writing raw checkpoint for segment %d: %w", seg.Index, err)
		}
		return text, true, nil
	}

	if err := req.Artifacts.Put(seg.Index, artifacts.StageRaw, text); err != nil {
		return "", false, fmt.Errorf("writing raw checkpoint for segment %d: %w", seg.Index, err)
	}
	return text, false, nil
}

// runCleanupStage resolves stage 2 for one segment. It always runs once
// stage 1 settled, even on a stage 1 failure marker, so the run yields a
// complete (possibly degraded) transcript.
func (c *Controller) runCleanupStage(ctx context.Context, req Request, emit Sink, account string, index, count int, rawText string) (string, bool, error) {
	if cached, ok, err := req.Artifacts.Get(index, artifacts.StageProcessed); err != nil {
		return "", false, fmt.Errorf("reading processed checkpoint for segment %d: %w", index, err)
	} else if ok {
		if c.metrics != nil {
			c.metrics.RecordCheckpointHit(StageProcessing)
		}
		c.logger.Info("Using existing processed transcript",
			slog.Int("segment", index),
			slog.Int("chars", len(cached)),
		)
		return cached, false, nil
	}

	emit(Event{
		Stage:        StageProcessing,
		SegmentIndex: index,
		SegmentCount: count,
		Percent:      stagePercent(2*index+1, count),
		Message:      fmt.Sprintf("Processing transcript of segment %d/%d", index+1, count),
	})

	prompt := cleanupPrompt(c.config.BasePrompt, index, count, rawText)
	text, err := c.executor.Cleanup(ctx, account, prompt, rawText)
	if err != nil {
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}
		// Keep the raw text under the marker so nothing is lost.
		text = fmt.Sprintf("[error: processing segment %d failed: %v]\n\n%s", index+1, err, rawText)
		c.logger.Error("Cleanup stage failed, continuing degraded",
			slog.Int("segment", index),
			slog.String("error", err.Error()),
		)
		if err := req.Artifacts.Put(index, artifacts.StageProcessed, text); err != nil {
			return "", false, fmt.Errorf("writing processed checkpoint for segment %d: %w", index, err)
		}
		return text, true, nil
	}

	if err := req.Artifacts.Put(index, artifacts.StageProcessed, text); err != nil {
		return "", false, fmt.Errorf("writing processed checkpoint for segment %d: %w", index, err)
	}
	return text, false, nil
}

// stagePercent maps completed stage units (two per segment) onto the
// progress band between segmentation (33%) and combining (95%).
func stagePercent(unit, count int) float64 {
	const lo, hi = 100.0 / 3, 95.0
	return lo + float64(unit)/float64(2*count)*(hi-lo)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
