package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// commandResult captures one external command invocation.
type commandResult struct {
	Stdout   []byte
	Stderr   string
	ExitCode int
}

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

// execRunner executes commands via os/exec.
type execRunner struct{}

// Run executes one command and captures stdout/stderr and exit code.
func (r *execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := commandResult{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.String(),
		ExitCode: 0,
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}

	return result, nil
}

// FFmpegCodec implements Codec by shelling out to ffmpeg and ffprobe.
type FFmpegCodec struct {
	ffmpegPath  string
	ffprobePath string
	runner      commandRunner
}

// NewFFmpegCodec creates the production codec. Empty paths fall back to
// binaries resolved from PATH.
func NewFFmpegCodec(ffmpegPath, ffprobePath string) *FFmpegCodec {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpegCodec{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		runner:      &execRunner{},
	}
}

// Duration probes the recording and returns its length in milliseconds.
func (c *FFmpegCodec) Duration(ctx context.Context, path string) (int64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}

	result, err := c.runner.Run(ctx, c.ffprobePath, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: ffprobe failed for %s: %s", ErrAudioDecode, path, strings.TrimSpace(result.Stderr))
	}

	raw := strings.TrimSpace(string(result.Stdout))
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: unparseable duration %q for %s", ErrAudioDecode, raw, path)
	}
	if seconds <= 0 {
		return 0, fmt.Errorf("%w: non-positive duration %.3fs for %s", ErrAudioDecode, seconds, path)
	}

	return int64(seconds * 1000), nil
}

// Extract decodes one time window and re-encodes it as MP3 on stdout.
func (c *FFmpegCodec) Extract(ctx context.Context, path string, startMS, endMS int64) ([]byte, error) {
	args := buildExtractArgs(path, startMS, endMS)

	result, err := c.runner.Run(ctx, c.ffmpegPath, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ffmpeg extract [%d-%d]ms failed for %s: %s",
			ErrAudioDecode, startMS, endMS, path, strings.TrimSpace(result.Stderr))
	}
	if len(result.Stdout) == 0 {
		return nil, fmt.Errorf("%w: ffmpeg produced no output for %s [%d-%d]ms",
			ErrAudioDecode, path, startMS, endMS)
	}

	return result.Stdout, nil
}

// buildExtractArgs builds the CLI args for one sub-clip export to stdout.
func buildExtractArgs(path string, startMS, endMS int64) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-v", "error",
		"-ss", formatSeconds(startMS),
		"-i", path,
		"-t", formatSeconds(endMS - startMS),
		"-vn",
		"-acodec", "libmp3lame",
		"-f", "mp3",
		"pipe:1",
	}
}

// formatSeconds renders milliseconds as fractional seconds for ffmpeg flags.
func formatSeconds(ms int64) string {
	return strconv.FormatFloat(float64(ms)/1000.0, 'f', 3, 64)
}
