package audio

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeRunner simulates external command execution.
type fakeRunner struct {
	calls []string
	run   func(name string, args ...string) (commandResult, error)
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	f.calls = append(f.calls, name+" "+strings.Join(args, " "))
	return f.run(name, args...)
}

func TestFFmpegCodecDuration(t *testing.T) {
	runner := &fakeRunner{
		run: func(name string, args ...string) (commandResult, error) {
			if name != "ffprobe" {
				t.Fatalf("command = %q, want ffprobe", name)
			}
			return commandResult{Stdout: []byte("130.027000\n")}, nil
		},
	}
	codec := &FFmpegCodec{ffmpegPath: "ffmpeg", ffprobePath: "ffprobe", runner: runner}

	ms, err := codec.Duration(context.Background(), "lecture.mp3")
	if err != nil {
		t.Fatalf("Duration() error = %v", err)
	}
	if ms != 130027 {
		t.Errorf("duration = %dms, want 130027", ms)
	}
}

func TestFFmpegCodecDurationUnparseable(t *testing.T) {
	runner := &fakeRunner{
		run: func(name string, args ...string) (commandResult, error) {
			return commandResult{Stdout: []byte("N/A\n")}, nil
		},
	}
	codec := &FFmpegCodec{ffmpegPath: "ffmpeg", ffprobePath: "ffprobe", runner: runner}

	if _, err := codec.Duration(context.Background(), "lecture.mp3"); !errors.Is(err, ErrAudioDecode) {
		t.Fatalf("Duration() error = %v, want ErrAudioDecode", err)
	}
}

func TestFFmpegCodecExtract(t *testing.T) {
	var gotArgs []string
	runner := &fakeRunner{
		run: func(name string, args ...string) (commandResult, error) {
			gotArgs = append([]string{}, args...)
			return commandResult{Stdout: []byte("mp3-bytes")}, nil
		},
	}
	codec := &FFmpegCodec{ffmpegPath: "ffmpeg", ffprobePath: "ffprobe", runner: runner}

	data, err := codec.Extract(context.Background(), "lecture.mp3", 50000, 110000)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if string(data) != "mp3-bytes" {
		t.Errorf("data = %q", data)
	}

	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{"-ss 50.000", "-t 60.000", "-i lecture.mp3", "-f mp3", "pipe:1"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args %q missing %q", joined, want)
		}
	}
}

func TestFFmpegCodecExtractFailure(t *testing.T) {
	runner := &fakeRunner{
		run: func(name string, args ...string) (commandResult, error) {
			return commandResult{Stderr: "invalid data found", ExitCode: 1}, errors.New("exit status 1")
		},
	}
	codec := &FFmpegCodec{ffmpegPath: "ffmpeg", ffprobePath: "ffprobe", runner: runner}

	_, err := codec.Extract(context.Background(), "broken.mp3", 0, 1000)
	if !errors.Is(err, ErrAudioDecode) {
		t.Fatalf("Extract() error = %v, want ErrAudioDecode", err)
	}
	if !strings.Contains(err.Error(), "invalid data found") {
		t.Errorf("error %q should carry ffmpeg stderr", err)
	}
}

func TestNewFFmpegCodecDefaults(t *testing.T) {
	codec := NewFFmpegCodec("", "")
	if codec.ffmpegPath != "ffmpeg" || codec.ffprobePath != "ffprobe" {
		t.Errorf("defaults = %q/%q, want ffmpeg/ffprobe", codec.ffmpegPath, codec.ffprobePath)
	}
}
