package audio

import (
	"context"
	"errors"
)

// ErrAudioDecode indicates the source recording could not be decoded.
// It is fatal for the run.
var ErrAudioDecode = errors.New("audio decode failed")

// Codec abstracts the external decode/encode collaborator. Duration reports
// the total length of a recording in milliseconds; Extract returns the
// encoded bytes of one time window.
type Codec interface {
	Duration(ctx context.Context, path string) (int64, error)
	Extract(ctx context.Context, path string, startMS, endMS int64) ([]byte, error)
}
