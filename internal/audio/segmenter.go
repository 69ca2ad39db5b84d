package audio

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidConfig indicates an unusable segmentation configuration.
var ErrInvalidConfig = errors.New("invalid segmentation config")

// Span is one planned time window over the source recording.
type Span struct {
	Index   int   `json:"index"`
	StartMS int64 `json:"start_ms"`
	EndMS   int64 `json:"end_ms"`
}

// DurationMS returns the span length in milliseconds.
func (s Span) DurationMS() int64 {
	return s.EndMS - s.StartMS
}

// Segment is a bounded, possibly overlapping slice of the source audio,
// encoded as an independent sub-clip ready for transcription.
type Segment struct {
	Index   int
	StartMS int64
	EndMS   int64
	Data    []byte
}

// Plan computes the ordered list of spans covering [0, totalDurationMS].
// Consecutive spans overlap by exactly overlapMS; the final span is clamped
// to the total duration and may be shorter than segmentLengthMS.
func Plan(totalDurationMS, segmentLengthMS, overlapMS int64) ([]Span, error) {
	if totalDurationMS <= 0 {
		return nil, fmt.Errorf("%w: total duration must be positive, got %dms", ErrInvalidConfig, totalDurationMS)
	}
	if segmentLengthMS <= 0 {
		return nil, fmt.Errorf("%w: segment length must be positive, got %dms", ErrInvalidConfig, segmentLengthMS)
	}
	if overlapMS < 0 {
		return nil, fmt.Errorf("%w: overlap cannot be negative, got %dms", ErrInvalidConfig, overlapMS)
	}
	if segmentLengthMS <= overlapMS {
		return nil, fmt.Errorf("%w: segment length (%dms) must be greater than overlap (%dms)",
			ErrInvalidConfig, segmentLengthMS, overlapMS)
	}

	effectiveMS := segmentLengthMS - overlapMS
	// Ceiling division guarantees full coverage without gaps.
	count := (totalDurationMS - overlapMS + effectiveMS - 1) / effectiveMS
	if count < 1 {
		count = 1
	}

	spans := make([]Span, 0, count)
	for i := int64(0); i < count; i++ {
		start := i * effectiveMS
		end := start + segmentLengthMS
		if end > totalDurationMS {
			end = totalDurationMS
		}
		spans = append(spans, Span{
			Index:   int(i),
			StartMS: start,
			EndMS:   end,
		})
	}

	return spans, nil
}

// Segmenter materializes planned spans into encoded audio segments.
type Segmenter struct {
	codec           Codec
	segmentLengthMS int64
	overlapMS       int64
}

// NewSegmenter creates a segmenter using the given codec collaborator.
func NewSegmenter(codec Codec, segmentLengthMS, overlapMS int64) *Segmenter {
	return &Segmenter{
		codec:           codec,
		segmentLengthMS: segmentLengthMS,
		overlapMS:       overlapMS,
	}
}

// Segment decodes the source duration, plans the spans, and eagerly encodes
// every span into its own sub-clip. It returns the ordered segments and the
// total source duration in milliseconds.
func (s *Segmenter) Segment(ctx context.Context, sourcePath string) ([]Segment, int64, error) {
	totalMS, err := s.codec.Duration(ctx, sourcePath)
	if err != nil {
		return nil, 0, err
	}

	spans, err := Plan(totalMS, s.segmentLengthMS, s.overlapMS)
	if err != nil {
		return nil, 0, err
	}

	segments := make([]Segment, 0, len(spans))
	for _, span := range spans {
		data, err := s.codec.Extract(ctx, sourcePath, span.StartMS, span.EndMS)
		if err != nil {
			return nil, 0, fmt.Errorf("extracting segment %d [%d-%d]ms: %w",
				span.Index, span.StartMS, span.EndMS, err)
		}
		segments = append(segments, Segment{
			Index:   span.Index,
			StartMS: span.StartMS,
			EndMS:   span.EndMS,
			Data:    data,
		})
	}

	return segments, totalMS, nil
}
