package audio

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestPlanExample(t *testing.T) {
	spans, err := Plan(130000, 60000, 10000)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	want := []Span{
		{Index: 0, StartMS: 0, EndMS: 60000},
		{Index: 1, StartMS: 50000, EndMS: 110000},
		{Index: 2, StartMS: 100000, EndMS: 130000},
	}
	if len(spans) != len(want) {
		t.Fatalf("span count = %d, want %d", len(spans), len(want))
	}
	for i, span := range spans {
		if span != want[i] {
			t.Errorf("span[%d] = %+v, want %+v", i, span, want[i])
		}
	}
}

func TestPlanSingleSpanWhenShorterThanSegment(t *testing.T) {
	spans, err := Plan(30000, 60000, 10000)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	if len(spans) != 1 {
		t.Fatalf("span count = %d, want 1", len(spans))
	}
	if spans[0].StartMS != 0 || spans[0].EndMS != 30000 {
		t.Errorf("span = %+v, want [0-30000]", spans[0])
	}
}

func TestPlanCoverageAndOverlap(t *testing.T) {
	cases := []struct {
		total, length, overlap int64
	}{
		{130000, 60000, 10000},
		{3600000, 1500000, 30000},
		{1, 1000, 0},
		{59999, 60000, 30000},
		{60000, 60000, 30000},
		{60001, 60000, 30000},
		{7200000, 300000, 15000},
	}

	for _, tc := range cases {
		name := fmt.Sprintf("total=%d/len=%d/ov=%d", tc.total, tc.length, tc.overlap)
		t.Run(name, func(t *testing.T) {
			spans, err := Plan(tc.total, tc.length, tc.overlap)
			if err != nil {
				t.Fatalf("Plan() error = %v", err)
			}
			if len(spans) == 0 {
				t.Fatal("Plan() returned no spans")
			}

			if spans[0].StartMS != 0 {
				t.Errorf("first span starts at %d, want 0", spans[0].StartMS)
			}
			if last := spans[len(spans)-1]; last.EndMS != tc.total {
				t.Errorf("last span ends at %d, want %d", last.EndMS, tc.total)
			}

			for i, span := range spans {
				if span.Index != i {
					t.Errorf("span[%d].Index = %d", i, span.Index)
				}
				if span.DurationMS() > tc.length {
					t.Errorf("span[%d] duration %dms exceeds segment length %dms", i, span.DurationMS(), tc.length)
				}
				if i == 0 {
					continue
				}
				prev := spans[i-1]
				if span.StartMS != prev.StartMS+tc.length-tc.overlap {
					t.Errorf("span[%d].StartMS = %d, want %d", i, span.StartMS, prev.StartMS+tc.length-tc.overlap)
				}
				// No gap: each span must start at or before the previous end.
				if span.StartMS > prev.EndMS {
					t.Errorf("gap between span %d (end %d) and span %d (start %d)", i-1, prev.EndMS, i, span.StartMS)
				}
			}
		})
	}
}

func TestPlanInvalidConfig(t *testing.T) {
	cases := []struct {
		name                   string
		total, length, overlap int64
	}{
		{"overlap exceeds length", 130000, 5000, 10000},
		{"overlap equals length", 130000, 10000, 10000},
		{"zero total", 0, 60000, 10000},
		{"negative total", -5, 60000, 10000},
		{"zero length", 130000, 0, 0},
		{"negative overlap", 130000, 60000, -1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Plan(tc.total, tc.length, tc.overlap); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Plan() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

// fakeCodec returns canned duration and synthesized segment bytes.
type fakeCodec struct {
	durationMS int64
	durationErr error
	extracts   []Span
}

func (f *fakeCodec) Duration(ctx context.Context, path string) (int64, error) {
	if f.durationErr != nil {
		return 0, f.durationErr
	}
	return f.durationMS, nil
}

func (f *fakeCodec) Extract(ctx context.Context, path string, startMS, endMS int64) ([]byte, error) {
	f.extracts = append(f.extracts, Span{Index: len(f.extracts), StartMS: startMS, EndMS: endMS})
	return []byte(fmt.Sprintf("clip-%d-%d", startMS, endMS)), nil
}

func TestSegmenterMaterializesEagerly(t *testing.T) {
	codec := &fakeCodec{durationMS: 130000}
	segmenter := NewSegmenter(codec, 60000, 10000)

	segments, totalMS, err := segmenter.Segment(context.Background(), "lecture.mp3")
	if err != nil {
		t.Fatalf("Segment() error = %v", err)
	}

	if totalMS != 130000 {
		t.Errorf("totalMS = %d, want 130000", totalMS)
	}
	if len(segments) != 3 {
		t.Fatalf("segment count = %d, want 3", len(segments))
	}
	if len(codec.extracts) != 3 {
		t.Fatalf("extract calls = %d, want 3", len(codec.extracts))
	}
	for i, seg := range segments {
		if seg.Index != i {
			t.Errorf("segment[%d].Index = %d", i, seg.Index)
		}
		if len(seg.Data) == 0 {
			t.Errorf("segment[%d] has no encoded bytes", i)
		}
	}
}

func TestSegmenterPropagatesDecodeFailure(t *testing.T) {
	codec := &fakeCodec{durationErr: fmt.Errorf("%w: corrupt header", ErrAudioDecode)}
	segmenter := NewSegmenter(codec, 60000, 10000)

	_, _, err := segmenter.Segment(context.Background(), "broken.mp3")
	if !errors.Is(err, ErrAudioDecode) {
		t.Fatalf("Segment() error = %v, want ErrAudioDecode", err)
	}
}
