package stt

import (
	"context"
	"strings"
)

// StandInLabel prefixes every stand-in transcript so nobody mistakes it for
// real speech recognition output.
const StandInLabel = "[Stand-in transcript]"

var standInLines = []string{
	StandInLabel + " No transcription engine is configured, so this sample dialogue replaces the recording.",
	"Hello, welcome to today's lesson about travel and everyday conversation.",
	"Thank you. I would like to practice ordering food at a restaurant.",
	"Of course. Imagine you are visiting a small restaurant in the city center.",
	"I have been to many cities, but I always feel nervous when I order.",
	"If you practice a little every day, you will feel more confident.",
}

var _ Engine = (*StandIn)(nil)

// StandIn returns a fixed, clearly labeled sample transcript. It lets the
// rest of the pipeline run when no real engine is available.
type StandIn struct{}

func NewStandIn() *StandIn { return &StandIn{} }

func (*StandIn) Name() string { return "stand-in" }

func (*StandIn) Available() bool { return true }

func (*StandIn) SupportedContentTypes() []string {
	return []string{ContentTypeWAV}
}

// Transcribe spreads the sample lines evenly over the chunk duration with a
// pause after each line.
func (*StandIn) Transcribe(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	step := req.DurationSeconds / float64(len(standInLines))
	if step <= 0 {
		step = 3
	}

	segments := make([]Segment, 0, len(standInLines))
	for i, line := range standInLines {
		start := float64(i) * step
		segments = append(segments, Segment{
			ID:    i,
			Text:  line,
			Start: start,
			End:   start + step*0.6,
		})
	}

	return Result{
		Text:     strings.Join(standInLines, " "),
		Segments: segments,
	}, nil
}
