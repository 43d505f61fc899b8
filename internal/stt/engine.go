package stt

import (
	"context"
	"slices"
)

// ContentTypeWAV is the container every chunk is sent to engines in.
const ContentTypeWAV = "audio/wav"

// Segment is a time-aligned piece of transcript. Times are seconds from the
// start of the audio the engine was given, or of the whole recording once
// stitched.
type Segment struct {
	ID         int     `json:"id"`
	Text       string  `json:"text"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Request is a single engine call for one audio chunk.
type Request struct {
	Audio             []byte
	ContentType       string
	SampleRate        int
	LanguageHint      string
	IncludeTimestamps bool
	DurationSeconds   float64
}

// Result is what an engine returns for one chunk. Segments may be empty
// when the engine cannot align text to time.
type Result struct {
	Text     string
	Segments []Segment
}

// Engine is a speech transcription backend.
type Engine interface {
	Name() string
	// Available reports whether the engine is configured well enough to be
	// called at all (credentials, model files).
	Available() bool
	SupportedContentTypes() []string
	Transcribe(ctx context.Context, req Request) (Result, error)
}

func accepts(e Engine, contentType string) bool {
	return slices.Contains(e.SupportedContentTypes(), contentType)
}

// WholeChunkSegment spans text over the entire chunk for engines that
// return no timing.
func WholeChunkSegment(text string, duration float64, confidence float64) []Segment {
	if text == "" {
		return nil
	}
	return []Segment{{Text: text, Start: 0, End: duration, Confidence: confidence}}
}
