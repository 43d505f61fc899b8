package stt

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout marks an engine call that exceeded the per-chunk timeout.
	ErrTimeout = errors.New("transcription timed out")

	// ErrUnsupportedContentType is returned when the engine does not accept
	// WAV input.
	ErrUnsupportedContentType = errors.New("engine does not accept audio/wav")

	ErrNoChunks = errors.New("no audio chunks to transcribe")
)

// TranscriptionError is the all-or-nothing failure of a transcription run.
// It names how many chunks failed; no partial transcript accompanies it.
type TranscriptionError struct {
	Failed int
	Total  int
	Errs   []error
}

func (e *TranscriptionError) Error() string {
	if e.Total <= 1 {
		return fmt.Sprintf("transcription failed: %v", errors.Join(e.Errs...))
	}
	return fmt.Sprintf("transcription failed for %d of %d chunks: %v", e.Failed, e.Total, errors.Join(e.Errs...))
}

func (e *TranscriptionError) Unwrap() []error { return e.Errs }
