package media

import (
	"errors"
	"fmt"
)

// ErrNoAudioTrack is returned when a video carries no audio stream. Silence
// is never substituted.
var ErrNoAudioTrack = errors.New("media has no audio track")

// ProbeError reports that ffprobe could not read the media.
type ProbeError struct {
	Msg string
	Err error
}

func (e *ProbeError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("probe failed: %s", e.Msg)
	}
	return fmt.Sprintf("probe failed: %v", e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// TranscodeError carries the transcoding engine's message for a failed
// extraction or normalization.
type TranscodeError struct {
	Op  string // "extract" or "normalize"
	Msg string
	Err error
}

func (e *TranscodeError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s audio: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("%s audio: %v", e.Op, e.Err)
}

func (e *TranscodeError) Unwrap() error { return e.Err }
