package pipeline

import (
	"errors"
	"fmt"

	"github.com/user/lingualearn/internal/media"
)

type Stage string

const (
	StageValidate   Stage = "validate"
	StageStore      Stage = "store"
	StageProbe      Stage = "probe"
	StageTranscode  Stage = "transcode"
	StageChunk      Stage = "chunk"
	StageTranscribe Stage = "transcribe"
	StageSegment    Stage = "segment"
	StageAnalyze    Stage = "analyze"
)

// Error reports which stage stopped a pipeline run.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("pipeline failed at %s stage: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// refineStage attributes probe failures inside the transcode stage to the
// probe stage.
func refineStage(stage Stage, err error) Stage {
	if stage != StageTranscode {
		return stage
	}
	var probeErr *media.ProbeError
	if errors.Is(err, media.ErrNoAudioTrack) || errors.As(err, &probeErr) {
		return StageProbe
	}
	return stage
}
