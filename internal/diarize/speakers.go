// Package diarize assigns heuristic speaker labels to transcript segments.
//
// This is not voice-based diarization. A new label starts whenever the
// pause between two segments exceeds GapThresholdSeconds. It mislabels
// rapid turn-taking with no pause and splits a single speaker who pauses
// mid-thought for longer than the threshold.
package diarize

import (
	"fmt"
	"strings"

	"github.com/user/lingualearn/internal/stt"
)

// GapThresholdSeconds is the silence that starts a new heuristic speaker.
const GapThresholdSeconds = 2.0

// Turn is a run of consecutive segments attributed to one heuristic
// speaker.
type Turn struct {
	Speaker string  `json:"speaker"`
	Text    string  `json:"text"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

func SpeakerLabel(n int) string {
	return fmt.Sprintf("Speaker %d", n)
}

// IdentifySpeakers walks time-ordered segments once, bumping the speaker
// counter on every gap above the threshold, and merges consecutive
// segments with the same label into turns.
func IdentifySpeakers(segments []stt.Segment) []Turn {
	if len(segments) == 0 {
		return nil
	}

	speaker := 1
	var turns []Turn
	for i, seg := range segments {
		label := SpeakerLabel(speaker)
		text := strings.TrimSpace(seg.Text)

		if n := len(turns); n > 0 && turns[n-1].Speaker == label {
			last := &turns[n-1]
			last.Text = joinText(last.Text, text)
			last.End = seg.End
		} else {
			turns = append(turns, Turn{Speaker: label, Text: text, Start: seg.Start, End: seg.End})
		}

		if i+1 < len(segments) && segments[i+1].Start-seg.End > GapThresholdSeconds {
			speaker++
		}
	}

	return turns
}

func joinText(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + " " + b
}
