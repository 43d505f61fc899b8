package diarize

import (
	"reflect"
	"testing"

	"github.com/user/lingualearn/internal/stt"
)

func TestGapSplitsSpeakers(t *testing.T) {
	tests := []struct {
		name string
		gap  float64
		want []string
	}{
		{name: "above threshold", gap: 2.1, want: []string{"Speaker 1", "Speaker 2"}},
		{name: "below threshold", gap: 1.9, want: []string{"Speaker 1"}},
		{name: "exactly threshold", gap: 2.0, want: []string{"Speaker 1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segments := []stt.Segment{
				{Text: "First.", Start: 0, End: 1},
				{Text: "Second.", Start: 1 + tt.gap, End: 2 + tt.gap},
			}
			turns := IdentifySpeakers(segments)

			var got []string
			for _, turn := range turns {
				got = append(got, turn.Speaker)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got speakers %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMergesConsecutiveSameSpeakerSegments(t *testing.T) {
	segments := []stt.Segment{
		{Text: "Hi there.", Start: 0, End: 1},
		{Text: "How are you?", Start: 1.5, End: 3},
		{Text: "Fine, thanks.", Start: 6, End: 7},
		{Text: "And you?", Start: 7.2, End: 8},
		{Text: "Great.", Start: 12, End: 13},
	}

	want := []Turn{
		{Speaker: "Speaker 1", Text: "Hi there. How are you?", Start: 0, End: 3},
		{Speaker: "Speaker 2", Text: "Fine, thanks. And you?", Start: 6, End: 8},
		{Speaker: "Speaker 3", Text: "Great.", Start: 12, End: 13},
	}

	if got := IdentifySpeakers(segments); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v\nwant %+v", got, want)
	}
}

func TestSingleSegmentIsSpeakerOne(t *testing.T) {
	turns := IdentifySpeakers([]stt.Segment{{Text: "Only one.", Start: 0, End: 2}})
	if len(turns) != 1 || turns[0].Speaker != "Speaker 1" || turns[0].Text != "Only one." {
		t.Fatalf("unexpected turns %+v", turns)
	}
}

func TestEmptyInput(t *testing.T) {
	if turns := IdentifySpeakers(nil); turns != nil {
		t.Fatalf("expected nil, got %+v", turns)
	}
}

func TestIdentifySpeakersIsDeterministic(t *testing.T) {
	segments := []stt.Segment{
		{Text: "a", Start: 0, End: 1},
		{Text: "b", Start: 4, End: 5},
		{Text: "c", Start: 5.5, End: 6},
	}
	first := IdentifySpeakers(segments)
	second := IdentifySpeakers(segments)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("runs differ: %+v vs %+v", first, second)
	}
}

func TestTurnsAreTimeOrderedAndNonOverlapping(t *testing.T) {
	segments := []stt.Segment{
		{Text: "a", Start: 0, End: 1},
		{Text: "b", Start: 3.5, End: 4},
		{Text: "c", Start: 4.1, End: 5},
		{Text: "d", Start: 9, End: 10},
	}
	turns := IdentifySpeakers(segments)
	for i := 1; i < len(turns); i++ {
		if turns[i].Start < turns[i-1].End {
			t.Fatalf("turn %d overlaps previous: %+v %+v", i, turns[i-1], turns[i])
		}
		if turns[i].Speaker == turns[i-1].Speaker {
			t.Fatalf("adjacent turns share label %q", turns[i].Speaker)
		}
	}
}
