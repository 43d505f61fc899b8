package analysis

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	MinDifficulty = 1
	MaxDifficulty = 6
)

// Level is a CEFR proficiency label.
type Level string

const (
	A1 Level = "A1"
	A2 Level = "A2"
	B1 Level = "B1"
	B2 Level = "B2"
	C1 Level = "C1"
	C2 Level = "C2"
)

// Levels lists the proficiency labels from easiest to hardest.
var Levels = []Level{A1, A2, B1, B2, C1, C2}

// ParseLevel accepts an empty string (no level requested) or one of the
// six labels, case-insensitively.
func ParseLevel(s string) (Level, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}
	for _, l := range Levels {
		if string(l) == s {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown proficiency level %q", s)
}

type VocabularyItem struct {
	Word            string `json:"word"`
	DifficultyLevel int    `json:"difficulty_level"`
	Frequency       int    `json:"frequency"`
	ExampleContext  string `json:"example_context"`
	// Definition is not populated yet.
	Definition string `json:"definition"`
}

type GrammarPattern struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Examples        []string `json:"examples"`
	DifficultyLevel int      `json:"difficulty_level"`
}

type TimeRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type ConversationSegment struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	DifficultyLevel int       `json:"difficulty_level"`
	Vocabulary      []string  `json:"vocabulary"`
	SourceTimeRange TimeRange `json:"source_time_range"`
	Speakers        []string  `json:"speakers"`
	TurnCount       int       `json:"turn_count"`
}

// Result is the terminal artifact of one pipeline run. The analyzer fills
// the analysis fields; the pipeline adds run metadata.
type Result struct {
	ConversationSegments      []ConversationSegment `json:"conversation_segments"`
	Vocabulary                []VocabularyItem      `json:"vocabulary"`
	GrammarPatterns           []GrammarPattern      `json:"grammar_patterns"`
	OverallDifficultyLevel    int                   `json:"overall_difficulty_level"`
	SuggestedProficiencyLevel Level                 `json:"suggested_proficiency_level"`
	Topics                    []string              `json:"topics"`

	RequestedProficiencyLevel Level   `json:"requested_proficiency_level,omitempty"`
	LanguageHint              string  `json:"language_hint,omitempty"`
	DurationSeconds           float64 `json:"duration_seconds,omitempty"`
	TranscriptionMode         string  `json:"transcription_mode,omitempty"`
	Transcript                string  `json:"transcript"`
	SourceURL                 string  `json:"source_url,omitempty"`
}
