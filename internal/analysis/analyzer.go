// Package analysis turns a transcript and its speaker turns into
// language-learning material: vocabulary, grammar patterns, difficulty,
// topics and conversation segments. Every function here is pure and total.
package analysis

import (
	"github.com/rs/zerolog/log"
	"github.com/user/lingualearn/internal/diarize"
)

type Analyzer struct {
	lexicon *Lexicon
}

type Option func(*Analyzer)

// WithLexicon replaces the embedded reference data.
func WithLexicon(l *Lexicon) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.lexicon = l
		}
	}
}

func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{lexicon: DefaultLexicon()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze runs every sub-analysis over the transcript text and its turns.
func (a *Analyzer) Analyze(transcript string, turns []diarize.Turn) Result {
	vocabulary := a.ExtractVocabulary(transcript)
	difficulty := CalculateContentDifficulty(transcript)

	res := Result{
		ConversationSegments:      a.SegmentConversation(turns),
		Vocabulary:                vocabulary,
		GrammarPatterns:           DetectGrammarPatterns(transcript),
		OverallDifficultyLevel:    difficulty,
		SuggestedProficiencyLevel: SuggestProficiencyLevel(difficulty, vocabulary),
		Topics:                    a.ExtractTopics(transcript),
		Transcript:                transcript,
	}

	log.Debug().
		Int("segments", len(res.ConversationSegments)).
		Int("vocabulary", len(res.Vocabulary)).
		Int("grammar_patterns", len(res.GrammarPatterns)).
		Int("difficulty", difficulty).
		Str("level", string(res.SuggestedProficiencyLevel)).
		Strs("topics", res.Topics).
		Msg("Content analysis completed")

	return res
}
