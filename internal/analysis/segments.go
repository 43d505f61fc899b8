package analysis

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/user/lingualearn/internal/diarize"
)

const (
	TurnsPerSegment      = 4
	maxTitleWords        = 3
	maxSegmentVocabulary = 8
	minSegmentVocabRunes = 5
)

// SegmentConversation groups turns into windows of TurnsPerSegment and
// describes each window.
func (a *Analyzer) SegmentConversation(turns []diarize.Turn) []ConversationSegment {
	segments := []ConversationSegment{}
	for start := 0; start < len(turns); start += TurnsPerSegment {
		window := turns[start:min(start+TurnsPerSegment, len(turns))]
		segments = append(segments, a.describeWindow(window, len(segments)+1))
	}
	return segments
}

func (a *Analyzer) describeWindow(window []diarize.Turn, n int) ConversationSegment {
	var (
		lines    []string
		texts    []string
		speakers []string
	)
	for _, t := range window {
		lines = append(lines, fmt.Sprintf("%s: %s", t.Speaker, t.Text))
		texts = append(texts, t.Text)
		if !slices.Contains(speakers, t.Speaker) {
			speakers = append(speakers, t.Speaker)
		}
	}
	text := strings.Join(texts, " ")
	tokens := Tokenize(text)

	return ConversationSegment{
		ID:              uuid.New(),
		Title:           a.segmentTitle(tokens, n),
		Content:         strings.Join(lines, "\n"),
		DifficultyLevel: CalculateContentDifficulty(text),
		Vocabulary:      a.segmentVocabulary(tokens),
		SourceTimeRange: TimeRange{Start: window[0].Start, End: window[len(window)-1].End},
		Speakers:        speakers,
		TurnCount:       len(window),
	}
}

// segmentTitle joins the most frequent content words of the window.
func (a *Analyzer) segmentTitle(tokens []string, n int) string {
	counts, order := frequencies(tokens, a.isContentWord)
	if len(order) == 0 {
		return fmt.Sprintf("Conversation Part %d", n)
	}

	slices.SortStableFunc(order, func(x, y string) int {
		return cmp.Compare(counts[y], counts[x])
	})
	if len(order) > maxTitleWords {
		order = order[:maxTitleWords]
	}

	words := make([]string, len(order))
	for i, w := range order {
		words[i] = capitalize(w)
	}
	return strings.Join(words, ", ")
}

func (a *Analyzer) segmentVocabulary(tokens []string) []string {
	vocab := []string{}
	for _, t := range tokens {
		if len(vocab) == maxSegmentVocabulary {
			break
		}
		if utf8.RuneCountInString(t) < minSegmentVocabRunes || a.lexicon.IsStopWord(t) || slices.Contains(vocab, t) {
			continue
		}
		vocab = append(vocab, t)
	}
	return vocab
}

func capitalize(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	if r == utf8.RuneError {
		return w
	}
	return string(unicode.ToUpper(r)) + w[size:]
}
