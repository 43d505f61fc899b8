package analysis

import (
	"cmp"
	"slices"
	"unicode/utf8"
)

const (
	MaxVocabularyItems = 20
	minVocabularyRunes = 4
)

// ExtractVocabulary ranks content words by frequency (ties by first
// occurrence) and keeps the top MaxVocabularyItems.
func (a *Analyzer) ExtractVocabulary(text string) []VocabularyItem {
	counts, order := frequencies(Tokenize(text), a.isContentWord)
	if len(order) == 0 {
		return []VocabularyItem{}
	}

	slices.SortStableFunc(order, func(x, y string) int {
		return cmp.Compare(counts[y], counts[x])
	})
	if len(order) > MaxVocabularyItems {
		order = order[:MaxVocabularyItems]
	}

	sentences := SplitSentences(text)
	items := make([]VocabularyItem, 0, len(order))
	for _, w := range order {
		items = append(items, VocabularyItem{
			Word:            w,
			DifficultyLevel: a.wordDifficulty(w),
			Frequency:       counts[w],
			ExampleContext:  exampleFor(w, sentences),
		})
	}
	return items
}

func (a *Analyzer) isContentWord(w string) bool {
	return utf8.RuneCountInString(w) >= minVocabularyRunes && !a.lexicon.IsStopWord(w)
}

// wordDifficulty uses the reference lists and falls back to word length.
func (a *Analyzer) wordDifficulty(w string) int {
	if level, ok := a.lexicon.Level(w); ok {
		return level
	}
	switch n := utf8.RuneCountInString(w); {
	case n <= 4:
		return 1
	case n <= 6:
		return 2
	case n <= 8:
		return 3
	case n <= 10:
		return 4
	default:
		return 5
	}
}

func exampleFor(word string, sentences []string) string {
	for _, s := range sentences {
		if slices.Contains(Tokenize(s), word) {
			return s
		}
	}
	return ""
}
