package analysis

import "unicode/utf8"

const longWordRunes = 6

// CalculateContentDifficulty scores text from 1 to 6. Each crossed
// threshold on sentence length, word length and long-word share adds one.
func CalculateContentDifficulty(text string) int {
	words := Tokenize(text)
	if len(words) == 0 {
		return MinDifficulty
	}

	sentences := len(SplitSentences(text))
	if sentences == 0 {
		sentences = 1
	}

	var runes, long int
	for _, w := range words {
		n := utf8.RuneCountInString(w)
		runes += n
		if n > longWordRunes {
			long++
		}
	}

	wordsPerSentence := float64(len(words)) / float64(sentences)
	avgWordLen := float64(runes) / float64(len(words))
	longShare := float64(long) / float64(len(words))

	score := MinDifficulty
	for _, crossed := range []bool{
		wordsPerSentence > 15,
		wordsPerSentence > 25,
		avgWordLen > 5,
		avgWordLen > 6.5,
		longShare > 0.3,
		longShare > 0.5,
	} {
		if crossed {
			score++
		}
	}
	return min(score, MaxDifficulty)
}

// SuggestProficiencyLevel averages the content score with the mean
// vocabulary difficulty. An empty vocabulary counts as the content score.
func SuggestProficiencyLevel(contentScore int, vocabulary []VocabularyItem) Level {
	mean := float64(contentScore)
	if len(vocabulary) > 0 {
		var sum int
		for _, v := range vocabulary {
			sum += v.DifficultyLevel
		}
		mean = float64(sum) / float64(len(vocabulary))
	}
	return levelFor((float64(contentScore) + mean) / 2)
}

func levelFor(score float64) Level {
	switch {
	case score <= 1.5:
		return A1
	case score <= 2.5:
		return A2
	case score <= 3.5:
		return B1
	case score <= 4.5:
		return B2
	case score <= 5.5:
		return C1
	default:
		return C2
	}
}
