package analysis

import (
	"regexp"
	"strings"
)

var (
	punctuation = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	sentenceRe  = regexp.MustCompile(`[^.!?]+[.!?]*`)
)

// Tokenize lowercases text, strips punctuation and splits on whitespace.
func Tokenize(text string) []string {
	return strings.Fields(punctuation.ReplaceAllString(strings.ToLower(text), ""))
}

// SplitSentences returns the trimmed sentences of text, terminators kept.
func SplitSentences(text string) []string {
	var out []string
	for _, s := range sentenceRe.FindAllString(text, -1) {
		s = strings.TrimSpace(s)
		if len(Tokenize(s)) == 0 {
			continue
		}
		out = append(out, s)
	}
	return out
}

// frequencies counts tokens and records the order of first occurrence so
// ranking ties resolve deterministically.
func frequencies(tokens []string, keep func(string) bool) (map[string]int, []string) {
	counts := make(map[string]int)
	var order []string
	for _, t := range tokens {
		if !keep(t) {
			continue
		}
		if counts[t] == 0 {
			order = append(order, t)
		}
		counts[t]++
	}
	return counts, order
}
