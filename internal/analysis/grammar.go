package analysis

import "regexp"

const maxGrammarExamples = 3

type grammarRule struct {
	name        string
	description string
	pattern     *regexp.Regexp
	difficulty  int
}

// grammarRules run in this order; each contributes at most one pattern.
var grammarRules = []grammarRule{
	{
		name:        "Conditional Clauses",
		description: "If-clauses paired with a modal result clause",
		pattern:     regexp.MustCompile(`(?i)\bif\b[^.!?]*?\b(will|would|could|might)\b`),
		difficulty:  3,
	},
	{
		name:        "Perfect Tenses",
		description: "Have/has/had followed by a past participle",
		pattern:     regexp.MustCompile(`(?i)\b(have|has|had)\s+\w+(ed|en)\b`),
		difficulty:  3,
	},
	{
		name:        "Modal Verbs",
		description: "Modal auxiliary followed by a verb",
		pattern:     regexp.MustCompile(`(?i)\b(can|could|should|would|might|must|may)\s+\w+`),
		difficulty:  2,
	},
	{
		name:        "Gerunds and Subordinate Clauses",
		description: "An -ing form followed by a subordinating conjunction",
		pattern:     regexp.MustCompile(`(?i)\b\w+ing\s+(when|while|because|although|since|after|before|until)\b`),
		difficulty:  4,
	},
}

// DetectGrammarPatterns reports every rule that matches text at least once.
func DetectGrammarPatterns(text string) []GrammarPattern {
	patterns := []GrammarPattern{}
	for _, rule := range grammarRules {
		matches := rule.pattern.FindAllString(text, maxGrammarExamples)
		if len(matches) == 0 {
			continue
		}
		patterns = append(patterns, GrammarPattern{
			Name:            rule.name,
			Description:     rule.description,
			Examples:        matches,
			DifficultyLevel: rule.difficulty,
		})
	}
	return patterns
}
