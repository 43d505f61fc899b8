package analysis

const (
	DefaultTopic     = "General Conversation"
	MinTopicKeywords = 2
)

// ExtractTopics returns every topic group with at least MinTopicKeywords
// distinct keywords among the words of text, in lexicon order. It never
// returns an empty list.
func (a *Analyzer) ExtractTopics(text string) []string {
	words := make(map[string]struct{})
	for _, w := range Tokenize(text) {
		words[w] = struct{}{}
	}

	var topics []string
	for _, group := range a.lexicon.Topics {
		hits := 0
		seen := make(map[string]struct{}, len(group.Keywords))
		for _, kw := range group.Keywords {
			if _, dup := seen[kw]; dup {
				continue
			}
			seen[kw] = struct{}{}
			if _, ok := words[kw]; ok {
				hits++
			}
		}
		if hits >= MinTopicKeywords {
			topics = append(topics, group.Name)
		}
	}

	if len(topics) == 0 {
		return []string{DefaultTopic}
	}
	return topics
}
