package analysis

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/lexicon.yaml
var defaultLexiconYAML []byte

// TopicGroup is a named set of keywords. A topic is detected when at least
// MinTopicKeywords distinct keywords from the group occur in the text.
type TopicGroup struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Lexicon holds the reference data the analyzer scores against.
type Lexicon struct {
	Levels    map[int][]string `yaml:"levels"`
	StopWords []string         `yaml:"stop_words"`
	Topics    []TopicGroup     `yaml:"topics"`

	levelOf map[string]int
	stop    map[string]struct{}
}

var (
	defaultLexiconOnce sync.Once
	defaultLexicon     *Lexicon
)

// DefaultLexicon returns the embedded reference data.
func DefaultLexicon() *Lexicon {
	defaultLexiconOnce.Do(func() {
		lex, err := LoadLexicon(bytes.NewReader(defaultLexiconYAML))
		if err != nil {
			panic(fmt.Sprintf("analysis: embedded lexicon: %v", err))
		}
		defaultLexicon = lex
	})
	return defaultLexicon
}

// LoadLexicon decodes a YAML lexicon. Unknown keys are rejected.
func LoadLexicon(r io.Reader) (*Lexicon, error) {
	var lex Lexicon
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&lex); err != nil {
		return nil, fmt.Errorf("analysis: decode lexicon: %w", err)
	}
	if err := lex.index(); err != nil {
		return nil, err
	}
	return &lex, nil
}

func (l *Lexicon) index() error {
	l.levelOf = make(map[string]int)
	for level, words := range l.Levels {
		if level < MinDifficulty || level > MaxDifficulty {
			return fmt.Errorf("analysis: lexicon level %d out of range %d..%d", level, MinDifficulty, MaxDifficulty)
		}
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			// A word listed at several levels keeps the easiest one.
			if cur, ok := l.levelOf[w]; !ok || level < cur {
				l.levelOf[w] = level
			}
		}
	}

	l.stop = make(map[string]struct{}, len(l.StopWords))
	for _, w := range l.StopWords {
		l.stop[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}

	for i, t := range l.Topics {
		if t.Name == "" {
			return fmt.Errorf("analysis: lexicon topic %d has no name", i)
		}
		if len(t.Keywords) == 0 {
			return fmt.Errorf("analysis: lexicon topic %q has no keywords", t.Name)
		}
		for j, kw := range t.Keywords {
			l.Topics[i].Keywords[j] = strings.ToLower(strings.TrimSpace(kw))
		}
	}
	return nil
}

// IsStopWord reports whether w is on the stop list.
func (l *Lexicon) IsStopWord(w string) bool {
	_, ok := l.stop[w]
	return ok
}

// Level returns the reference difficulty of w, or false when w is in no
// list.
func (l *Lexicon) Level(w string) (int, bool) {
	level, ok := l.levelOf[w]
	return level, ok
}
