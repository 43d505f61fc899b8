package analysis

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/user/lingualearn/internal/diarize"
)

func TestAnalyzeShortConversation(t *testing.T) {
	transcript := "Hello, how are you today? I am learning English."
	turns := []diarize.Turn{
		{Speaker: "Speaker 1", Text: "Hello, how are you today?", Start: 0, End: 2},
		{Speaker: "Speaker 2", Text: "I am learning English.", Start: 3, End: 5},
	}

	res := NewAnalyzer().Analyze(transcript, turns)

	if len(res.ConversationSegments) < 1 {
		t.Fatal("expected at least one conversation segment")
	}
	seg := res.ConversationSegments[0]
	if seg.TurnCount != 2 || seg.SourceTimeRange != (TimeRange{Start: 0, End: 5}) {
		t.Fatalf("unexpected segment %+v", seg)
	}
	if !reflect.DeepEqual(seg.Speakers, []string{"Speaker 1", "Speaker 2"}) {
		t.Fatalf("speakers %v", seg.Speakers)
	}

	if len(res.Vocabulary) == 0 {
		t.Fatal("expected vocabulary")
	}
	for _, v := range res.Vocabulary {
		switch v.Word {
		case "how", "are", "you", "am", "i":
			t.Fatalf("stop word %q in vocabulary", v.Word)
		}
	}

	if res.SuggestedProficiencyLevel != A1 {
		t.Fatalf("level %s, want A1", res.SuggestedProficiencyLevel)
	}
	if res.OverallDifficultyLevel != 1 {
		t.Fatalf("difficulty %d, want 1", res.OverallDifficultyLevel)
	}
	if len(res.Topics) == 0 {
		t.Fatal("topics must never be empty")
	}
	if res.Transcript != transcript {
		t.Fatalf("transcript %q", res.Transcript)
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("Hello, World!  It's  café-time.")
	want := []string{"hello", "world", "its", "cafétime"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if toks := Tokenize("  ...  "); len(toks) != 0 {
		t.Fatalf("expected no tokens, got %v", toks)
	}
}

func TestExtractVocabularyRanksAndFilters(t *testing.T) {
	a := NewAnalyzer()
	items := a.ExtractVocabulary("Apple apple banana. Banana banana cherry with the cat.")

	var words []string
	for _, it := range items {
		words = append(words, it.Word)
	}
	want := []string{"banana", "apple", "cherry"}
	if !reflect.DeepEqual(words, want) {
		t.Fatalf("got %v, want %v", words, want)
	}
	if items[0].Frequency != 3 || items[1].Frequency != 2 {
		t.Fatalf("frequencies %+v", items)
	}
	if items[0].ExampleContext != "Apple apple banana." {
		t.Fatalf("example %q", items[0].ExampleContext)
	}
	if items[2].ExampleContext != "Banana banana cherry with the cat." {
		t.Fatalf("example %q", items[2].ExampleContext)
	}
}

func TestExtractVocabularyKeepsTopTwenty(t *testing.T) {
	var words []string
	for i := 0; i < 25; i++ {
		words = append(words, fmt.Sprintf("token%c", 'a'+i))
	}
	items := NewAnalyzer().ExtractVocabulary(strings.Join(words, " "))
	if len(items) != MaxVocabularyItems {
		t.Fatalf("got %d items, want %d", len(items), MaxVocabularyItems)
	}
	if items[0].Word != "tokena" {
		t.Fatalf("ties must keep first occurrence order, got %q first", items[0].Word)
	}
}

func TestExtractVocabularyEmpty(t *testing.T) {
	items := NewAnalyzer().ExtractVocabulary("")
	if items == nil || len(items) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", items)
	}
}

func TestWordDifficulty(t *testing.T) {
	a := NewAnalyzer()
	tests := []struct {
		word string
		want int
	}{
		{"tree", 1},
		{"garden", 2},
		{"elephant", 3},
		{"strawberry", 4},
		{"extraordinary", 5},
		{"environment", 3},
		{"hello", 1},
		{"ubiquitous", 6},
	}
	for _, tt := range tests {
		if got := a.wordDifficulty(tt.word); got != tt.want {
			t.Errorf("wordDifficulty(%q) = %d, want %d", tt.word, got, tt.want)
		}
	}
}

func TestDetectGrammarPatterns(t *testing.T) {
	text := "If it rains, we will stay home. She has finished her homework. " +
		"You should listen carefully. I was reading when he called."

	patterns := DetectGrammarPatterns(text)

	var names []string
	for _, p := range patterns {
		names = append(names, p.Name)
	}
	want := []string{"Conditional Clauses", "Perfect Tenses", "Modal Verbs", "Gerunds and Subordinate Clauses"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	if patterns[1].Examples[0] != "has finished" {
		t.Fatalf("perfect example %q", patterns[1].Examples[0])
	}
	if patterns[3].Examples[0] != "reading when" {
		t.Fatalf("gerund example %q", patterns[3].Examples[0])
	}
}

func TestDetectGrammarPatternsCapsExamples(t *testing.T) {
	patterns := DetectGrammarPatterns("You can go. You can stay. You can eat. You can sleep.")
	if len(patterns) != 1 {
		t.Fatalf("got %d patterns, want 1", len(patterns))
	}
	if len(patterns[0].Examples) != maxGrammarExamples {
		t.Fatalf("got %d examples, want %d", len(patterns[0].Examples), maxGrammarExamples)
	}
}

func TestDetectGrammarPatternsNoMatch(t *testing.T) {
	patterns := DetectGrammarPatterns("Hello there.")
	if patterns == nil || len(patterns) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", patterns)
	}
}

func TestCalculateContentDifficultyBounds(t *testing.T) {
	hard := strings.Repeat("extraordinarily ", 30) + "."
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 1},
		{"simple", "I see a cat. It is big.", 1},
		{"capped", hard, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateContentDifficulty(tt.text)
			if got != tt.want {
				t.Fatalf("got %d, want %d", got, tt.want)
			}
			if got < MinDifficulty || got > MaxDifficulty {
				t.Fatalf("difficulty %d out of bounds", got)
			}
		})
	}
}

func TestSuggestProficiencyLevel(t *testing.T) {
	tests := []struct {
		name    string
		content int
		vocab   []VocabularyItem
		want    Level
	}{
		{"easiest", 1, nil, A1},
		{"hardest", 6, nil, C2},
		{"blend to B1", 3, []VocabularyItem{{DifficultyLevel: 4}}, B1},
		{"blend to B2", 4, []VocabularyItem{{DifficultyLevel: 5}}, B2},
		{"blend to A2", 1, []VocabularyItem{{DifficultyLevel: 3}, {DifficultyLevel: 3}}, A2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SuggestProficiencyLevel(tt.content, tt.vocab); got != tt.want {
				t.Fatalf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestExtractTopics(t *testing.T) {
	a := NewAnalyzer()

	if got := a.ExtractTopics(""); !reflect.DeepEqual(got, []string{DefaultTopic}) {
		t.Fatalf("empty text topics %v", got)
	}
	if got := a.ExtractTopics("I drank coffee."); !reflect.DeepEqual(got, []string{DefaultTopic}) {
		t.Fatalf("single keyword must not reach threshold, got %v", got)
	}
	if got := a.ExtractTopics("We booked a flight and a hotel for our trip."); !reflect.DeepEqual(got, []string{"Travel"}) {
		t.Fatalf("got %v, want [Travel]", got)
	}
}

func TestSegmentConversationWindows(t *testing.T) {
	var turns []diarize.Turn
	for i := 0; i < 9; i++ {
		turns = append(turns, diarize.Turn{
			Speaker: diarize.SpeakerLabel(i%2 + 1),
			Text:    "We talked about the weather forecast.",
			Start:   float64(i * 3),
			End:     float64(i*3 + 2),
		})
	}

	segs := NewAnalyzer().SegmentConversation(turns)
	if len(segs) != 3 {
		t.Fatalf("got %d segments, want 3", len(segs))
	}
	for i, want := range []int{4, 4, 1} {
		if segs[i].TurnCount != want {
			t.Errorf("segment %d has %d turns, want %d", i, segs[i].TurnCount, want)
		}
	}
	if segs[1].SourceTimeRange != (TimeRange{Start: 12, End: 23}) {
		t.Fatalf("time range %+v", segs[1].SourceTimeRange)
	}
	if segs[2].Speakers[0] != "Speaker 1" || len(segs[2].Speakers) != 1 {
		t.Fatalf("speakers %v", segs[2].Speakers)
	}
	if segs[0].ID == segs[1].ID {
		t.Fatal("segment ids must be distinct")
	}
	if !strings.HasPrefix(segs[0].Content, "Speaker 1: We talked") {
		t.Fatalf("content %q", segs[0].Content)
	}
}

func TestSegmentTitleAndVocabulary(t *testing.T) {
	a := NewAnalyzer()
	segs := a.SegmentConversation([]diarize.Turn{
		{Speaker: "Speaker 1", Text: "Coffee coffee coffee tastes great.", Start: 0, End: 1},
		{Speaker: "Speaker 2", Text: "Coffee in the morning tastes better.", Start: 2, End: 3},
	})
	if segs[0].Title != "Coffee, Tastes, Great" {
		t.Fatalf("title %q", segs[0].Title)
	}
	want := []string{"coffee", "tastes", "great", "morning", "better"}
	if !reflect.DeepEqual(segs[0].Vocabulary, want) {
		t.Fatalf("vocabulary %v, want %v", segs[0].Vocabulary, want)
	}

	fallback := a.SegmentConversation([]diarize.Turn{{Speaker: "Reader", Text: "Yes, ok.", Start: 0, End: 3}})
	if fallback[0].Title != "Conversation Part 1" {
		t.Fatalf("fallback title %q", fallback[0].Title)
	}
}

func TestSegmentVocabularyCap(t *testing.T) {
	text := "alpha1 bravo2 charlie delta4 echoes foxtrot golfer hotel9 indigo juliet kilos1 limas1"
	segs := NewAnalyzer().SegmentConversation([]diarize.Turn{{Speaker: "Speaker 1", Text: text}})
	if n := len(segs[0].Vocabulary); n != maxSegmentVocabulary {
		t.Fatalf("got %d words, want %d", n, maxSegmentVocabulary)
	}
}

func TestSegmentConversationEmpty(t *testing.T) {
	segs := NewAnalyzer().SegmentConversation(nil)
	if segs == nil || len(segs) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", segs)
	}
}

func TestLoadLexicon(t *testing.T) {
	lex, err := LoadLexicon(strings.NewReader(`
levels:
  2: [Widget]
stop_words: [widgets]
topics:
  - name: Gadgets
    keywords: [Widget, gizmo]
`))
	if err != nil {
		t.Fatalf("LoadLexicon: %v", err)
	}
	if level, ok := lex.Level("widget"); !ok || level != 2 {
		t.Fatalf("Level(widget) = %d, %v", level, ok)
	}

	a := NewAnalyzer(WithLexicon(lex))
	if got := a.ExtractTopics("a widget and a gizmo"); !reflect.DeepEqual(got, []string{"Gadgets"}) {
		t.Fatalf("topics %v", got)
	}
	if items := a.ExtractVocabulary("widgets widgets"); len(items) != 0 {
		t.Fatalf("custom stop word leaked: %+v", items)
	}
}

func TestLoadLexiconRejectsBadInput(t *testing.T) {
	tests := map[string]string{
		"unknown key":    "levels: {}\nbogus: 1\n",
		"level too high": "levels:\n  7: [word]\n",
		"unnamed topic":  "topics:\n  - keywords: [a]\n",
		"topic no words": "topics:\n  - name: Empty\n",
		"malformed yaml": "levels: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadLexicon(strings.NewReader(doc)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	if l, err := ParseLevel(" b2 "); err != nil || l != B2 {
		t.Fatalf("ParseLevel(b2) = %q, %v", l, err)
	}
	if l, err := ParseLevel(""); err != nil || l != "" {
		t.Fatalf("ParseLevel(\"\") = %q, %v", l, err)
	}
	if _, err := ParseLevel("D1"); err == nil {
		t.Fatal("expected error for D1")
	}
}
