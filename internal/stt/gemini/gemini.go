package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"github.com/user/lingualearn/internal/stt"
	"google.golang.org/api/option"
)

var _ stt.Engine = (*GeminiTranscriber)(nil)

// GeminiTranscriber sends each chunk to a Gemini model as inline audio and
// asks for a verbatim transcript. Gemini returns no timing, so each chunk
// becomes a single segment.
type GeminiTranscriber struct {
	client *genai.Client
	model  string
}

// NewGeminiTranscriber returns an unavailable transcriber when apiKey is
// empty so callers can fall back to stand-in transcripts.
func NewGeminiTranscriber(ctx context.Context, apiKey, model string) (*GeminiTranscriber, error) {
	if apiKey == "" {
		return &GeminiTranscriber{model: model}, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiTranscriber{
		client: client,
		model:  model,
	}, nil
}

func (g *GeminiTranscriber) Name() string { return "gemini" }

func (g *GeminiTranscriber) Available() bool { return g.client != nil }

func (g *GeminiTranscriber) SupportedContentTypes() []string {
	return []string{"audio/wav", "audio/mp3", "audio/aac", "audio/ogg", "audio/flac"}
}

func (g *GeminiTranscriber) Transcribe(ctx context.Context, req stt.Request) (stt.Result, error) {
	if g.client == nil {
		return stt.Result{}, fmt.Errorf("gemini transcriber is not configured")
	}
	if len(req.Audio) == 0 {
		return stt.Result{}, nil
	}

	genModel := g.client.GenerativeModel(g.model)
	resp, err := genModel.GenerateContent(ctx,
		genai.Text(buildPrompt(req.LanguageHint)),
		genai.Blob{MIMEType: req.ContentType, Data: req.Audio},
	)
	if err != nil {
		return stt.Result{}, fmt.Errorf("failed to generate transcript: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return stt.Result{}, fmt.Errorf("no transcript generated")
	}

	var transcript strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			transcript.WriteString(string(text))
		}
	}

	text := strings.TrimSpace(transcript.String())
	out := stt.Result{Text: text}
	if req.IncludeTimestamps {
		out.Segments = stt.WholeChunkSegment(text, req.DurationSeconds, 0)
	}

	log.Debug().
		Str("model", g.model).
		Int("transcript_length", len(text)).
		Msg("Gemini transcription completed")

	return out, nil
}

func buildPrompt(languageHint string) string {
	lang := "the spoken language"
	if languageHint != "" {
		lang = fmt.Sprintf("%q", languageHint)
	}
	return fmt.Sprintf(`Transcribe the attached audio verbatim in %s.
Output only the spoken words with normal punctuation and sentence casing.
Do not add speaker names, timestamps, summaries, or commentary.
If nothing intelligible is spoken, output nothing.`, lang)
}

func (g *GeminiTranscriber) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
