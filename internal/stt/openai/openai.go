// Package openai transcribes audio chunks with the OpenAI audio
// transcription endpoint (Whisper), asking for verbose JSON so segment
// timings come back with the text.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog/log"

	"github.com/user/lingualearn/internal/stt"
)

// DefaultModel is the transcription model used when none is configured.
const DefaultModel = string(oai.AudioModelWhisper1)

var _ stt.Engine = (*Transcriber)(nil)

type Transcriber struct {
	client oai.Client
	apiKey string
	model  string
}

type config struct {
	baseURL string
	timeout time.Duration
}

type Option func(*config)

// WithBaseURL overrides the API base URL, e.g. for an OpenAI-compatible
// local Whisper server.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

func New(apiKey, model string, opts ...Option) *Transcriber {
	if model == "" {
		model = DefaultModel
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{Timeout: cfg.timeout}))
	}

	return &Transcriber{
		client: oai.NewClient(reqOpts...),
		apiKey: apiKey,
		model:  model,
	}
}

func (t *Transcriber) Name() string { return "openai" }

func (t *Transcriber) Available() bool { return t.apiKey != "" }

func (t *Transcriber) SupportedContentTypes() []string {
	return []string{"audio/wav", "audio/mpeg", "audio/mp4", "audio/webm", "audio/flac", "audio/ogg"}
}

// verboseTranscription is the part of the verbose_json payload the SDK
// type does not expose as fields.
type verboseTranscription struct {
	Text     string `json:"text"`
	Segments []struct {
		ID         int     `json:"id"`
		Start      float64 `json:"start"`
		End        float64 `json:"end"`
		Text       string  `json:"text"`
		AvgLogprob float64 `json:"avg_logprob"`
	} `json:"segments"`
}

func (t *Transcriber) Transcribe(ctx context.Context, req stt.Request) (stt.Result, error) {
	if len(req.Audio) == 0 {
		return stt.Result{}, nil
	}

	params := oai.AudioTranscriptionNewParams{
		File:           oai.File(bytes.NewReader(req.Audio), "chunk.wav", req.ContentType),
		Model:          oai.AudioModel(t.model),
		ResponseFormat: oai.AudioResponseFormatJSON,
	}
	if req.IncludeTimestamps {
		params.ResponseFormat = oai.AudioResponseFormatVerboseJSON
	}
	if req.LanguageHint != "" {
		params.Language = oai.String(req.LanguageHint)
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return stt.Result{}, fmt.Errorf("openai transcription: %w", err)
	}

	out := stt.Result{Text: strings.TrimSpace(resp.Text)}
	if !req.IncludeTimestamps {
		return out, nil
	}

	var verbose verboseTranscription
	if raw := resp.RawJSON(); raw != "" {
		if err := json.Unmarshal([]byte(raw), &verbose); err != nil {
			return stt.Result{}, fmt.Errorf("openai transcription: decode segments: %w", err)
		}
	}
	for _, s := range verbose.Segments {
		out.Segments = append(out.Segments, stt.Segment{
			ID:    s.ID,
			Text:  strings.TrimSpace(s.Text),
			Start: s.Start,
			End:   s.End,
		})
	}
	if len(out.Segments) == 0 {
		out.Segments = stt.WholeChunkSegment(out.Text, req.DurationSeconds, 0)
	}

	log.Debug().
		Str("model", t.model).
		Int("segments", len(out.Segments)).
		Msg("OpenAI transcription completed")

	return out, nil
}
