package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/user/lingualearn/internal/stt"
)

const defaultBaseURL = "https://api.deepgram.com/v1/listen"

var _ stt.Engine = (*DeepgramTranscriber)(nil)

type DeepgramTranscriber struct {
	apiKey    string
	model     string
	punctuate bool
	baseURL   string
	client    *http.Client
}

type Option func(*DeepgramTranscriber)

// WithBaseURL points the transcriber at a different listen endpoint.
func WithBaseURL(u string) Option {
	return func(d *DeepgramTranscriber) {
		d.baseURL = u
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(d *DeepgramTranscriber) {
		d.client = c
	}
}

type DeepgramResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
		Utterances []struct {
			Start      float64 `json:"start"`
			End        float64 `json:"end"`
			Confidence float64 `json:"confidence"`
			Transcript string  `json:"transcript"`
		} `json:"utterances"`
	} `json:"results"`
}

func NewDeepgramTranscriber(apiKey, model string, punctuate bool, opts ...Option) *DeepgramTranscriber {
	d := &DeepgramTranscriber{
		apiKey:    apiKey,
		model:     model,
		punctuate: punctuate,
		baseURL:   defaultBaseURL,
		client:    &http.Client{},
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func (d *DeepgramTranscriber) Name() string { return "deepgram" }

func (d *DeepgramTranscriber) Available() bool { return d.apiKey != "" }

func (d *DeepgramTranscriber) SupportedContentTypes() []string {
	return []string{"audio/wav", "audio/mpeg", "audio/ogg", "audio/flac", "audio/webm"}
}

func (d *DeepgramTranscriber) Transcribe(ctx context.Context, req stt.Request) (stt.Result, error) {
	if len(req.Audio) == 0 {
		return stt.Result{}, nil
	}

	params := url.Values{}
	if d.model != "" {
		params.Set("model", d.model)
	}
	params.Set("punctuate", strconv.FormatBool(d.punctuate))
	params.Set("utterances", strconv.FormatBool(req.IncludeTimestamps))
	params.Set("smart_format", "true")
	if req.LanguageHint != "" {
		params.Set("language", req.LanguageHint)
	} else {
		params.Set("detect_language", "true")
	}

	fullURL := d.baseURL + "?" + params.Encode()

	log.Debug().
		Str("url", fullURL).
		Str("model", d.model).
		Int("audio_size_bytes", len(req.Audio)).
		Msg("Making Deepgram API request")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(req.Audio))
	if err != nil {
		return stt.Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Token "+d.apiKey)
	httpReq.Header.Set("Content-Type", req.ContentType)

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return stt.Result{}, fmt.Errorf("Deepgram API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return stt.Result{}, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Warn().
			Int("status_code", resp.StatusCode).
			Str("response_body", string(body)).
			Msg("Deepgram API error response")
		return stt.Result{}, fmt.Errorf("Deepgram API error %d: %s", resp.StatusCode, string(body))
	}

	var result DeepgramResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return stt.Result{}, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Results.Channels) == 0 || len(result.Results.Channels[0].Alternatives) == 0 {
		log.Debug().Msg("No channels in Deepgram response")
		return stt.Result{}, nil
	}

	best := result.Results.Channels[0].Alternatives[0]
	out := stt.Result{Text: strings.TrimSpace(best.Transcript)}

	if req.IncludeTimestamps {
		for i, u := range result.Results.Utterances {
			out.Segments = append(out.Segments, stt.Segment{
				ID:         i,
				Text:       strings.TrimSpace(u.Transcript),
				Start:      u.Start,
				End:        u.End,
				Confidence: u.Confidence,
			})
		}
		if len(out.Segments) == 0 && out.Text != "" {
			out.Segments = stt.WholeChunkSegment(out.Text, req.DurationSeconds, best.Confidence)
		}
	}

	log.Debug().
		Int("segments", len(out.Segments)).
		Float64("confidence", best.Confidence).
		Msg("Deepgram transcription completed")

	return out, nil
}

func (d *DeepgramTranscriber) Close() error {
	return nil
}
