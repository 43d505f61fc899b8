package vosk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/alphacep/vosk-api/go"
	"github.com/rs/zerolog/log"
	"github.com/user/lingualearn/internal/stt"
)

// feedBytes is how much PCM is handed to the recognizer per call (0.25 s
// at 16 kHz).
const feedBytes = 8000

const wavHeaderSize = 44

var _ stt.Engine = (*VoskTranscriber)(nil)

// VoskTranscriber runs an offline Vosk model. The model is shared; every
// chunk gets its own recognizer because recognizers are stateful.
type VoskTranscriber struct {
	model      *vosk.VoskModel
	sampleRate int
}

type VoskResult struct {
	Text   string     `json:"text"`
	Result []VoskWord `json:"result"`
}

type VoskWord struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Conf  float64 `json:"conf"`
}

func NewVoskTranscriber(modelPath string, sampleRate int) (*VoskTranscriber, error) {
	log.Info().Str("model_path", modelPath).Msg("Loading Vosk model")

	// NewModel does not report a bad path; it hands back an empty model.
	if err := checkModelDir(modelPath); err != nil {
		return nil, err
	}

	model, err := vosk.NewModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load Vosk model from %s: %w", modelPath, err)
	}

	log.Info().Msg("Vosk model loaded successfully")

	return &VoskTranscriber{
		model:      model,
		sampleRate: sampleRate,
	}, nil
}

func checkModelDir(modelPath string) error {
	info, err := os.Stat(modelPath)
	if err != nil {
		return fmt.Errorf("vosk model path %s: %w", modelPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("vosk model path %s is not a directory", modelPath)
	}
	return nil
}

func (v *VoskTranscriber) Name() string { return "vosk" }

func (v *VoskTranscriber) Available() bool { return v.model != nil }

func (v *VoskTranscriber) SupportedContentTypes() []string {
	return []string{stt.ContentTypeWAV}
}

func (v *VoskTranscriber) Transcribe(ctx context.Context, req stt.Request) (stt.Result, error) {
	pcm := stripWAVHeader(req.Audio)
	if len(pcm) == 0 {
		return stt.Result{}, nil
	}

	rate := req.SampleRate
	if rate <= 0 {
		rate = v.sampleRate
	}

	recognizer, err := vosk.NewRecognizer(v.model, float64(rate))
	if err != nil {
		return stt.Result{}, fmt.Errorf("failed to create Vosk recognizer: %w", err)
	}
	defer recognizer.Free()
	recognizer.SetWords(1)

	var results []VoskResult
	for off := 0; off < len(pcm); off += feedBytes {
		if err := ctx.Err(); err != nil {
			return stt.Result{}, err
		}

		end := min(off+feedBytes, len(pcm))
		switch recognizer.AcceptWaveform(pcm[off:end]) {
		case -1:
			return stt.Result{}, fmt.Errorf("failed to process audio chunk")
		case 1:
			if r, ok := parseResult(recognizer.Result()); ok {
				results = append(results, r)
			}
		}
	}
	if r, ok := parseResult(recognizer.FinalResult()); ok {
		results = append(results, r)
	}

	out := toResult(results)

	log.Debug().
		Int("segments", len(out.Segments)).
		Int("text_length", len(out.Text)).
		Msg("Vosk transcription completed")

	if !req.IncludeTimestamps {
		out.Segments = nil
	}
	return out, nil
}

func (v *VoskTranscriber) Close() error {
	if v.model != nil {
		v.model.Free()
	}
	return nil
}

func stripWAVHeader(data []byte) []byte {
	if len(data) >= wavHeaderSize && bytes.HasPrefix(data, []byte("RIFF")) {
		return data[wavHeaderSize:]
	}
	return data
}

func parseResult(raw string) (VoskResult, bool) {
	if raw == "" {
		return VoskResult{}, false
	}

	var r VoskResult
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		log.Warn().
			Err(err).
			Str("json", raw).
			Msg("Failed to parse Vosk result")
		return VoskResult{}, false
	}
	if strings.TrimSpace(r.Text) == "" {
		return VoskResult{}, false
	}
	return r, true
}

// toResult turns each recognized utterance into one segment spanning its
// first to last word.
func toResult(results []VoskResult) stt.Result {
	var (
		texts []string
		out   stt.Result
	)
	for _, r := range results {
		text := strings.TrimSpace(r.Text)
		texts = append(texts, text)

		seg := stt.Segment{ID: len(out.Segments), Text: text}
		if n := len(r.Result); n > 0 {
			seg.Start = r.Result[0].Start
			seg.End = r.Result[n-1].End

			var conf float64
			for _, w := range r.Result {
				conf += w.Conf
			}
			seg.Confidence = conf / float64(n)
		} else if len(out.Segments) > 0 {
			prev := out.Segments[len(out.Segments)-1].End
			seg.Start, seg.End = prev, prev
		}
		out.Segments = append(out.Segments, seg)
	}
	out.Text = strings.Join(texts, " ")
	return out
}
