// Package pipeline runs one uploaded file through transcoding, chunking,
// transcription, speaker segmentation and content analysis.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/user/lingualearn/internal/analysis"
	"github.com/user/lingualearn/internal/audio"
	"github.com/user/lingualearn/internal/diarize"
	"github.com/user/lingualearn/internal/media"
	"github.com/user/lingualearn/internal/observe"
	"github.com/user/lingualearn/internal/store"
	"github.com/user/lingualearn/internal/stt"
)

type MediaType string

const (
	Video MediaType = "video"
	Audio MediaType = "audio"
	Text  MediaType = "text"
)

func ParseMediaType(s string) (MediaType, error) {
	switch mt := MediaType(strings.ToLower(strings.TrimSpace(s))); mt {
	case Video, Audio, Text:
		return mt, nil
	}
	return "", fmt.Errorf("unsupported media type %q", s)
}

var extensionTypes = map[string]MediaType{
	".mp4": Video, ".mov": Video, ".mkv": Video, ".webm": Video, ".avi": Video, ".m4v": Video,
	".mp3": Audio, ".wav": Audio, ".m4a": Audio, ".ogg": Audio, ".flac": Audio, ".aac": Audio, ".opus": Audio,
	".txt": Text, ".md": Text,
}

// MediaTypeFromPath infers the media type from a file extension.
func MediaTypeFromPath(path string) (MediaType, bool) {
	mt, ok := extensionTypes[strings.ToLower(filepath.Ext(path))]
	return mt, ok
}

const (
	textTurnSeconds = 3.0
	textSpeaker     = "Reader"
)

// Transcoder is the media-transcoding collaborator.
type Transcoder interface {
	ExtractAudio(ctx context.Context, video []byte) (audio.Stream, error)
	NormalizeAudio(ctx context.Context, data []byte) (audio.Stream, error)
}

// Transcriber is the chunk transcription collaborator.
type Transcriber interface {
	Transcribe(ctx context.Context, chunks []audio.Chunk, opts stt.Options) (stt.Transcript, error)
}

var (
	_ Transcoder  = (*media.Transcoder)(nil)
	_ Transcriber = (*stt.Orchestrator)(nil)
)

var ErrEmptyTranscript = errors.New("transcription produced no text")

type Pipeline struct {
	transcoder      Transcoder
	transcriber     Transcriber
	analyzer        *analysis.Analyzer
	store           store.ObjectStore
	maxChunkSeconds float64
	metrics         *observe.Metrics
}

type Option func(*Pipeline)

// WithStore retains every uploaded source in s.
func WithStore(s store.ObjectStore) Option {
	return func(p *Pipeline) {
		p.store = s
	}
}

func WithMaxChunkSeconds(seconds float64) Option {
	return func(p *Pipeline) {
		if seconds > 0 {
			p.maxChunkSeconds = seconds
		}
	}
}

func WithAnalyzer(a *analysis.Analyzer) Option {
	return func(p *Pipeline) {
		if a != nil {
			p.analyzer = a
		}
	}
}

func WithMetrics(m *observe.Metrics) Option {
	return func(p *Pipeline) {
		if m != nil {
			p.metrics = m
		}
	}
}

func New(transcoder Transcoder, transcriber Transcriber, opts ...Option) *Pipeline {
	p := &Pipeline{
		transcoder:      transcoder,
		transcriber:     transcriber,
		maxChunkSeconds: audio.DefaultMaxChunkSeconds,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.analyzer == nil {
		p.analyzer = analysis.NewAnalyzer()
	}
	if p.metrics == nil {
		p.metrics = observe.DefaultMetrics()
	}
	return p
}

// Process runs data through every stage for its media type. A failing
// stage stops the run and is reported as an *Error naming that stage.
func (p *Pipeline) Process(ctx context.Context, data []byte, mediaType MediaType, languageHint, requestedLevel string) (*analysis.Result, error) {
	runID := uuid.New()
	logger := log.With().
		Str("run_id", runID.String()).
		Str("media_type", string(mediaType)).
		Logger()
	logger.Info().Int("size", len(data)).Msg("Processing upload")

	res, err := p.process(ctx, runID, data, mediaType, languageHint, requestedLevel)

	status := "ok"
	if err != nil {
		status = "error"
		logger.Error().Err(err).Msg("Pipeline failed")
	} else {
		logger.Info().
			Int("segments", len(res.ConversationSegments)).
			Str("level", string(res.SuggestedProficiencyLevel)).
			Msg("Pipeline completed")
	}
	p.metrics.RecordRun(ctx, string(mediaType), status)

	return res, err
}

func (p *Pipeline) process(ctx context.Context, runID uuid.UUID, data []byte, mediaType MediaType, languageHint, requestedLevel string) (*analysis.Result, error) {
	var level analysis.Level
	if err := p.stage(ctx, StageValidate, func() error {
		var err error
		if mediaType, err = ParseMediaType(string(mediaType)); err != nil {
			return err
		}
		if len(data) == 0 {
			return fmt.Errorf("empty upload")
		}
		level, err = analysis.ParseLevel(requestedLevel)
		return err
	}); err != nil {
		return nil, err
	}

	var sourceURL string
	if p.store != nil {
		if err := p.stage(ctx, StageStore, func() error {
			var err error
			sourceURL, err = p.retainSource(ctx, runID, data)
			return err
		}); err != nil {
			return nil, err
		}
	}

	var (
		res *analysis.Result
		err error
	)
	if mediaType == Text {
		res, err = p.processText(ctx, string(data))
	} else {
		res, err = p.processMedia(ctx, data, mediaType, languageHint)
	}
	if err != nil {
		return nil, err
	}

	res.RequestedProficiencyLevel = level
	res.LanguageHint = languageHint
	res.SourceURL = sourceURL
	return res, nil
}

func (p *Pipeline) processMedia(ctx context.Context, data []byte, mediaType MediaType, languageHint string) (*analysis.Result, error) {
	var stream audio.Stream
	if err := p.stage(ctx, StageTranscode, func() error {
		var err error
		if mediaType == Video {
			stream, err = p.transcoder.ExtractAudio(ctx, data)
		} else {
			stream, err = p.transcoder.NormalizeAudio(ctx, data)
		}
		if err == nil && stream.Duration <= 0 {
			err = fmt.Errorf("no audio decoded")
		}
		return err
	}); err != nil {
		return nil, err
	}
	log.Info().
		Float64("duration_seconds", stream.Duration).
		Msg("Audio decoded")

	var chunks []audio.Chunk
	_ = p.stage(ctx, StageChunk, func() error {
		chunks = audio.ChunksFor(stream, p.maxChunkSeconds)
		return nil
	})

	var transcript stt.Transcript
	if err := p.stage(ctx, StageTranscribe, func() error {
		var err error
		transcript, err = p.transcriber.Transcribe(ctx, chunks, stt.Options{
			LanguageHint:      languageHint,
			IncludeTimestamps: true,
		})
		if err == nil && strings.TrimSpace(transcript.FullText) == "" {
			err = ErrEmptyTranscript
		}
		return err
	}); err != nil {
		return nil, err
	}

	var turns []diarize.Turn
	_ = p.stage(ctx, StageSegment, func() error {
		turns = diarize.IdentifySpeakers(transcript.Segments)
		if len(turns) == 0 {
			// Engines without timestamps yield one turn over the whole file.
			turns = []diarize.Turn{{
				Speaker: diarize.SpeakerLabel(1),
				Text:    transcript.FullText,
				Start:   0,
				End:     stream.Duration,
			}}
		}
		return nil
	})

	res := p.analyze(ctx, transcript.FullText, turns)
	res.DurationSeconds = stream.Duration
	res.TranscriptionMode = transcript.Mode
	return res, nil
}

func (p *Pipeline) processText(ctx context.Context, text string) (*analysis.Result, error) {
	turns := TextTurns(text)
	if len(turns) == 0 {
		return nil, &Error{Stage: StageValidate, Err: fmt.Errorf("text upload contains no words")}
	}

	res := p.analyze(ctx, strings.TrimSpace(text), turns)
	res.DurationSeconds = turns[len(turns)-1].End
	return res, nil
}

func (p *Pipeline) analyze(ctx context.Context, transcript string, turns []diarize.Turn) *analysis.Result {
	var res analysis.Result
	_ = p.stage(ctx, StageAnalyze, func() error {
		res = p.analyzer.Analyze(transcript, turns)
		return nil
	})
	return &res
}

// TextTurns splits plain text into one "Reader" turn per sentence, spaced
// textTurnSeconds apart.
func TextTurns(text string) []diarize.Turn {
	sentences := analysis.SplitSentences(text)
	turns := make([]diarize.Turn, 0, len(sentences))
	for i, s := range sentences {
		start := float64(i) * textTurnSeconds
		turns = append(turns, diarize.Turn{
			Speaker: textSpeaker,
			Text:    s,
			Start:   start,
			End:     start + textTurnSeconds,
		})
	}
	return turns
}

func (p *Pipeline) retainSource(ctx context.Context, runID uuid.UUID, data []byte) (string, error) {
	contentType := http.DetectContentType(data)
	key := fmt.Sprintf("uploads/%s/source%s", runID, extensionFor(contentType))
	return p.store.Put(ctx, key, data, contentType)
}

var sniffedExtensions = map[string]string{
	"video/mp4":                 ".mp4",
	"video/webm":                ".webm",
	"video/avi":                 ".avi",
	"audio/wave":                ".wav",
	"audio/mpeg":                ".mp3",
	"audio/aiff":                ".aiff",
	"application/ogg":           ".ogg",
	"text/plain; charset=utf-8": ".txt",
}

func extensionFor(contentType string) string {
	if ext, ok := sniffedExtensions[contentType]; ok {
		return ext
	}
	return ".bin"
}

// stage times fn, records it, and wraps a failure with the stage name.
func (p *Pipeline) stage(ctx context.Context, name Stage, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	p.metrics.RecordStage(ctx, string(name), elapsed)

	if err != nil {
		name = refineStage(name, err)
		log.Debug().
			Str("stage", string(name)).
			Dur("elapsed", elapsed).
			Err(err).
			Msg("Stage failed")
		return &Error{Stage: name, Err: err}
	}

	log.Debug().
		Str("stage", string(name)).
		Dur("elapsed", elapsed).
		Msg("Stage completed")
	return nil
}
