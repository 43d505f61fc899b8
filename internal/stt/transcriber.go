package stt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/user/lingualearn/internal/audio"
	"github.com/user/lingualearn/internal/observe"
	"golang.org/x/sync/errgroup"
)

const (
	ModeEngine  = "engine"
	ModeStandIn = "stand-in"

	defaultMaxParallel    = 4
	defaultTimeout        = 5 * time.Minute
	defaultMinSpeechRatio = 0.02
)

// Options are per-run transcription settings.
type Options struct {
	LanguageHint      string
	IncludeTimestamps bool
}

// Transcript is the stitched output of a run over all chunks.
type Transcript struct {
	FullText string
	Segments []Segment
	Mode     string
}

type OrchestratorOption func(*Orchestrator)

// WithMaxParallel bounds how many engine calls are in flight at once.
func WithMaxParallel(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxParallel = n
		}
	}
}

// WithTimeout sets the per-chunk engine call timeout.
func WithTimeout(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// DetectorFactory builds a speech detector for a single chunk.
type DetectorFactory func() (audio.SpeechDetector, error)

// WithSpeechDetector enables skipping chunks that contain no speech. Every
// chunk gets its own detector from newDetector.
func WithSpeechDetector(newDetector DetectorFactory, minRatio float64) OrchestratorOption {
	return func(o *Orchestrator) {
		o.newDetector = newDetector
		if minRatio > 0 {
			o.minSpeechRatio = minRatio
		}
	}
}

func WithMetrics(m *observe.Metrics) OrchestratorOption {
	return func(o *Orchestrator) {
		if m != nil {
			o.metrics = m
		}
	}
}

// Orchestrator fans chunks out to a transcription engine and stitches the
// results back in chunk order.
type Orchestrator struct {
	engine         Engine
	mode           string
	maxParallel    int
	timeout        time.Duration
	newDetector    DetectorFactory
	minSpeechRatio float64
	metrics        *observe.Metrics
}

// NewOrchestrator picks its strategy once: the given engine when it is
// configured and available, the stand-in engine otherwise.
func NewOrchestrator(engine Engine, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		maxParallel:    defaultMaxParallel,
		timeout:        defaultTimeout,
		minSpeechRatio: defaultMinSpeechRatio,
		metrics:        observe.DefaultMetrics(),
	}
	for _, opt := range opts {
		opt(o)
	}

	switch {
	case engine != nil && engine.Available():
		o.engine = engine
		o.mode = ModeEngine
	default:
		o.engine = NewStandIn()
		o.mode = ModeStandIn
		name := "none"
		if engine != nil {
			name = engine.Name()
		}
		log.Warn().
			Str("configured_engine", name).
			Msg("Transcription engine unavailable, using stand-in transcripts")
	}

	log.Info().
		Str("engine", o.engine.Name()).
		Str("mode", o.mode).
		Int("max_parallel", o.maxParallel).
		Dur("timeout", o.timeout).
		Msg("Transcription orchestrator ready")

	return o
}

// Mode reports whether real or stand-in transcription is in use.
func (o *Orchestrator) Mode() string { return o.mode }

// EngineName is the name of the engine chunks are sent to.
func (o *Orchestrator) EngineName() string { return o.engine.Name() }

type chunkResult struct {
	result  Result
	skipped bool
}

// Transcribe sends every chunk to the engine and returns one transcript.
// If any chunk fails the whole call fails with a *TranscriptionError and no
// partial text.
func (o *Orchestrator) Transcribe(ctx context.Context, chunks []audio.Chunk, opts Options) (Transcript, error) {
	if len(chunks) == 0 {
		return Transcript{}, &TranscriptionError{Errs: []error{ErrNoChunks}}
	}
	if !accepts(o.engine, ContentTypeWAV) {
		return Transcript{}, &TranscriptionError{Failed: len(chunks), Total: len(chunks), Errs: []error{ErrUnsupportedContentType}}
	}

	results := make([]chunkResult, len(chunks))
	errs := make([]error, len(chunks))

	// Errors are kept per chunk; every chunk runs to completion.
	var g errgroup.Group
	g.SetLimit(o.maxParallel)
	for i := range chunks {
		i := i
		g.Go(func() error {
			results[i], errs[i] = o.transcribeChunk(ctx, chunks[i], opts)
			return nil
		})
	}
	_ = g.Wait()

	var failed []error
	for i, err := range errs {
		if err != nil {
			failed = append(failed, fmt.Errorf("chunk %d: %w", chunks[i].Index, err))
		}
	}
	if len(failed) > 0 {
		log.Error().
			Int("failed", len(failed)).
			Int("total", len(chunks)).
			Msg("Transcription failed")
		return Transcript{}, &TranscriptionError{Failed: len(failed), Total: len(chunks), Errs: failed}
	}

	tr := stitch(chunks, results, opts.IncludeTimestamps)
	tr.Mode = o.mode

	log.Info().
		Int("chunks", len(chunks)).
		Int("segments", len(tr.Segments)).
		Int("chars", len(tr.FullText)).
		Msg("Transcription completed")

	return tr, nil
}

func (o *Orchestrator) transcribeChunk(ctx context.Context, chunk audio.Chunk, opts Options) (chunkResult, error) {
	name := o.engine.Name()

	if o.newDetector != nil && o.mode == ModeEngine {
		if o.isSilent(chunk) {
			o.metrics.RecordChunk(ctx, name, "skipped", 0)
			return chunkResult{skipped: true}, nil
		}
	}

	cctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	req := Request{
		Audio:             audio.EncodeWAV(chunk.Stream.PCM, chunk.Stream.SampleRate, chunk.Stream.Channels),
		ContentType:       ContentTypeWAV,
		SampleRate:        chunk.Stream.SampleRate,
		LanguageHint:      opts.LanguageHint,
		IncludeTimestamps: opts.IncludeTimestamps,
		DurationSeconds:   chunk.Stream.Duration,
	}

	started := time.Now()
	res, err := o.engine.Transcribe(cctx, req)
	elapsed := time.Since(started)

	if err == nil && cctx.Err() != nil {
		err = cctx.Err()
	}
	if err != nil {
		status := "error"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(cctx.Err(), context.DeadlineExceeded) {
			status = "timeout"
			err = fmt.Errorf("%w after %s: %v", ErrTimeout, o.timeout, err)
		}
		o.metrics.RecordChunk(ctx, name, status, elapsed)
		log.Warn().
			Err(err).
			Str("engine", name).
			Int("chunk_index", chunk.Index).
			Msg("Failed to transcribe chunk")
		return chunkResult{}, err
	}

	o.metrics.RecordChunk(ctx, name, "ok", elapsed)
	log.Debug().
		Str("chunk_id", chunk.ID.String()).
		Int("chunk_index", chunk.Index).
		Int("segments", len(res.Segments)).
		Dur("elapsed", elapsed).
		Msg("Transcribed chunk")

	return chunkResult{result: res}, nil
}

// isSilent scores chunk with a detector of its own. A chunk whose detector
// cannot be built is treated as speech.
func (o *Orchestrator) isSilent(chunk audio.Chunk) bool {
	detector, err := o.newDetector()
	if err != nil {
		log.Warn().
			Err(err).
			Int("chunk_index", chunk.Index).
			Msg("Speech detector unavailable, transcribing chunk")
		return false
	}
	defer detector.Close()

	ratio := detector.SpeechRatio(chunk.Stream.PCM, chunk.Stream.SampleRate)
	if ratio >= o.minSpeechRatio {
		return false
	}
	log.Debug().
		Int("chunk_index", chunk.Index).
		Float64("speech_ratio", ratio).
		Msg("Skipping silent chunk")
	return true
}

// stitch joins chunk texts with single spaces and shifts each chunk's
// segments by its start offset, in chunk index order. Only the first segment
// of a later chunk is clamped so it never starts before the segment ahead
// of it.
func stitch(chunks []audio.Chunk, results []chunkResult, includeTimestamps bool) Transcript {
	var (
		texts    []string
		segments []Segment
		prev     float64
	)

	for i, chunk := range chunks {
		r := results[i]
		if r.skipped {
			continue
		}
		if text := strings.TrimSpace(r.result.Text); text != "" {
			texts = append(texts, text)
		}
		if !includeTimestamps {
			continue
		}

		for j, seg := range r.result.Segments {
			start := seg.Start + chunk.StartOffsetSeconds
			end := seg.End + chunk.StartOffsetSeconds
			if j == 0 && len(segments) > 0 && start < prev {
				start = prev
				end = max(end, start)
			}
			prev = start

			segments = append(segments, Segment{
				ID:         len(segments),
				Text:       strings.TrimSpace(seg.Text),
				Start:      start,
				End:        end,
				Confidence: seg.Confidence,
			})
		}
	}

	return Transcript{
		FullText: strings.Join(texts, " "),
		Segments: segments,
	}
}
