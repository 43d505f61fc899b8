package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/user/lingualearn/internal/audio"
	"github.com/user/lingualearn/internal/config"
	"github.com/user/lingualearn/internal/media"
	"github.com/user/lingualearn/internal/observe"
	"github.com/user/lingualearn/internal/pipeline"
	"github.com/user/lingualearn/internal/store"
	"github.com/user/lingualearn/internal/stt"
	"github.com/user/lingualearn/internal/stt/deepgram"
	"github.com/user/lingualearn/internal/stt/gemini"
	"github.com/user/lingualearn/internal/stt/openai"
	"github.com/user/lingualearn/internal/stt/vosk"
	"go.opentelemetry.io/otel"
)

const runTimeout = 2 * time.Hour

func main() {
	input := flag.String("input", "", "path to the video, audio or text file to process")
	mediaType := flag.String("type", "", "media type: video, audio or text (inferred from the extension when empty)")
	lang := flag.String("lang", "", "language hint passed to the transcription engine")
	level := flag.String("level", "", "requested proficiency level (A1..C2)")
	output := flag.String("output", "", "write the JSON result to this file instead of stdout")
	retain := flag.Bool("store", false, "retain the uploaded source in the object store")
	metricsAddr := flag.String("metrics-addr", "", "serve Prometheus metrics on this address while processing")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logging
	setupLogging(cfg.LogLevel)

	if *input == "" {
		log.Fatal().Msg("-input is required")
	}

	mt, err := resolveMediaType(*input, *mediaType)
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot determine media type")
	}

	data, err := os.ReadFile(*input)
	if err != nil {
		log.Fatal().Err(err).Str("file", *input).Msg("Failed to read input")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx, cancelRun := context.WithTimeout(ctx, runTimeout)
	defer cancelRun()

	shutdownMetrics, err := observe.InitProvider(ctx, observe.ProviderConfig{})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise metrics")
	}
	defer shutdownMetrics(context.Background())

	metrics, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create metric instruments")
	}
	if *metricsAddr != "" {
		srv := serveMetrics(*metricsAddr)
		defer srv.Shutdown(context.Background())
	}

	engine, closeEngine, err := newEngine(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.STTBackend).Msg("Failed to create transcription engine")
	}
	defer closeEngine()

	orchOpts := []stt.OrchestratorOption{
		stt.WithMaxParallel(cfg.MaxParallelSTT),
		stt.WithTimeout(cfg.TranscribeTimeout),
		stt.WithMetrics(metrics),
	}
	if cfg.VADEnabled {
		orchOpts = append(orchOpts, stt.WithSpeechDetector(newSpeechDetector, 0))
	}
	orchestrator := stt.NewOrchestrator(engine, orchOpts...)

	transcoder := media.NewTranscoder(
		media.WithBinaries(cfg.FFmpegPath, cfg.FFprobePath),
		media.WithTempDir(cfg.TempDir),
	)

	pipeOpts := []pipeline.Option{
		pipeline.WithMaxChunkSeconds(float64(cfg.MaxChunkSeconds)),
		pipeline.WithMetrics(metrics),
	}
	if *retain {
		objects, err := store.Open(cfg.StoreBackend, cfg.StoreDir, cfg.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("Failed to open object store")
		}
		defer objects.Close()
		pipeOpts = append(pipeOpts, pipeline.WithStore(objects))
	}

	log.Info().
		Str("file", *input).
		Str("media_type", string(mt)).
		Str("transcription_mode", orchestrator.Mode()).
		Str("engine", orchestrator.EngineName()).
		Msg("Starting lingualearn")

	res, err := pipeline.New(transcoder, orchestrator, pipeOpts...).Process(ctx, data, mt, *lang, *level)
	if err != nil {
		log.Fatal().Err(err).Msg("Processing failed")
	}

	if err := writeResult(*output, res); err != nil {
		log.Fatal().Err(err).Msg("Failed to write result")
	}
}

func resolveMediaType(path, declared string) (pipeline.MediaType, error) {
	if declared != "" {
		return pipeline.ParseMediaType(declared)
	}
	if mt, ok := pipeline.MediaTypeFromPath(path); ok {
		return mt, nil
	}
	return "", fmt.Errorf("unknown extension for %s; pass -type", path)
}

// newEngine builds the configured transcription engine. A nil engine makes
// the orchestrator use the stand-in transcript.
func newEngine(ctx context.Context, cfg *config.Config) (stt.Engine, func(), error) {
	noop := func() {}

	switch cfg.STTBackend {
	case "deepgram":
		t := deepgram.NewDeepgramTranscriber(cfg.DeepgramAPIKey, cfg.DeepgramModel, cfg.DeepgramPunctuate)
		return t, func() { t.Close() }, nil
	case "openai":
		var opts []openai.Option
		if cfg.OpenAIBaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.OpenAIBaseURL))
		}
		return openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel, opts...), noop, nil
	case "gemini":
		t, err := gemini.NewGeminiTranscriber(ctx, cfg.GenAIAPIKey, cfg.GenAIModel)
		if err != nil {
			return nil, noop, err
		}
		return t, func() { t.Close() }, nil
	case "vosk":
		t, err := vosk.NewVoskTranscriber(cfg.VoskModelPath, audio.SampleRate)
		if err != nil {
			log.Warn().Err(err).Msg("Vosk model unavailable")
			return nil, noop, nil
		}
		return t, func() { t.Close() }, nil
	default:
		return nil, noop, nil
	}
}

// newSpeechDetector builds one detector per chunk. It prefers WebRTC VAD
// and falls back to an energy gate.
func newSpeechDetector() (audio.SpeechDetector, error) {
	vad, err := audio.NewWebRTCVAD()
	if err != nil {
		log.Debug().Err(err).Msg("WebRTC VAD unavailable, using energy detector")
		return audio.NewEnergyDetector(0), nil
	}
	return vad, nil
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		log.Info().Str("addr", addr).Msg("Serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics server failed")
		}
	}()
	return srv
}

func writeResult(path string, v any) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	if path != "" {
		log.Info().Str("file", path).Msg("Result written")
	}
	return nil
}

func setupLogging(level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	log.Debug().Str("level", level).Msg("Logging configured")
}
