// Package media wraps ffmpeg and ffprobe to turn uploaded video or audio
// into mono 16 kHz s16le PCM for transcription.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/user/lingualearn/internal/audio"
)

// loudnormFilter is the EBU R128 target applied on the audio-file path.
const loudnormFilter = "loudnorm=I=-16:TP=-1.5:LRA=11"

// maxStderrTail bounds how much ffmpeg output is kept in error messages.
const maxStderrTail = 512

const (
	opExtract   = "extract"
	opNormalize = "normalize"
	opProbe     = "probe"
)

type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Transcoder extracts and normalizes audio with ffmpeg. Every call stages
// its input and output in temp files that are removed before returning.
type Transcoder struct {
	ffmpegPath  string
	ffprobePath string
	tempDir     string
	sampleRate  int
	runner      commandRunner
}

type Option func(*Transcoder)

// WithTempDir sets where transient media files are written. Defaults to
// os.TempDir().
func WithTempDir(dir string) Option {
	return func(t *Transcoder) {
		t.tempDir = dir
	}
}

// WithBinaries overrides the ffmpeg and ffprobe executables.
func WithBinaries(ffmpegPath, ffprobePath string) Option {
	return func(t *Transcoder) {
		if ffmpegPath != "" {
			t.ffmpegPath = ffmpegPath
		}
		if ffprobePath != "" {
			t.ffprobePath = ffprobePath
		}
	}
}

func withRunner(r commandRunner) Option {
	return func(t *Transcoder) {
		t.runner = r
	}
}

func NewTranscoder(opts ...Option) *Transcoder {
	t := &Transcoder{
		ffmpegPath:  "ffmpeg",
		ffprobePath: "ffprobe",
		sampleRate:  audio.SampleRate,
		runner:      execRunner{},
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// ExtractAudio pulls the audio track out of a video as mono 16 kHz PCM.
// A video without an audio stream fails with ErrNoAudioTrack.
func (t *Transcoder) ExtractAudio(ctx context.Context, video []byte) (audio.Stream, error) {
	var stream audio.Stream
	err := t.withTempInput(opExtract, video, func(inPath string) error {
		probe, err := t.probePath(ctx, inPath)
		if err != nil {
			return err
		}
		if !probe.HasAudioTrack {
			return ErrNoAudioTrack
		}

		stream, err = t.transcode(ctx, opExtract, inPath)
		return err
	})
	return stream, err
}

// NormalizeAudio re-encodes an audio file as mono 16 kHz PCM with loudness
// normalization applied.
func (t *Transcoder) NormalizeAudio(ctx context.Context, data []byte) (audio.Stream, error) {
	var stream audio.Stream
	err := t.withTempInput(opNormalize, data, func(inPath string) error {
		var err error
		stream, err = t.transcode(ctx, opNormalize, inPath, "-af", loudnormFilter)
		return err
	})
	return stream, err
}

// Probe reports duration, audio presence and the audio codec of media.
func (t *Transcoder) Probe(ctx context.Context, data []byte) (audio.Probe, error) {
	var probe audio.Probe
	err := t.withTempInput(opProbe, data, func(inPath string) error {
		var err error
		probe, err = t.probePath(ctx, inPath)
		return err
	})
	return probe, err
}

func (t *Transcoder) transcode(ctx context.Context, op, inPath string, filters ...string) (audio.Stream, error) {
	out, err := os.CreateTemp(t.tempDir, "lingualearn-pcm-*.raw")
	if err != nil {
		return audio.Stream{}, &TranscodeError{Op: op, Err: fmt.Errorf("create temp output: %w", err)}
	}
	outPath := out.Name()
	out.Close()
	defer os.Remove(outPath)

	// ffmpeg -y -i input -vn [-af filter] -ac 1 -ar 16000 -f s16le -acodec pcm_s16le output
	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", inPath, "-vn"}
	args = append(args, filters...)
	args = append(args,
		"-ac", strconv.Itoa(audio.Channels),
		"-ar", strconv.Itoa(t.sampleRate),
		"-f", "s16le", "-acodec", "pcm_s16le",
		outPath,
	)

	log.Debug().
		Str("op", op).
		Strs("args", args).
		Msg("Running ffmpeg")

	_, stderr, err := t.runner.Run(ctx, t.ffmpegPath, args...)
	if err != nil {
		return audio.Stream{}, &TranscodeError{Op: op, Msg: stderrTail(stderr), Err: err}
	}

	pcm, err := os.ReadFile(outPath)
	if err != nil {
		return audio.Stream{}, &TranscodeError{Op: op, Err: fmt.Errorf("read output: %w", err)}
	}
	if len(pcm) == 0 {
		return audio.Stream{}, &TranscodeError{Op: op, Msg: "transcoder produced no audio"}
	}

	stream := audio.Stream{
		PCM:        pcm,
		SampleRate: t.sampleRate,
		Channels:   audio.Channels,
		Duration:   audio.DurationOf(pcm, t.sampleRate, audio.Channels),
	}

	log.Debug().
		Str("op", op).
		Int("bytes", len(pcm)).
		Float64("duration_seconds", stream.Duration).
		Msg("Transcoded audio")

	return stream, nil
}

type ffprobeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Duration  string `json:"duration"`
	} `json:"streams"`
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
	} `json:"format"`
}

func (t *Transcoder) probePath(ctx context.Context, inPath string) (audio.Probe, error) {
	stdout, stderr, err := t.runner.Run(ctx, t.ffprobePath,
		"-v", "error",
		"-print_format", "json",
		"-show_format", "-show_streams",
		inPath,
	)
	if err != nil {
		return audio.Probe{}, &ProbeError{Msg: stderrTail(stderr), Err: err}
	}

	var parsed ffprobeOutput
	if err := json.Unmarshal(stdout, &parsed); err != nil {
		return audio.Probe{}, &ProbeError{Err: fmt.Errorf("parse ffprobe output: %w", err)}
	}

	probe := audio.Probe{Format: parsed.Format.FormatName}
	if d, err := strconv.ParseFloat(parsed.Format.Duration, 64); err == nil {
		probe.DurationSeconds = d
	}
	for _, s := range parsed.Streams {
		if s.CodecType != "audio" {
			continue
		}
		probe.HasAudioTrack = true
		probe.Codec = s.CodecName
		if probe.DurationSeconds == 0 {
			if d, err := strconv.ParseFloat(s.Duration, 64); err == nil {
				probe.DurationSeconds = d
			}
		}
		break
	}

	log.Debug().
		Float64("duration_seconds", probe.DurationSeconds).
		Bool("has_audio", probe.HasAudioTrack).
		Str("codec", probe.Codec).
		Str("format", probe.Format).
		Msg("Probed media")

	return probe, nil
}

// withTempInput stages data in a temp file for the duration of fn. Staging
// failures are reported as op's typed error.
func (t *Transcoder) withTempInput(op string, data []byte, fn func(path string) error) error {
	if len(data) == 0 {
		return &ProbeError{Err: errors.New("empty media input")}
	}

	f, err := os.CreateTemp(t.tempDir, "lingualearn-in-*")
	if err != nil {
		return stagingError(op, fmt.Errorf("create temp input: %w", err))
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return stagingError(op, fmt.Errorf("write temp input: %w", err))
	}
	if err := f.Close(); err != nil {
		return stagingError(op, fmt.Errorf("close temp input: %w", err))
	}

	return fn(path)
}

func stagingError(op string, err error) error {
	if op == opProbe {
		return &ProbeError{Err: err}
	}
	return &TranscodeError{Op: op, Err: err}
}

func stderrTail(stderr []byte) string {
	msg := strings.TrimSpace(string(stderr))
	if len(msg) > maxStderrTail {
		msg = msg[len(msg)-maxStderrTail:]
	}
	return msg
}
