package audio

import (
	"github.com/google/uuid"
)

const (
	SampleRate     = 16000 // Hz, what every transcription engine accepts
	Channels       = 1     // Mono
	BytesPerSample = 2     // s16le
)

// Stream is a decoded mono PCM audio buffer produced by the transcoder.
// It lives only for the duration of one pipeline run.
type Stream struct {
	PCM        []byte // s16le samples
	SampleRate int
	Channels   int
	Duration   float64 // seconds
}

// Chunk is a slice of a Stream plus the offset needed to re-align
// transcript timestamps after transcription.
type Chunk struct {
	ID                 uuid.UUID
	Index              int
	Stream             Stream
	StartOffsetSeconds float64
}

// End returns the absolute end time of the chunk within its source stream.
func (c Chunk) End() float64 {
	return c.StartOffsetSeconds + c.Stream.Duration
}

// Probe describes a media file before transcoding.
type Probe struct {
	DurationSeconds float64
	HasAudioTrack   bool
	Codec           string
	Format          string
}

// SpeechDetector reports how much of a PCM buffer contains speech.
type SpeechDetector interface {
	SpeechRatio(pcm []byte, sampleRate int) float64
	Close() error
}

// DurationOf returns the playback length of raw s16le PCM.
func DurationOf(pcm []byte, sampleRate, channels int) float64 {
	if sampleRate <= 0 || channels <= 0 {
		return 0
	}
	return float64(len(pcm)) / float64(sampleRate*channels*BytesPerSample)
}
