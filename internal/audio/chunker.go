package audio

import (
	"math"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultMaxChunkSeconds keeps each chunk inside hosted transcription
// engine upload limits.
const DefaultMaxChunkSeconds = 600.0

// SplitIntoChunks cuts a stream into ceil(duration/max) contiguous chunks.
// Chunk i covers [i*max, min((i+1)*max, duration)) and keeps i*max as its
// start offset. The last chunk may be shorter.
func SplitIntoChunks(stream Stream, maxChunkSeconds float64) []Chunk {
	if maxChunkSeconds <= 0 {
		maxChunkSeconds = DefaultMaxChunkSeconds
	}
	if stream.Duration <= 0 {
		return nil
	}

	count := int(math.Ceil(stream.Duration / maxChunkSeconds))
	frameSize := stream.Channels * BytesPerSample
	if frameSize <= 0 {
		frameSize = Channels * BytesPerSample
	}

	chunks := make([]Chunk, 0, count)
	for i := 0; i < count; i++ {
		start := float64(i) * maxChunkSeconds
		end := math.Min(float64(i+1)*maxChunkSeconds, stream.Duration)

		chunk := Chunk{
			ID:    uuid.New(),
			Index: i,
			Stream: Stream{
				PCM:        slicePCM(stream.PCM, start, end, stream.SampleRate, frameSize),
				SampleRate: stream.SampleRate,
				Channels:   stream.Channels,
				Duration:   end - start,
			},
			StartOffsetSeconds: start,
		}
		chunks = append(chunks, chunk)

		log.Debug().
			Str("chunk_id", chunk.ID.String()).
			Int("chunk_index", i).
			Float64("start", start).
			Float64("end", end).
			Int("bytes", len(chunk.Stream.PCM)).
			Msg("Created audio chunk")
	}

	return chunks
}

// ChunksFor returns the chunks a stream should be transcribed as. Streams
// no longer than maxChunkSeconds become one implicit chunk at offset 0
// without going through the split step.
func ChunksFor(stream Stream, maxChunkSeconds float64) []Chunk {
	if maxChunkSeconds <= 0 {
		maxChunkSeconds = DefaultMaxChunkSeconds
	}
	if stream.Duration > maxChunkSeconds {
		return SplitIntoChunks(stream, maxChunkSeconds)
	}
	return []Chunk{{
		ID:     uuid.New(),
		Index:  0,
		Stream: stream,
	}}
}

func slicePCM(pcm []byte, start, end float64, sampleRate, frameSize int) []byte {
	if len(pcm) == 0 || sampleRate <= 0 {
		return nil
	}
	from := int(start*float64(sampleRate)) * frameSize
	to := int(end*float64(sampleRate)) * frameSize
	if from > len(pcm) {
		from = len(pcm)
	}
	if to > len(pcm) {
		to = len(pcm)
	}
	if to < from {
		to = from
	}
	return pcm[from:to]
}
