package audio

import (
	"encoding/binary"
	"math"
	"testing"
)

func makeStream(seconds float64) Stream {
	samples := int(seconds * SampleRate)
	return Stream{
		PCM:        make([]byte, samples*BytesPerSample),
		SampleRate: SampleRate,
		Channels:   Channels,
		Duration:   seconds,
	}
}

func TestSplitIntoChunksCount(t *testing.T) {
	tests := []struct {
		duration float64
		max      float64
		want     int
	}{
		{duration: 1200, max: 600, want: 2},
		{duration: 1201, max: 600, want: 3},
		{duration: 601, max: 600, want: 2},
		{duration: 10.5, max: 3, want: 4},
		{duration: 7, max: 7, want: 1},
	}

	for _, tt := range tests {
		chunks := SplitIntoChunks(makeStream(tt.duration), tt.max)
		if len(chunks) != tt.want {
			t.Fatalf("duration %.1f max %.1f: got %d chunks, want %d", tt.duration, tt.max, len(chunks), tt.want)
		}
		if want := int(math.Ceil(tt.duration / tt.max)); len(chunks) != want {
			t.Fatalf("chunk count %d differs from ceil(D/M)=%d", len(chunks), want)
		}
	}
}

func TestSplitIntoChunksContiguousCoverage(t *testing.T) {
	const duration, max = 25.0, 10.0
	chunks := SplitIntoChunks(makeStream(duration), max)

	prevEnd := 0.0
	for i, c := range chunks {
		if c.Index != i {
			t.Fatalf("chunk %d has index %d", i, c.Index)
		}
		if c.StartOffsetSeconds != float64(i)*max {
			t.Fatalf("chunk %d offset %.2f, want %.2f", i, c.StartOffsetSeconds, float64(i)*max)
		}
		if c.StartOffsetSeconds != prevEnd {
			t.Fatalf("chunk %d starts at %.2f, previous ended at %.2f", i, c.StartOffsetSeconds, prevEnd)
		}
		prevEnd = c.End()
	}
	if prevEnd != duration {
		t.Fatalf("chunks cover up to %.2f, want %.2f", prevEnd, duration)
	}

	last := chunks[len(chunks)-1]
	if last.Stream.Duration != 5 {
		t.Fatalf("last chunk duration %.2f, want 5", last.Stream.Duration)
	}
	if got := len(last.Stream.PCM); got != 5*SampleRate*BytesPerSample {
		t.Fatalf("last chunk has %d bytes", got)
	}
}

func TestSplitIntoChunksEmptyStream(t *testing.T) {
	if chunks := SplitIntoChunks(Stream{}, 600); len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %d", len(chunks))
	}
}

func TestChunksForShortStreamIsSingleImplicitChunk(t *testing.T) {
	stream := makeStream(42)
	chunks := ChunksFor(stream, DefaultMaxChunkSeconds)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].StartOffsetSeconds != 0 {
		t.Fatalf("implicit chunk offset %.2f, want 0", chunks[0].StartOffsetSeconds)
	}
	if len(chunks[0].Stream.PCM) != len(stream.PCM) {
		t.Fatal("implicit chunk must carry the whole stream")
	}
}

func TestChunksForLongStreamSplits(t *testing.T) {
	chunks := ChunksFor(makeStream(1500), DefaultMaxChunkSeconds)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
}

func TestEnergyDetector(t *testing.T) {
	d := NewEnergyDetector(0)

	silence := make([]byte, SampleRate*BytesPerSample)
	if r := d.SpeechRatio(silence, SampleRate); r != 0 {
		t.Fatalf("silence ratio %.2f, want 0", r)
	}

	tone := make([]byte, SampleRate*BytesPerSample)
	for i := 0; i < SampleRate; i++ {
		v := int16(8000 * math.Sin(2*math.Pi*440*float64(i)/SampleRate))
		binary.LittleEndian.PutUint16(tone[i*2:], uint16(v))
	}
	if r := d.SpeechRatio(tone, SampleRate); r < 0.9 {
		t.Fatalf("tone ratio %.2f, want >= 0.9", r)
	}
}

func TestEncodeWAVHeader(t *testing.T) {
	pcm := make([]byte, 320)
	wav := EncodeWAV(pcm, SampleRate, Channels)

	if len(wav) != 44+len(pcm) {
		t.Fatalf("wav length %d, want %d", len(wav), 44+len(pcm))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" || string(wav[36:40]) != "data" {
		t.Fatalf("bad header %q", wav[:44])
	}
	if got := binary.LittleEndian.Uint32(wav[24:28]); got != SampleRate {
		t.Fatalf("sample rate %d", got)
	}
	if got := binary.LittleEndian.Uint32(wav[40:44]); got != uint32(len(pcm)) {
		t.Fatalf("data size %d", got)
	}
}
