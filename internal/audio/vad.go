package audio

import (
	"encoding/binary"
	"math"

	"github.com/maxhawkins/go-webrtcvad"
)

const (
	frameMillis         = 20
	defaultRMSThreshold = 500.0
)

var (
	_ SpeechDetector = (*WebRTCVAD)(nil)
	_ SpeechDetector = (*EnergyDetector)(nil)
)

// WebRTCVAD keeps filter state across frames, so one instance must score
// one buffer at a time.
type WebRTCVAD struct {
	vad      *webrtcvad.VAD
	fallback *EnergyDetector
}

func NewWebRTCVAD() (*WebRTCVAD, error) {
	vad, err := webrtcvad.New()
	if err != nil {
		return nil, err
	}

	// Set aggressiveness (0-3, where 3 is most aggressive)
	if err := vad.SetMode(2); err != nil {
		return nil, err
	}

	return &WebRTCVAD{
		vad:      vad,
		fallback: NewEnergyDetector(defaultRMSThreshold),
	}, nil
}

// SpeechRatio returns the fraction of 20ms frames the WebRTC VAD flags as
// speech. Frames the VAD rejects are scored by RMS energy instead.
func (v *WebRTCVAD) SpeechRatio(pcm []byte, sampleRate int) float64 {
	frameBytes := sampleRate * frameMillis / 1000 * BytesPerSample
	if v.vad == nil || frameBytes <= 0 || len(pcm) < frameBytes {
		return v.fallback.SpeechRatio(pcm, sampleRate)
	}

	var frames, speech int
	for off := 0; off+frameBytes <= len(pcm); off += frameBytes {
		frame := pcm[off : off+frameBytes]
		frames++

		isSpeech, err := v.vad.Process(sampleRate, frame)
		if err != nil {
			isSpeech = v.fallback.isSpeech(frame)
		}
		if isSpeech {
			speech++
		}
	}
	return float64(speech) / float64(frames)
}

// Close drops the handle; the C state is released by its finalizer.
func (v *WebRTCVAD) Close() error {
	v.vad = nil
	return nil
}

// EnergyDetector is an RMS threshold detector. It needs no cgo and is the
// fallback when the WebRTC VAD cannot score a frame.
type EnergyDetector struct {
	rmsThreshold float64
}

func NewEnergyDetector(rmsThreshold float64) *EnergyDetector {
	if rmsThreshold <= 0 {
		rmsThreshold = defaultRMSThreshold
	}
	return &EnergyDetector{rmsThreshold: rmsThreshold}
}

func (e *EnergyDetector) SpeechRatio(pcm []byte, sampleRate int) float64 {
	frameBytes := sampleRate * frameMillis / 1000 * BytesPerSample
	if frameBytes <= 0 || len(pcm) < BytesPerSample {
		return 0
	}
	if len(pcm) < frameBytes {
		if e.isSpeech(pcm) {
			return 1
		}
		return 0
	}

	var frames, speech int
	for off := 0; off+frameBytes <= len(pcm); off += frameBytes {
		frames++
		if e.isSpeech(pcm[off : off+frameBytes]) {
			speech++
		}
	}
	return float64(speech) / float64(frames)
}

func (e *EnergyDetector) Close() error { return nil }

func (e *EnergyDetector) isSpeech(frame []byte) bool {
	return rms(frame) > e.rmsThreshold
}

func rms(pcm []byte) float64 {
	n := len(pcm) / BytesPerSample
	if n == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < n; i++ {
		sample := float64(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
		sum += sample * sample
	}
	return math.Sqrt(sum / float64(n))
}
