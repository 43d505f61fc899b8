package audio

import (
	"bytes"
	"encoding/binary"
)

// EncodeWAV wraps s16le PCM in a canonical 44-byte RIFF/WAVE header.
func EncodeWAV(pcm []byte, sampleRate, channels int) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, 44+len(pcm)))

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(channels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*channels*BytesPerSample))
	binary.Write(buf, binary.LittleEndian, uint16(channels*BytesPerSample))
	binary.Write(buf, binary.LittleEndian, uint16(BytesPerSample*8))

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}
