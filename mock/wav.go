package mock

import (
	"bytes"
	"encoding/binary"
)

// WAV returns a minimal PCM file: a 16 byte fmt chunk followed by the
// data chunk, so the payload starts at offset 44.
func WAV(channels, bits, rate int, payload []byte) []byte {
	var b bytes.Buffer
	al := channels * bits / 8
	le := binary.LittleEndian

	b.WriteString("RIFF")
	binary.Write(&b, le, uint32(36+len(payload)))
	b.WriteString("WAVE")

	b.WriteString("fmt ")
	binary.Write(&b, le, uint32(16))
	binary.Write(&b, le, uint16(1))
	binary.Write(&b, le, uint16(channels))
	binary.Write(&b, le, uint32(rate))
	binary.Write(&b, le, uint32(rate*al))
	binary.Write(&b, le, uint16(al))
	binary.Write(&b, le, uint16(bits))

	b.WriteString("data")
	binary.Write(&b, le, uint32(len(payload)))
	b.Write(payload)
	return b.Bytes()
}

// Ramp returns n payload bytes counting up from 0, wrapping at 256.
func Ramp(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i)
	}
	return p
}
