// Package wav scans the header of a RIFF/WAVE file far enough to stream
// its PCM payload.
//
// The scan is a single forward pass: it never seeks backwards and never
// reads a chunk it does not need. On success the stream is left at the
// first payload byte.
package wav

import (
	"encoding/binary"
	"errors"
	"io"
)

const (
	CodingPCM     = 1
	MinSampleRate = 8000
	MaxSampleRate = 48000
	MinDataSize   = 1024
	minFormatSize = 16
	maxFormatSize = 128
	signatureSize = 12
	chunkHeadSize = 8
	timerClock    = 16_000_000 / 8 // prescaled timer input of the reference board
)

// Geometry describes the PCM payload of a file.
type Geometry struct {
	DataOffset    int64 // file position of the first payload byte
	SampleCount   int64 // payload size in bytes
	Channels      int
	BitsPerSample int
	SampleRate    int
}

// Align returns the size of one frame in bytes. All payload sizes and
// seek targets are multiples of it.
func (g Geometry) Align() int {
	al := g.Channels
	if g.BitsPerSample == 16 {
		al <<= 1
	}
	return al
}

// End returns the file position just past the payload.
func (g Geometry) End() int64 {
	return g.DataOffset + g.SampleCount
}

// BytesPerSecond returns the payload data rate.
func (g Geometry) BytesPerSecond() int {
	return g.SampleRate * g.Align()
}

// TimerDivisor returns the compare value of the sample interval timer on
// the reference board (16MHz, prescaler 8).
func (g Geometry) TimerDivisor() int {
	if g.SampleRate == 0 {
		return 0
	}
	return timerClock/g.SampleRate - 1
}

// StartAligned reports whether the payload starts on a frame boundary.
// Plenty of intact files don't, so this is informational only.
func (g Geometry) StartAligned() bool {
	al := int64(g.Align())
	return al == 0 || g.DataOffset%al == 0
}

// ScanHeader validates the header of the file at the current position of
// r and returns the geometry of its payload. Header problems are reported
// as *FormatError, read and seek failures are returned as they are.
func ScanHeader(r io.ReadSeeker) (Geometry, error) {
	var g Geometry
	var buf [maxFormatSize]byte

	if err := readFull(r, buf[:signatureSize], ReasonSignature); err != nil {
		return g, err
	}
	if string(buf[8:12]) != "WAVE" {
		return g, &FormatError{Reason: ReasonSignature}
	}

	for {
		if err := readFull(r, buf[:chunkHeadSize], ReasonChunkHeader); err != nil {
			return g, err
		}
		var id [4]byte
		copy(id[:], buf[:4])
		sz := binary.LittleEndian.Uint32(buf[4:8])

		switch DecodeChunkID(id) {
		case ChunkFormat:
			if sz&1 != 0 {
				sz++
			}
			if sz < minFormatSize || sz > maxFormatSize {
				return g, &FormatError{Reason: ReasonFormatSize, Chunk: string(id[:]), Value: sz}
			}
			if err := readFull(r, buf[:sz], ReasonFormatShort); err != nil {
				return g, err
			}
			if err := parseFormat(&g, buf[:sz]); err != nil {
				return Geometry{}, err
			}

		case ChunkData:
			if g.Channels == 0 {
				return Geometry{}, &FormatError{Reason: ReasonNoFormat, Chunk: string(id[:])}
			}
			if sz < MinDataSize {
				return Geometry{}, &FormatError{Reason: ReasonDataSize, Chunk: string(id[:]), Value: sz}
			}
			if sz%uint32(g.Align()) != 0 {
				return Geometry{}, &FormatError{Reason: ReasonDataAlign, Chunk: string(id[:]), Value: sz}
			}
			pos, err := r.Seek(0, io.SeekCurrent)
			if err != nil {
				return Geometry{}, err
			}
			g.DataOffset = pos
			g.SampleCount = int64(sz)
			return g, nil

		case ChunkSkippable:
			skip := int64(sz) + int64(sz&1)
			if _, err := r.Seek(skip, io.SeekCurrent); err != nil {
				return Geometry{}, err
			}

		case ChunkUnknown:
			return Geometry{}, &FormatError{Reason: ReasonUnknownChunk, Chunk: string(id[:]), Value: sz}
		}
	}
}

func parseFormat(g *Geometry, p []byte) error {
	coding := binary.LittleEndian.Uint16(p[0:2])
	channels := binary.LittleEndian.Uint16(p[2:4])
	rate := binary.LittleEndian.Uint32(p[4:8])
	bits := binary.LittleEndian.Uint16(p[14:16])

	if coding != CodingPCM {
		return &FormatError{Reason: ReasonCoding, Chunk: "fmt ", Value: uint32(coding)}
	}
	if channels != 1 && channels != 2 {
		return &FormatError{Reason: ReasonChannels, Chunk: "fmt ", Value: uint32(channels)}
	}
	if bits != 8 && bits != 16 {
		return &FormatError{Reason: ReasonResolution, Chunk: "fmt ", Value: uint32(bits)}
	}
	if rate < MinSampleRate || rate > MaxSampleRate {
		return &FormatError{Reason: ReasonSampleRate, Chunk: "fmt ", Value: rate}
	}

	g.Channels = int(channels)
	g.BitsPerSample = int(bits)
	g.SampleRate = int(rate)
	return nil
}

// readFull fills p, turning a short read into a FormatError with the
// given reason.
func readFull(r io.Reader, p []byte, short Reason) error {
	_, err := io.ReadFull(r, p)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &FormatError{Reason: short}
	}
	return err
}
