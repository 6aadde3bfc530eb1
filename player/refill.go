package player

import (
	"errors"
	"io"

	"github.com/rabidaudio/sdwav/wav"
)

// ErrEndOfStream is returned by Refill once the payload is exhausted. It
// is a signal, not a failure.
var ErrEndOfStream = errors.New("player: end of stream")

const (
	sectorSize = 512
	bulkSize   = 1024
)

// Refiller moves audio from the open track to the output, one tick at a
// time: first the rest of the current sector, so card reads stay sector
// aligned, then one bulk read.
type Refiller struct {
	buf [bulkSize]byte
}

// Refill forwards the next piece of payload from s to w and returns the
// number of bytes forwarded. A bulk read shorter than the bulk size ends
// the stream with ErrEndOfStream.
func (r *Refiller) Refill(s io.ReadSeeker, g wav.Geometry, w io.Writer) (int, error) {
	pos, err := s.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	remaining := g.End() - pos
	if remaining <= 0 {
		return 0, ErrEndOfStream
	}

	total := 0
	if snip := min((sectorSize-pos%sectorSize)%sectorSize, remaining); snip > 0 {
		n, err := r.forward(s, w, int(snip))
		total += n
		if err != nil {
			return total, err
		}
		if int64(n) < snip {
			return total, ErrEndOfStream
		}
		remaining -= snip
	}

	n, err := r.forward(s, w, int(min(remaining, bulkSize)))
	total += n
	if err != nil {
		return total, err
	}
	if n < bulkSize {
		return total, ErrEndOfStream
	}
	return total, nil
}

// forward copies up to n bytes from s to w. Running out of file is not
// an error here, it just makes the count short.
func (r *Refiller) forward(s io.Reader, w io.Writer, n int) (int, error) {
	if n == 0 {
		return 0, nil
	}
	m, err := io.ReadFull(s, r.buf[:n])
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		err = nil
	}
	if err != nil {
		return 0, err
	}
	if _, err := w.Write(r.buf[:m]); err != nil {
		return 0, err
	}
	return m, nil
}
