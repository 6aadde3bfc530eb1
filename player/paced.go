package player

import (
	"time"

	"github.com/rabidaudio/sdwav/input"
	"github.com/rabidaudio/sdwav/wav"
)

// pacedWriter hands refill data to the output in pieces of about one
// debounce interval of audio and polls the buttons after each piece. A
// full output blocks each piece for about that long, so the buttons are
// sampled at that resolution however long the whole refill takes.
type pacedWriter struct {
	p     *Player
	piece int
}

func (w *pacedWriter) Write(b []byte) (int, error) {
	n := 0
	for n < len(b) {
		m, err := w.p.out.Write(b[n:min(n+w.piece, len(b))])
		n += m
		if err != nil {
			return n, err
		}
		if err := w.p.poll(); err != nil && w.p.pollErr == nil {
			w.p.pollErr = err
		}
	}
	return n, nil
}

// pieceSize returns the whole number of frames closest below one
// debounce interval of playback, at least one frame.
func pieceSize(g wav.Geometry) int {
	al := g.Align()
	if al == 0 {
		return 1
	}
	n := int(int64(g.BytesPerSecond()) * int64(input.DebounceInterval) / int64(time.Second))
	return max(n/al*al, al)
}
