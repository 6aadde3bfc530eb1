// Package fifo implements the audio sample queue shared between the
// refill loop and the sample emitter.
//
// A Ring has exactly one producer and one consumer, which may run on
// different goroutines. The fill count is the only state both sides
// touch; the read index belongs to the consumer and the write index to
// the producer.
package fifo

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/rabidaudio/sdwav/clock"
)

// DefaultSize matches the sample buffer of the reference board.
const DefaultSize = 256

var ErrStalled = errors.New("fifo: consumer stalled")

type Ring struct {
	buf   []byte
	ri    int // consumer only
	wi    int // producer only
	count atomic.Int32
}

func New(size int) *Ring {
	if size <= 0 {
		size = DefaultSize
	}
	return &Ring{buf: make([]byte, size)}
}

// TryPush appends b, reporting false if the ring is full.
func (r *Ring) TryPush(b byte) bool {
	if int(r.count.Load()) >= len(r.buf) {
		return false
	}
	r.buf[r.wi] = b
	r.wi++
	if r.wi == len(r.buf) {
		r.wi = 0
	}
	r.count.Add(1)
	return true
}

// TryPop removes the oldest byte, reporting false if the ring is empty.
func (r *Ring) TryPop() (byte, bool) {
	if r.count.Load() == 0 {
		return 0, false
	}
	b := r.buf[r.ri]
	r.ri++
	if r.ri == len(r.buf) {
		r.ri = 0
	}
	r.count.Add(-1)
	return b, true
}

// Len returns the number of queued bytes.
func (r *Ring) Len() int {
	return int(r.count.Load())
}

func (r *Ring) Cap() int {
	return len(r.buf)
}

// Writer is the producer side of a Ring as an io.Writer. Write spins
// while the ring is full; if the consumer does not make room within
// Stall, it gives up with ErrStalled.
type Writer struct {
	Ring  *Ring
	Clock clock.Clock
	Stall time.Duration
	Poll  time.Duration
}

func NewWriter(r *Ring, c clock.Clock) *Writer {
	return &Writer{
		Ring:  r,
		Clock: c,
		Stall: 500 * time.Millisecond,
		Poll:  100 * time.Microsecond,
	}
}

func (w *Writer) Write(p []byte) (int, error) {
	for i, b := range p {
		if w.Ring.TryPush(b) {
			continue
		}
		ok := clock.WaitUntil(w.Clock, w.Stall, w.Poll, func() bool {
			return w.Ring.TryPush(b)
		})
		if !ok {
			return i, ErrStalled
		}
	}
	return len(p), nil
}

// Drain waits for the consumer to empty the ring.
func (w *Writer) Drain(timeout time.Duration) error {
	ok := clock.WaitUntil(w.Clock, timeout, w.Poll, func() bool {
		return w.Ring.Len() == 0
	})
	if !ok {
		return ErrStalled
	}
	return nil
}
