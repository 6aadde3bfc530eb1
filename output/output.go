// Package output plays the audio FIFO through the host sound card,
// standing in for the PWM sample emitter of the player board.
package output

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	log "github.com/sirupsen/logrus"

	"github.com/rabidaudio/sdwav/clock"
	"github.com/rabidaudio/sdwav/fifo"
	"github.com/rabidaudio/sdwav/wav"
)

// DefaultRate is the rate the sound card is opened at; tracks are
// resampled to it.
const DefaultRate = beep.SampleRate(44100)

// rampTime is how long the output takes to swing from rest to the
// centre level when a track starts.
const rampTime = 128 * 100 * time.Microsecond

// Speaker drains a fifo.Ring into the sound card. The ring is only ever
// consumed by the speaker goroutine.
type Speaker struct {
	DrainTimeout time.Duration

	ring *fifo.Ring
	w    *fifo.Writer
	rate beep.SampleRate

	mu     sync.Mutex
	stream *ringStreamer
}

func NewSpeaker(ring *fifo.Ring, clk clock.Clock, rate beep.SampleRate) (*Speaker, error) {
	if rate == 0 {
		rate = DefaultRate
	}
	err := speaker.Init(rate, rate.N(time.Second/10))
	if err != nil {
		return nil, err
	}
	return &Speaker{
		DrainTimeout: time.Second,
		ring:         ring,
		w:            fifo.NewWriter(ring, clk),
		rate:         rate,
	}, nil
}

// Start switches the output to the format of a new track. Anything still
// queued from the previous track is dropped.
func (s *Speaker) Start(g wav.Geometry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	speaker.Clear()
	for {
		if _, ok := s.ring.TryPop(); !ok {
			break
		}
	}
	s.stream = newRingStreamer(s.ring, g)
	var st beep.Streamer = s.stream
	if src := beep.SampleRate(g.SampleRate); src != s.rate {
		st = beep.Resample(3, src, s.rate, st)
	}
	speaker.Play(st)
	log.WithFields(log.Fields{
		"rate":     g.SampleRate,
		"channels": g.Channels,
		"bits":     g.BitsPerSample,
	}).Debug("output started")
	return nil
}

func (s *Speaker) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

// Drain waits until the queued audio has been played.
func (s *Speaker) Drain() error {
	return s.w.Drain(s.DrainTimeout)
}

// Silence returns the output to the centre level until the next Start.
func (s *Speaker) Silence() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream != nil {
		s.stream.silent.Store(true)
	}
}

func (s *Speaker) Close() error {
	speaker.Clear()
	speaker.Close()
	return nil
}

// ringStreamer decodes PCM frames from the ring. When the ring runs dry
// it plays the centre level instead of stopping.
type ringStreamer struct {
	ring   *fifo.Ring
	al     int
	bits   int
	stereo bool
	frame  []byte
	ramp   int // frames of fade in left
	rampN  int
	silent atomic.Bool
}

// ensure interface conformation
var _ beep.Streamer = (*ringStreamer)(nil)

func newRingStreamer(ring *fifo.Ring, g wav.Geometry) *ringStreamer {
	n := int(time.Duration(g.SampleRate) * rampTime / time.Second)
	return &ringStreamer{
		ring:   ring,
		al:     g.Align(),
		bits:   g.BitsPerSample,
		stereo: g.Channels == 2,
		frame:  make([]byte, g.Align()),
		ramp:   n,
		rampN:  n,
	}
}

func (s *ringStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	silent := s.silent.Load()
	for i := range samples {
		if silent || s.ring.Len() < s.al {
			samples[i] = [2]float64{}
			continue
		}
		for j := range s.frame {
			s.frame[j], _ = s.ring.TryPop()
		}
		l, r := extractFrame(s.frame, s.bits, s.stereo)
		if s.ramp > 0 {
			gain := 1 - float64(s.ramp)/float64(s.rampN)
			l, r = l*gain, r*gain
			s.ramp--
		}
		samples[i][0], samples[i][1] = l, r
	}
	return len(samples), true
}

func (s *ringStreamer) Err() error {
	return nil
}

// extractFrame converts one PCM frame to a pair of samples in [-1, 1).
// 8-bit samples are unsigned around 0x80, 16-bit samples are signed
// little endian.
func extractFrame(p []byte, bits int, stereo bool) (l, r float64) {
	sample := func(p []byte) float64 {
		if bits == 8 {
			return (float64(p[0]) - 128) / 128
		}
		return float64(int16(uint16(p[0])|uint16(p[1])<<8)) / (1 << 15)
	}
	l = sample(p)
	if !stereo {
		return l, l
	}
	return l, sample(p[bits/8:])
}
