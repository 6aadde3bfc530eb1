package mock

import (
	"time"

	"github.com/rabidaudio/sdwav/wav"
)

// Output records what is played. Written audio advances Clock by the
// time it takes to play, so a refill loop runs in simulated real time.
type Output struct {
	Clock *Clock

	Starts   []wav.Geometry
	Written  int64
	Silences int
	Drains   int
	Centred  bool // output sits at the centre level
	DrainErr error

	rate int
}

func (o *Output) Start(g wav.Geometry) error {
	o.Starts = append(o.Starts, g)
	o.rate = g.BytesPerSecond()
	o.Centred = false
	return nil
}

func (o *Output) Write(p []byte) (int, error) {
	o.Written += int64(len(p))
	o.Centred = false
	if o.Clock != nil && o.rate > 0 {
		o.Clock.Advance(time.Duration(len(p)) * time.Second / time.Duration(o.rate))
	}
	return len(p), nil
}

func (o *Output) Drain() error {
	o.Drains++
	return o.DrainErr
}

func (o *Output) Silence() {
	o.Silences++
	o.Centred = true
}
