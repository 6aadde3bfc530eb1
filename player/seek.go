package player

import (
	"time"

	"github.com/rabidaudio/sdwav/wav"
)

type JumpConfig struct {
	Base             time.Duration // audio skipped per jump
	Multiplier       int           // jump scale once accelerated
	Threshold        int           // jumps before accelerating
	ClusterTicks     int           // refill ticks between jumps
	FastClusterTicks int           // refill ticks between accelerated jumps
}

// JumpAccelerator paces the jumps of fast forward and rewind. Jumps get
// longer and more frequent once the button has been held for more than
// Threshold jumps.
type JumpAccelerator struct {
	cfg    JumpConfig
	Jumps  int // consecutive jumps since the last Reset
	budget int // ticks until the next jump
}

func NewJumpAccelerator(cfg JumpConfig) *JumpAccelerator {
	a := &JumpAccelerator{cfg: cfg}
	a.Reset()
	return a
}

func (a *JumpAccelerator) Reset() {
	a.Jumps = 0
	a.budget = max(a.cfg.ClusterTicks, 1)
}

func (a *JumpAccelerator) accelerated() bool {
	return a.Jumps > a.cfg.Threshold
}

// Tick counts one refill tick and reports whether a jump is due. A due
// jump is counted right away, so Distance returns its size.
func (a *JumpAccelerator) Tick() bool {
	a.budget--
	if a.budget > 0 {
		return false
	}
	a.Jumps++
	if a.accelerated() {
		a.budget = max(a.cfg.FastClusterTicks, 1)
	} else {
		a.budget = max(a.cfg.ClusterTicks, 1)
	}
	return true
}

// Distance returns the size in bytes of the current jump, a whole number
// of frames.
func (a *JumpAccelerator) Distance(g wav.Geometry) int64 {
	d := int64(g.BytesPerSecond()) * int64(a.cfg.Base) / int64(time.Second)
	if a.accelerated() && a.cfg.Multiplier > 1 {
		d *= int64(a.cfg.Multiplier)
	}
	al := int64(g.Align())
	if al == 0 {
		return 0
	}
	return max(d/al*al, al)
}
