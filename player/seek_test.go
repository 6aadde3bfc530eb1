package player

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rabidaudio/sdwav/wav"
)

var testJump = JumpConfig{
	Base:             500 * time.Millisecond,
	Multiplier:       4,
	Threshold:        2,
	ClusterTicks:     4,
	FastClusterTicks: 2,
}

func mono16() wav.Geometry {
	return wav.Geometry{DataOffset: 44, SampleCount: 96000, Channels: 1, BitsPerSample: 16, SampleRate: 48000}
}

func TestJumpCadence(t *testing.T) {
	a := NewJumpAccelerator(testJump)
	var due []int
	for i := 1; i <= 14; i++ {
		if a.Tick() {
			due = append(due, i)
		}
	}
	// every 4 ticks, every 2 once past the threshold
	assert.Equal(t, []int{4, 8, 12, 14}, due)
	assert.Equal(t, 4, a.Jumps)

	a.Reset()
	assert.Equal(t, 0, a.Jumps)
	assert.False(t, a.Tick())
}

func TestJumpDistance(t *testing.T) {
	a := NewJumpAccelerator(testJump)
	g := mono16()
	var dist []int64
	for len(dist) < 4 {
		if a.Tick() {
			dist = append(dist, a.Distance(g))
		}
	}
	assert.Equal(t, []int64{48000, 48000, 192000, 192000}, dist)
}

func TestJumpDistanceAligned(t *testing.T) {
	cfg := testJump
	cfg.Base = 10*time.Millisecond + 7*time.Microsecond
	a := NewJumpAccelerator(cfg)
	g := wav.Geometry{Channels: 2, BitsPerSample: 16, SampleRate: 44100}
	d := a.Distance(g)
	assert.Zero(t, d%4)
	assert.Equal(t, int64(1764), d)

	cfg.Base = 0
	a = NewJumpAccelerator(cfg)
	assert.Equal(t, int64(4), a.Distance(g), "at least one frame")
}
