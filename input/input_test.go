package input

import (
	"errors"
	"testing"
	"time"

	"github.com/nsf/termbox-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeThresholds(t *testing.T) {
	bands := []struct {
		lo, hi uint8
		code   uint8
	}{
		{0, 5, 0},
		{6, 16, 1},
		{17, 25, 2},
		{26, 39, 3},
		{40, 62, 4},
		{63, 88, 5},
		{89, 128, 6},
		{129, 154, 7},
		{155, 183, 8},
		{184, 204, 9},
		{205, 223, 10},
		{224, 255, 11},
	}
	for _, b := range bands {
		assert.Equal(t, b.code, Decode(b.lo), "raw %d", b.lo)
		assert.Equal(t, b.code, Decode(b.hi), "raw %d", b.hi)
	}
}

func TestDecodeIsTotal(t *testing.T) {
	prev := uint8(0)
	for raw := 0; raw < 256; raw++ {
		code := Decode(uint8(raw))
		assert.LessOrEqual(t, code, Forward)
		assert.GreaterOrEqual(t, code, prev, "bands are monotonic")
		prev = code
	}
}

func TestRawRoundTrip(t *testing.T) {
	for code := uint8(0); code <= Forward; code++ {
		assert.Equal(t, code, Decode(Raw(code)))
	}
	assert.Equal(t, Forward, Decode(Raw(200)))
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time        { return c.now }
func (c *fakeClock) Sleep(d time.Duration) { c.now = c.now.Add(d) }

type scripted struct {
	raws []uint8
	err  error
}

func (s *scripted) Sample() (uint8, error) {
	if s.err != nil {
		return 0, s.err
	}
	if len(s.raws) == 0 {
		return 0, nil
	}
	r := s.raws[0]
	s.raws = s.raws[1:]
	return r, nil
}

func TestButtonsDebounce(t *testing.T) {
	clk := &fakeClock{}
	s := &scripted{}
	b := NewButtons(s, clk)

	// glitch: second read disagrees, code stays
	s.raws = []uint8{Raw(3), Raw(0)}
	code, err := b.Read()
	require.NoError(t, err)
	assert.Equal(t, None, code)
	assert.Equal(t, time.Millisecond, clk.now.Sub(time.Time{}))

	// agreement 1ms apart, change accepted
	s.raws = []uint8{Raw(3), Raw(3)}
	code, err = b.Read()
	require.NoError(t, err)
	assert.Equal(t, uint8(3), code)

	// no change, single read and no wait
	before := clk.now
	s.raws = []uint8{Raw(3)}
	code, _ = b.Read()
	assert.Equal(t, uint8(3), code)
	assert.Equal(t, before, clk.now)
	assert.Empty(t, s.raws)
}

func TestButtonsSamplerError(t *testing.T) {
	errADC := errors.New("adc")
	b := NewButtons(&scripted{err: errADC}, &fakeClock{})
	_, err := b.Read()
	assert.ErrorIs(t, err, errADC)
}

type step struct {
	at   time.Duration
	code uint8
	want Event
}

func runSteps(t *testing.T, d *Detector, steps []step) {
	start := time.Unix(1000, 0)
	for i, s := range steps {
		got := d.Update(start.Add(s.at), s.code)
		assert.Equal(t, s.want, got, "step %d at %v", i, s.at)
	}
}

func TestDetectTap(t *testing.T) {
	runSteps(t, NewDetector(200*time.Millisecond, 400*time.Millisecond), []step{
		{0, None, Event{}},
		{10 * time.Millisecond, Back, Event{Press, Back}},
		{100 * time.Millisecond, Back, Event{}},
		{199 * time.Millisecond, None, Event{Tap, Back}},
		{300 * time.Millisecond, None, Event{}},
	})
}

func TestDetectHold(t *testing.T) {
	runSteps(t, NewDetector(200*time.Millisecond, 400*time.Millisecond), []step{
		{0, Back, Event{Press, Back}},
		{199 * time.Millisecond, Back, Event{}},
		{200 * time.Millisecond, Back, Event{Hold, Back}},
		{900 * time.Millisecond, Back, Event{}},
		{901 * time.Millisecond, None, Event{Release, Back}},
	})
}

func TestDetectDoubleTap(t *testing.T) {
	runSteps(t, NewDetector(200*time.Millisecond, 400*time.Millisecond), []step{
		{0, Back, Event{Press, Back}},
		{50 * time.Millisecond, None, Event{Tap, Back}},
		{300 * time.Millisecond, Back, Event{Press, Back}},
		{350 * time.Millisecond, None, Event{DoubleTap, Back}},
		// a third tap starts over
		{400 * time.Millisecond, Back, Event{Press, Back}},
		{450 * time.Millisecond, None, Event{Tap, Back}},
	})
}

func TestDetectDoubleTapWindow(t *testing.T) {
	runSteps(t, NewDetector(200*time.Millisecond, 400*time.Millisecond), []step{
		{0, Back, Event{Press, Back}},
		{50 * time.Millisecond, None, Event{Tap, Back}},
		{451 * time.Millisecond, Back, Event{Press, Back}},
		{500 * time.Millisecond, None, Event{Tap, Back}},
	})
}

func TestDetectTapThenHold(t *testing.T) {
	runSteps(t, NewDetector(200*time.Millisecond, 400*time.Millisecond), []step{
		{0, Forward, Event{Press, Forward}},
		{50 * time.Millisecond, None, Event{Tap, Forward}},
		{100 * time.Millisecond, Forward, Event{Press, Forward}},
		{300 * time.Millisecond, Forward, Event{Hold, Forward}},
		{350 * time.Millisecond, None, Event{Release, Forward}},
		// the hold consumed the pending tap
		{400 * time.Millisecond, Forward, Event{Press, Forward}},
		{410 * time.Millisecond, None, Event{Tap, Forward}},
	})
}

func TestDetectCodeChange(t *testing.T) {
	d := NewDetector(200*time.Millisecond, 400*time.Millisecond)
	runSteps(t, d, []step{
		{0, 2, Event{Press, 2}},
		{20 * time.Millisecond, 5, Event{Tap, 2}},
		{21 * time.Millisecond, 5, Event{Press, 5}},
	})
	assert.Equal(t, uint8(5), d.Pressed())
	d.Reset()
	assert.Equal(t, None, d.Pressed())
	assert.Equal(t, 200*time.Millisecond, d.Hold)
}

func TestKeyboardKeys(t *testing.T) {
	clk := &fakeClock{}
	k := &Keyboard{TapTime: 50 * time.Millisecond, clk: clk}

	sample := func() uint8 {
		raw, err := k.Sample()
		require.NoError(t, err)
		return Decode(raw)
	}

	assert.Equal(t, None, sample())
	assert.True(t, k.key(termbox.Event{Type: termbox.EventKey, Ch: '4'}))
	assert.Equal(t, uint8(4), sample())
	clk.Sleep(50 * time.Millisecond)
	assert.Equal(t, None, sample(), "tap expired")

	k.key(termbox.Event{Type: termbox.EventKey, Ch: 'B'})
	clk.Sleep(time.Second)
	assert.Equal(t, Back, sample(), "held until released")
	k.key(termbox.Event{Type: termbox.EventKey, Key: termbox.KeySpace})
	assert.Equal(t, None, sample())

	k.key(termbox.Event{Type: termbox.EventKey, Key: termbox.KeyArrowRight})
	assert.Equal(t, Forward, sample())

	assert.False(t, k.key(termbox.Event{Type: termbox.EventKey, Ch: 'q'}))
	assert.False(t, k.key(termbox.Event{Type: termbox.EventKey, Key: termbox.KeyCtrlC}))
}
