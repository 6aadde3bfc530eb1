// Package input turns the analog button ladder into debounced button
// codes and tap/hold events.
package input

import (
	"time"

	"github.com/rabidaudio/sdwav/clock"
)

// Button codes.
const (
	None        uint8 = 0
	Reserved    uint8 = 9
	Back        uint8 = 10 // rewind, skip back
	Forward     uint8 = 11 // fast forward, skip forward
	NumChannels       = 8
)

// IsChannel reports whether code selects a channel.
func IsChannel(code uint8) bool {
	return code >= 1 && code <= NumChannels
}

// thresholds are the exclusive upper bounds of codes 0..10 on an 8-bit
// left justified ADC sample. Anything above the last one is code 11.
var thresholds = [...]uint8{6, 17, 26, 40, 63, 89, 129, 155, 184, 205, 224}

// Decode maps a raw 8-bit ladder sample to a button code.
func Decode(raw uint8) uint8 {
	for code, limit := range thresholds {
		if raw < limit {
			return uint8(code)
		}
	}
	return Forward
}

// Sampler reads the ladder voltage as an 8-bit sample.
type Sampler interface {
	Sample() (uint8, error)
}

// DebounceInterval separates the two reads that must agree before a code
// change is accepted.
const DebounceInterval = time.Millisecond

// Buttons is a debounced view of a Sampler.
type Buttons struct {
	s     Sampler
	clk   clock.Clock
	code  uint8
	Delay time.Duration
}

func NewButtons(s Sampler, clk clock.Clock) *Buttons {
	return &Buttons{s: s, clk: clk, Delay: DebounceInterval}
}

// Read returns the current button code. A new code is only accepted when
// a second read after Delay agrees with it, otherwise the previous code
// is kept.
func (b *Buttons) Read() (uint8, error) {
	raw, err := b.s.Sample()
	if err != nil {
		return b.code, err
	}
	code := Decode(raw)
	if code == b.code {
		return code, nil
	}

	b.clk.Sleep(b.Delay)
	raw, err = b.s.Sample()
	if err != nil {
		return b.code, err
	}
	if Decode(raw) == code {
		b.code = code
	}
	return b.code, nil
}

// Raw returns a sample in the middle of the band of code, the inverse of
// Decode.
func Raw(code uint8) uint8 {
	if int(code) > len(thresholds) {
		code = uint8(len(thresholds))
	}
	lower := 0
	if code > 0 {
		lower = int(thresholds[code-1])
	}
	upper := 256
	if int(code) < len(thresholds) {
		upper = int(thresholds[code])
	}
	return uint8((lower + upper) / 2)
}
