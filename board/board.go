// Package board drives the peripherals of the player on a Raspberry Pi:
// the status LED and the ADC reading the button ladder.
//
// The GPIO block is mapped by spi.OpenDevice, which must be called first.
// The ladder ADC also shares the SPI controller with the card.
package board

import (
	rpio "github.com/stianeikeland/go-rpio/v4"

	"github.com/rabidaudio/sdwav/spi"
)

// LED is an active high status LED on a GPIO line.
type LED struct {
	pin rpio.Pin
}

func NewLED(pin uint8) *LED {
	p := rpio.Pin(pin)
	p.Output()
	p.Low()
	return &LED{pin: p}
}

func (l *LED) Set(on bool) {
	if on {
		l.pin.High()
	} else {
		l.pin.Low()
	}
}

// ADCSpeed is the SPI clock used for the MCP3008, well below its 1.35MHz
// limit at 2.7V.
const ADCSpeed = 1_000_000

// Ladder samples the button ladder on one channel of an MCP3008 on
// hardware chip select 0. The card shares the controller, so the chip
// select and clock are restored to the card's after every sample.
type Ladder struct {
	Channel   uint8
	CardSpeed int
}

func NewLadder(channel uint8) *Ladder {
	return &Ladder{Channel: channel & 7, CardSpeed: spi.RunSpeed}
}

// Sample returns the 10-bit conversion reduced to the 8-bit left
// justified value the ladder bands are defined on.
func (l *Ladder) Sample() (uint8, error) {
	rpio.SpiChipSelect(0)
	rpio.SpiSpeed(ADCSpeed)
	defer func() {
		rpio.SpiChipSelect(1)
		rpio.SpiSpeed(l.CardSpeed)
	}()

	// start bit, single ended, channel
	buf := []byte{0x01, (0x08 | l.Channel) << 4, 0x00}
	rpio.SpiExchange(buf)
	return Reduce(uint16(buf[1]&0x03)<<8 | uint16(buf[2])), nil
}

// Reduce drops the two low bits of a 10-bit sample.
func Reduce(v uint16) uint8 {
	return uint8(v >> 2)
}
