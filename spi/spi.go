// Package spi provides the byte-oriented serial links the card driver
// talks through.
//
// A Bus exchanges bytes full duplex: every byte clocked out clocks one
// byte in. Chip select is controlled separately so callers can bracket
// multi-byte transactions.
package spi

import (
	"fmt"

	rpio "github.com/stianeikeland/go-rpio/v4"
)

// Bus is a full duplex byte link with an explicit chip select line.
type Bus interface {
	// Exchange sends p and overwrites it in place with the received bytes.
	Exchange(p []byte) error
	// Select asserts chip select (active low on the wire).
	Select() error
	// Deselect releases chip select.
	Deselect() error
}

// Clocked is implemented by buses that can change their clock rate.
// Cards must be initialized at no more than 400 kHz.
type Clocked interface {
	SetSpeed(hz int) error
}

const (
	InitSpeed = 400_000    // 400 kHz
	RunSpeed  = 10_000_000 // 10 MHz
)

// DefaultCSPin is the BCM GPIO line used as card chip select.
const DefaultCSPin = 25

var ErrClosed = fmt.Errorf("spi: bus closed")

// Spi drives an SD card on a Raspberry Pi SPI controller. The hardware
// chip select toggles around every transfer, which SD cards do not
// tolerate, so chip select is driven on a plain GPIO line instead.
type Spi struct {
	dev    rpio.SpiDev
	cs     rpio.Pin
	closed bool
}

// ensure interface conformation
var _ Bus = (*Spi)(nil)
var _ Clocked = (*Spi)(nil)

func Open() (*Spi, error) {
	return OpenDevice(rpio.Spi0, DefaultCSPin)
}

func OpenDevice(dev rpio.SpiDev, csPin uint8) (spi *Spi, err error) {
	err = rpio.Open()
	if err != nil {
		return
	}
	err = rpio.SpiBegin(dev)
	if err != nil {
		return
	}
	// hardware CS1 is left unconnected
	rpio.SpiChipSelect(1)
	rpio.SpiSpeed(InitSpeed)

	cs := rpio.Pin(csPin)
	cs.Output()
	cs.High()

	spi = &Spi{dev: dev, cs: cs}
	return
}

func (s *Spi) Exchange(p []byte) error {
	if s.closed {
		return ErrClosed
	}
	rpio.SpiExchange(p)
	return nil
}

func (s *Spi) Select() error {
	if s.closed {
		return ErrClosed
	}
	s.cs.Low()
	return nil
}

func (s *Spi) Deselect() error {
	if s.closed {
		return ErrClosed
	}
	s.cs.High()
	return nil
}

func (s *Spi) SetSpeed(hz int) error {
	if s.closed {
		return ErrClosed
	}
	rpio.SpiSpeed(hz)
	return nil
}

func (s *Spi) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.cs.High()
	rpio.SpiEnd(s.dev)
	return rpio.Close()
}
