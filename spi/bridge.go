package spi

import (
	"fmt"
	"io"

	"github.com/jacobsa/go-serial/serial"
)

// Bridge protocol, one request per transaction:
//
//	host   [opSelect | opDeselect]               adapter [ACK]
//	host   [opExchange, n, b0 .. bn-1]           adapter [ACK, r0 .. rn-1]
//
// n is at most 255, longer exchanges are split.
const (
	NAK = iota // 0x00
	ACK        // 0x01
)

const (
	opSelect   = 'S'
	opDeselect = 'D'
	opExchange = 'X'
)

const maxFrame = 255

var ErrNoResponse = fmt.Errorf("spi: no response from bridge")

// Bridge is a Bus tunnelled over a serial line to a microcontroller that
// owns the actual SPI pins.
type Bridge struct {
	port io.ReadWriteCloser
	hdr  [2]byte
}

// ensure interface conformation
var _ Bus = (*Bridge)(nil)

// OpenBridge opens the serial port of a bridge adapter.
func OpenBridge(port string, baud uint) (*Bridge, error) {
	p, err := serial.Open(serial.OpenOptions{
		PortName:        port,
		BaudRate:        baud,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("spi: open %s: %w", port, err)
	}
	return NewBridge(p), nil
}

// NewBridge wraps an already open link.
func NewBridge(port io.ReadWriteCloser) *Bridge {
	return &Bridge{port: port}
}

func (b *Bridge) Select() error {
	return b.control(opSelect)
}

func (b *Bridge) Deselect() error {
	return b.control(opDeselect)
}

func (b *Bridge) Exchange(p []byte) error {
	for len(p) > 0 {
		n := len(p)
		if n > maxFrame {
			n = maxFrame
		}
		b.hdr[0] = opExchange
		b.hdr[1] = byte(n)
		if _, err := b.port.Write(b.hdr[:]); err != nil {
			return err
		}
		if _, err := b.port.Write(p[:n]); err != nil {
			return err
		}
		if err := b.ack(); err != nil {
			return err
		}
		if _, err := io.ReadFull(b.port, p[:n]); err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}

func (b *Bridge) control(op byte) error {
	b.hdr[0] = op
	if _, err := b.port.Write(b.hdr[:1]); err != nil {
		return err
	}
	return b.ack()
}

func (b *Bridge) ack() error {
	if _, err := io.ReadFull(b.port, b.hdr[:1]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return ErrNoResponse
		}
		return err
	}
	switch b.hdr[0] {
	case ACK:
		return nil
	case NAK:
		return fmt.Errorf("spi: bridge rejected request")
	default:
		return fmt.Errorf("spi: invalid response from bridge: %#02x", b.hdr[0])
	}
}

func (b *Bridge) Close() error {
	return b.port.Close()
}
