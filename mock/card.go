// Package mock provides simulated hardware and storage for running the
// player without a board attached.
package mock

import (
	"encoding/binary"

	"github.com/rabidaudio/sdwav/spi"
)

// Kind selects which negotiation sequence a simulated card answers.
type Kind int

const (
	Dead     Kind = iota // never answers
	MMC                  // MMCv3, refuses CMD8 and APP_CMD
	SD1                  // SDv1, refuses CMD8
	SD2                  // SDv2, byte addressed
	SD2Block             // SDv2 high capacity, block addressed
)

func (k Kind) isSD() bool {
	return k == SD1 || k == SD2 || k == SD2Block
}

func (k Kind) isSD2() bool {
	return k == SD2 || k == SD2Block
}

// Command is one command frame received by a simulated card.
type Command struct {
	Index byte
	Arg   uint32
	App   bool
}

type cardState int

const (
	stateCommand cardState = iota
	stateWriteToken
	stateWriteData
)

const sectorSize = 512

// Card simulates an MMC/SD card in SPI mode, byte by byte. The zero value
// is a dead card.
type Card struct {
	Kind  Kind
	Image []byte // backing store, a whole number of sectors

	IdleLoops    int  // op-cond polls answered with idle before the card is ready
	TokenDelay   int  // 0xFF bytes sent before a data token
	BusyLoops    int  // busy bytes sent after a data block was accepted
	FailReads    bool // never send the data token
	RejectWrites bool // answer data blocks with a write error

	Selected  bool
	Deselects int
	Commands  []Command

	idle     bool
	loops    int
	app      bool
	frame    []byte
	out      []byte
	state    cardState
	wsector  int
	wbuf     []byte
	blockLen uint32
}

// ensure interface conformation
var _ spi.Bus = (*Card)(nil)

// NewCard returns a card of the given kind with a blank image.
func NewCard(kind Kind, sectors int) *Card {
	return NewCardImage(kind, make([]byte, sectors*sectorSize))
}

// NewCardImage returns a card of the given kind backed by img.
func NewCardImage(kind Kind, img []byte) *Card {
	return &Card{
		Kind:       kind,
		Image:      img,
		IdleLoops:  3,
		TokenDelay: 2,
		BusyLoops:  4,
	}
}

// Sector returns a copy of sector i of the image.
func (c *Card) Sector(i int) []byte {
	s := make([]byte, sectorSize)
	copy(s, c.Image[i*sectorSize:])
	return s
}

func (c *Card) Select() error {
	c.Selected = true
	return nil
}

func (c *Card) Deselect() error {
	c.Selected = false
	c.Deselects++
	c.frame = c.frame[:0]
	// output line goes high impedance, pending response bytes are lost
	c.out = c.out[:0]
	return nil
}

func (c *Card) Exchange(p []byte) error {
	for i, b := range p {
		resp := byte(0xFF)
		if c.Selected && len(c.out) > 0 {
			resp = c.out[0]
			c.out = c.out[1:]
		}
		if c.Selected {
			c.receive(b)
		}
		p[i] = resp
	}
	return nil
}

func (c *Card) receive(b byte) {
	switch c.state {
	case stateWriteToken:
		if b == 0xFE {
			c.state = stateWriteData
			c.wbuf = c.wbuf[:0]
		}
	case stateWriteData:
		c.wbuf = append(c.wbuf, b)
		if len(c.wbuf) == sectorSize+2 {
			c.commitWrite()
		}
	default:
		if len(c.frame) == 0 && b&0xC0 != 0x40 {
			return
		}
		c.frame = append(c.frame, b)
		if len(c.frame) == 6 {
			c.command(c.frame)
			c.frame = c.frame[:0]
		}
	}
}

func (c *Card) r1() byte {
	if c.idle {
		return 0x01
	}
	return 0x00
}

func (c *Card) respond(b ...byte) {
	c.out = append(c.out[:0], 0xFF) // one byte of command response delay
	c.out = append(c.out, b...)
}

func (c *Card) command(frame []byte) {
	idx := frame[0] & 0x3F
	arg := binary.BigEndian.Uint32(frame[1:5])
	crc := frame[5]
	app := c.app
	c.app = false
	c.Commands = append(c.Commands, Command{Index: idx, Arg: arg, App: app})

	if c.Kind == Dead {
		return
	}

	illegal := c.r1() | 0x04

	switch idx {
	case 0:
		if crc != 0x95 {
			c.respond(c.r1() | 0x08)
			return
		}
		c.idle = true
		c.loops = c.IdleLoops
		c.blockLen = 0
		c.respond(0x01)

	case 8:
		if !c.Kind.isSD2() {
			c.respond(illegal)
			return
		}
		if crc != 0x87 {
			c.respond(c.r1() | 0x08)
			return
		}
		c.respond(c.r1(), 0x00, 0x00, byte(arg>>8)&0x0F, byte(arg))

	case 55:
		if !c.Kind.isSD() {
			c.respond(illegal)
			return
		}
		c.app = true
		c.respond(c.r1())

	case 41:
		if !app || !c.Kind.isSD() {
			c.respond(illegal)
			return
		}
		c.leaveIdle()
		c.respond(c.r1())

	case 1:
		if c.Kind != MMC && c.Kind != SD1 {
			c.respond(illegal)
			return
		}
		c.leaveIdle()
		c.respond(c.r1())

	case 58:
		ocr0 := byte(0x80)
		if c.Kind == SD2Block && !c.idle {
			ocr0 |= 0x40
		}
		c.respond(c.r1(), ocr0, 0xFF, 0x80, 0x00)

	case 16:
		if arg != sectorSize {
			c.respond(c.r1() | 0x40)
			return
		}
		c.blockLen = arg
		c.respond(c.r1())

	case 17:
		if c.idle {
			c.respond(illegal)
			return
		}
		sector, ok := c.sector(arg)
		if !ok {
			c.respond(0x40)
			return
		}
		c.respond(0x00)
		for range c.TokenDelay {
			c.out = append(c.out, 0xFF)
		}
		if c.FailReads {
			return
		}
		c.out = append(c.out, 0xFE)
		c.out = append(c.out, c.Image[sector*sectorSize:(sector+1)*sectorSize]...)
		c.out = append(c.out, 0x00, 0x00)

	case 24:
		if c.idle {
			c.respond(illegal)
			return
		}
		sector, ok := c.sector(arg)
		if !ok {
			c.respond(0x40)
			return
		}
		c.respond(0x00)
		c.wsector = sector
		c.state = stateWriteToken

	default:
		c.respond(illegal)
	}
}

func (c *Card) leaveIdle() {
	if c.loops > 0 {
		c.loops--
		return
	}
	c.idle = false
}

// sector converts a command argument into a sector index.
func (c *Card) sector(arg uint32) (int, bool) {
	var s int
	if c.Kind == SD2Block {
		s = int(arg)
	} else {
		if arg%sectorSize != 0 {
			return 0, false
		}
		s = int(arg / sectorSize)
	}
	if s < 0 || (s+1)*sectorSize > len(c.Image) {
		return 0, false
	}
	return s, true
}

func (c *Card) commitWrite() {
	c.state = stateCommand
	if c.RejectWrites {
		c.out = append(c.out[:0], 0x0D)
		return
	}
	copy(c.Image[c.wsector*sectorSize:], c.wbuf[:sectorSize])
	c.out = append(c.out[:0], 0x05)
	for range c.BusyLoops {
		c.out = append(c.out, 0x00)
	}
}
