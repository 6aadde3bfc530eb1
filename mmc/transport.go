package mmc

import (
	"encoding/binary"

	log "github.com/sirupsen/logrus"

	"github.com/rabidaudio/sdwav/spi"
)

// Transport frames commands for an MMC/SD card in SPI mode and collects
// their R1 responses. It knows nothing about sectors or files.
type Transport struct {
	bus     spi.Bus
	frame   [6]byte
	scratch [64]byte

	// Logger receives a debug line per command. Nil disables tracing.
	Logger log.FieldLogger
}

func NewTransport(bus spi.Bus) *Transport {
	return &Transport{bus: bus}
}

// Bus returns the underlying link.
func (t *Transport) Bus() spi.Bus {
	return t.bus
}

// SendCommand sends a command frame and polls for its response. The
// returned byte has bit 7 set when the card never answered.
func (t *Transport) SendCommand(cmd byte, arg uint32) (byte, error) {
	// flush the card's output line before every command
	if err := t.bus.Deselect(); err != nil {
		return R1Busy, err
	}
	if _, err := t.ReceiveByte(); err != nil {
		return R1Busy, err
	}
	if err := t.bus.Select(); err != nil {
		return R1Busy, err
	}
	if _, err := t.ReceiveByte(); err != nil {
		return R1Busy, err
	}

	t.frame[0] = 0x40 | (cmd & 0x3F)
	binary.BigEndian.PutUint32(t.frame[1:5], arg)
	// only CMD0 and CMD8 are checked before the card leaves native mode
	switch cmd {
	case CmdGoIdle:
		t.frame[5] = 0x95
	case CmdSendIfCond:
		t.frame[5] = 0x87
	default:
		t.frame[5] = 0x01
	}
	if err := t.bus.Exchange(t.frame[:]); err != nil {
		return R1Busy, err
	}

	var res byte
	var err error
	for n := responseRetries; n > 0; n-- {
		res, err = t.ReceiveByte()
		if err != nil {
			return R1Busy, err
		}
		if res&R1Busy == 0 {
			break
		}
	}
	if t.Logger != nil {
		t.Logger.Debugf("mmc: CMD%d(%#08x) -> %#02x", cmd, arg, res)
	}
	return res, nil
}

// SendAppCommand sends an application specific command, prefixed with
// APP_CMD. The prefix response is returned if the card refused it.
func (t *Transport) SendAppCommand(cmd byte, arg uint32) (byte, error) {
	res, err := t.SendCommand(CmdAppCmd, 0)
	if err != nil || res > R1Idle {
		return res, err
	}
	return t.SendCommand(cmd, arg)
}

// Release deselects the card and clocks one byte so it lets go of the
// data line.
func (t *Transport) Release() error {
	if err := t.bus.Deselect(); err != nil {
		return err
	}
	_, err := t.ReceiveByte()
	return err
}

// ReceiveByte clocks out 0xFF and returns the byte clocked in.
func (t *Transport) ReceiveByte() (byte, error) {
	t.scratch[0] = 0xFF
	err := t.bus.Exchange(t.scratch[:1])
	return t.scratch[0], err
}

// Receive fills p with bytes from the card.
func (t *Transport) Receive(p []byte) error {
	for i := range p {
		p[i] = 0xFF
	}
	return t.bus.Exchange(p)
}

// Skip clocks in and discards n bytes.
func (t *Transport) Skip(n int) error {
	for n > 0 {
		c := min(n, len(t.scratch))
		if err := t.Receive(t.scratch[:c]); err != nil {
			return err
		}
		n -= c
	}
	return nil
}

// Send clocks out p without modifying it.
func (t *Transport) Send(p []byte) error {
	for len(p) > 0 {
		c := copy(t.scratch[:], p)
		if err := t.bus.Exchange(t.scratch[:c]); err != nil {
			return err
		}
		p = p[c:]
	}
	return nil
}

// SendFill clocks out n copies of b.
func (t *Transport) SendFill(b byte, n int) error {
	for n > 0 {
		c := min(n, len(t.scratch))
		for i := range c {
			t.scratch[i] = b
		}
		if err := t.bus.Exchange(t.scratch[:c]); err != nil {
			return err
		}
		n -= c
	}
	return nil
}
