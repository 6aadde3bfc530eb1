// Package mmc implements the SPI mode protocol of MMC and SD cards:
// card type negotiation and partial sector reads and writes.
//
// A Card must be initialized before any read or write. Addresses are
// always given as sector indices; the driver converts them to byte
// addresses for cards that are not block addressed.
package mmc

import (
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/rabidaudio/sdwav/spi"
)

// Card is a single MMC/SD card on a Bus. A Card is not safe for
// concurrent use.
type Card struct {
	tr  *Transport
	typ CardType

	// Sleep waits between busy polls at the end of a block write. Nil
	// means time.Sleep.
	Sleep func(time.Duration)

	wc      int // payload bytes left in the block being written
	writing bool
}

func New(bus spi.Bus) *Card {
	return &Card{tr: NewTransport(bus)}
}

// SetLogger enables command tracing.
func (c *Card) SetLogger(l log.FieldLogger) {
	c.tr.Logger = l
}

// Transport gives access to the command layer, e.g. for diagnostics.
func (c *Card) Transport() *Transport {
	return c.tr
}

// Type returns the negotiated card type, 0 if not initialized.
func (c *Card) Type() CardType {
	return c.typ
}

// Initialize resets the card and negotiates its type. It returns
// ErrNotReady if no supported card answered. The type is left at 0 on
// failure.
func (c *Card) Initialize() (err error) {
	c.typ = 0
	c.writing = false

	clocked, _ := c.tr.Bus().(spi.Clocked)
	if clocked != nil {
		if err := clocked.SetSpeed(spi.InitSpeed); err != nil {
			return err
		}
	}

	bus := c.tr.Bus()
	if err := bus.Deselect(); err != nil {
		return err
	}
	if err := c.tr.Skip(10); err != nil {
		return err
	}
	if err := bus.Select(); err != nil {
		return err
	}
	if err := c.tr.Skip(600); err != nil {
		return err
	}
	defer func() {
		if rerr := c.tr.Release(); err == nil {
			err = rerr
		}
	}()

	ty, err := c.negotiate()
	if err != nil {
		return err
	}
	if ty == 0 {
		return ErrNotReady
	}
	c.typ = ty

	if clocked != nil {
		return clocked.SetSpeed(spi.RunSpeed)
	}
	return nil
}

func (c *Card) negotiate() (CardType, error) {
	res, err := c.tr.SendCommand(CmdGoIdle, 0)
	if err != nil || res != R1Idle {
		return 0, err
	}

	res, err = c.tr.SendCommand(CmdSendIfCond, ifCondCheck)
	if err != nil {
		return 0, err
	}
	if res == R1Idle {
		return c.negotiateSD2()
	}
	return c.negotiateLegacy()
}

func (c *Card) negotiateSD2() (CardType, error) {
	var r7 [4]byte
	if err := c.tr.Receive(r7[:]); err != nil {
		return 0, err
	}
	if r7[2] != 0x01 || r7[3] != 0xAA {
		// card can't work at 2.7-3.6V
		return 0, nil
	}

	ready, err := c.waitOpCond(func() (byte, error) {
		return c.tr.SendAppCommand(AppCmdSendOpCond, hcsBit)
	})
	if err != nil || !ready {
		return 0, err
	}

	res, err := c.tr.SendCommand(CmdReadOCR, 0)
	if err != nil || res != 0 {
		return 0, err
	}
	var ocr [4]byte
	if err := c.tr.Receive(ocr[:]); err != nil {
		return 0, err
	}
	if ocr[0]&ccsBit != 0 {
		return TypeSD2 | TypeBlock, nil
	}
	return TypeSD2, nil
}

func (c *Card) negotiateLegacy() (CardType, error) {
	ty := TypeMMC
	opCond := func() (byte, error) {
		return c.tr.SendCommand(CmdSendOpCond, 0)
	}

	res, err := c.tr.SendAppCommand(AppCmdSendOpCond, 0)
	if err != nil {
		return 0, err
	}
	if res <= R1Idle {
		ty = TypeSD1
		opCond = func() (byte, error) {
			return c.tr.SendAppCommand(AppCmdSendOpCond, 0)
		}
	}

	ready, err := c.waitOpCond(opCond)
	if err != nil || !ready {
		return 0, err
	}

	// legacy MMC needs the block length fixed, SDv1 doesn't mind
	res, err = c.tr.SendCommand(CmdSetBlockLen, SectorSize)
	if err != nil || res != 0 {
		return 0, err
	}
	return ty, nil
}

// waitOpCond polls an operation condition command until the card leaves
// the idle state.
func (c *Card) waitOpCond(send func() (byte, error)) (bool, error) {
	for t := opCondRetries; t > 0; t-- {
		res, err := send()
		if err != nil {
			return false, err
		}
		if res == 0 {
			return true, nil
		}
	}
	return false, nil
}

func (c *Card) address(sector uint32) uint32 {
	if c.typ.IsBlock() {
		return sector
	}
	return sector * SectorSize
}

// ReadPartial copies count bytes starting at offset within sector into
// dst. The bus is released on every path.
func (c *Card) ReadPartial(dst []byte, sector uint32, offset, count int) (err error) {
	if c.typ == 0 {
		return ErrNotReady
	}
	if offset < 0 || count <= 0 || offset+count > SectorSize || len(dst) < count {
		return ErrParam
	}

	defer func() {
		if rerr := c.tr.Release(); err == nil {
			err = rerr
		}
	}()

	res, err := c.tr.SendCommand(CmdReadSingle, c.address(sector))
	if err != nil {
		return err
	}
	if res != 0 {
		return &CommandError{Cmd: CmdReadSingle, Response: res}
	}

	var rc byte
	for t := tokenRetries; t > 0; t-- {
		rc, err = c.tr.ReceiveByte()
		if err != nil {
			return err
		}
		if rc != 0xFF {
			break
		}
	}
	if rc == 0xFF {
		return ErrTimeout
	}
	if rc != tokenStartBlock {
		return &CommandError{Cmd: CmdReadSingle, Response: rc}
	}

	if err := c.tr.Skip(offset); err != nil {
		return err
	}
	if err := c.tr.Receive(dst[:count]); err != nil {
		return err
	}
	// rest of the block and the CRC
	return c.tr.Skip(SectorSize - offset - count + 2)
}

// ReadSector reads a whole sector.
func (c *Card) ReadSector(dst []byte, sector uint32) error {
	return c.ReadPartial(dst, sector, 0, SectorSize)
}

// IsNotReady reports whether err means the card has to be initialized
// again.
func IsNotReady(err error) bool {
	return errors.Is(err, ErrNotReady)
}
