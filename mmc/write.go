//go:build !mmc_readonly

package mmc

import "time"

// WritePartial drives a block write in three phases, selected by the
// arguments:
//
//	WritePartial(nil, sector) starts writing a block (sector must not be 0)
//	WritePartial(src, n)      sends up to n payload bytes from src
//	WritePartial(nil, 0)      pads the block with zeros and finalizes it
//
// A failed block is never retried; the caller has to start it again.
func (c *Card) WritePartial(src []byte, sc uint32) error {
	if src != nil {
		n := min(len(src), int(sc))
		_, err := c.WriteData(src[:n])
		return err
	}
	if sc != 0 {
		return c.BeginWrite(sc)
	}
	return c.FinishWrite()
}

// BeginWrite starts a single block write to sector.
func (c *Card) BeginWrite(sector uint32) error {
	if c.typ == 0 {
		return ErrNotReady
	}
	c.writing = false

	res, err := c.tr.SendCommand(CmdWriteSingle, c.address(sector))
	if err != nil {
		c.tr.Release()
		return err
	}
	if res != 0 {
		c.tr.Release()
		return &CommandError{Cmd: CmdWriteSingle, Response: res}
	}
	// one stuff byte, then the data token
	if err := c.tr.Send([]byte{0xFF, tokenStartBlock}); err != nil {
		c.tr.Release()
		return err
	}
	c.wc = SectorSize
	c.writing = true
	return nil
}

// WriteData streams payload bytes into the block being written. Bytes
// beyond the end of the block are dropped.
func (c *Card) WriteData(p []byte) (int, error) {
	if !c.writing {
		return 0, ErrNoWrite
	}
	n := min(len(p), c.wc)
	if err := c.tr.Send(p[:n]); err != nil {
		c.writing = false
		c.tr.Release()
		return 0, err
	}
	c.wc -= n
	return n, nil
}

// FinishWrite zero fills the rest of the block plus the CRC and waits up to
// 500ms for the card to program it.
func (c *Card) FinishWrite() (err error) {
	if !c.writing {
		return ErrNoWrite
	}
	c.writing = false
	defer func() {
		if rerr := c.tr.Release(); err == nil {
			err = rerr
		}
	}()

	if err := c.tr.SendFill(0, c.wc+2); err != nil {
		return err
	}
	c.wc = 0

	resp, err := c.tr.ReceiveByte()
	if err != nil {
		return err
	}
	if resp&0x1F != dataAccepted {
		return ErrWriteRejected
	}

	sleep := c.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	for bc := busyRetries; bc > 0; bc-- {
		b, err := c.tr.ReceiveByte()
		if err != nil {
			return err
		}
		if b == 0xFF {
			return nil
		}
		sleep(100 * time.Microsecond)
	}
	return ErrTimeout
}

// WriteSector writes a whole sector.
func (c *Card) WriteSector(src []byte, sector uint32) error {
	if len(src) < SectorSize {
		return ErrParam
	}
	if err := c.BeginWrite(sector); err != nil {
		return err
	}
	if _, err := c.WriteData(src[:SectorSize]); err != nil {
		return err
	}
	return c.FinishWrite()
}
