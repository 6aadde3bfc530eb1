//go:build mmc_readonly

package mmc

func (c *Card) WritePartial(src []byte, sc uint32) error {
	return ErrWriteDisabled
}

func (c *Card) BeginWrite(sector uint32) error {
	return ErrWriteDisabled
}

func (c *Card) WriteData(p []byte) (int, error) {
	return 0, ErrWriteDisabled
}

func (c *Card) FinishWrite() error {
	return ErrWriteDisabled
}

func (c *Card) WriteSector(src []byte, sector uint32) error {
	return ErrWriteDisabled
}
