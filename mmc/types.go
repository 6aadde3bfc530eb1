package mmc

import "strings"

// CardType is a set of flags describing the negotiated card. The zero
// value means no card has been initialized.
type CardType uint8

const (
	TypeMMC   CardType = 0x01 // MMC version 3
	TypeSD1   CardType = 0x02 // SD version 1
	TypeSD2   CardType = 0x04 // SD version 2
	TypeSDC            = TypeSD1 | TypeSD2
	TypeBlock CardType = 0x08 // block addressing
)

// IsBlock reports whether the card takes sector indices instead of byte
// addresses.
func (ct CardType) IsBlock() bool {
	return ct&TypeBlock != 0
}

func (ct CardType) String() string {
	if ct == 0 {
		return "none"
	}
	var parts []string
	switch {
	case ct&TypeSD2 != 0:
		parts = append(parts, "SDv2")
	case ct&TypeSD1 != 0:
		parts = append(parts, "SDv1")
	case ct&TypeMMC != 0:
		parts = append(parts, "MMCv3")
	}
	if ct.IsBlock() {
		parts = append(parts, "block")
	}
	return strings.Join(parts, "|")
}
