package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rabidaudio/sdwav/vfs"
)

func probeCommand() *cobra.Command {
	var offset, count int
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "initialize the card and show what is on it",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			dev, err := openDevice(cfg)
			if err != nil {
				return err
			}
			defer dev.close()

			card := dev.card
			if err := card.Initialize(); err != nil {
				return err
			}
			fmt.Printf("card type: %v\n", card.Type())

			buf := make([]byte, count)
			if err := card.ReadPartial(buf, 0, offset, count); err != nil {
				return err
			}
			fmt.Printf("sector 0, bytes %d..%d:\n%s", offset, offset+count, hex.Dump(buf))

			size, err := vfs.CardSize(card)
			if err != nil {
				return err
			}
			fmt.Printf("partitions end at %d bytes\n", size)

			vol, err := vfs.OpenCard(card, cfg.Partition, cfg.CardSize)
			if err != nil {
				return err
			}
			defer vol.Close()
			names, err := vol.List("/")
			if err != nil {
				return err
			}
			fmt.Printf("volume %q, %d files\n", vol.Label(), len(names))
			for _, n := range names {
				fmt.Println("  " + n)
			}
			return nil
		},
	}
	// the partition table by default
	cmd.Flags().IntVar(&offset, "offset", 0x1BE, "first byte of sector 0 to dump")
	cmd.Flags().IntVar(&count, "count", 66, "number of bytes to dump")
	return cmd
}
