package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rabidaudio/sdwav/player"
	"github.com/rabidaudio/sdwav/wav"
)

func scanCommand() *cobra.Command {
	var onCard bool
	cmd := &cobra.Command{
		Use:   "scan [--card] <file>...",
		Short: "show the stream geometry of WAV files",
		Long:  "Parse the headers of WAV files on the host, or with --card on the card's volume, the way the player does.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			open := func(name string) (io.ReadSeekCloser, error) { return os.Open(name) }
			if onCard {
				dev, err := openDevice(cfg)
				if err != nil {
					return err
				}
				defer dev.close()
				vol, err := dev.mount(cfg)
				if err != nil {
					return err
				}
				defer vol.Close()
				open = func(name string) (io.ReadSeekCloser, error) { return vol.Open(name) }
			}

			failed := 0
			for _, name := range args {
				if err := scan(name, open); err != nil {
					fmt.Printf("%s: %v (code %d)\n", name, err, player.Classify(err).Code)
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files not playable", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&onCard, "card", false, "read the files from the card")
	return cmd
}

func scan(name string, open func(string) (io.ReadSeekCloser, error)) error {
	f, err := open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	g, err := wav.ScanHeader(f)
	if err != nil {
		return err
	}
	frames := g.SampleCount / int64(g.Align())
	length := time.Duration(frames) * time.Second / time.Duration(g.SampleRate)
	fmt.Printf("%s: %d ch, %d bit, %d Hz, %d bytes at %d, %v, timer divisor %d\n",
		name, g.Channels, g.BitsPerSample, g.SampleRate, g.SampleCount, g.DataOffset,
		length.Round(time.Millisecond), g.TimerDivisor())
	if !g.StartAligned() {
		fmt.Printf("%s: warning: payload does not start on a frame boundary\n", name)
	}
	return nil
}
