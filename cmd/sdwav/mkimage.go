package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/diskfs/go-diskfs/filesystem/fat32"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rabidaudio/sdwav/player"
	"github.com/rabidaudio/sdwav/vfs"
	"github.com/rabidaudio/sdwav/wav"
)

func mkimageCommand() *cobra.Command {
	var sizeMB int64
	var label string
	var channel uint8
	cmd := &cobra.Command{
		Use:   "mkimage [--channel n] <image> <file>...",
		Short: "build a FAT32 card image from WAV files",
		Long: `Create a card image with one FAT32 partition and copy the files into it.
With --channel the files become the tracks of that channel in the order
given, otherwise their names are only converted to 8.3 form.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			vol, err := vfs.CreateImage(args[0], sizeMB*fat32.MB, label)
			if err != nil {
				return err
			}
			for i, src := range args[1:] {
				name := filepath.Base(src)
				if channel != 0 {
					if i >= player.MaxTrack {
						vol.Close()
						return fmt.Errorf("a channel holds at most %d tracks", player.MaxTrack)
					}
					if name, err = player.TrackName(channel, uint8(i+1)); err != nil {
						vol.Close()
						return err
					}
				}
				stored, err := addFile(vol, name, src)
				if err != nil {
					vol.Close()
					return err
				}
				fmt.Printf("%s -> %s\n", src, stored)
			}
			if err := vol.Close(); err != nil {
				return err
			}
			return verifyImage(args[0], len(args)-1)
		},
	}
	cmd.Flags().Int64Var(&sizeMB, "size", vfs.DefaultImageSize/fat32.MB, "image size in MB")
	cmd.Flags().StringVar(&label, "label", "SDWAV", "volume label")
	cmd.Flags().Uint8Var(&channel, "channel", 0, "name the files as tracks of this channel")
	return cmd
}

func addFile(vol *vfs.Volume, name, src string) (string, error) {
	f, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := wav.ScanHeader(f); err != nil {
		log.WithField("file", src).Warnf("player will reject this file: %v", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return vol.AddFile(name, f)
}

// verifyImage reopens the image the way the player sees it.
func verifyImage(path string, want int) error {
	vol, err := vfs.OpenImage(path, 1)
	if err != nil {
		return err
	}
	defer vol.Close()
	names, err := vol.List("/")
	if err != nil {
		return err
	}
	if len(names) < want {
		return fmt.Errorf("%s: %d of %d files found after writing", path, len(names), want)
	}
	fmt.Printf("%s: volume %q, %d files\n", path, vol.Label(), len(names))
	return nil
}
