package main

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/rabidaudio/sdwav/config"
)

var (
	settings   = config.New()
	configFile string
	cfg        *config.Config
)

func main() {
	root := &cobra.Command{
		Use:           "sdwav",
		Short:         "SD card WAV player",
		Long:          "Play channels of WAV tracks from an SD card, on a Raspberry Pi or against a card image.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			c, err := config.Load(settings, configFile)
			if err != nil {
				return err
			}
			cfg = c
			log.SetLevel(c.LogLevel)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "YAML configuration file")
	pf.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	pf.String("log-file", "", "write the log to a file instead of stderr")
	pf.String("bus", config.BusSim, "card bus: sim, rpio or serial")
	pf.String("image", "card.img", "card image used by the sim bus")
	pf.Int("partition", 1, "card partition holding the FAT32 volume")
	pf.String("port", "/dev/ttyUSB0", "serial port of the SPI bridge")
	bind(settings, pf.Lookup("log-level"), "log_level")
	bind(settings, pf.Lookup("log-file"), "log_file")
	bind(settings, pf.Lookup("bus"), "bus")
	bind(settings, pf.Lookup("image"), "image")
	bind(settings, pf.Lookup("partition"), "partition")
	bind(settings, pf.Lookup("port"), "serial.port")

	root.AddCommand(playCommand(), probeCommand(), scanCommand(), mkimageCommand())

	if err := root.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func bind(v *viper.Viper, flag *pflag.Flag, key string) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}

// logTo redirects the log to the configured file, or discards it if
// the terminal is taken and no file is set. The returned func closes the
// file.
func logTo(terminalBusy bool) (func(), error) {
	if cfg.LogFile == "" {
		if terminalBusy {
			log.SetOutput(io.Discard)
		}
		return func() {}, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	log.SetOutput(f)
	return func() {
		log.SetOutput(os.Stderr)
		f.Close()
	}, nil
}
