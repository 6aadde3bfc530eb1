// Package config loads the player settings. Values come from, in rising
// priority: built in defaults, an optional YAML file, SDWAV_ environment
// variables and bound command line flags.
package config

import (
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/rabidaudio/sdwav/fifo"
	"github.com/rabidaudio/sdwav/input"
	"github.com/rabidaudio/sdwav/player"
	"github.com/rabidaudio/sdwav/spi"
)

const EnvPrefix = "SDWAV"

const (
	BusSim    = "sim"    // card image file behind a simulated card
	BusRPIO   = "rpio"   // Raspberry Pi SPI0
	BusSerial = "serial" // USB serial SPI bridge

	InputKeyboard = "keyboard"
	InputLadder   = "ladder"
)

type Config struct {
	LogLevel log.Level
	LogFile  string // empty means stderr

	Bus        string
	Image      string
	Partition  int
	CardSize   int64
	SerialPort string
	SerialBaud uint
	CSPin      uint8

	Input         string
	LadderChannel uint8
	LEDPin        uint8
	Debounce      time.Duration

	FIFOSize     int
	DrainTimeout time.Duration

	Player player.Config
}

// New returns a viper instance with all defaults set and the
// environment bound.
func New() *viper.Viper {
	v := viper.New()
	d := player.DefaultConfig()

	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("bus", BusSim)
	v.SetDefault("image", "card.img")
	v.SetDefault("partition", 1)
	v.SetDefault("card_size", 0)
	v.SetDefault("serial.port", "/dev/ttyUSB0")
	v.SetDefault("serial.baud", 1000000)
	v.SetDefault("rpio.cs_pin", spi.DefaultCSPin)
	v.SetDefault("input", InputKeyboard)
	v.SetDefault("adc_channel", 0)
	v.SetDefault("led_pin", 24)
	v.SetDefault("fifo_size", fifo.DefaultSize)

	v.SetDefault("player.debounce", input.DebounceInterval)
	v.SetDefault("player.hold", d.Hold)
	v.SetDefault("player.double_click", d.DoubleClick)
	v.SetDefault("player.idle_poll", d.IdlePoll)
	v.SetDefault("player.mount_retry", d.MountRetry)
	v.SetDefault("player.drain_timeout", time.Second)
	v.SetDefault("resume_file", d.ResumeFile)
	v.SetDefault("player.flash.off", d.Flash.Off)
	v.SetDefault("player.flash.on", d.Flash.On)
	v.SetDefault("player.flash.pause", d.Flash.Pause)
	v.SetDefault("player.jump.base", d.Jump.Base)
	v.SetDefault("player.jump.multiplier", d.Jump.Multiplier)
	v.SetDefault("player.jump.threshold", d.Jump.Threshold)
	v.SetDefault("player.jump.cluster_ticks", d.Jump.ClusterTicks)
	v.SetDefault("player.jump.fast_cluster_ticks", d.Jump.FastClusterTicks)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads file, if given, into v and returns the resulting settings.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", file, err)
		}
		log.WithField("file", v.ConfigFileUsed()).Debug("config loaded")
	}

	level, err := log.ParseLevel(v.GetString("log_level"))
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	c := &Config{
		LogLevel:      level,
		LogFile:       v.GetString("log_file"),
		Bus:           strings.ToLower(v.GetString("bus")),
		Image:         v.GetString("image"),
		Partition:     v.GetInt("partition"),
		CardSize:      v.GetInt64("card_size"),
		SerialPort:    v.GetString("serial.port"),
		SerialBaud:    v.GetUint("serial.baud"),
		CSPin:         uint8(v.GetUint("rpio.cs_pin")),
		Input:         strings.ToLower(v.GetString("input")),
		LadderChannel: uint8(v.GetUint("adc_channel")),
		LEDPin:        uint8(v.GetUint("led_pin")),
		Debounce:      v.GetDuration("player.debounce"),
		FIFOSize:      v.GetInt("fifo_size"),
		DrainTimeout:  v.GetDuration("player.drain_timeout"),
		Player: player.Config{
			Hold:        v.GetDuration("player.hold"),
			DoubleClick: v.GetDuration("player.double_click"),
			IdlePoll:    v.GetDuration("player.idle_poll"),
			MountRetry:  v.GetDuration("player.mount_retry"),
			ResumeFile:  v.GetString("resume_file"),
			Flash: player.FlashConfig{
				Off:   v.GetDuration("player.flash.off"),
				On:    v.GetDuration("player.flash.on"),
				Pause: v.GetDuration("player.flash.pause"),
			},
			Jump: player.JumpConfig{
				Base:             v.GetDuration("player.jump.base"),
				Multiplier:       v.GetInt("player.jump.multiplier"),
				Threshold:        v.GetInt("player.jump.threshold"),
				ClusterTicks:     v.GetInt("player.jump.cluster_ticks"),
				FastClusterTicks: v.GetInt("player.jump.fast_cluster_ticks"),
			},
		},
	}
	return c, c.validate()
}

func (c *Config) validate() error {
	switch c.Bus {
	case BusSim, BusRPIO, BusSerial:
	default:
		return fmt.Errorf("config: unknown bus %q", c.Bus)
	}
	switch c.Input {
	case InputKeyboard, InputLadder:
	default:
		return fmt.Errorf("config: unknown input %q", c.Input)
	}
	if c.FIFOSize < 2 {
		return fmt.Errorf("config: fifo size %d too small", c.FIFOSize)
	}
	if c.Player.Hold <= 0 || c.Player.DoubleClick <= 0 {
		return fmt.Errorf("config: button timings must be positive")
	}
	return nil
}
