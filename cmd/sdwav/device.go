package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	rpio "github.com/stianeikeland/go-rpio/v4"

	"github.com/rabidaudio/sdwav/config"
	"github.com/rabidaudio/sdwav/mmc"
	"github.com/rabidaudio/sdwav/mock"
	"github.com/rabidaudio/sdwav/spi"
	"github.com/rabidaudio/sdwav/vfs"
)

// device is the card on the configured bus.
type device struct {
	card  *mmc.Card
	close func() error
}

func openDevice(c *config.Config) (*device, error) {
	d, err := openBus(c)
	if err != nil {
		return nil, err
	}
	// per command lines are logged at debug
	if c.LogLevel >= log.DebugLevel {
		d.card.SetLogger(log.WithField("bus", c.Bus))
	}
	return d, nil
}

func openBus(c *config.Config) (*device, error) {
	switch c.Bus {
	case config.BusSim:
		img, err := os.ReadFile(c.Image)
		if err != nil {
			return nil, err
		}
		sim := mock.NewCardImage(mock.SD2Block, img)
		log.WithFields(log.Fields{"image": c.Image, "bytes": len(img)}).Info("simulated card")
		return &device{
			card: mmc.New(sim),
			// keep what the player wrote, e.g. the resume record
			close: func() error { return os.WriteFile(c.Image, sim.Image, 0o644) },
		}, nil

	case config.BusRPIO:
		bus, err := spi.OpenDevice(rpio.Spi0, c.CSPin)
		if err != nil {
			return nil, err
		}
		return &device{card: mmc.New(bus), close: bus.Close}, nil

	case config.BusSerial:
		bus, err := spi.OpenBridge(c.SerialPort, c.SerialBaud)
		if err != nil {
			return nil, err
		}
		return &device{card: mmc.New(bus), close: bus.Close}, nil
	}
	return nil, fmt.Errorf("unknown bus %q", c.Bus)
}

// mount initializes the card and opens its volume.
func (d *device) mount(c *config.Config) (*vfs.Volume, error) {
	if err := d.card.Initialize(); err != nil {
		return nil, err
	}
	log.WithField("type", d.card.Type()).Info("card ready")
	return vfs.OpenCard(d.card, c.Partition, c.CardSize)
}
