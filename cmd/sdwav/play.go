package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nsf/termbox-go"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rabidaudio/sdwav/board"
	"github.com/rabidaudio/sdwav/clock"
	"github.com/rabidaudio/sdwav/config"
	"github.com/rabidaudio/sdwav/fifo"
	"github.com/rabidaudio/sdwav/input"
	"github.com/rabidaudio/sdwav/output"
	"github.com/rabidaudio/sdwav/player"
	"github.com/rabidaudio/sdwav/vfs"
)

func playCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "run the player",
		Long: `Run the player until interrupted. With the keyboard input the terminal
emulates the button ladder: 1-8 select a channel, b/f tap back and
forward, B/F hold them until space, q quits.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return play(cfg)
		},
	}
	cmd.Flags().String("input", config.InputKeyboard, "buttons: keyboard or ladder")
	bind(settings, cmd.Flags().Lookup("input"), "input")
	return cmd
}

func play(c *config.Config) error {
	if c.Input == config.InputLadder && c.Bus != config.BusRPIO {
		return fmt.Errorf("the ladder input needs the rpio bus")
	}

	restoreLog, err := logTo(c.Input == config.InputKeyboard)
	if err != nil {
		return err
	}
	defer restoreLog()

	dev, err := openDevice(c)
	if err != nil {
		return err
	}
	defer func() {
		if err := dev.close(); err != nil {
			log.Errorf("closing card: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clk := clock.System{}
	spk, err := output.NewSpeaker(fifo.New(c.FIFOSize), clk, output.DefaultRate)
	if err != nil {
		return err
	}
	defer spk.Close()
	spk.DrainTimeout = c.DrainTimeout

	var sampler input.Sampler
	var led player.LED
	var scr *screen
	switch c.Input {
	case config.InputKeyboard:
		kb, err := input.OpenKeyboard(clk)
		if err != nil {
			return err
		}
		defer kb.Close()
		go func() {
			select {
			case <-kb.Quit():
				stop()
			case <-ctx.Done():
			}
		}()
		sampler = kb
		scr = &screen{}
		led = scr
	default:
		sampler = board.NewLadder(c.LadderChannel)
		led = board.NewLED(c.LEDPin)
	}

	buttons := input.NewButtons(sampler, clk)
	buttons.Delay = c.Debounce

	p := player.New(c.Player, spk, buttons, clk)
	p.SetLED(led)
	if scr != nil {
		scr.p = p
		p.OnMode = func(player.Mode) { scr.draw() }
		scr.draw()
	}

	err = p.Run(ctx, func() (vfs.FS, error) {
		return dev.mount(c)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// screen shows the player state and the status LED on the terminal.
type screen struct {
	p   *player.Player
	led bool
}

func (s *screen) Set(on bool) {
	s.led = on
	s.draw()
}

func (s *screen) draw() {
	termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)
	status := "idle"
	if s.p != nil {
		status = s.p.Mode().String()
		if sess := s.p.Session(); sess.Channel != 0 {
			name, _ := player.TrackName(sess.Channel, sess.Track)
			status = fmt.Sprintf("%-12s %s  %d Hz", status, name, sess.Geometry.SampleRate)
		}
		if f := s.p.LastFault(); f != nil && s.p.Mode() != player.Play {
			status += fmt.Sprintf("  (last fault %d: %v)", f.Code, f.Kind)
		}
	}
	lamp := '.'
	if s.led {
		lamp = '*'
	}
	termbox.SetCell(0, 0, lamp, termbox.ColorRed, termbox.ColorDefault)
	text(2, 0, "sdwav  "+status)
	text(0, 2, "1-8 channel  b/f back/forward  B/F hold  space release  q quit")
	termbox.Flush()
}

func text(x, y int, s string) {
	for _, r := range s {
		termbox.SetCell(x, y, r, termbox.ColorDefault, termbox.ColorDefault)
		x++
	}
}
