package input

import (
	"sync"
	"time"

	"github.com/nsf/termbox-go"

	"github.com/rabidaudio/sdwav/clock"
)

// Keyboard emulates the button ladder on a terminal.
//
//	1..8       channel buttons
//	b, left    tap back
//	f, right   tap forward
//	B, F       hold back/forward until the next key
//	space      release a held button
//	q, ctrl-c  quit
//
// Terminals report key presses but no releases, so a tap keeps its code
// down for TapTime.
type Keyboard struct {
	TapTime time.Duration

	clk   clock.Clock
	mu    sync.Mutex
	code  uint8
	held  bool
	until time.Time
	quit  chan struct{}
	done  chan struct{}
	once  sync.Once
}

// ensure interface conformation
var _ Sampler = (*Keyboard)(nil)

// OpenKeyboard takes over the terminal until Close is called.
func OpenKeyboard(clk clock.Clock) (*Keyboard, error) {
	if err := termbox.Init(); err != nil {
		return nil, err
	}
	k := &Keyboard{
		TapTime: 50 * time.Millisecond,
		clk:     clk,
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go k.poll()
	return k, nil
}

func (k *Keyboard) poll() {
	defer close(k.done)
	for {
		ev := termbox.PollEvent()
		switch ev.Type {
		case termbox.EventKey:
			if !k.key(ev) {
				k.once.Do(func() { close(k.quit) })
			}
		case termbox.EventInterrupt, termbox.EventError:
			return
		}
	}
}

// key applies a key event, returning false when the user asked to quit.
func (k *Keyboard) key(ev termbox.Event) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	tap := func(code uint8) {
		k.code = code
		k.held = false
		k.until = k.clk.Now().Add(k.TapTime)
	}
	hold := func(code uint8) {
		k.code = code
		k.held = true
	}

	switch ev.Key {
	case termbox.KeyCtrlC, termbox.KeyEsc:
		return false
	case termbox.KeyArrowLeft:
		tap(Back)
		return true
	case termbox.KeyArrowRight:
		tap(Forward)
		return true
	case termbox.KeySpace:
		k.code = None
		k.held = false
		return true
	}

	switch ch := ev.Ch; {
	case ch >= '1' && ch <= '8':
		tap(uint8(ch - '0'))
	case ch == 'b':
		tap(Back)
	case ch == 'f':
		tap(Forward)
	case ch == 'B':
		hold(Back)
	case ch == 'F':
		hold(Forward)
	case ch == 'q':
		return false
	}
	return true
}

// Sample returns the ladder value of the emulated button state.
func (k *Keyboard) Sample() (uint8, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.held && k.code != None && !k.clk.Now().Before(k.until) {
		k.code = None
	}
	return Raw(k.code), nil
}

// Quit is closed when the user asks to quit.
func (k *Keyboard) Quit() <-chan struct{} {
	return k.quit
}

// Close restores the terminal.
func (k *Keyboard) Close() error {
	termbox.Interrupt()
	<-k.done
	termbox.Close()
	return nil
}
