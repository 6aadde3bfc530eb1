package mock

import (
	"sync"

	"github.com/rabidaudio/sdwav/input"
)

// Ladder is a button ladder whose pressed button is set by the test.
type Ladder struct {
	mu   sync.Mutex
	code uint8
	Err  error
}

// ensure interface conformation
var _ input.Sampler = (*Ladder)(nil)

// Set presses code, or releases all buttons for input.None.
func (l *Ladder) Set(code uint8) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.code = code
}

func (l *Ladder) Sample() (uint8, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return 0, l.Err
	}
	return input.Raw(l.code), nil
}
