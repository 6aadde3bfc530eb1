package input

import (
	"fmt"
	"time"
)

type EventKind int

const (
	NoEvent   EventKind = iota
	Press               // button went down
	Tap                 // released before the hold threshold
	DoubleTap           // second tap of the same button within the double click window
	Hold                // kept down for the hold threshold
	Release             // released after a hold
)

func (k EventKind) String() string {
	switch k {
	case NoEvent:
		return "none"
	case Press:
		return "press"
	case Tap:
		return "tap"
	case DoubleTap:
		return "double-tap"
	case Hold:
		return "hold"
	case Release:
		return "release"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

type Event struct {
	Kind EventKind
	Code uint8
}

func (e Event) String() string {
	return fmt.Sprintf("%v(%d)", e.Kind, e.Code)
}

const (
	DefaultHold        = 200 * time.Millisecond
	DefaultDoubleClick = 400 * time.Millisecond
)

type detectState int

const (
	stateUp detectState = iota
	stateDown
	stateHeld
)

// Detector classifies a stream of debounced codes into events. It has
// no timers of its own: each Update compares the time it is given with
// the deadlines of the current press.
//
// A press that turns into a hold never counts as a tap, so a tap followed
// by a hold reports only the Hold.
type Detector struct {
	Hold        time.Duration
	DoubleClick time.Duration

	state  detectState
	code   uint8
	since  time.Time
	double bool // this press follows a tap of the same button

	tapCode uint8
	tapAt   time.Time
}

func NewDetector(hold, doubleClick time.Duration) *Detector {
	return &Detector{Hold: hold, DoubleClick: doubleClick}
}

// Update feeds the code sampled at now and returns the resulting event,
// if any.
func (d *Detector) Update(now time.Time, code uint8) Event {
	switch d.state {
	case stateUp:
		if code == None {
			return Event{}
		}
		d.state = stateDown
		d.code = code
		d.since = now
		d.double = d.tapCode == code && now.Sub(d.tapAt) <= d.DoubleClick
		return Event{Kind: Press, Code: code}

	case stateDown:
		if code == d.code {
			if now.Sub(d.since) >= d.Hold {
				d.state = stateHeld
				d.tapCode = None
				return Event{Kind: Hold, Code: code}
			}
			return Event{}
		}
		// released, or slid to another code: either way this press is over
		ev := Event{Kind: Tap, Code: d.code}
		if d.double {
			ev.Kind = DoubleTap
			d.tapCode = None
		} else {
			d.tapCode = d.code
			d.tapAt = now
		}
		d.state = stateUp
		return ev

	default:
		if code == d.code {
			return Event{}
		}
		d.state = stateUp
		return Event{Kind: Release, Code: d.code}
	}
}

// Pressed returns the code of the button currently down, None if there
// is none.
func (d *Detector) Pressed() uint8 {
	if d.state == stateUp {
		return None
	}
	return d.code
}

// Reset forgets the current press and any pending double click.
func (d *Detector) Reset() {
	*d = Detector{Hold: d.Hold, DoubleClick: d.DoubleClick}
}
