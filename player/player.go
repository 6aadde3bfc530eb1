// Package player is the playback control engine: it turns button events
// into track loads, seeks and mode changes and keeps the audio output
// fed from the open track.
package player

import (
	"context"
	"errors"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"github.com/rabidaudio/sdwav/clock"
	"github.com/rabidaudio/sdwav/input"
	"github.com/rabidaudio/sdwav/resume"
	"github.com/rabidaudio/sdwav/vfs"
	"github.com/rabidaudio/sdwav/wav"
)

// Mode is the playback state.
type Mode int

const (
	Idle Mode = iota
	Play
	FastForward
	Rewind
	Error
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Play:
		return "play"
	case FastForward:
		return "fast forward"
	case Rewind:
		return "rewind"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Output is the audio sink fed by the refiller.
type Output interface {
	io.Writer
	// Start prepares the output for a track with geometry g.
	Start(g wav.Geometry) error
	// Drain waits, bounded, until everything written has been played.
	Drain() error
	// Silence holds the output at the centre level.
	Silence()
}

// Buttons returns the debounced button code, input.None if no button is
// down.
type Buttons interface {
	Read() (uint8, error)
}

// LED is the status light fault codes are flashed on.
type LED interface {
	Set(on bool)
}

// MountFunc brings up the storage and returns the card's file system.
type MountFunc func() (vfs.FS, error)

// Session is the track currently loaded.
type Session struct {
	Channel  uint8
	Track    uint8
	Geometry wav.Geometry

	stream vfs.File
}

type loadCause int

const (
	loadSelect  loadCause = iota // a channel button
	loadAdvance                  // skip, end of track, fast forward
	loadBoot                     // resume record
)

var errNotAttached = errors.New("player: no file system attached")

type Player struct {
	// OnMode, if set, is called on every mode change.
	OnMode func(Mode)

	cfg     Config
	out     Output
	buttons Buttons
	clk     clock.Clock
	led     LED

	det    *input.Detector
	refill Refiller
	jump   *JumpAccelerator

	fs     vfs.FS
	resume *resume.Store

	mode Mode
	sess Session
	last *Fault

	paced   pacedWriter
	pending []input.Event // detected during a refill, not yet acted on
	pollErr error
}

// New returns an idle player. Attach a file system before calling Boot
// or Step.
func New(cfg Config, out Output, buttons Buttons, clk clock.Clock) *Player {
	p := &Player{
		cfg:     cfg,
		out:     out,
		buttons: buttons,
		clk:     clk,
		det:     input.NewDetector(cfg.Hold, cfg.DoubleClick),
		jump:    NewJumpAccelerator(cfg.Jump),
	}
	p.paced = pacedWriter{p: p, piece: 1}
	return p
}

// SetLED sets the status LED used for fault codes.
func (p *Player) SetLED(led LED) {
	p.led = led
}

// Mode returns the current playback state.
func (p *Player) Mode() Mode {
	return p.mode
}

func (p *Player) Session() Session {
	return p.sess
}

// LastFault returns the most recent fault, nil if there was none.
func (p *Player) LastFault() *Fault {
	return p.last
}

// Position returns the read offset in the current track.
func (p *Player) Position() (int64, error) {
	if p.sess.stream == nil {
		return 0, nil
	}
	return p.sess.stream.Seek(0, io.SeekCurrent)
}

// Attach makes fs the file system tracks are loaded from. Whatever was
// playing from the previous one is dropped.
func (p *Player) Attach(fs vfs.FS) {
	p.closeStream()
	p.sess = Session{}
	p.fs = fs
	p.resume = resume.New(fs, p.cfg.ResumeFile)
	p.det.Reset()
	p.pending = nil
	p.pollErr = nil
	p.jump.Reset()
	p.setMode(Idle)
}

// Boot loads the track named by the resume record. A missing or invalid
// record leaves the player idle.
func (p *Player) Boot() error {
	if p.fs == nil {
		return errNotAttached
	}
	channel, track, err := p.resume.Load()
	if err != nil {
		f := Classify(err)
		log.WithField("code", f.Code).Warnf("cannot read resume record: %v", err)
		if f.Kind == FaultCard {
			return f
		}
		return nil
	}
	if channel == 0 || track == 0 {
		log.Debug("no resume position")
		return nil
	}
	log.WithFields(log.Fields{"channel": channel, "track": track}).Info("resuming")
	return p.load(channel, track, loadBoot)
}

// Step runs one scheduling tick: poll the buttons, act on the resulting
// events and refill the output. The buttons keep being polled while the
// refill waits for the output, and what they report is acted on once the
// refill is done. It returns a *Fault when the card has to be mounted
// again.
func (p *Player) Step() error {
	if p.fs == nil {
		return errNotAttached
	}
	if err := p.poll(); err != nil {
		return err
	}
	if err := p.dispatch(); err != nil {
		return err
	}

	switch p.mode {
	case Play, FastForward, Rewind:
		if err := p.tick(); err != nil {
			return err
		}
		if err := p.pollErr; err != nil {
			p.pollErr = nil
			return err
		}
		return p.dispatch()
	default:
		p.clk.Sleep(p.cfg.IdlePoll)
		return nil
	}
}

// poll samples the buttons once and queues the resulting event.
func (p *Player) poll() error {
	code, err := p.buttons.Read()
	if err != nil {
		return fmt.Errorf("player: reading buttons: %w", err)
	}
	if ev := p.det.Update(p.clk.Now(), code); ev.Kind != input.NoEvent {
		log.WithFields(log.Fields{"event": ev.Kind, "code": ev.Code, "mode": p.mode}).Debug("button")
		p.pending = append(p.pending, ev)
	}
	return nil
}

// dispatch acts on the queued events in order.
func (p *Player) dispatch() error {
	for len(p.pending) > 0 {
		ev := p.pending[0]
		p.pending = p.pending[1:]
		if err := p.handle(ev); err != nil {
			return err
		}
	}
	return nil
}

// Run mounts the storage and plays until ctx is cancelled. A failed
// mount is shown on the LED and retried; so is a card fault while
// playing.
func (p *Player) Run(ctx context.Context, mount MountFunc) error {
	for ctx.Err() == nil {
		fs, err := mount()
		if err != nil {
			f := Classify(err)
			p.last = f
			log.WithField("code", f.Code).Errorf("mount failed: %v", err)
			p.flash(f.Code)
			p.clk.Sleep(p.cfg.MountRetry)
			continue
		}
		log.Info("storage mounted")

		err = p.session(ctx, fs)
		p.closeStream()
		if c, ok := fs.(io.Closer); ok {
			if cerr := c.Close(); cerr != nil {
				log.Warnf("closing file system: %v", cerr)
			}
		}
		var f *Fault
		if errors.As(err, &f) {
			log.WithField("code", f.Code).Errorf("remounting after fault: %v", f.Err)
			continue
		}
		if err != nil {
			return err
		}
	}
	return ctx.Err()
}

func (p *Player) session(ctx context.Context, fs vfs.FS) error {
	p.Attach(fs)
	if err := p.Boot(); err != nil {
		return err
	}
	for ctx.Err() == nil {
		if err := p.Step(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Player) handle(ev input.Event) error {
	switch p.mode {
	case Idle:
		if ev.Kind == input.Press && input.IsChannel(ev.Code) {
			return p.load(ev.Code, 1, loadSelect)
		}
	case Play:
		return p.handlePlay(ev)
	case FastForward, Rewind:
		if ev.Kind == input.Release {
			p.jump.Reset()
			p.setMode(Play)
		}
	}
	return nil
}

func (p *Player) handlePlay(ev input.Event) error {
	switch ev.Code {
	case input.Back:
		switch ev.Kind {
		case input.Hold:
			p.jump.Reset()
			p.setMode(Rewind)
		case input.Tap:
			return p.restart()
		case input.DoubleTap:
			return p.previous()
		}
	case input.Forward:
		switch ev.Kind {
		case input.Hold:
			p.jump.Reset()
			p.setMode(FastForward)
		case input.Tap, input.DoubleTap:
			// forward has no double click meaning, every tap skips
			return p.next()
		}
	default:
		if ev.Kind != input.Press || !input.IsChannel(ev.Code) {
			return nil
		}
		if ev.Code == p.sess.Channel {
			return p.next()
		}
		return p.load(ev.Code, 1, loadSelect)
	}
	return nil
}

func (p *Player) next() error {
	return p.load(p.sess.Channel, p.sess.Track+1, loadAdvance)
}

// previous goes back one track; on the first track it restarts.
func (p *Player) previous() error {
	if p.sess.Track <= 1 {
		return p.restart()
	}
	return p.load(p.sess.Channel, p.sess.Track-1, loadAdvance)
}

func (p *Player) restart() error {
	log.WithFields(log.Fields{"channel": p.sess.Channel, "track": p.sess.Track}).Debug("restart")
	return p.seek(p.sess.Geometry.DataOffset)
}

func (p *Player) seek(offset int64) error {
	if _, err := p.sess.stream.Seek(offset, io.SeekStart); err != nil {
		return p.trackFault(err)
	}
	return nil
}

// tick refills the output and, in fast forward or rewind, jumps when the
// accelerator says so.
func (p *Player) tick() error {
	_, err := p.refill.Refill(p.sess.stream, p.sess.Geometry, &p.paced)
	if errors.Is(err, ErrEndOfStream) {
		log.WithFields(log.Fields{"channel": p.sess.Channel, "track": p.sess.Track}).Debug("end of track")
		return p.next()
	}
	if err != nil {
		return p.trackFault(err)
	}
	if p.mode != Play && p.jump.Tick() {
		return p.jumpSeek()
	}
	return nil
}

func (p *Player) jumpSeek() error {
	g := p.sess.Geometry
	pos, err := p.sess.stream.Seek(0, io.SeekCurrent)
	if err != nil {
		return p.trackFault(err)
	}
	d := p.jump.Distance(g)
	target := pos - d
	if p.mode == FastForward {
		target = pos + d
		if target >= g.End() {
			log.WithField("jumps", p.jump.Jumps).Debug("fast forward past end of track")
			return p.next()
		}
	}
	if target < g.DataOffset {
		target = g.DataOffset
	}
	al := int64(g.Align())
	target = g.DataOffset + (target-g.DataOffset)/al*al
	log.WithFields(log.Fields{"from": pos, "to": target, "jumps": p.jump.Jumps}).Debug("jump")
	return p.seek(target)
}

// load stops the current track and opens channel/track. A fault is
// returned only when the card has to be mounted again.
func (p *Player) load(channel, track uint8, cause loadCause) error {
	p.stop()
	f, g, err := p.open(channel, track)
	if err != nil {
		fault := Classify(err)
		if fault.Kind == FaultNoFile && cause != loadSelect {
			log.WithFields(log.Fields{"channel": channel, "track": track}).Info("no further track")
			p.last = fault
			p.sess = Session{}
			p.clearResume()
			p.setMode(Idle)
			return nil
		}
		p.fail(fault)
		if fault.remount() {
			return fault
		}
		return nil
	}

	p.sess = Session{Channel: channel, Track: track, Geometry: g, stream: f}
	p.paced.piece = pieceSize(g)
	if err := p.resume.Save(channel, track); err != nil {
		log.Warnf("cannot save resume record: %v", err)
	}
	if !g.StartAligned() {
		log.WithField("offset", g.DataOffset).Debug("data chunk start is not frame aligned")
	}
	log.WithFields(log.Fields{
		"channel": channel,
		"track":   track,
		"rate":    g.SampleRate,
		"bytes":   g.SampleCount,
	}).Info("track loaded")
	if p.mode != FastForward && p.mode != Rewind {
		p.setMode(Play)
	}
	return nil
}

func (p *Player) open(channel, track uint8) (vfs.File, wav.Geometry, error) {
	name, err := TrackName(channel, track)
	if err != nil {
		return nil, wav.Geometry{}, err
	}
	f, err := p.fs.Open(name)
	if err != nil {
		return nil, wav.Geometry{}, err
	}
	g, err := wav.ScanHeader(f)
	if err == nil {
		err = p.out.Start(g)
	}
	if err != nil {
		f.Close()
		return nil, wav.Geometry{}, fmt.Errorf("%s: %w", name, err)
	}
	return f, g, nil
}

// stop lets the queued audio play out, then rests the output and closes
// the track.
func (p *Player) stop() {
	if p.sess.stream == nil {
		return
	}
	if err := p.out.Drain(); err != nil {
		log.Debugf("drain: %v", err)
	}
	p.out.Silence()
	p.closeStream()
}

func (p *Player) closeStream() {
	if p.sess.stream == nil {
		return
	}
	if err := p.sess.stream.Close(); err != nil {
		log.Debugf("closing track: %v", err)
	}
	p.sess.stream = nil
}

// trackFault abandons the current track after a read or seek failure.
func (p *Player) trackFault(err error) error {
	fault := Classify(err)
	p.fail(fault)
	if fault.remount() {
		return fault
	}
	return nil
}

// fail shows the fault code and returns to idle. The resume record is
// cleared unless the card itself is gone.
func (p *Player) fail(f *Fault) {
	p.last = f
	p.setMode(Error)
	log.WithFields(log.Fields{"code": f.Code, "kind": f.Kind}).Warnf("track fault: %v", f.Err)
	p.out.Silence()
	p.closeStream()
	p.sess = Session{}
	p.flash(f.Code)
	if f.Kind != FaultCard {
		p.clearResume()
	}
	p.jump.Reset()
	p.setMode(Idle)
}

func (p *Player) clearResume() {
	if p.resume == nil {
		return
	}
	if err := p.resume.Save(0, 0); err != nil {
		log.Warnf("cannot clear resume record: %v", err)
	}
}

// flash blinks code on the LED: code short flashes, then a pause.
func (p *Player) flash(code int) {
	fc := p.cfg.Flash
	for i := 0; i < code; i++ {
		p.setLED(false)
		p.clk.Sleep(fc.Off)
		p.setLED(true)
		p.clk.Sleep(fc.On)
	}
	p.setLED(false)
	p.clk.Sleep(fc.Pause)
}

func (p *Player) setLED(on bool) {
	if p.led != nil {
		p.led.Set(on)
	}
}

func (p *Player) setMode(m Mode) {
	if m == p.mode {
		return
	}
	log.WithFields(log.Fields{"from": p.mode, "to": m}).Info("mode")
	p.mode = m
	if p.OnMode != nil {
		p.OnMode(m)
	}
}
