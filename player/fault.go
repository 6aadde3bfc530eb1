package player

import (
	"errors"
	"fmt"

	"github.com/rabidaudio/sdwav/mmc"
	"github.com/rabidaudio/sdwav/vfs"
	"github.com/rabidaudio/sdwav/wav"
)

// FaultKind is the player's view of a lower layer error.
type FaultKind int

const (
	FaultDisk        FaultKind = iota + 1 // read, seek or open failed
	FaultCard                             // card negotiation failed
	FaultNoFile                           // track file missing
	FaultFormat                           // file is not a playable WAV
	FaultEndOfStream                      // payload exhausted
)

func (k FaultKind) String() string {
	switch k {
	case FaultDisk:
		return "disk error"
	case FaultCard:
		return "card not ready"
	case FaultNoFile:
		return "no file"
	case FaultFormat:
		return "invalid file"
	case FaultEndOfStream:
		return "end of stream"
	default:
		return fmt.Sprintf("FaultKind(%d)", int(k))
	}
}

// Display codes, flashed on the status LED.
const (
	CodeDisk        = 1
	CodeCard        = 2
	CodeNoFile      = 3
	CodeFormat      = 4 // first of wav.NumReasons consecutive codes
	CodeEndOfStream = CodeFormat + wav.NumReasons
)

// Fault is a classified error with the code shown to the user.
type Fault struct {
	Kind FaultKind
	Code int
	Err  error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("player: %v (code %d): %v", f.Kind, f.Code, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// Classify maps an error from the storage, file or container layers to
// a Fault.
func Classify(err error) *Fault {
	var f *Fault
	if errors.As(err, &f) {
		return f
	}
	var fe *wav.FormatError
	switch {
	case errors.Is(err, ErrEndOfStream):
		return &Fault{Kind: FaultEndOfStream, Code: CodeEndOfStream, Err: err}
	case errors.As(err, &fe):
		return &Fault{Kind: FaultFormat, Code: CodeFormat + int(fe.Reason) - 1, Err: err}
	case errors.Is(err, vfs.ErrNoFile), errors.Is(err, ErrTrackRange):
		return &Fault{Kind: FaultNoFile, Code: CodeNoFile, Err: err}
	case mmc.IsNotReady(err):
		return &Fault{Kind: FaultCard, Code: CodeCard, Err: err}
	default:
		return &Fault{Kind: FaultDisk, Code: CodeDisk, Err: err}
	}
}

// remount reports whether the fault means the storage has to be mounted
// again.
func (f *Fault) remount() bool {
	return f.Kind == FaultCard
}
