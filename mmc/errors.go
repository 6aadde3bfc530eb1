package mmc

import "fmt"

// Errors returned by the card driver.
type Error int

const (
	ErrNotReady      Error = 1 // negotiation failed, card unusable for the session
	ErrCommand       Error = 2 // unexpected R1 response to a command
	ErrTimeout       Error = 3 // data token or ready state never arrived
	ErrWriteRejected Error = 4 // card did not accept the data block
	ErrParam         Error = 5 // offset/count outside a sector
	ErrNoWrite       Error = 6 // no block write in progress
	ErrWriteDisabled Error = 7 // built without write support
)

func (e Error) Error() string {
	return "mmc: " + e.name()
}

func (e Error) name() string {
	switch e {
	case ErrNotReady:
		return "card not ready"
	case ErrCommand:
		return "command rejected"
	case ErrTimeout:
		return "timeout waiting for card"
	case ErrWriteRejected:
		return "data block rejected"
	case ErrParam:
		return "invalid parameter"
	case ErrNoWrite:
		return "no write in progress"
	case ErrWriteDisabled:
		return "write support disabled"
	default:
		return fmt.Sprintf("unknown error code: %v", int(e))
	}
}

// CommandError reports the response byte of a rejected command.
type CommandError struct {
	Cmd      byte
	Response byte
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("mmc: CMD%d rejected with response %#02x", e.Cmd, e.Response)
}

func (e *CommandError) Unwrap() error {
	return ErrCommand
}
