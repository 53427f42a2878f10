package parking

import (
	"errors"
	"fmt"
)

// Fault kinds. Every error returned by this package matches at most one of
// ErrTransport, ErrValidation and ErrUnsupported through errors.Is; ErrPartialRead
// additionally marks transport faults that hit a status read after the change flag
// had been consumed.
var (
	ErrTransport   = errors.New("parking: transport fault")
	ErrPartialRead = errors.New("parking: status read aborted after change flag was cleared")
	ErrValidation  = errors.New("parking: validation rejected")
	ErrUnsupported = errors.New("parking: unsupported operation")
)

var (
	ErrInvalidAngle     = fmt.Errorf("%w: servo angle must be within 0-180 or 255", ErrValidation)
	ErrInvalidRegister  = fmt.Errorf("%w: register index out of range", ErrValidation)
	ErrUnexpectedFlag   = fmt.Errorf("%w: change flag outside 0-1", ErrTransport)
	ErrResetUnsupported = fmt.Errorf("%w: reset is not implemented by the slave, restart the remote board manually", ErrUnsupported)
)

// RegisterError locates a failed bus operation.
type RegisterError struct {
	Op       string // "read" or "write"
	Address  byte
	Register Register
	Err      error
}

func (e *RegisterError) Error() string {
	return fmt.Sprintf("parking: %s %s at %#02x: %v", e.Op, e.Register, e.Address, e.Err)
}

func (e *RegisterError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// IsHardwareFault reports whether err means the slave could not be reached or
// answered incompletely, as opposed to a rejected request.
func IsHardwareFault(err error) bool {
	return errors.Is(err, ErrTransport)
}
