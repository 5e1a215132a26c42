package rn2xx3

import (
	"errors"
	"fmt"

	"github.com/dbrgn/rn2xx3/protocol"
)

var (
	// ErrBusy is returned when a command is issued while another one is
	// outstanding. The protocol is strictly half-duplex; commands are
	// rejected, never queued.
	ErrBusy = errors.New("rn2xx3: command already outstanding")

	// ErrIdle is returned by Poll when no command is outstanding.
	ErrIdle = errors.New("rn2xx3: no command outstanding")

	// ErrTimeout is returned when the poll budget for an exchange is
	// exhausted before a reply arrived. The driver returns to idle and
	// stays usable.
	ErrTimeout = errors.New("rn2xx3: poll budget exhausted")

	// ErrUnexpectedReply is returned when a reply line does not match the
	// grammar expected for the outstanding command.
	ErrUnexpectedReply = errors.New("rn2xx3: unexpected reply")

	// ErrAsleep is returned when a command is issued while the module is in
	// sleep mode. Use WaitWakeup first.
	ErrAsleep = errors.New("rn2xx3: module is in sleep mode")

	// ErrClosed is returned for any operation after Free.
	ErrClosed = errors.New("rn2xx3: driver released")

	// ErrInvalidState is returned by EnsureKnownState when the module could
	// not be brought into a known state.
	ErrInvalidState = errors.New("rn2xx3: module not in a known state")

	// ErrBufferOverflow is returned when an encoded command or an incoming
	// reply line exceeds its fixed buffer bound.
	ErrBufferOverflow = protocol.ErrOverflow

	// ErrBadParameter is returned for argument values the module would
	// reject, detected before any bytes are written.
	ErrBadParameter = protocol.ErrBadParameter
)

// TransportError wraps a byte-level I/O failure from the Transport. It is
// fatal to the current operation only; the driver returns to idle.
type TransportError struct {
	Op  string // "read" or "write"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("rn2xx3: transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ModuleError is an error the module reported in direct response to a
// command. The code is the verbatim reply token, to be interpreted against
// the module's command reference.
type ModuleError struct {
	Code protocol.Status
}

func (e *ModuleError) Error() string {
	return fmt.Sprintf("rn2xx3: module reported %q", string(e.Code))
}

// IsModuleError reports whether err is a ModuleError with the given code.
func IsModuleError(err error, code protocol.Status) bool {
	var me *ModuleError
	return errors.As(err, &me) && me.Code == code
}
