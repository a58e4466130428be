package sps30

import (
	"errors"
	"strconv"
)

// Sentinels for errors.Is. The typed errors below match them.
var (
	ErrFrameLength      = errors.New("sps30: frame length")
	ErrChecksum         = errors.New("sps30: checksum mismatch")
	ErrUnsupportedWidth = errors.New("sps30: unsupported data width")
	ErrInvalidState     = errors.New("sps30: invalid state")
)

// FrameLengthError reports a response buffer that is not a whole number of
// word groups, or not the length the command returns.
type FrameLengthError struct {
	Cmd  Command
	Got  int
	Want int
}

func (e *FrameLengthError) Error() string {
	return "sps30: " + e.Cmd.String() + ": frame length " + strconv.Itoa(e.Got) +
		", want " + strconv.Itoa(e.Want)
}

func (e *FrameLengthError) Is(target error) bool { return target == ErrFrameLength }

// ChecksumMismatchError reports the first word group whose checksum byte does
// not verify. Group is zero-based.
type ChecksumMismatchError struct {
	Cmd   Command
	Group int
	Got   byte // checksum byte received
	Want  byte // checksum computed over the received word
}

func (e *ChecksumMismatchError) Error() string {
	return "sps30: " + e.Cmd.String() + ": checksum mismatch in word " + strconv.Itoa(e.Group) +
		": got 0x" + hex8(e.Got) + ", want 0x" + hex8(e.Want)
}

func (e *ChecksumMismatchError) Is(target error) bool { return target == ErrChecksum }

// UnsupportedDataWidthError is returned when a command is encoded or parsed
// against a width the firmware has no format for.
type UnsupportedDataWidthError struct {
	Cmd   Command
	Width DataWidth
}

func (e *UnsupportedDataWidthError) Error() string {
	return "sps30: " + e.Cmd.String() + ": unsupported data width " + e.Width.String()
}

func (e *UnsupportedDataWidthError) Is(target error) bool { return target == ErrUnsupportedWidth }

// StateError rejects a command that is not legal in the device's current
// state. No bus traffic happens.
type StateError struct {
	Cmd  Command
	From State
}

func (e *StateError) Error() string {
	return "sps30: " + e.Cmd.String() + ": not allowed while " + e.From.String()
}

func (e *StateError) Is(target error) bool { return target == ErrInvalidState }

func hex8(b byte) string {
	const digits = "0123456789ABCDEF"
	return string([]byte{digits[b>>4], digits[b&0x0F]})
}
