package errcode

import (
	"errors"

	"sps30-go/drivers/sps30"
)

// Code is a stable, externally visible error identifier used in log fields
// and metric labels. It is a string newtype, comparable, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK               Code = "ok"
	FrameLength      Code = "frame_length"
	ChecksumMismatch Code = "checksum_mismatch"
	UnsupportedWidth Code = "unsupported_width"
	InvalidState     Code = "invalid_state"
	InvalidConfig    Code = "invalid_config"
	IOError          Code = "io_error"
	Timeout          Code = "timeout"

	Error Code = "error" // generic fallback
)

// All lists every code a caller may observe, for pre-registering labels.
var All = []Code{OK, FrameLength, ChecksumMismatch, UnsupportedWidth, InvalidState, InvalidConfig, IOError, Timeout, Error}

// E carries a code together with the operation and cause.
type E struct {
	C   Code
	Op  string
	Err error
}

func (e *E) Error() string {
	if e.Op == "" {
		return string(e.C)
	}
	if e.Err != nil {
		return e.Op + ": " + string(e.C) + ": " + e.Err.Error()
	}
	return e.Op + ": " + string(e.C)
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Wrap attaches op and the mapped code to err. nil stays nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &E{C: MapDriverErr(err), Op: op, Err: err}
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	type coder interface{ Code() Code }
	var x coder
	if errors.As(err, &x) {
		return x.Code()
	}
	return Error
}

// MapDriverErr maps sps30 driver errors to a Code. Anything the driver does
// not produce itself came from the transport and maps to IOError.
func MapDriverErr(err error) Code {
	switch {
	case err == nil:
		return OK
	case errors.Is(err, sps30.ErrChecksum):
		return ChecksumMismatch
	case errors.Is(err, sps30.ErrFrameLength):
		return FrameLength
	case errors.Is(err, sps30.ErrUnsupportedWidth):
		return UnsupportedWidth
	case errors.Is(err, sps30.ErrInvalidState):
		return InvalidState
	}
	if c := Of(err); c != Error {
		return c
	}
	return IOError
}
