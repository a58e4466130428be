// Package drvshim adapts host I2C buses to the tinygo driver Tx shape.
package drvshim

import (
	"errors"
	"strconv"
	"sync"

	"tinygo.org/x/drivers"
)

var ErrBadAddress = errors.New("drvshim: address out of 7-bit range")

// RawBus is the part of embd.I2CBus the shim uses; the bus returned by
// embd.NewI2CBus satisfies it.
type RawBus interface {
	ReadBytes(addr byte, num int) ([]byte, error)
	WriteBytes(addr byte, value []byte) error
}

// I2C adapts a RawBus to drivers.I2C. A Tx with both w and r performs the
// write and then a separate read, each with its own start/stop; the SPS30
// and other Sensirion parts expect exactly that.
//
// The mutex only keeps a write and its paired read together when several
// drivers share one bus; it does not make a driver safe for concurrent use.
type I2C struct {
	mu  sync.Mutex
	bus RawBus
}

var _ drivers.I2C = (*I2C)(nil)

func New(bus RawBus) *I2C { return &I2C{bus: bus} }

func (s *I2C) Tx(addr uint16, w, r []byte) error {
	if addr > 0x7F {
		return ErrBadAddress
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	a := byte(addr)
	if len(w) > 0 {
		if err := s.bus.WriteBytes(a, w); err != nil {
			return err
		}
	}
	if len(r) > 0 {
		b, err := s.bus.ReadBytes(a, len(r))
		if err != nil {
			return err
		}
		if len(b) != len(r) {
			return &ShortReadError{Got: len(b), Want: len(r)}
		}
		copy(r, b)
	}
	return nil
}

// ShortReadError reports a bus read that returned fewer bytes than asked.
type ShortReadError struct {
	Got, Want int
}

func (e *ShortReadError) Error() string {
	return "drvshim: short read: got " + strconv.Itoa(e.Got) + " bytes, want " + strconv.Itoa(e.Want)
}
