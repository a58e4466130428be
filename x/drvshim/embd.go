//go:build linux

package drvshim

import (
	"github.com/kidoman/embd"
	_ "github.com/kidoman/embd/host/all"
)

// OpenEmbd opens Linux I2C bus n (/dev/i2c-n) through embd. The returned
// close function releases the bus and embd's I2C driver.
func OpenEmbd(n byte) (*I2C, func() error, error) {
	if err := embd.InitI2C(); err != nil {
		return nil, nil, err
	}
	bus := embd.NewI2CBus(n)
	closeFn := func() error {
		err := bus.Close()
		if cerr := embd.CloseI2C(); err == nil {
			err = cerr
		}
		return err
	}
	return New(bus), closeFn, nil
}
