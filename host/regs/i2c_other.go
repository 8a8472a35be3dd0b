//go:build !linux

package regs

import (
	"errors"

	"periph.io/x/conn/v3/i2c"
)

// OpenI2C is only available on linux.
func OpenI2C(name string) (i2c.BusCloser, error) {
	return nil, errors.New("i2c bus access needs linux")
}
