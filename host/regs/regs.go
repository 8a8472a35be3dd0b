// Package regs provides register file backends for the host: an in-memory
// register space, a memory-mapped window reached through a device file, a
// PCA9685 I2C PWM expander and a controller on a serial link.
package regs

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/multierr"

	"irsbeam/config"
	"irsbeam/core"
	"irsbeam/host/link"
)

// WordSize is the width of one register; offsets count registers.
const WordSize = 4

var ErrNoChannel = errors.New("no such channel")

// Address returns the byte address of register offset from base.
func Address(base, offset uint32) int64 {
	return int64(base) + int64(offset)*WordSize
}

// Backend is an open register file together with whatever must be released
// when it is no longer needed.
type Backend struct {
	core.RegisterFile
	closers []io.Closer
}

// Close releases every resource in reverse order of acquisition.
func (b *Backend) Close() error {
	var err error
	for i := len(b.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, b.closers[i].Close())
	}
	b.closers = nil
	return err
}

// Open builds the register file selected by the emitter configuration.
func Open(cfg *config.File) (*Backend, error) {
	em := cfg.Emitter
	switch em.Backend {
	case config.BackendMemory:
		return &Backend{RegisterFile: NewMemory()}, nil

	case config.BackendDevFile:
		f, err := OpenDeviceFile(em.Device)
		if err != nil {
			return nil, err
		}
		return &Backend{RegisterFile: f, closers: []io.Closer{f}}, nil

	case config.BackendLink:
		r, err := link.Open(em.Device, em.Baud)
		if err != nil {
			return nil, err
		}
		return &Backend{RegisterFile: r, closers: []io.Closer{r}}, nil

	case config.BackendPCA9685:
		bus, err := OpenI2C(em.I2CBus)
		if err != nil {
			return nil, err
		}
		dev := NewPCA9685(bus, em.I2CAddress, cfg.Array.PWMResolution)
		if err := dev.Configure(em.PWMPeriodNs); err != nil {
			return nil, multierr.Append(fmt.Errorf("failed to configure pca9685 at 0x%02x: %w", em.I2CAddress, err), bus.Close())
		}
		return &Backend{RegisterFile: dev, closers: []io.Closer{bus}}, nil

	default:
		return nil, fmt.Errorf("%w: unknown backend %q", core.ErrInvalidConfig, em.Backend)
	}
}
