//go:build !linux

package regs

import (
	"errors"
	"io"

	"irsbeam/core"
)

var errNoDeviceFile = errors.New("device file register access needs linux")

// DeviceFile is only available on linux.
type DeviceFile struct {
	core.RegisterFile
	io.Closer
}

func OpenDeviceFile(path string) (*DeviceFile, error) {
	return nil, errNoDeviceFile
}
