//go:build linux

package regs

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"
)

// DeviceFile reaches a memory-mapped register window through a file such
// as /dev/mem or a UIO device. Each register is a little-endian 32-bit word
// at byte address base + offset*4 within the file.
type DeviceFile struct {
	fd   int
	path string
}

// OpenDeviceFile opens path for synchronous register access.
func OpenDeviceFile(path string) (*DeviceFile, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_SYNC|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open register window %s: %w", path, err)
	}
	return &DeviceFile{fd: fd, path: path}, nil
}

func (d *DeviceFile) WriteReg(base, offset, value uint32) error {
	var buf [WordSize]byte
	binary.LittleEndian.PutUint32(buf[:], value)

	addr := Address(base, offset)
	n, err := unix.Pwrite(d.fd, buf[:], addr)
	if err != nil {
		return fmt.Errorf("write %s at 0x%x: %w", d.path, addr, err)
	}
	if n != WordSize {
		return fmt.Errorf("write %s at 0x%x: short write of %d bytes", d.path, addr, n)
	}
	return nil
}

func (d *DeviceFile) ReadReg(base, offset uint32) (uint32, error) {
	var buf [WordSize]byte

	addr := Address(base, offset)
	n, err := unix.Pread(d.fd, buf[:], addr)
	if err != nil {
		return 0, fmt.Errorf("read %s at 0x%x: %w", d.path, addr, err)
	}
	if n != WordSize {
		return 0, fmt.Errorf("read %s at 0x%x: short read of %d bytes", d.path, addr, n)
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func (d *DeviceFile) Close() error {
	if d.fd < 0 {
		return nil
	}
	err := unix.Close(d.fd)
	d.fd = -1
	return err
}
