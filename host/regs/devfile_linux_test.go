//go:build linux

package regs

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestDeviceFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "window")
	if err := os.WriteFile(path, make([]byte, 0x200), 0o600); err != nil {
		t.Fatalf("Failed to create window file: %v", err)
	}

	d, err := OpenDeviceFile(path)
	if err != nil {
		t.Fatalf("OpenDeviceFile failed: %v", err)
	}
	defer d.Close()

	if err := d.WriteReg(0x100, 3, 0x01BF); err != nil {
		t.Fatalf("WriteReg failed: %v", err)
	}
	v, err := d.ReadReg(0x100, 3)
	if err != nil || v != 0x01BF {
		t.Errorf("ReadReg = 0x%X (%v), expected 0x1BF", v, err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if got := binary.LittleEndian.Uint32(raw[0x10C:]); got != 0x01BF {
		t.Errorf("Expected little-endian word at 0x10C, got 0x%X", got)
	}

	if _, err := d.ReadReg(0x200, 0); err == nil {
		t.Errorf("Expected short read past the window")
	}
}

func TestDeviceFileMissing(t *testing.T) {
	if _, err := OpenDeviceFile(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Errorf("Expected error opening a missing window")
	}
}

func TestDeviceFileClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "window")
	os.WriteFile(path, make([]byte, 16), 0o600)

	d, err := OpenDeviceFile(path)
	if err != nil {
		t.Fatalf("OpenDeviceFile failed: %v", err)
	}
	b := &Backend{RegisterFile: d, closers: []io.Closer{d}}
	if err := b.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("Second close failed: %v", err)
	}
}
