package core

import "errors"

var errMockBus = errors.New("mock bus fault")

type regWrite struct {
	base, offset, value uint32
}

// mockRegisterFile is a test implementation of RegisterFile
type mockRegisterFile struct {
	values  map[[2]uint32]uint32
	writes  []regWrite
	failAt  int // fail the n-th write (1-based), 0 never fails
	onWrite func(n int)
}

func newMockRegisterFile() *mockRegisterFile {
	return &mockRegisterFile{values: make(map[[2]uint32]uint32)}
}

func (m *mockRegisterFile) WriteReg(base, offset, value uint32) error {
	n := len(m.writes) + 1
	if m.failAt == n {
		return errMockBus
	}
	m.writes = append(m.writes, regWrite{base, offset, value})
	m.values[[2]uint32{base, offset}] = value
	if m.onWrite != nil {
		m.onWrite(n)
	}
	return nil
}

func (m *mockRegisterFile) ReadReg(base, offset uint32) (uint32, error) {
	return m.values[[2]uint32{base, offset}], nil
}
