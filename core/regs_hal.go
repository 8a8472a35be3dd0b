package core

// RegisterFile is the memory-mapped register space the emitters drive.
// A write is visible to the next read of the same (base, offset); the
// emitters attach no other meaning to register contents.
type RegisterFile interface {
	WriteReg(base, offset, value uint32) error
	ReadReg(base, offset uint32) (uint32, error)
}

// Global singleton used by firmware code.
var registerFile RegisterFile

// SetRegisterFile is called by target-specific code to register its backend.
func SetRegisterFile(r RegisterFile) {
	registerFile = r
}

// MustRegisterFile returns the configured backend or panics if missing.
func MustRegisterFile() RegisterFile {
	if registerFile == nil {
		panic("register file not configured")
	}
	return registerFile
}
