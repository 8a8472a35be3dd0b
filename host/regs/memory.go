package regs

import "sync"

// Access is one recorded register write.
type Access struct {
	Base   uint32
	Offset uint32
	Value  uint32
}

// Memory is a register space held in memory. Registers are byte addressed
// like the hardware, so (base, offset) pairs naming the same address alias.
// It keeps the most recent writes for inspection.
type Memory struct {
	mu         sync.Mutex
	words      map[int64]uint32
	trace      []Access // ring of the last traceLimit writes
	next       int
	traceLimit int
}

// DefaultTraceLimit is the number of writes Memory remembers.
const DefaultTraceLimit = 4096

func NewMemory() *Memory {
	return &Memory{
		words:      make(map[int64]uint32),
		traceLimit: DefaultTraceLimit,
	}
}

func (m *Memory) WriteReg(base, offset, value uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.words[Address(base, offset)] = value
	if m.traceLimit <= 0 {
		return nil
	}
	a := Access{Base: base, Offset: offset, Value: value}
	if len(m.trace) < m.traceLimit {
		m.trace = append(m.trace, a)
		return nil
	}
	m.trace[m.next] = a
	m.next = (m.next + 1) % m.traceLimit
	return nil
}

func (m *Memory) ReadReg(base, offset uint32) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.words[Address(base, offset)], nil
}

// Writes returns the recorded writes, oldest first.
func (m *Memory) Writes() []Access {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ordered()
}

func (m *Memory) ordered() []Access {
	out := make([]Access, 0, len(m.trace))
	out = append(out, m.trace[m.next:]...)
	return append(out, m.trace[:m.next]...)
}

// SetTraceLimit changes how many writes are remembered.
func (m *Memory) SetTraceLimit(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.ordered()
	if n < 0 {
		n = 0
	}
	if len(all) > n {
		all = all[len(all)-n:]
	}
	m.trace = all
	m.next = 0
	m.traceLimit = n
}
