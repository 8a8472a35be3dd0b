package regs

import (
	"context"
	"errors"
	"testing"

	"irsbeam/core"
)

// fakeI2C models a register-addressed I2C device with auto-increment.
type fakeI2C struct {
	regs  [256]byte
	addr  uint16
	txs   int
	fail  error
}

func newFakePCA9685() *fakeI2C {
	f := &fakeI2C{addr: 0x40}
	f.regs[0] = 0x11 // MODE1 power-on value
	return f
}

func (f *fakeI2C) Tx(addr uint16, w, r []byte) error {
	f.txs++
	if f.fail != nil {
		return f.fail
	}
	if addr != f.addr || len(w) == 0 {
		return errors.New("nack")
	}
	reg := int(w[0])
	if r == nil {
		for i, b := range w[1:] {
			f.regs[(reg+i)&0xFF] = b
		}
		return nil
	}
	for i := range r {
		r[i] = f.regs[(reg+i)&0xFF]
	}
	return nil
}

func (f *fakeI2C) on(ch int) uint32 {
	reg := 6 + 4*ch
	return uint32(f.regs[reg]) | uint32(f.regs[reg+1])<<8
}

func TestPCA9685Configure(t *testing.T) {
	bus := newFakePCA9685()
	p := NewPCA9685(bus, 0x40, 65535)

	if err := p.Configure(1_000_000); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	if bus.regs[0]&0x20 == 0 {
		t.Errorf("Expected auto-increment enabled in MODE1, got 0x%02X", bus.regs[0])
	}
	if bus.regs[0]&0x10 != 0 {
		t.Errorf("Expected chip awake after configure, got MODE1 0x%02X", bus.regs[0])
	}
	if bus.regs[0xFE] == 0 {
		t.Errorf("Expected prescale to be written")
	}
}

func TestPCA9685ConfigureBadPeriod(t *testing.T) {
	p := NewPCA9685(newFakePCA9685(), 0x40, 65535)
	if err := p.Configure(100 * 1_000_000); err == nil {
		t.Errorf("Expected error for a 100ms period")
	}
}

func TestPCA9685NotConnected(t *testing.T) {
	bus := newFakePCA9685()
	bus.fail = errors.New("bus fault")
	p := NewPCA9685(bus, 0x40, 65535)
	if err := p.Configure(1_000_000); err == nil {
		t.Errorf("Expected configure to fail on a dead bus")
	}
}

func TestPCA9685WriteRead(t *testing.T) {
	bus := newFakePCA9685()
	p := NewPCA9685(bus, 0x40, 65535)

	if err := p.WriteReg(0, 3, 32768); err != nil {
		t.Fatalf("WriteReg failed: %v", err)
	}
	if got := bus.on(3); got != 2047 {
		t.Errorf("Expected 2047 chip counts on output 3, got %d", got)
	}

	v, err := p.ReadReg(0, 3)
	if err != nil {
		t.Fatalf("ReadReg failed: %v", err)
	}
	if v != 32759 {
		t.Errorf("Expected readback 32759, got %d", v)
	}

	// Other outputs are rewritten with their buffered (zero) values.
	if got := bus.on(4); got != 0 {
		t.Errorf("Expected output 4 off, got %d", got)
	}
}

func TestPCA9685Saturates(t *testing.T) {
	bus := newFakePCA9685()
	p := NewPCA9685(bus, 0x40, 1024)

	if err := p.WriteReg(0, 0, 5000); err != nil {
		t.Fatalf("WriteReg failed: %v", err)
	}
	if got := bus.on(0); got != 4095 {
		t.Errorf("Expected saturated 4095, got %d", got)
	}
	if v, _ := p.ReadReg(0, 0); v != 1024 {
		t.Errorf("Expected readback 1024, got %d", v)
	}
}

func TestPCA9685NoChannel(t *testing.T) {
	p := NewPCA9685(newFakePCA9685(), 0x40, 65535)

	if err := p.WriteReg(0, PCA9685Channels, 1); !errors.Is(err, ErrNoChannel) {
		t.Errorf("Expected ErrNoChannel on write, got %v", err)
	}
	if _, err := p.ReadReg(0, PCA9685Channels); !errors.Is(err, ErrNoChannel) {
		t.Errorf("Expected ErrNoChannel on read, got %v", err)
	}
}

func TestPCA9685DirectEmit(t *testing.T) {
	bus := newFakePCA9685()
	p := NewPCA9685(bus, 0x40, 65535)
	d := core.NewDirectPWM(p, 0)

	duties := []core.DutyCycle{0, 16384, 65535}
	if err := d.Emit(context.Background(), duties); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	want := []uint32{0, 1023, 4095}
	for ch, w := range want {
		if got := bus.on(ch); got != w {
			t.Errorf("Output %d: expected %d chip counts, got %d", ch, w, got)
		}
	}

	bus.fail = errors.New("bus fault")
	var chErr *core.ChannelError
	if err := d.Emit(context.Background(), duties); !errors.As(err, &chErr) || chErr.Channel != 0 {
		t.Errorf("Expected ChannelError for output 0, got %v", err)
	}
}
