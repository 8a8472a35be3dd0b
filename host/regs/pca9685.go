package regs

import (
	"encoding/binary"
	"fmt"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/pca9685"

	"irsbeam/core"
)

// PCA9685Channels is the number of outputs on one expander.
const PCA9685Channels = 16

// PCA9685 presents a PCA9685 I2C PWM expander as a direct PWM register
// file: register offset i is output i and holds a duty in array counts
// (0..maxCount). The base address is ignored. Duties are rescaled to the
// chip's 12-bit range on write and back on read.
type PCA9685 struct {
	dev      *pca9685.DevBuffered
	bus      drivers.I2C
	addr     uint8
	maxCount uint32
}

func NewPCA9685(bus drivers.I2C, addr uint8, maxCount uint16) *PCA9685 {
	return &PCA9685{
		dev:      pca9685.NewBuffered(bus, addr),
		bus:      bus,
		addr:     addr,
		maxCount: uint32(maxCount),
	}
}

// Configure checks the chip answers, turns every output off and sets the
// PWM period in nanoseconds (1ms..25ms).
func (p *PCA9685) Configure(periodNs uint64) error {
	if err := p.dev.IsConnected(); err != nil {
		return err
	}
	return p.dev.Configure(pca9685.PWMConfig{Period: periodNs})
}

func (p *PCA9685) WriteReg(base, offset, value uint32) error {
	if offset >= PCA9685Channels {
		return fmt.Errorf("pca9685 output %d: %w", offset, ErrNoChannel)
	}
	p.dev.PrepSet(uint8(offset), core.ScaleDuty(value, p.maxCount, p.dev.Top()))
	if err := p.dev.Update(); err != nil {
		return fmt.Errorf("pca9685 output %d: %w", offset, err)
	}
	return nil
}

// ReadReg reads the output's ON count back from the chip and scales it to
// array counts. The round trip loses the resolution the chip lacks.
func (p *PCA9685) ReadReg(base, offset uint32) (uint32, error) {
	if offset >= PCA9685Channels {
		return 0, fmt.Errorf("pca9685 output %d: %w", offset, ErrNoChannel)
	}
	onL, _, _, _ := pca9685.LED(uint8(offset))

	var buf [2]byte
	if err := p.bus.Tx(uint16(p.addr), []byte{onL}, buf[:]); err != nil {
		return 0, fmt.Errorf("pca9685 output %d: %w", offset, err)
	}
	on := uint32(binary.LittleEndian.Uint16(buf[:])) & p.dev.Top()
	return uint32(uint64(on) * uint64(p.maxCount) / uint64(p.dev.Top())), nil
}
