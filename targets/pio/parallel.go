//go:build rp2040 || rp2350

// Package pio drives a bank of consecutive GPIO pins from a PIO state
// machine so the software PWM output register updates every channel in
// the same cycle.
package pio

import (
	"errors"
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

var (
	ErrNoStateMachine = errors.New("no free PIO state machine")
	ErrPinCount       = errors.New("parallel output supports 1..32 pins")
)

// Program:
//
//	.wrap_target
//	pull block      ; wait for the next output word
//	out pins, N     ; shift its low N bits onto the pins
//	.wrap
func buildParallelProgram(count uint8) []uint16 {
	return []uint16{
		rp2pio.EncodePull(false, true),
		rp2pio.EncodeOut(rp2pio.SrcDestPins, count&0x1f), // 0 encodes 32
	}
}

// ParallelOutput is a one-word register file: bit i of every value written
// drives pin base+i. Base and offset are ignored; the output has a single
// register.
type ParallelOutput struct {
	pio   *rp2pio.PIO
	sm    rp2pio.StateMachine
	base  machine.Pin
	count uint8
	mask  uint32
	last  uint32
}

// NewParallelOutput claims a free state machine and loads the output
// program for count pins starting at base.
func NewParallelOutput(base machine.Pin, count uint8) (*ParallelOutput, error) {
	if count == 0 || count > 32 {
		return nil, ErrPinCount
	}
	pioNum, smNum, ok := allocate()
	if !ok {
		return nil, ErrNoStateMachine
	}

	hw := rp2pio.PIO0
	if pioNum == 1 {
		hw = rp2pio.PIO1
	}
	p := &ParallelOutput{
		pio:   hw,
		sm:    hw.StateMachine(smNum),
		base:  base,
		count: count,
		mask:  uint32(1)<<count - 1,
	}
	if err := p.init(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *ParallelOutput) init() error {
	if !p.sm.TryClaim() {
		return ErrNoStateMachine
	}

	program := buildParallelProgram(p.count)
	offset, err := p.pio.AddProgram(program, -1)
	if err != nil {
		return err
	}

	for i := uint8(0); i < p.count; i++ {
		(p.base + machine.Pin(i)).Configure(machine.PinConfig{Mode: p.pio.PinMode()})
	}

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetOutPins(p.base, p.count)
	// Shift right so bit 0 lands on the base pin; explicit pull, no autopull.
	cfg.SetOutShift(true, false, 32)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)

	// Init before pin directions, then drive everything low.
	p.sm.Init(offset, cfg)
	p.sm.SetPindirsConsecutive(p.base, p.count, true)
	p.sm.SetPinsConsecutive(p.base, p.count, false)
	p.sm.SetEnabled(true)
	return nil
}

// WriteReg queues value for the pins, waiting while the TX FIFO is full.
// The FIFO wait paces the software PWM tick rate.
func (p *ParallelOutput) WriteReg(base, offset, value uint32) error {
	value &= p.mask
	for p.sm.IsTxFIFOFull() {
	}
	p.sm.TxPut(value)
	p.last = value
	return nil
}

// ReadReg returns the last word queued for the pins.
func (p *ParallelOutput) ReadReg(base, offset uint32) (uint32, error) {
	return p.last, nil
}

// Stop drains the FIFO and drives every pin low.
func (p *ParallelOutput) Stop() {
	p.sm.SetEnabled(false)
	p.sm.ClearFIFOs()
	p.sm.Restart()
	p.sm.SetPinsConsecutive(p.base, p.count, false)
	p.last = 0
}
