//go:build rp2040

package main

import (
	"errors"
	"machine"

	"irsbeam/core"
)

var errNoChannel = errors.New("no PWM channel at offset")

// pwmPeripheral is an interface for PWM hardware peripherals
// This abstracts over TinyGo's unexported *pwmGroup type
type pwmPeripheral interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

// PWMRegisters exposes hardware PWM channels as a direct PWM register
// file: offset i drives pins[i]. Values are duties out of maxCount, scaled
// to the slice's Top on write. Reads return the last duty written.
type PWMRegisters struct {
	pins     []machine.Pin
	groups   []pwmPeripheral
	channels []uint8
	values   []uint32
	maxCount uint32
}

func NewPWMRegisters(pins []machine.Pin, maxCount uint16) *PWMRegisters {
	return &PWMRegisters{
		pins:     pins,
		groups:   make([]pwmPeripheral, len(pins)),
		channels: make([]uint8, len(pins)),
		values:   make([]uint32, len(pins)),
		maxCount: uint32(maxCount),
	}
}

// Configure sets every slice used by the pins to period nanoseconds and
// claims the pin channels. Pins sharing a slice share its period.
func (r *PWMRegisters) Configure(period uint64) error {
	for i, pin := range r.pins {
		// RP2040: GPIO N is on slice (N>>1)&7, channel A for even N, B for odd
		pwm := getPWMPeripheral(uint8((uint32(pin) >> 1) & 0x7))
		if err := pwm.Configure(machine.PWMConfig{Period: period}); err != nil {
			return err
		}
		ch, err := pwm.Channel(pin)
		if err != nil {
			return err
		}
		r.groups[i] = pwm
		r.channels[i] = ch
		pwm.Set(ch, 0)
	}
	return nil
}

func (r *PWMRegisters) WriteReg(base, offset, value uint32) error {
	if offset >= uint32(len(r.pins)) || r.groups[offset] == nil {
		return errNoChannel
	}
	pwm := r.groups[offset]
	pwm.Set(r.channels[offset], core.ScaleDuty(value, r.maxCount, pwm.Top()))
	r.values[offset] = value
	return nil
}

func (r *PWMRegisters) ReadReg(base, offset uint32) (uint32, error) {
	if offset >= uint32(len(r.pins)) {
		return 0, errNoChannel
	}
	return r.values[offset], nil
}

// getPWMPeripheral returns the PWM peripheral for a given slice number
func getPWMPeripheral(sliceNum uint8) pwmPeripheral {
	switch sliceNum {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	default:
		return machine.PWM7
	}
}
