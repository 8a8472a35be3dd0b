package core

import "context"

// Emitter realises a set of duty cycles as waveforms on hardware.
type Emitter interface {
	Emit(ctx context.Context, duties []DutyCycle) error
}

// DirectPWM writes each duty into a dedicated PWM peripheral register,
// channel i at offset i from base. The peripheral generates the waveform.
type DirectPWM struct {
	regs RegisterFile
	base uint32
}

func NewDirectPWM(regs RegisterFile, base uint32) *DirectPWM {
	return &DirectPWM{regs: regs, base: base}
}

// Emit performs one register write per channel and returns.
func (d *DirectPWM) Emit(ctx context.Context, duties []DutyCycle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for i, duty := range duties {
		if err := d.regs.WriteReg(d.base, uint32(i), uint32(duty)); err != nil {
			return &ChannelError{Channel: i, Op: "write", Err: err}
		}
	}
	return nil
}

// Readback reads the first n channel registers back. Only the low 16 bits
// of each register hold the duty.
func (d *DirectPWM) Readback(n int) ([]DutyCycle, error) {
	out := make([]DutyCycle, n)
	for i := range out {
		v, err := d.regs.ReadReg(d.base, uint32(i))
		if err != nil {
			return nil, &ChannelError{Channel: i, Op: "read", Err: err}
		}
		out[i] = DutyCycle(v & 0xFFFF)
	}
	return out, nil
}

// ChannelError wraps a register failure with the channel it happened on.
type ChannelError struct {
	Channel int
	Op      string
	Err     error
}

func (e *ChannelError) Error() string {
	return "channel " + itoa(e.Channel) + " " + e.Op + ": " + e.Err.Error()
}

func (e *ChannelError) Unwrap() error { return e.Err }
