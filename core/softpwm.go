package core

import "context"

// SoftPWM synthesises up to MaxChannels PWM outputs from one shared counter
// and one output register. Each Tick composes the output word for the
// current counter, writes it in a single register write so all channels
// change together, then advances the counter.
//
// The counter runs 0..maxCount inclusive, so one period is maxCount+1 ticks.
type SoftPWM struct {
	regs     RegisterFile
	base     uint32
	offset   uint32
	duties   []DutyCycle
	maxCount uint32

	counter uint32
	output  uint32
	ticks   uint64
}

// WaveformSnapshot is the observable state after the most recent tick.
type WaveformSnapshot struct {
	Ticks   uint64 `json:"ticks"`
	Counter uint32 `json:"counter"`
	Output  uint32 `json:"output"`
	Levels  []bool `json:"levels"`
}

// NewSoftPWM binds duties to the output register at (base, offset).
//
// Duties above maxCount are kept as given: such a channel never goes low.
// They are reported through OverRange and a warning.
func NewSoftPWM(regs RegisterFile, base, offset uint32, duties []DutyCycle, maxCount uint16) (*SoftPWM, error) {
	if len(duties) < 1 || len(duties) > MaxChannels {
		return nil, ErrChannelCount
	}
	s := &SoftPWM{
		regs:     regs,
		base:     base,
		offset:   offset,
		duties:   append([]DutyCycle(nil), duties...),
		maxCount: uint32(maxCount),
	}
	for _, ch := range s.OverRange() {
		Warn("soft pwm channel " + itoa(ch) + " duty " + utoa(uint32(s.duties[ch])) +
			" exceeds max count " + utoa(s.maxCount))
	}
	return s, nil
}

// OverRange lists the channels whose duty exceeds the max count.
func (s *SoftPWM) OverRange() []int {
	var chans []int
	for i, d := range s.duties {
		if uint32(d) > s.maxCount {
			chans = append(chans, i)
		}
	}
	return chans
}

// Compose returns the output word for counter: bit i is set while
// counter < duty[i].
func (s *SoftPWM) Compose(counter uint32) uint32 {
	var word uint32
	for i, d := range s.duties {
		if counter < uint32(d) {
			word |= 1 << uint(i)
		}
	}
	return word
}

// Tick emits one output word and advances the counter, wrapping to zero
// after maxCount.
func (s *SoftPWM) Tick() error {
	word := s.Compose(s.counter)
	if err := s.regs.WriteReg(s.base, s.offset, word); err != nil {
		return err
	}
	s.output = word
	s.ticks++

	s.counter++
	if s.counter > s.maxCount {
		s.counter = 0
	}
	return nil
}

// Run ticks until ctx is cancelled or a register write fails. Cancellation
// is checked once per tick.
func (s *SoftPWM) Run(ctx context.Context) error {
	done := ctx.Done()
	for {
		select {
		case <-done:
			return ctx.Err()
		default:
		}
		if err := s.Tick(); err != nil {
			return err
		}
	}
}

// Counter is the value the next Tick will compare against.
func (s *SoftPWM) Counter() uint32 { return s.counter }

// Output is the word written by the most recent Tick.
func (s *SoftPWM) Output() uint32 { return s.output }

func (s *SoftPWM) Ticks() uint64 { return s.ticks }

// Period is the number of ticks in one PWM period.
func (s *SoftPWM) Period() uint64 { return uint64(s.maxCount) + 1 }

func (s *SoftPWM) Channels() int { return len(s.duties) }

func (s *SoftPWM) Snapshot() WaveformSnapshot {
	levels := make([]bool, len(s.duties))
	for i := range levels {
		levels[i] = s.output&(1<<uint(i)) != 0
	}
	return WaveformSnapshot{
		Ticks:   s.ticks,
		Counter: s.counter,
		Output:  s.output,
		Levels:  levels,
	}
}

// SoftPWMEmitter is the Emitter form of SoftPWM. Emit runs the waveform
// until ctx ends, or for MaxTicks ticks when that is non-zero.
type SoftPWMEmitter struct {
	Regs     RegisterFile
	Base     uint32
	Offset   uint32
	MaxCount uint16
	MaxTicks uint64

	// OnPeriod, when set, is called with the stepper after each full period.
	OnPeriod func(*SoftPWM)
}

func (e *SoftPWMEmitter) Emit(ctx context.Context, duties []DutyCycle) error {
	s, err := NewSoftPWM(e.Regs, e.Base, e.Offset, duties, e.MaxCount)
	if err != nil {
		return err
	}
	if e.MaxTicks == 0 && e.OnPeriod == nil {
		return s.Run(ctx)
	}

	done := ctx.Done()
	period := s.Period()
	for e.MaxTicks == 0 || s.Ticks() < e.MaxTicks {
		select {
		case <-done:
			return ctx.Err()
		default:
		}
		if err := s.Tick(); err != nil {
			return err
		}
		if e.OnPeriod != nil && s.Ticks()%period == 0 {
			e.OnPeriod(s)
		}
	}
	return nil
}
