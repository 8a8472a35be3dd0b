package core

import "golang.org/x/exp/constraints"

// ClampFlags records which range limits were applied while computing a value.
// Numeric range violations are never errors; they are clamped and tagged.
type ClampFlags uint8

const (
	ClampPhaseLow ClampFlags = 1 << iota
	ClampPhaseHigh
	ClampNoInterval
	ClampVoltageLow
	ClampVoltageHigh
	ClampDutyLow
	ClampDutyHigh
)

var clampNames = [...]string{
	"phase_low",
	"phase_high",
	"no_interval",
	"voltage_low",
	"voltage_high",
	"duty_low",
	"duty_high",
}

// Has reports whether every flag in mask is set.
func (f ClampFlags) Has(mask ClampFlags) bool {
	return f&mask == mask
}

func (f ClampFlags) String() string {
	if f == 0 {
		return "none"
	}
	s := ""
	for i, name := range clampNames {
		if f&(1<<i) == 0 {
			continue
		}
		if s != "" {
			s += "|"
		}
		s += name
	}
	return s
}

// Clamp limits v to [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
