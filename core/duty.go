package core

import "math"

// DutyCycle is a PWM on-count out of the configured MaxCount.
type DutyCycle uint16

// DutyConverter turns a drive voltage at the amplifier output into the PWM
// count that produces it from a full-scale logic supply.
type DutyConverter struct {
	Gain      float64
	FullScale float64
	MaxCount  uint16
}

func NewDutyConverter(cfg Config) DutyConverter {
	return DutyConverter{
		Gain:      cfg.AmplifierGain,
		FullScale: cfg.FullScaleVoltage,
		MaxCount:  cfg.PWMResolution,
	}
}

// Convert divides out the amplifier gain, normalises against the full-scale
// voltage and truncates to a count. The fraction is clamped to [0, 1];
// NaN is treated as zero.
func (d DutyConverter) Convert(volts float64) (DutyCycle, ClampFlags) {
	scaled := volts / d.Gain
	normalized := scaled / d.FullScale

	var flags ClampFlags
	switch {
	case math.IsNaN(normalized):
		normalized = 0
		flags |= ClampDutyLow
	case normalized < 0:
		flags |= ClampDutyLow
	case normalized > 1:
		flags |= ClampDutyHigh
	}
	normalized = Clamp(normalized, 0, 1)

	return DutyCycle(uint16(uint32(normalized * float64(d.MaxCount)))), flags
}

// Percent returns duty as hundredths of a percent of maxCount, the integer
// form used by the diagnostic report. Values above maxCount exceed 10000.
func (d DutyCycle) Percent(maxCount uint16) uint32 {
	if maxCount == 0 {
		return 0
	}
	return uint32(d) * 10000 / uint32(maxCount)
}

// ScaleDuty maps a duty out of maxCount onto a PWM peripheral whose
// counter tops out at top. Duties at or above maxCount saturate to top.
func ScaleDuty(duty, maxCount, top uint32) uint32 {
	if maxCount == 0 || duty >= maxCount {
		return top
	}
	return uint32(uint64(duty) * uint64(top) / uint64(maxCount))
}
