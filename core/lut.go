package core

import (
	"errors"
	"math"
)

var ErrTableTooShort = errors.New("voltage table needs at least two samples")

// Sample is one measured point of the phase-to-voltage curve.
type Sample struct {
	PhaseDeg float64 `json:"phase_deg"`
	Volts    float64 `json:"volts"`
}

// measuredSamples is the bias voltage needed for each reflection phase of the
// unit cell, ordered by drive voltage. Phase is mostly ascending; the two
// samples at 17.7 V and 18.0 V are out of order.
var measuredSamples = []Sample{
	{-164.495, 0.0},
	{-162.145, 1.0},
	{-161.325, 2.0},
	{-158.655, 3.0},
	{-156.975, 4.0},
	{-154.065, 5.0},
	{-150.245, 6.0},
	{-142.805, 7.0},
	{-125.765, 8.0},
	{-124.565, 8.1},
	{-120.565, 8.2},
	{-109.715, 8.5},
	{-101.205, 8.7},
	{-79.685, 9.0},
	{-57.695, 9.2},
	{-3.545, 9.5},
	{45.845, 9.7},
	{56.615, 9.8},
	{84.665, 10.0},
	{98.195, 10.2},
	{110.655, 10.5},
	{118.285, 10.7},
	{128.635, 11.0},
	{131.875, 11.2},
	{137.355, 11.5},
	{138.935, 11.7},
	{144.305, 12.0},
	{146.465, 12.2},
	{148.915, 12.5},
	{149.915, 12.7},
	{151.905, 13.0},
	{152.625, 13.2},
	{154.125, 13.5},
	{154.745, 13.7},
	{156.195, 14.0},
	{156.485, 14.2},
	{157.605, 14.5},
	{158.015, 14.7},
	{158.845, 15.0},
	{159.525, 15.2},
	{159.735, 15.5},
	{161.055, 15.7},
	{161.245, 16.0},
	{162.065, 16.2},
	{162.395, 16.5},
	{162.655, 16.7},
	{163.345, 17.0},
	{163.515, 17.2},
	{164.025, 17.5},
	{164.275, 17.7},
	{164.105, 18.0},
	{164.325, 18.2},
	{164.375, 18.5},
	{164.495, 18.7},
}

// VoltageTable maps a reflection phase in degrees to a drive voltage by
// piecewise-linear interpolation. It is read-only after construction.
type VoltageTable struct {
	samples  []Sample
	minVolts float64
	maxVolts float64
}

// NewVoltageTable copies samples into a table. Sample order is preserved;
// lookups scan in that order.
func NewVoltageTable(samples []Sample) (*VoltageTable, error) {
	if len(samples) < 2 {
		return nil, ErrTableTooShort
	}
	t := &VoltageTable{
		samples:  append([]Sample(nil), samples...),
		minVolts: math.Inf(1),
		maxVolts: math.Inf(-1),
	}
	for i, s := range t.samples {
		if !isFinite(s.PhaseDeg) || !isFinite(s.Volts) {
			return nil, &ConfigError{Field: "voltage_table[" + itoa(i) + "]", Reason: "not finite"}
		}
		t.minVolts = math.Min(t.minVolts, s.Volts)
		t.maxVolts = math.Max(t.maxVolts, s.Volts)
	}
	return t, nil
}

// DefaultVoltageTable returns the measured table for the reference unit cell.
func DefaultVoltageTable() *VoltageTable {
	t, err := NewVoltageTable(measuredSamples)
	if err != nil {
		panic("measured voltage table invalid: " + err.Error())
	}
	return t
}

func (t *VoltageTable) Len() int { return len(t.samples) }

// Samples returns a copy of the table contents.
func (t *VoltageTable) Samples() []Sample {
	return append([]Sample(nil), t.samples...)
}

func (t *VoltageTable) MinVolts() float64 { return t.minVolts }
func (t *VoltageTable) MaxVolts() float64 { return t.maxVolts }

// Lookup interpolates the voltage for phaseDeg.
//
// Queries at or beyond either end return that end's voltage; only queries
// strictly beyond an end are flagged. Inside the table the first interval
// in scan order with x_i <= x <= x_(i+1) is used, so descending intervals
// never match. If nothing matches, NaN included, the last voltage is
// returned with ClampNoInterval.
func (t *VoltageTable) Lookup(phaseDeg float64) (float64, ClampFlags) {
	s := t.samples
	first, last := s[0], s[len(s)-1]

	if phaseDeg <= first.PhaseDeg {
		if phaseDeg < first.PhaseDeg {
			return first.Volts, ClampPhaseLow
		}
		return first.Volts, 0
	}
	if phaseDeg >= last.PhaseDeg {
		if phaseDeg > last.PhaseDeg {
			return last.Volts, ClampPhaseHigh
		}
		return last.Volts, 0
	}

	for i := 0; i < len(s)-1; i++ {
		lo, hi := s[i], s[i+1]
		if !(phaseDeg >= lo.PhaseDeg && phaseDeg <= hi.PhaseDeg) {
			continue
		}
		span := hi.PhaseDeg - lo.PhaseDeg
		if span == 0 {
			return lo.Volts, 0
		}
		frac := (phaseDeg - lo.PhaseDeg) / span
		return lo.Volts + frac*(hi.Volts-lo.Volts), 0
	}

	return last.Volts, ClampNoInterval
}

// EstimateVoltage looks up phaseDeg and limits the result to
// [0, MaxVolts()].
func (t *VoltageTable) EstimateVoltage(phaseDeg float64) (float64, ClampFlags) {
	v, flags := t.Lookup(phaseDeg)
	switch {
	case v < 0:
		flags |= ClampVoltageLow
	case v > t.maxVolts:
		flags |= ClampVoltageHigh
	}
	return Clamp(v, 0, t.maxVolts), flags
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
