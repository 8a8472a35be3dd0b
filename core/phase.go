package core

import "math"

const twoPi = 2 * math.Pi

// WrapPhase maps an unwrapped phase in radians into (-π, π].
//
// The wrap is ((total + π) mod 2π) - π using the signed floating remainder.
// Results at or below -π are shifted up by one turn.
func WrapPhase(total float64) float64 {
	w := math.Mod(total+math.Pi, twoPi) - math.Pi
	if w <= -math.Pi {
		w += twoPi
	}
	return w
}

// RadToDeg converts radians to degrees.
func RadToDeg(r float64) float64 {
	return r * 180 / math.Pi
}

// PhaseShift returns the wrapped free-space phase of the path
// transmitter -> e -> receiver.
func (c Config) PhaseShift(e Element) float64 {
	dt, dr := c.PathLengths(e)
	return WrapPhase(twoPi * (dt + dr) / c.Wavelength())
}

// ComputePhaseShifts returns one wrapped phase per element, in index order.
func (c Config) ComputePhaseShifts() []float64 {
	elems := c.Elements()
	phases := make([]float64, len(elems))
	for i, e := range elems {
		phases[i] = c.PhaseShift(e)
	}
	return phases
}
