package core

import "math"

// Element is one reflecting unit of the array.
type Element struct {
	Index    int
	Position Point
}

// Elements lays the array out along the x axis, one unit cell apart,
// starting at the origin.
func (c Config) Elements() []Element {
	elems := make([]Element, c.ElementCount)
	for i := range elems {
		elems[i] = Element{
			Index:    i,
			Position: Point{X: float64(i) * c.UnitCellSize, Y: 0},
		}
	}
	return elems
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// PathLengths returns the transmitter-to-element and element-to-receiver
// distances for e.
func (c Config) PathLengths(e Element) (dt, dr float64) {
	return Distance(c.Transmitter, e.Position), Distance(e.Position, c.Receiver)
}
