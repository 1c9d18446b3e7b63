package geom

// Axis is the splitting dimension of a k-d tree level.
type Axis uint8

const (
	// AxisX splits on x; the root level uses it.
	AxisX Axis = iota
	// AxisY splits on y.
	AxisY
)

// Next returns the axis used one level deeper.
func (a Axis) Next() Axis {
	if a == AxisX {
		return AxisY
	}
	return AxisX
}

// Compare applies the axis order: X-order for AxisX, Y-order for AxisY.
func (a Axis) Compare(p, q Point) int {
	if a == AxisX {
		return p.CompareX(q)
	}
	return p.CompareY(q)
}

// Coord returns p's coordinate on the axis.
func (a Axis) Coord(p Point) float64 {
	if a == AxisX {
		return p.X
	}
	return p.Y
}

func (a Axis) String() string {
	if a == AxisX {
		return "x"
	}
	return "y"
}
