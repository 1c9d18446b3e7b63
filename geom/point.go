package geom

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrInvalidPoint reports a point with a NaN or infinite coordinate.
var ErrInvalidPoint = errors.New("geom: invalid point")

// Point is an immutable (x, y) pair.
type Point struct {
	X float64
	Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Validate returns ErrInvalidPoint unless both coordinates are finite.
func (p Point) Validate() error {
	if !isFinite(p.X) || !isFinite(p.Y) {
		return fmt.Errorf("%w: %v", ErrInvalidPoint, p)
	}
	return nil
}

// Equal reports exact coordinate equality.
func (p Point) Equal(q Point) bool { return p.X == q.X && p.Y == q.Y }

// CompareX orders by x, breaking ties by y. It returns -1, 0 or +1.
func (p Point) CompareX(q Point) int {
	if c := compare(p.X, q.X); c != 0 {
		return c
	}
	return compare(p.Y, q.Y)
}

// CompareY orders by y, breaking ties by x. It returns -1, 0 or +1.
func (p Point) CompareY(q Point) int {
	if c := compare(p.Y, q.Y); c != 0 {
		return c
	}
	return compare(p.X, q.X)
}

// DistanceSquaredTo returns the squared Euclidean distance between p and q.
func (p Point) DistanceSquaredTo(q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return dx*dx + dy*dy
}

// DistanceTo returns the Euclidean distance between p and q.
func (p Point) DistanceTo(q Point) float64 { return math.Sqrt(p.DistanceSquaredTo(q)) }

func (p Point) String() string {
	return "(" + strconv.FormatFloat(p.X, 'g', -1, 64) + ", " + strconv.FormatFloat(p.Y, 'g', -1, 64) + ")"
}

func compare(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
