package geom

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrInvalidRect reports a rectangle with a non-finite bound or min > max.
var ErrInvalidRect = errors.New("geom: invalid rectangle")

// UnitSquare is the default k-d tree domain [0,0]-[1,1].
var UnitSquare = Rect{XMin: 0, YMin: 0, XMax: 1, YMax: 1}

// Rect is an immutable closed axis-aligned rectangle.
type Rect struct {
	XMin, YMin, XMax, YMax float64
}

// NewRect returns a validated rectangle.
func NewRect(xmin, ymin, xmax, ymax float64) (Rect, error) {
	r := Rect{XMin: xmin, YMin: ymin, XMax: xmax, YMax: ymax}
	if err := r.Validate(); err != nil {
		return Rect{}, err
	}
	return r, nil
}

// Validate checks that all bounds are finite and ordered.
func (r Rect) Validate() error {
	for _, v := range [...]float64{r.XMin, r.YMin, r.XMax, r.YMax} {
		if !isFinite(v) {
			return fmt.Errorf("%w: non-finite bound in %v", ErrInvalidRect, r)
		}
	}
	if r.XMin > r.XMax || r.YMin > r.YMax {
		return fmt.Errorf("%w: min exceeds max in %v", ErrInvalidRect, r)
	}
	return nil
}

// Width returns XMax - XMin.
func (r Rect) Width() float64 { return r.XMax - r.XMin }

// Height returns YMax - YMin.
func (r Rect) Height() float64 { return r.YMax - r.YMin }

// Contains reports whether p lies in r, boundary included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.XMin && p.X <= r.XMax && p.Y >= r.YMin && p.Y <= r.YMax
}

// Intersects reports whether r and o share at least one point; touching edges count.
func (r Rect) Intersects(o Rect) bool {
	return r.XMax >= o.XMin && r.YMax >= o.YMin && o.XMax >= r.XMin && o.YMax >= r.YMin
}

// DistanceSquaredTo returns the squared distance from p to the nearest point of r.
func (r Rect) DistanceSquaredTo(p Point) float64 {
	var dx, dy float64
	switch {
	case p.X < r.XMin:
		dx = p.X - r.XMin
	case p.X > r.XMax:
		dx = p.X - r.XMax
	}
	switch {
	case p.Y < r.YMin:
		dy = p.Y - r.YMin
	case p.Y > r.YMax:
		dy = p.Y - r.YMax
	}
	return dx*dx + dy*dy
}

// DistanceTo returns the Euclidean distance from p to r, 0 if p is inside.
func (r Rect) DistanceTo(p Point) float64 { return math.Sqrt(r.DistanceSquaredTo(p)) }

// SliceLess returns the part of r on the "less" side of c along axis:
// the axis max is replaced by c.
func (r Rect) SliceLess(axis Axis, c float64) Rect {
	if axis == AxisX {
		r.XMax = c
	} else {
		r.YMax = c
	}
	return r
}

// SliceGreater returns the part of r on the "greater" side of c along axis:
// the axis min is replaced by c.
func (r Rect) SliceGreater(axis Axis, c float64) Rect {
	if axis == AxisX {
		r.XMin = c
	} else {
		r.YMin = c
	}
	return r
}

// Extend returns the smallest rectangle covering r and p.
func (r Rect) Extend(p Point) Rect {
	return Rect{
		XMin: math.Min(r.XMin, p.X),
		YMin: math.Min(r.YMin, p.Y),
		XMax: math.Max(r.XMax, p.X),
		YMax: math.Max(r.YMax, p.Y),
	}
}

func (r Rect) String() string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return "[" + f(r.XMin) + ", " + f(r.YMin) + "]-[" + f(r.XMax) + ", " + f(r.YMax) + "]"
}
