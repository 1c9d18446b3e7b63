package geom

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// PointFromOrb converts an orb point.
func PointFromOrb(p orb.Point) Point { return Point{X: p.X(), Y: p.Y()} }

// Orb returns p as an orb point.
func (p Point) Orb() orb.Point { return orb.Point{p.X, p.Y} }

// WKT returns p in well-known text, e.g. "POINT(0.5 0.4)".
func (p Point) WKT() string { return wkt.MarshalString(p.Orb()) }

// RectFromBound converts an orb bound.
func RectFromBound(b orb.Bound) Rect {
	return Rect{XMin: b.Min.X(), YMin: b.Min.Y(), XMax: b.Max.X(), YMax: b.Max.Y()}
}

// Bound returns r as an orb bound.
func (r Rect) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{r.XMin, r.YMin}, Max: orb.Point{r.XMax, r.YMax}}
}
