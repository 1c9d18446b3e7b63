package geom

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb/encoding/wkt"
)

// ParsePoint decodes a point from "x,y", a JSON array "[x,y]" or WKT "POINT(x y)".
func ParsePoint(raw string) (Point, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Point{}, fmt.Errorf("%w: empty string", ErrInvalidPoint)
	}
	if len(s) >= 5 && strings.EqualFold(s[:5], "point") {
		op, err := wkt.UnmarshalPoint(s)
		if err != nil {
			return Point{}, fmt.Errorf("%w: %q: %v", ErrInvalidPoint, raw, err)
		}
		p := PointFromOrb(op)
		return p, p.Validate()
	}
	vals, err := parseFloats(s, 2)
	if err != nil {
		return Point{}, fmt.Errorf("%w: %v", ErrInvalidPoint, err)
	}
	p := Point{X: vals[0], Y: vals[1]}
	return p, p.Validate()
}

// ParseRect decodes a rectangle from "xmin,ymin,xmax,ymax" or the equivalent JSON array.
func ParseRect(raw string) (Rect, error) {
	vals, err := parseFloats(strings.TrimSpace(raw), 4)
	if err != nil {
		return Rect{}, fmt.Errorf("%w: %v", ErrInvalidRect, err)
	}
	return NewRect(vals[0], vals[1], vals[2], vals[3])
}

func parseFloats(s string, n int) ([]float64, error) {
	if strings.HasPrefix(s, "[") {
		var vals []float64
		if err := json.Unmarshal([]byte(s), &vals); err != nil {
			return nil, fmt.Errorf("invalid JSON list %q: %w", s, err)
		}
		if len(vals) != n {
			return nil, fmt.Errorf("expected %d values, got %d", n, len(vals))
		}
		return vals, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma separated values, got %d", n, len(parts))
	}
	vals := make([]float64, n)
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float %q: %w", part, err)
		}
		vals[i] = f
	}
	return vals, nil
}
