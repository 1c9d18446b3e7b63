package engine

import (
	"database/sql"
	"database/sql/driver"
	"fmt"

	sqlite "modernc.org/sqlite"

	"github.com/viant/sqlite-kd/geom"
)

// RegisterGeometryFunctions registers kd_distance and kd_contains with the
// driver so they are available on connections opened after this call.
// Existing open connections will not see new functions.
//
//	kd_distance(x1, y1, x2, y2)               Euclidean distance
//	kd_contains(xmin, ymin, xmax, ymax, x, y) 1 when the closed rectangle holds (x, y)
//
// Any NULL argument yields NULL.
func RegisterGeometryFunctions(_ *sql.DB) error {
	// The driver rejects duplicate registrations; repeated calls are harmless.
	_ = sqlite.RegisterDeterministicScalarFunction("kd_distance", 4, kdDistanceImpl)
	_ = sqlite.RegisterDeterministicScalarFunction("kd_contains", 6, kdContainsImpl)
	return nil
}

// asFloats converts SQL arguments to float64. ok is false when any argument is NULL.
func asFloats(name string, args []driver.Value) (values []float64, ok bool, err error) {
	values = make([]float64, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case nil:
			return nil, false, nil
		case int64:
			values[i] = float64(v)
		case float64:
			values[i] = v
		default:
			return nil, false, fmt.Errorf("%s: unsupported argument %d type %T; want REAL or INTEGER", name, i+1, arg)
		}
	}
	return values, true, nil
}

func kdDistanceImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 4 {
		return nil, fmt.Errorf("kd_distance: expected 4 arguments, got %d", len(args))
	}
	v, ok, err := asFloats("kd_distance", args)
	if err != nil || !ok {
		return nil, err
	}
	a, b := geom.Pt(v[0], v[1]), geom.Pt(v[2], v[3])
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("kd_distance: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("kd_distance: %w", err)
	}
	return a.DistanceTo(b), nil
}

func kdContainsImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 6 {
		return nil, fmt.Errorf("kd_contains: expected 6 arguments, got %d", len(args))
	}
	v, ok, err := asFloats("kd_contains", args)
	if err != nil || !ok {
		return nil, err
	}
	r, err := geom.NewRect(v[0], v[1], v[2], v[3])
	if err != nil {
		return nil, fmt.Errorf("kd_contains: %w", err)
	}
	p := geom.Pt(v[4], v[5])
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("kd_contains: %w", err)
	}
	if r.Contains(p) {
		return int64(1), nil
	}
	return int64(0), nil
}
