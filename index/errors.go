package index

import (
	"errors"
	"fmt"

	"github.com/viant/sqlite-kd/geom"
)

// ErrInvalidArgument is the only error an Index operation returns. It is
// reported before any mutation when a point or rectangle is not usable.
var ErrInvalidArgument = errors.New("invalid argument")

// CheckPoint wraps p's validation error with ErrInvalidArgument.
func CheckPoint(p geom.Point) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return nil
}

// CheckRect wraps r's validation error with ErrInvalidArgument.
func CheckRect(r geom.Rect) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return nil
}
