package kdtree

import (
	"log/slog"

	"github.com/viant/sqlite-kd/geom"
)

// Option configures an Index.
type Option func(*Index)

// WithDomain sets the root region. Points outside it cannot be inserted.
// Defaults to geom.UnitSquare.
func WithDomain(domain geom.Rect) Option {
	return func(i *Index) { i.domain = domain }
}

// WithLogger sets the structured logger used for debug records.
// Defaults to a logger that discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Index) {
		if logger != nil {
			i.logger = logger
		}
	}
}
