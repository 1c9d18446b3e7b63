package index

import "github.com/viant/sqlite-kd/geom"

// Index defines a 2D point index. The k-d tree and the brute-force baseline
// both implement it, so callers and tests can swap one for the other.
type Index interface {
	// IsEmpty reports whether no point is stored.
	IsEmpty() bool

	// Size returns the number of distinct points stored.
	Size() int

	// Insert adds p. Inserting a point that is already stored is a no-op.
	// Invalid points are rejected with ErrInvalidArgument before any change.
	Insert(p geom.Point) error

	// Contains reports whether a point with p's exact coordinates is stored.
	Contains(p geom.Point) (bool, error)

	// Range returns all stored points inside r, boundary included, in no
	// particular order.
	Range(r geom.Rect) ([]geom.Point, error)

	// Nearest returns the stored point closest to p by Euclidean distance.
	// ok is false when the index is empty.
	Nearest(p geom.Point) (nearest geom.Point, ok bool, err error)
}
