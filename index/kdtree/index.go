package kdtree

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/viant/sqlite-kd/geom"
	"github.com/viant/sqlite-kd/index"
	tree "github.com/viant/sqlite-kd/internal/kdtree"
)

// Split describes one node of the tree for presentation layers.
type Split = tree.Split

// Index implements index.Index with a k-d tree.
type Index struct {
	domain geom.Rect
	logger *slog.Logger
	tree   *tree.Tree
}

// New returns an empty tree. It fails when the configured domain is not a
// valid rectangle.
func New(opts ...Option) (*Index, error) {
	i := &Index{
		domain: geom.UnitSquare,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(i)
	}
	if err := i.domain.Validate(); err != nil {
		return nil, fmt.Errorf("kdtree: domain: %w", err)
	}
	i.tree = tree.New(i.domain)
	return i, nil
}

// Domain returns the root region.
func (i *Index) Domain() geom.Rect { return i.domain }

// IsEmpty reports whether the tree holds no point.
func (i *Index) IsEmpty() bool { return i.tree.Len() == 0 }

// Size returns the number of distinct points.
func (i *Index) Size() int { return i.tree.Len() }

// Insert adds p. p must be finite and lie inside the domain.
func (i *Index) Insert(p geom.Point) error {
	if err := index.CheckPoint(p); err != nil {
		return err
	}
	if !i.domain.Contains(p) {
		return fmt.Errorf("kdtree: point %v outside domain %v: %w", p, i.domain, index.ErrInvalidArgument)
	}
	inserted := i.tree.Insert(p)
	i.debug("kdtree insert", "point", p, "inserted", inserted, "size", i.tree.Len())
	return nil
}

// Contains reports whether p is stored.
func (i *Index) Contains(p geom.Point) (bool, error) {
	if err := index.CheckPoint(p); err != nil {
		return false, err
	}
	return i.tree.Contains(p), nil
}

// Range returns the stored points inside r.
func (i *Index) Range(r geom.Rect) ([]geom.Point, error) {
	if err := index.CheckRect(r); err != nil {
		return nil, err
	}
	points := i.tree.Range(r)
	i.debug("kdtree range", "rect", r, "matches", len(points))
	return points, nil
}

// Nearest returns the stored point closest to q.
func (i *Index) Nearest(q geom.Point) (geom.Point, bool, error) {
	if err := index.CheckPoint(q); err != nil {
		return geom.Point{}, false, err
	}
	p, ok := i.tree.Nearest(q)
	i.debug("kdtree nearest", "query", q, "found", ok, "point", p)
	return p, ok, nil
}

// Walk calls fn for every node in pre-order until fn returns false.
func (i *Index) Walk(fn func(Split) bool) { i.tree.Walk(fn) }

// Splits returns every node's split in pre-order.
func (i *Index) Splits() []Split {
	out := make([]Split, 0, i.tree.Len())
	i.tree.Walk(func(s Split) bool {
		out = append(out, s)
		return true
	})
	return out
}

// Depth returns the height of the tree.
func (i *Index) Depth() int { return i.tree.Depth() }

func (i *Index) debug(msg string, args ...any) {
	if i.logger.Enabled(context.Background(), slog.LevelDebug) {
		i.logger.Debug(msg, args...)
	}
}

// Ensure Index satisfies the index.Index interface.
var _ index.Index = (*Index)(nil)
