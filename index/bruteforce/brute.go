package bruteforce

import (
	"math"

	"github.com/google/btree"

	"github.com/viant/sqlite-kd/geom"
	"github.com/viant/sqlite-kd/index"
)

const degree = 32

// Index is an ordered set of distinct points kept in X-order. It answers
// every query by scanning the set; there is no spatial subdivision.
// The zero value is ready to use.
type Index struct {
	points *btree.BTreeG[geom.Point]
}

// New returns an empty set.
func New() *Index { return &Index{} }

func (i *Index) set() *btree.BTreeG[geom.Point] {
	if i.points == nil {
		i.points = btree.NewG(degree, lessX)
	}
	return i.points
}

func lessX(a, b geom.Point) bool { return a.CompareX(b) < 0 }

// IsEmpty reports whether the set holds no point.
func (i *Index) IsEmpty() bool { return i.Size() == 0 }

// Size returns the number of distinct points.
func (i *Index) Size() int {
	if i.points == nil {
		return 0
	}
	return i.points.Len()
}

// Insert adds p unless an equal point is present.
func (i *Index) Insert(p geom.Point) error {
	if err := index.CheckPoint(p); err != nil {
		return err
	}
	i.set().ReplaceOrInsert(p)
	return nil
}

// Contains reports whether p is in the set.
func (i *Index) Contains(p geom.Point) (bool, error) {
	if err := index.CheckPoint(p); err != nil {
		return false, err
	}
	if i.points == nil {
		return false, nil
	}
	return i.points.Has(p), nil
}

// Range returns the points inside r in X-order. The scan starts at r.XMin
// and stops at the first point past r.XMax.
func (i *Index) Range(r geom.Rect) ([]geom.Point, error) {
	if err := index.CheckRect(r); err != nil {
		return nil, err
	}
	if i.points == nil {
		return nil, nil
	}
	var out []geom.Point
	i.points.AscendGreaterOrEqual(geom.Pt(r.XMin, math.Inf(-1)), func(p geom.Point) bool {
		if p.X > r.XMax {
			return false
		}
		if r.Contains(p) {
			out = append(out, p)
		}
		return true
	})
	return out, nil
}

// Nearest scans every point and returns the first one at minimum distance.
func (i *Index) Nearest(q geom.Point) (geom.Point, bool, error) {
	if err := index.CheckPoint(q); err != nil {
		return geom.Point{}, false, err
	}
	if i.Size() == 0 {
		return geom.Point{}, false, nil
	}
	var (
		best  geom.Point
		dist  float64
		found bool
	)
	// The first point is always taken so an overflowing (+Inf) distance still yields a stored point.
	i.points.Ascend(func(p geom.Point) bool {
		if d := p.DistanceSquaredTo(q); !found || d < dist {
			best, dist, found = p, d, true
		}
		return true
	})
	return best, found, nil
}

// Points returns every point in X-order.
func (i *Index) Points() []geom.Point {
	out := make([]geom.Point, 0, i.Size())
	if i.points != nil {
		i.points.Ascend(func(p geom.Point) bool {
			out = append(out, p)
			return true
		})
	}
	return out
}

// Ensure Index satisfies the index.Index interface.
var _ index.Index = (*Index)(nil)
