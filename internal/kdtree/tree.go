package kdtree

import "github.com/viant/sqlite-kd/geom"

// Tree is a 2D k-d tree. Even depths split on x, odd depths on y; the split
// axis is never stored, it is threaded through each traversal from the root.
//
// Tree is not safe for concurrent mutation. Nodes are never modified after
// their child slots are filled, so readers need no locking while no Insert
// is in flight.
type Tree struct {
	root   *Node
	size   int
	domain geom.Rect
	trace  func(*Node) // called for every node a query enters; tests only
}

// New returns an empty tree whose root region is domain.
func New(domain geom.Rect) *Tree {
	return &Tree{domain: domain}
}

// Len returns the number of distinct points stored.
func (t *Tree) Len() int { return t.size }

// Domain returns the root region.
func (t *Tree) Domain() geom.Rect { return t.domain }

// Insert adds p and reports whether a node was created. Inserting a point
// already present is a no-op.
func (t *Tree) Insert(p geom.Point) bool {
	if t.root == nil {
		t.root = newNode(p, t.domain)
		t.size++
		return true
	}
	node, axis := t.root, geom.AxisX
	for {
		if node.point.Equal(p) {
			return false
		}
		less := axis.Compare(p, node.point) < 0
		slot := &node.right
		if less {
			slot = &node.left
		}
		if *slot == nil {
			*slot = newNode(p, node.childRect(axis, less))
			t.size++
			return true
		}
		node, axis = *slot, axis.Next()
	}
}

// Contains reports whether p is stored.
func (t *Tree) Contains(p geom.Point) bool {
	node, axis := t.root, geom.AxisX
	for node != nil {
		if node.point.Equal(p) {
			return true
		}
		if axis.Compare(p, node.point) < 0 {
			node = node.left
		} else {
			node = node.right
		}
		axis = axis.Next()
	}
	return false
}

// Range returns every stored point inside r, boundary included. A child is
// visited only when its region intersects r.
func (t *Tree) Range(r geom.Rect) []geom.Point {
	if t.root == nil {
		return nil
	}
	s := &rangeSearch{rect: r, trace: t.trace}
	s.visit(t.root)
	return s.out
}

type rangeSearch struct {
	rect  geom.Rect
	out   []geom.Point
	trace func(*Node)
}

func (s *rangeSearch) visit(n *Node) {
	if s.trace != nil {
		s.trace(n)
	}
	if s.rect.Contains(n.point) {
		s.out = append(s.out, n.point)
	}
	if n.left != nil && n.left.rect.Intersects(s.rect) {
		s.visit(n.left)
	}
	if n.right != nil && n.right.rect.Intersects(s.rect) {
		s.visit(n.right)
	}
}

// Nearest returns the stored point closest to q. Among equidistant points
// the first one reached by the search wins. ok is false on an empty tree.
func (t *Tree) Nearest(q geom.Point) (nearest geom.Point, ok bool) {
	if t.root == nil {
		return geom.Point{}, false
	}
	s := &nearestSearch{query: q, trace: t.trace}
	s.visit(t.root)
	return s.best, s.found
}

// nearestSearch holds the best candidate so far. The first node reached is
// always accepted so an overflowing (+Inf) distance still yields a stored point.
type nearestSearch struct {
	query geom.Point
	best  geom.Point
	dist  float64 // squared distance to best
	found bool
	trace func(*Node)
}

func (s *nearestSearch) visit(n *Node) {
	if s.found && n.rect.DistanceSquaredTo(s.query) >= s.dist {
		return
	}
	if s.trace != nil {
		s.trace(n)
	}
	if d := n.point.DistanceSquaredTo(s.query); !s.found || d < s.dist {
		s.best, s.dist, s.found = n.point, d, true
	}
	first, second := n.left, n.right
	switch {
	case first == nil:
		first, second = second, nil
	case second != nil && second.rect.DistanceSquaredTo(s.query) < first.rect.DistanceSquaredTo(s.query):
		first, second = second, first
	}
	if first != nil {
		s.visit(first)
	}
	if second != nil {
		s.visit(second)
	}
}
