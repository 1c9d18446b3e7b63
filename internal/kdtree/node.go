package kdtree

import "github.com/viant/sqlite-kd/geom"

// Node stores one point and the region its subtree is responsible for.
// Both are fixed when the node is created; only the child slots are
// filled in later.
type Node struct {
	point geom.Point
	rect  geom.Rect
	left  *Node // points less than point under the node's axis order
	right *Node // points greater than or equal to point
}

func newNode(point geom.Point, rect geom.Rect) *Node {
	return &Node{point: point, rect: rect}
}

// Point returns the stored point.
func (n *Node) Point() geom.Point { return n.point }

// Rect returns the node's region.
func (n *Node) Rect() geom.Rect { return n.rect }

// childRect slices n's region at n's coordinate on axis, keeping the
// less side or the greater side.
func (n *Node) childRect(axis geom.Axis, less bool) geom.Rect {
	c := axis.Coord(n.point)
	if less {
		return n.rect.SliceLess(axis, c)
	}
	return n.rect.SliceGreater(axis, c)
}
