package kdtree

import "github.com/viant/sqlite-kd/geom"

// Split describes one node for presentation: its point, its region, the
// axis it splits on and its depth (root is 0).
type Split struct {
	Point geom.Point
	Rect  geom.Rect
	Axis  geom.Axis
	Depth int
}

// Walk visits every node in pre-order, left subtree before right, until fn
// returns false. It uses an explicit stack so skewed trees cannot exhaust
// the goroutine stack.
func (t *Tree) Walk(fn func(Split) bool) {
	if t.root == nil {
		return
	}
	type frame struct {
		node  *Node
		axis  geom.Axis
		depth int
	}
	stack := []frame{{node: t.root, axis: geom.AxisX}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(Split{Point: f.node.point, Rect: f.node.rect, Axis: f.axis, Depth: f.depth}) {
			return
		}
		next := f.axis.Next()
		if f.node.right != nil {
			stack = append(stack, frame{node: f.node.right, axis: next, depth: f.depth + 1})
		}
		if f.node.left != nil {
			stack = append(stack, frame{node: f.node.left, axis: next, depth: f.depth + 1})
		}
	}
}

// Depth returns the number of levels, 0 for an empty tree.
func (t *Tree) Depth() int {
	depth := 0
	t.Walk(func(s Split) bool {
		if s.Depth+1 > depth {
			depth = s.Depth + 1
		}
		return true
	})
	return depth
}
