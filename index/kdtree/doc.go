// Package kdtree provides the k-d tree implementation of index.Index. Every
// node owns the rectangle of the region its subtree covers; range and
// nearest queries use those rectangles to skip whole subtrees. The tree is
// built by insertion and never rebalanced, so its shape depends on the
// insertion order.
package kdtree
