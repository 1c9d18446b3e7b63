// Package geom defines the immutable 2D value types used by the spatial
// indexes in this module. It includes:
//   - Point with exact equality, X-order and Y-order comparisons
//   - Rect (closed, axis-aligned) with containment, intersection and distance
//   - Axis, the splitting dimension threaded through k-d tree traversals
//   - Parsing helpers (CSV, JSON, WKT) and github.com/paulmach/orb conversions
package geom
