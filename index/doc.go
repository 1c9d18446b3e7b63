// Package index defines a minimal abstraction for 2D point indexes that
// support insertion, exact membership, rectangle range queries and nearest
// neighbour queries. Implementations in this module include a k-d tree and a
// brute-force baseline; this package also provides a read/write locked
// wrapper and parallel batch queries over any Index.
package index
