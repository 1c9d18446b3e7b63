// Package bruteforce provides a baseline point index that answers range and
// nearest queries by scanning an ordered set of points (a B-tree in X-order).
// It shares the index.Index contract with the k-d tree and serves as the
// reference in correctness cross-checks.
package bruteforce
