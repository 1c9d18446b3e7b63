// Package engine opens SQLite databases through the pure-Go modernc.org/sqlite
// driver and registers the geometry scalar functions used alongside kd
// virtual tables. It keeps a thin surface so other packages share the same
// driver instance.
package engine
