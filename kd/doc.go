// Package kd implements a SQLite virtual table over two-dimensional points
// with range and nearest-neighbour pushdown. Each virtual table owns a shadow
// table holding (dataset_id, x, y, label) rows; spatial indexes are built
// lazily per dataset from the shadow rows and kept in a process-wide cache
// that triggers on the shadow table invalidate on every write.
//
// Usage:
//
//	CREATE VIRTUAL TABLE places USING kd(index=auto, domain='0,0,1,1');
//	SELECT x, y, label FROM places WHERE dataset_id = 'cafes' AND x >= 0.1 AND x <= 0.6 AND y BETWEEN 0 AND 0.6;
//	SELECT x, y, label, distance FROM places WHERE dataset_id = 'cafes' AND near MATCH 'POINT(0.55 0.4)';
//
// Features:
//   - range queries from closed or strict bounds on x and y
//   - nearest neighbour through MATCH on the hidden near column
//   - auto-created shadow tables and invalidation triggers
//   - k-d tree or brute-force index per table, chosen by the index option
package kd
