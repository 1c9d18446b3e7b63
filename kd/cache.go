package kd

import (
	"database/sql"
	"sync"

	"github.com/viant/sqlite-kd/geom"
	"github.com/viant/sqlite-kd/index"
)

// shadowRow is the non-spatial part of a shadow row.
type shadowRow struct {
	rowid int64
	label sql.NullString
}

// snapshot is an index built from one dataset of a shadow table together
// with the rows it was built from. Snapshots are never mutated after build.
type snapshot struct {
	idx    index.Index
	kind   string
	domain geom.Rect
	rows   map[geom.Point]shadowRow
}

// cacheKey identifies one dataset of one kd table in one database file.
type cacheKey struct {
	dbPath  string
	table   string
	dataset string
}

// Global shared cache of snapshots keyed by db path/table/dataset for cross-connection reuse.
var sharedCache = struct {
	mu    sync.RWMutex
	byKey map[cacheKey]*cacheEntry
}{byKey: make(map[cacheKey]*cacheEntry)}

// cacheEntry coordinates a single build per key. gen advances on every
// invalidation so a build that raced with a shadow write is discarded.
type cacheEntry struct {
	mu       sync.Mutex
	snap     *snapshot
	building bool
	gen      uint64
	cond     *sync.Cond
}

func newCacheEntry() *cacheEntry {
	e := &cacheEntry{}
	e.cond = sync.NewCond(&e.mu)
	return e
}

func (e *cacheEntry) get() *snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap
}

// startBuild claims the build for the caller. When another goroutine is
// already building, it waits and returns that result with ok=false.
func (e *cacheEntry) startBuild() (snap *snapshot, gen uint64, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for e.building {
		e.cond.Wait()
	}
	if e.snap != nil {
		return e.snap, e.gen, false
	}
	e.building = true
	return nil, e.gen, true
}

// finishBuild publishes snap unless the entry was invalidated since gen.
func (e *cacheEntry) finishBuild(gen uint64, snap *snapshot) {
	e.mu.Lock()
	if snap != nil && e.gen == gen {
		e.snap = snap
	}
	e.building = false
	e.cond.Broadcast()
	e.mu.Unlock()
}

func (e *cacheEntry) invalidate() {
	e.mu.Lock()
	e.snap = nil
	e.gen++
	e.mu.Unlock()
}

func getCacheEntry(key cacheKey) *cacheEntry {
	sharedCache.mu.RLock()
	entry := sharedCache.byKey[key]
	sharedCache.mu.RUnlock()
	if entry != nil {
		return entry
	}
	sharedCache.mu.Lock()
	defer sharedCache.mu.Unlock()
	if entry = sharedCache.byKey[key]; entry == nil {
		entry = newCacheEntry()
		sharedCache.byKey[key] = entry
	}
	return entry
}

// InvalidateCache clears cached indexes for a shadow table in every
// database of the process. An empty dataset clears every dataset of the
// table. It returns the number of cache entries cleared.
func InvalidateCache(shadow, dataset string) int {
	return invalidateMatching("", shadow, dataset)
}

// InvalidateCacheAt is InvalidateCache restricted to the database file at
// dbPath, as reported by DatabasePath.
func InvalidateCacheAt(dbPath, shadow, dataset string) int {
	if dbPath == "" {
		return 0
	}
	return invalidateMatching(dbPath, shadow, dataset)
}

// invalidateMatching clears entries of tableName. Empty dbPath or dataset
// match any value.
func invalidateMatching(dbPath, shadow, dataset string) int {
	tableName := tableNameFromShadow(shadow)
	if tableName == "" {
		tableName = shadow
	}
	sharedCache.mu.RLock()
	defer sharedCache.mu.RUnlock()
	count := 0
	for k, entry := range sharedCache.byKey {
		if k.table != tableName {
			continue
		}
		if dbPath != "" && k.dbPath != dbPath {
			continue
		}
		if dataset != "" && k.dataset != dataset {
			continue
		}
		entry.invalidate()
		count++
	}
	return count
}
