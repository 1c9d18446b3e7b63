package kd

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	sqlite "modernc.org/sqlite"
	"modernc.org/sqlite/vtab"

	"github.com/viant/sqlite-kd/geom"
	"github.com/viant/sqlite-kd/index/bruteforce"
	"github.com/viant/sqlite-kd/index/kdtree"
)

// Module implements vtab.Module for the kd virtual table. The driver keeps
// one module per name for the whole process, so the module reads shadow
// tables through the handle passed to the latest Register call.
type Module struct {
	db atomic.Pointer[sql.DB]
}

var module = &Module{}

// Table represents a single kd virtual table instance.
type Table struct {
	db        *sql.DB
	dbName    string
	tableName string
	shadow    string // qualified shadow table name (e.g. "main._kd_places")
	opts      tableOptions

	shadowMu    sync.Mutex
	shadowReady bool

	dbPathOnce sync.Once
	dbPath     string
}

// Declared column order.
const (
	colDataset = iota
	colX
	colY
	colLabel
	colNear
	colDistance
)

var registerInvalidateOnce sync.Once

// Register registers the kd virtual table module and the kd_invalidate and
// kd_invalidate_at scalar functions. Call it before the first connection of db is opened;
// tables connected afterwards query their shadow tables through db.
func Register(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("kd: db is nil")
	}
	module.db.Store(db)
	if err := vtab.RegisterModule(db, "kd", module); err != nil {
		if !strings.Contains(err.Error(), "already registered") {
			return err
		}
	}
	// kd_invalidate_at(path, shadow, dataset) is called by shadow triggers.
	registerInvalidateOnce.Do(func() {
		_ = sqlite.RegisterDeterministicScalarFunction("kd_invalidate", 2, invalidateFunc)
		_ = sqlite.RegisterDeterministicScalarFunction("kd_invalidate_at", 3, invalidateAtFunc)
	})
	return nil
}

// invalidateFunc implements SQL scalar kd_invalidate(shadow TEXT, dataset TEXT) → INT.
func invalidateFunc(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 2 {
		return int64(0), nil
	}
	shadow, err := asString(args[0])
	if err != nil {
		return int64(0), nil
	}
	dataset, err := asString(args[1])
	if err != nil {
		dataset = ""
	}
	n := InvalidateCache(shadow, dataset)
	moduleLogger().Debug("kd invalidate", "shadow", shadow, "dataset", dataset, "entries", n)
	return int64(n), nil
}

// invalidateAtFunc implements SQL scalar kd_invalidate_at(path TEXT, shadow TEXT, dataset TEXT) → INT.
// Only cache entries of the database file at path are cleared.
func invalidateAtFunc(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 3 {
		return int64(0), nil
	}
	path, err := asString(args[0])
	if err != nil {
		return int64(0), nil
	}
	shadow, err := asString(args[1])
	if err != nil {
		return int64(0), nil
	}
	dataset, err := asString(args[2])
	if err != nil {
		dataset = ""
	}
	n := InvalidateCacheAt(path, shadow, dataset)
	moduleLogger().Debug("kd invalidate", "path", path, "shadow", shadow, "dataset", dataset, "entries", n)
	return int64(n), nil
}

// Create initializes a kd table instance. The shadow table is created on
// first use to avoid cross-connection DDL while SQLite runs CREATE VIRTUAL TABLE.
func (m *Module) Create(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.connect(ctx, "CREATE", args)
}

// Connect attaches to an existing kd table instance.
func (m *Module) Connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.connect(ctx, "CONNECT", args)
}

func (m *Module) connect(ctx vtab.Context, op string, args []string) (vtab.Table, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("kd: %s expects at least 3 args, got %d", op, len(args))
	}
	if err := ctx.EnableConstraintSupport(); err != nil {
		return nil, fmt.Errorf("kd: EnableConstraintSupport failed: %w", err)
	}
	opts, err := parseTableOptions(args[3:])
	if err != nil {
		return nil, err
	}
	if err := ctx.Declare(fmt.Sprintf("CREATE TABLE %s(dataset_id TEXT, x REAL, y REAL, label TEXT, near HIDDEN, distance REAL HIDDEN)", args[2])); err != nil {
		return nil, err
	}
	t := &Table{db: m.db.Load(), dbName: args[1], tableName: args[2], opts: opts}
	t.shadow = ShadowTableName(t.dbName, t.tableName)
	return t, nil
}

// Open allocates a new cursor.
func (t *Table) Open() (vtab.Cursor, error) { return &Cursor{table: t}, nil }

// Disconnect cleans up per-connection resources.
func (t *Table) Disconnect() error { return nil }

// Destroy leaves the shadow table in place and drops cached indexes.
func (t *Table) Destroy() error {
	InvalidateCache(t.shadow, "")
	return nil
}

func (t *Table) ensureShadow(ctx context.Context) error {
	t.shadowMu.Lock()
	defer t.shadowMu.Unlock()
	if t.shadowReady {
		return nil
	}
	if err := EnsureShadow(ctx, t.db, t.dbName, t.tableName); err != nil {
		return err
	}
	t.shadowReady = true
	return nil
}

func (t *Table) cachedDbPath(ctx context.Context) string {
	t.dbPathOnce.Do(func() {
		path, err := resolveDbPath(ctx, t.db, t.dbName)
		if err != nil {
			path = t.dbName
			if path == "" {
				path = "main"
			}
		}
		t.dbPath = path
	})
	return t.dbPath
}

// ensureSnapshot returns the cached index of dataset, building it from the
// shadow table when missing. Concurrent callers share one build.
func (t *Table) ensureSnapshot(ctx context.Context, dataset string) (*snapshot, error) {
	if err := t.ensureShadow(ctx); err != nil {
		return nil, err
	}
	entry := getCacheEntry(cacheKey{dbPath: t.cachedDbPath(ctx), table: t.tableName, dataset: dataset})
	if snap := entry.get(); snap != nil {
		return snap, nil
	}
	snap, gen, ok := entry.startBuild()
	if !ok {
		return snap, nil
	}
	built, err := t.buildSnapshot(ctx, dataset)
	entry.finishBuild(gen, built)
	if err != nil {
		return nil, err
	}
	return built, nil
}

func (t *Table) buildSnapshot(ctx context.Context, dataset string) (*snapshot, error) {
	q := fmt.Sprintf("SELECT rowid, x, y, label FROM %s WHERE dataset_id = ? ORDER BY rowid", t.shadow)
	rows, err := t.db.QueryContext(ctx, q, dataset)
	if err != nil {
		return nil, fmt.Errorf("kd: load %s: %w", t.shadow, err)
	}
	defer rows.Close()

	snap := &snapshot{domain: t.opts.domain, rows: make(map[geom.Point]shadowRow)}
	var points []geom.Point
	for rows.Next() {
		var (
			rowid int64
			x, y  float64
			label sql.NullString
		)
		if err := rows.Scan(&rowid, &x, &y, &label); err != nil {
			return nil, err
		}
		p := geom.Pt(x, y)
		if err := p.Validate(); err != nil {
			moduleLogger().Warn("kd skipping shadow row", "shadow", t.shadow, "dataset", dataset, "rowid", rowid, "error", err)
			continue
		}
		if _, ok := snap.rows[p]; ok {
			continue
		}
		snap.rows[p] = shadowRow{rowid: rowid, label: label}
		snap.domain = snap.domain.Extend(p)
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	snap.kind = resolveIndexKind(t.opts.kind, len(points))
	switch snap.kind {
	case indexKDTree:
		tree, err := kdtree.New(kdtree.WithDomain(snap.domain), kdtree.WithLogger(moduleLogger()))
		if err != nil {
			return nil, fmt.Errorf("kd: %w", err)
		}
		snap.idx = tree
	default:
		snap.idx = bruteforce.New()
	}
	for _, p := range points {
		if err := snap.idx.Insert(p); err != nil {
			return nil, fmt.Errorf("kd: index %v: %w", p, err)
		}
	}
	moduleLogger().Info("kd index built", "shadow", t.shadow, "dataset", dataset, "points", len(points), "kind", snap.kind)
	return snap, nil
}

// Ensure kd types satisfy the vtab interfaces.
var (
	_ vtab.Module = (*Module)(nil)
	_ vtab.Table  = (*Table)(nil)
)
