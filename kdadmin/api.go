package kdadmin

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"

	"modernc.org/sqlite/vtab"

	"github.com/viant/sqlite-kd/kd"
)

// Module provides administrative operations via a virtual table.
// Usage:
//
//	CREATE VIRTUAL TABLE kd_admin USING kd_admin(op);
//	SELECT op FROM kd_admin WHERE op MATCH 'main._kd_places'; -- drop cached indexes
//
// Returns a single row with op='reindexed:<count>' where count is the number
// of shadow rows the next query will index.
type Module struct{ db atomic.Pointer[sql.DB] }

type Table struct{ db *sql.DB }

type Cursor struct {
	table *Table
	rows  []string
	pos   int
}

var module = &Module{}

func Register(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("kd_admin: db is nil")
	}
	module.db.Store(db)
	if err := vtab.RegisterModule(db, "kd_admin", module); err != nil {
		if !strings.Contains(err.Error(), "already registered") {
			return err
		}
	}
	return nil
}

func (m *Module) Create(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.Connect(ctx, args)
}

func (m *Module) Connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("kd_admin: need at least 3 args")
	}
	// Single TEXT column `op` reporting results.
	if err := ctx.Declare(fmt.Sprintf("CREATE TABLE %s(op)", args[2])); err != nil {
		return nil, err
	}
	return &Table{db: m.db.Load()}, nil
}

func (t *Table) BestIndex(info *vtab.IndexInfo) error {
	for i := range info.Constraints {
		c := &info.Constraints[i]
		if !c.Usable {
			continue
		}
		if c.Column == 0 && c.Op == vtab.OpMATCH {
			c.ArgIndex = 0
			c.Omit = true
			info.IdxNum = 1
			info.EstimatedRows = 1
			break
		}
	}
	return nil
}

func (t *Table) Open() (vtab.Cursor, error) { return &Cursor{table: t}, nil }
func (t *Table) Disconnect() error          { return nil }
func (t *Table) Destroy() error             { return nil }

func (c *Cursor) Filter(idxNum int, idxStr string, vals []vtab.Value) error {
	c.rows = nil
	c.pos = 0
	if idxNum != 1 || len(vals) == 0 || vals[0] == nil {
		return nil
	}
	shadow, ok := vals[0].(string)
	if !ok {
		return fmt.Errorf("kd_admin: MATCH expects shadow table name as TEXT")
	}
	n, err := reindex(context.Background(), c.table.db, shadow)
	if err != nil {
		return err
	}
	c.rows = []string{fmt.Sprintf("reindexed:%d", n)}
	return nil
}

func (c *Cursor) Next() error {
	if c.pos < len(c.rows) {
		c.pos++
	}
	return nil
}
func (c *Cursor) Eof() bool { return c.pos >= len(c.rows) }
func (c *Cursor) Column(col int) (vtab.Value, error) {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return nil, fmt.Errorf("kd_admin: Column out of range")
	}
	if col == 0 {
		return c.rows[c.pos], nil
	}
	return nil, nil
}
func (c *Cursor) Rowid() (int64, error) { return int64(c.pos + 1), nil }
func (c *Cursor) Close() error          { c.rows = nil; c.pos = 0; return nil }

// reindex drops every cached index of a kd shadow table and returns the
// number of shadow rows. Indexes are rebuilt lazily by the next kd query.
func reindex(ctx context.Context, db *sql.DB, shadow string) (int, error) {
	if db == nil {
		return 0, fmt.Errorf("kd_admin: db is nil")
	}
	if err := validateShadow(shadow); err != nil {
		return 0, err
	}
	var n int
	if err := db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", shadow)).Scan(&n); err != nil {
		return 0, err
	}
	schema := "main"
	if i := strings.LastIndex(shadow, "."); i >= 0 {
		schema = shadow[:i]
	}
	path, err := kd.DatabasePath(ctx, db, schema)
	if err != nil {
		return 0, err
	}
	kd.InvalidateCacheAt(path, shadow, "")
	return n, nil
}

// validateShadow accepts [schema.]_kd_<table> names made of identifier characters.
func validateShadow(shadow string) error {
	name := shadow
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	if !strings.HasPrefix(name, kd.ShadowPrefix) || len(name) == len(kd.ShadowPrefix) {
		return fmt.Errorf("kd_admin: %q is not a kd shadow table", shadow)
	}
	for _, r := range shadow {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.':
		default:
			return fmt.Errorf("kd_admin: invalid shadow table name %q", shadow)
		}
	}
	return nil
}
