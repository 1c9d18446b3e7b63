package kd

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"modernc.org/sqlite/vtab"

	"github.com/viant/sqlite-kd/geom"
)

// Query plan bits carried in IdxNum. Arguments are assigned in bit order.
const (
	planDataset = 1 << iota
	planXMin
	planXMax
	planYMin
	planYMax
	planNear

	planRange = planXMin | planXMax | planYMin | planYMax
)

var planBits = []int{planDataset, planXMin, planXMax, planYMin, planYMax, planNear}

// BestIndex pushes down dataset_id equality, closed or strict bounds on x
// and y, and MATCH on the hidden near column. Strict bounds are widened to
// closed ones and left for SQLite to re-check.
func (t *Table) BestIndex(info *vtab.IndexInfo) error {
	chosen := map[int]*vtab.Constraint{}
	strict := map[int]bool{}
	pick := func(bit int, c *vtab.Constraint, isStrict bool) {
		if _, ok := chosen[bit]; ok {
			return
		}
		chosen[bit] = c
		strict[bit] = isStrict
	}
	for i := range info.Constraints {
		c := &info.Constraints[i]
		if !c.Usable {
			continue
		}
		switch c.Column {
		case colDataset:
			if c.Op == vtab.OpEQ {
				pick(planDataset, c, false)
			}
		case colX, colY:
			lower, upper := planXMin, planXMax
			if c.Column == colY {
				lower, upper = planYMin, planYMax
			}
			switch c.Op {
			case vtab.OpGE:
				pick(lower, c, false)
			case vtab.OpGT:
				pick(lower, c, true)
			case vtab.OpLE:
				pick(upper, c, false)
			case vtab.OpLT:
				pick(upper, c, true)
			case vtab.OpEQ:
				pick(lower, c, true)
			}
		case colNear:
			if c.Op == vtab.OpMATCH {
				pick(planNear, c, false)
			}
		}
	}

	if _, ok := chosen[planNear]; ok {
		if _, ok := chosen[planDataset]; !ok {
			return fmt.Errorf("kd: dataset_id constraint is required with MATCH")
		}
		// Bounds are re-checked by SQLite on the single nearest row.
		for _, bit := range []int{planXMin, planXMax, planYMin, planYMax} {
			delete(chosen, bit)
		}
	}
	if _, ok := chosen[planDataset]; !ok {
		chosen = map[int]*vtab.Constraint{}
	}

	plan, nextArg := 0, 0
	for _, bit := range planBits {
		c, ok := chosen[bit]
		if !ok {
			continue
		}
		plan |= bit
		c.ArgIndex = nextArg
		c.Omit = !strict[bit]
		nextArg++
	}
	info.IdxNum = int64(plan)

	switch {
	case plan&planNear != 0:
		info.EstimatedCost = 10
		info.EstimatedRows = 1
		info.IdxFlags = vtab.IndexScanUnique
	case plan&planRange != 0:
		info.EstimatedCost = 1000 - float64(nextArg)*100
		info.EstimatedRows = 100
	case plan&planDataset != 0:
		info.EstimatedCost = 10000
		info.EstimatedRows = 10000
	default:
		info.EstimatedCost = 1e6
		info.EstimatedRows = 1e6
	}
	return nil
}

type resultRow struct {
	rowid    int64
	dataset  string
	point    geom.Point
	label    sql.NullString
	distance sql.NullFloat64
}

// Cursor scans results from a kd table.
type Cursor struct {
	table *Table
	rows  []resultRow
	pos   int
}

// Filter computes the result set based on idxNum/vals.
func (c *Cursor) Filter(idxNum int, idxStr string, vals []vtab.Value) error {
	_ = idxStr
	c.rows = nil
	c.pos = 0
	if c.table == nil || c.table.db == nil {
		return nil
	}
	ctx := context.Background()
	if err := c.table.ensureShadow(ctx); err != nil {
		return err
	}

	args := map[int]vtab.Value{}
	for _, bit := range planBits {
		if idxNum&bit == 0 {
			continue
		}
		if len(vals) == 0 {
			return fmt.Errorf("kd: missing argument for query plan %d", idxNum)
		}
		args[bit] = vals[0]
		vals = vals[1:]
	}

	if idxNum&planDataset == 0 {
		return c.scan(ctx, nil)
	}
	if args[planDataset] == nil {
		return nil
	}
	dataset, err := asString(args[planDataset])
	if err != nil {
		return err
	}
	switch {
	case idxNum&planNear != 0:
		return c.nearest(ctx, dataset, args[planNear])
	case idxNum&planRange != 0:
		return c.rangeScan(ctx, dataset, args)
	default:
		return c.scan(ctx, &dataset)
	}
}

// scan lists shadow rows in rowid order, optionally for a single dataset.
func (c *Cursor) scan(ctx context.Context, dataset *string) error {
	q := fmt.Sprintf("SELECT rowid, dataset_id, x, y, label FROM %s", c.table.shadow)
	var args []any
	if dataset != nil {
		q += " WHERE dataset_id = ?"
		args = append(args, *dataset)
	}
	q += " ORDER BY rowid"
	rows, err := c.table.db.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	var out []resultRow
	for rows.Next() {
		var r resultRow
		if err := rows.Scan(&r.rowid, &r.dataset, &r.point.X, &r.point.Y, &r.label); err != nil {
			return err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	c.rows = out
	return nil
}

func (c *Cursor) rangeScan(ctx context.Context, dataset string, args map[int]vtab.Value) error {
	snap, err := c.table.ensureSnapshot(ctx, dataset)
	if err != nil {
		return err
	}
	r := snap.domain
	bounds := []struct {
		bit   int
		bound *float64
		lower bool
	}{
		{planXMin, &r.XMin, true},
		{planXMax, &r.XMax, false},
		{planYMin, &r.YMin, true},
		{planYMax, &r.YMax, false},
	}
	for _, b := range bounds {
		v, ok := args[b.bit]
		if !ok {
			continue
		}
		if v == nil {
			// Comparison with NULL matches nothing.
			return nil
		}
		f, err := asFloat(v)
		if err != nil {
			return err
		}
		if math.IsNaN(f) {
			return nil
		}
		// Points never lie outside the domain, so clamping keeps the rectangle finite.
		if b.lower {
			*b.bound = math.Max(*b.bound, f)
		} else {
			*b.bound = math.Min(*b.bound, f)
		}
	}
	if r.XMin > r.XMax || r.YMin > r.YMax {
		return nil
	}
	points, err := snap.idx.Range(r)
	if err != nil {
		return err
	}
	out := make([]resultRow, 0, len(points))
	for _, p := range points {
		row, ok := snap.rows[p]
		if !ok {
			continue
		}
		out = append(out, resultRow{rowid: row.rowid, dataset: dataset, point: p, label: row.label})
	}
	slices.SortFunc(out, func(a, b resultRow) int { return cmp.Compare(a.rowid, b.rowid) })
	c.rows = out
	return nil
}

func (c *Cursor) nearest(ctx context.Context, dataset string, arg vtab.Value) error {
	if arg == nil {
		return nil
	}
	raw, err := asString(arg)
	if err != nil {
		return fmt.Errorf("kd: MATCH expects a point as TEXT: %w", err)
	}
	q, err := geom.ParsePoint(raw)
	if err != nil {
		return fmt.Errorf("kd: invalid MATCH point %q: %w", raw, err)
	}
	snap, err := c.table.ensureSnapshot(ctx, dataset)
	if err != nil {
		return err
	}
	p, found, err := snap.idx.Nearest(q)
	if err != nil || !found {
		return err
	}
	row, ok := snap.rows[p]
	if !ok {
		return nil
	}
	c.rows = []resultRow{{
		rowid:    row.rowid,
		dataset:  dataset,
		point:    p,
		label:    row.label,
		distance: sql.NullFloat64{Float64: p.DistanceTo(q), Valid: true},
	}}
	return nil
}

// Next advances the cursor.
func (c *Cursor) Next() error {
	if c.pos < len(c.rows) {
		c.pos++
	}
	return nil
}

// Eof reports end-of-rows.
func (c *Cursor) Eof() bool { return c.pos >= len(c.rows) }

// Column returns the value of a column in the current row.
func (c *Cursor) Column(col int) (vtab.Value, error) {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return nil, fmt.Errorf("kd: Column out of range (pos=%d,len=%d)", c.pos, len(c.rows))
	}
	r := c.rows[c.pos]
	switch col {
	case colDataset:
		return r.dataset, nil
	case colX:
		return r.point.X, nil
	case colY:
		return r.point.Y, nil
	case colLabel:
		if !r.label.Valid {
			return nil, nil
		}
		return r.label.String, nil
	case colNear:
		return nil, nil
	case colDistance:
		if !r.distance.Valid {
			return nil, nil
		}
		return r.distance.Float64, nil
	}
	return nil, fmt.Errorf("kd: unsupported column %d", col)
}

// Rowid returns the current rowid.
func (c *Cursor) Rowid() (int64, error) {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return 0, fmt.Errorf("kd: Rowid out of range (pos=%d,len=%d)", c.pos, len(c.rows))
	}
	return c.rows[c.pos].rowid, nil
}

// Close releases resources.
func (c *Cursor) Close() error { c.rows = nil; c.pos = 0; return nil }

func asFloat(v vtab.Value) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case int64:
		return float64(val), nil
	case []byte:
		f, err := strconv.ParseFloat(string(val), 64)
		if err != nil {
			return 0, fmt.Errorf("kd: cannot parse bound %q: %w", string(val), err)
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("kd: cannot parse bound %q: %w", val, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("kd: unsupported bound type %T", v)
	}
}

func asString(v vtab.Value) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case []byte:
		return string(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float64:
		return realText(val), nil
	case nil:
		return "", fmt.Errorf("kd: value is nil")
	default:
		return "", fmt.Errorf("kd: unsupported text type %T", v)
	}
}

// realText renders a REAL the way SQLite casts it to TEXT, so a numeric
// dataset_id constraint matches the text stored in the shadow table.
func realText(v float64) string {
	if math.IsInf(v, 1) {
		return "Inf"
	}
	if math.IsInf(v, -1) {
		return "-Inf"
	}
	out := strconv.FormatFloat(v, 'g', 15, 64)
	if strings.ContainsAny(out, ".N") {
		return out
	}
	if i := strings.IndexByte(out, 'e'); i >= 0 {
		return out[:i] + ".0" + out[i:]
	}
	return out + ".0"
}

var _ vtab.Cursor = (*Cursor)(nil)
