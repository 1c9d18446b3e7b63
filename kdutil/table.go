package kdutil

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/viant/sqlite-kd/geom"
	"github.com/viant/sqlite-kd/index"
	"github.com/viant/sqlite-kd/kd"
)

// Table provides a typed API on top of a kd virtual table and its shadow
// table, scoped to one dataset.
type Table struct {
	DB          *sql.DB
	VirtualName string
	ShadowName  string
	DatasetID   string
}

// Place is a stored point with its optional label.
type Place struct {
	Point geom.Point
	Label string
}

// Neighbor is the answer of a nearest query.
type Neighbor struct {
	Place
	Distance float64
}

// NewTable constructs a Table for a given kd virtual table name.
//
// The caller is responsible for having created the virtual table. The shadow
// table and its triggers are created on first write.
func NewTable(db *sql.DB, virtualTable, datasetID string) (*Table, error) {
	if db == nil {
		return nil, fmt.Errorf("kdutil: db is nil")
	}
	if virtualTable == "" {
		return nil, fmt.Errorf("kdutil: virtual table name is empty")
	}
	return &Table{
		DB:          db,
		VirtualName: virtualTable,
		ShadowName:  ShadowTableName(virtualTable),
		DatasetID:   datasetID,
	}, nil
}

// Insert stores points without labels. Existing points keep their rowid.
// Every point is validated before any is written.
func (t *Table) Insert(ctx context.Context, points ...geom.Point) error {
	places := make([]Place, len(points))
	for i, p := range points {
		places[i] = Place{Point: p}
	}
	return t.Upsert(ctx, places...)
}

// Upsert stores places in a single transaction. Triggers installed by the kd
// module invalidate cached indexes, which are rebuilt on the next query.
func (t *Table) Upsert(ctx context.Context, places ...Place) error {
	if len(places) == 0 {
		return nil
	}
	for _, place := range places {
		if err := index.CheckPoint(place.Point); err != nil {
			return fmt.Errorf("kdutil: %w", err)
		}
	}
	if err := kd.EnsureShadow(ctx, t.DB, "", t.VirtualName); err != nil {
		return err
	}
	tx, err := t.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
INSERT INTO %s(dataset_id, x, y, label)
VALUES (?, ?, ?, ?)
ON CONFLICT(dataset_id, x, y) DO UPDATE SET
  label = excluded.label`, t.ShadowName))
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, place := range places {
		var label any
		if place.Label != "" {
			label = place.Label
		}
		if _, err := stmt.ExecContext(ctx, t.DatasetID, place.Point.X, place.Point.Y, label); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Delete removes points from the dataset.
func (t *Table) Delete(ctx context.Context, points ...geom.Point) error {
	stmt := fmt.Sprintf("DELETE FROM %s WHERE dataset_id = ? AND x = ? AND y = ?", t.ShadowName)
	for _, p := range points {
		if _, err := t.DB.ExecContext(ctx, stmt, t.DatasetID, p.X, p.Y); err != nil {
			return err
		}
	}
	return nil
}

// Range returns the places inside the closed rectangle r in insertion order.
func (t *Table) Range(ctx context.Context, r geom.Rect) ([]Place, error) {
	if err := index.CheckRect(r); err != nil {
		return nil, fmt.Errorf("kdutil: %w", err)
	}
	q := fmt.Sprintf("SELECT x, y, label FROM %s WHERE dataset_id = ? AND x >= ? AND x <= ? AND y >= ? AND y <= ?", t.VirtualName)
	rows, err := t.DB.QueryContext(ctx, q, t.DatasetID, r.XMin, r.XMax, r.YMin, r.YMax)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Place
	for rows.Next() {
		var (
			place Place
			label sql.NullString
		)
		if err := rows.Scan(&place.Point.X, &place.Point.Y, &label); err != nil {
			return nil, err
		}
		place.Label = label.String
		out = append(out, place)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Nearest returns the stored place closest to p. ok is false when the
// dataset is empty.
func (t *Table) Nearest(ctx context.Context, p geom.Point) (n Neighbor, ok bool, err error) {
	if err := index.CheckPoint(p); err != nil {
		return n, false, fmt.Errorf("kdutil: %w", err)
	}
	q := fmt.Sprintf("SELECT x, y, label, distance FROM %s WHERE dataset_id = ? AND near MATCH ?", t.VirtualName)
	var label sql.NullString
	err = t.DB.QueryRowContext(ctx, q, t.DatasetID, p.WKT()).Scan(&n.Point.X, &n.Point.Y, &label, &n.Distance)
	if err == sql.ErrNoRows {
		return n, false, nil
	}
	if err != nil {
		return n, false, err
	}
	n.Label = label.String
	return n, true, nil
}
