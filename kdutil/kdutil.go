package kdutil

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/viant/sqlite-kd/geom"
	"github.com/viant/sqlite-kd/index"
	"github.com/viant/sqlite-kd/kd"
)

// ShadowTableName derives the shadow table name for a given kd virtual
// table. It mirrors the naming convention used by the kd module, which
// prefixes the table name with _kd_.
//
// For example:
//
//	ShadowTableName("places") == "_kd_places".
//
// Schema/database qualification (e.g. main.) is handled by SQLite; this helper
// only returns the bare table name.
func ShadowTableName(virtualTable string) string {
	return kd.ShadowTableName("", virtualTable)
}

// UpsertShadowPoint inserts a point into a kd shadow table, replacing the
// label when the point already exists in the dataset. Points must be finite;
// anything else is reported as index.ErrInvalidArgument.
//
// Table names are interpolated into SQL; callers should ensure that
// shadowTable is trusted and not derived from untrusted input.
func UpsertShadowPoint(ctx context.Context, db *sql.DB, shadowTable, datasetID string, p geom.Point, label string) error {
	if db == nil {
		return fmt.Errorf("kdutil: db is nil")
	}
	if err := index.CheckPoint(p); err != nil {
		return fmt.Errorf("kdutil: %w", err)
	}
	stmt := fmt.Sprintf(`
INSERT INTO %s(dataset_id, x, y, label)
VALUES (?, ?, ?, ?)
ON CONFLICT(dataset_id, x, y) DO UPDATE SET
  label = excluded.label`, shadowTable)
	_, err := db.ExecContext(ctx, stmt, datasetID, p.X, p.Y, label)
	return err
}

// UpsertVirtualTablePoint is a convenience wrapper around UpsertShadowPoint
// that derives the shadow table name from the virtual table name.
func UpsertVirtualTablePoint(ctx context.Context, db *sql.DB, virtualTable, datasetID string, p geom.Point, label string) error {
	return UpsertShadowPoint(ctx, db, ShadowTableName(virtualTable), datasetID, p, label)
}
