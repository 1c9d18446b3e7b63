package kdutil

import (
	"context"
	"database/sql"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/sqlite-kd/engine"
	"github.com/viant/sqlite-kd/geom"
	"github.com/viant/sqlite-kd/index"
	"github.com/viant/sqlite-kd/kd"
)

func openTable(t *testing.T, dataset string) (*sql.DB, *Table) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "kdutil.sqlite")
	db, err := engine.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	db.SetMaxOpenConns(1)
	require.NoError(t, kd.Register(db))
	_, err = db.Exec(`PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;`)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE VIRTUAL TABLE places USING kd(index=kdtree)`)
	require.NoError(t, err)
	db.SetMaxOpenConns(2)

	table, err := NewTable(db, "places", dataset)
	require.NoError(t, err)
	return db, table
}

func TestShadowTableName(t *testing.T) {
	assert.Equal(t, "_kd_places", ShadowTableName("places"))
}

func TestNewTable(t *testing.T) {
	_, err := NewTable(nil, "places", "s")
	assert.Error(t, err)
	_, err = NewTable(&sql.DB{}, "", "s")
	assert.Error(t, err)
}

func TestTable_RangeAndNearest(t *testing.T) {
	ctx := context.Background()
	_, table := openTable(t, "s")

	require.NoError(t, table.Upsert(ctx,
		Place{Point: geom.Pt(0.7, 0.2), Label: "a"},
		Place{Point: geom.Pt(0.5, 0.4), Label: "b"},
		Place{Point: geom.Pt(0.2, 0.3), Label: "c"},
	))
	require.NoError(t, table.Insert(ctx, geom.Pt(0.4, 0.7), geom.Pt(0.9, 0.6)))

	places, err := table.Range(ctx, geom.Rect{XMin: 0, YMin: 0, XMax: 0.6, YMax: 0.6})
	require.NoError(t, err)
	assert.Equal(t, []Place{{Point: geom.Pt(0.5, 0.4), Label: "b"}, {Point: geom.Pt(0.2, 0.3), Label: "c"}}, places)

	n, ok, err := table.Nearest(ctx, geom.Pt(0.55, 0.4))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Place{Point: geom.Pt(0.5, 0.4), Label: "b"}, n.Place)
	assert.InDelta(t, 0.05, n.Distance, 1e-12)

	// Upsert replaces the label in place; the index sees the change.
	require.NoError(t, table.Upsert(ctx, Place{Point: geom.Pt(0.5, 0.4), Label: "renamed"}))
	n, ok, err = table.Nearest(ctx, geom.Pt(0.55, 0.4))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "renamed", n.Label)

	require.NoError(t, table.Delete(ctx, geom.Pt(0.5, 0.4)))
	n, ok, err = table.Nearest(ctx, geom.Pt(0.55, 0.4))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, geom.Pt(0.7, 0.2), n.Point)
}

func TestTable_Datasets(t *testing.T) {
	ctx := context.Background()
	db, cafes := openTable(t, "cafes")
	parks, err := NewTable(db, "places", "parks")
	require.NoError(t, err)

	require.NoError(t, cafes.Insert(ctx, geom.Pt(0.1, 0.1)))
	require.NoError(t, parks.Insert(ctx, geom.Pt(0.9, 0.9)))

	n, ok, err := cafes.Nearest(ctx, geom.Pt(0.8, 0.8))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, geom.Pt(0.1, 0.1), n.Point)

	empty, err := NewTable(db, "places", "none")
	require.NoError(t, err)
	_, ok, err = empty.Nearest(ctx, geom.Pt(0.5, 0.5))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTable_InvalidArguments(t *testing.T) {
	ctx := context.Background()
	_, table := openTable(t, "s")

	err := table.Insert(ctx, geom.Pt(0.1, 0.1), geom.Pt(math.Inf(1), 0))
	require.ErrorIs(t, err, index.ErrInvalidArgument)
	places, err := table.Range(ctx, geom.UnitSquare)
	require.NoError(t, err)
	assert.Empty(t, places, "no point is written when any is invalid")

	_, err = table.Range(ctx, geom.Rect{XMin: 1, XMax: 0, YMax: 1})
	require.ErrorIs(t, err, index.ErrInvalidArgument)
	_, _, err = table.Nearest(ctx, geom.Pt(math.NaN(), 0))
	require.ErrorIs(t, err, index.ErrInvalidArgument)
}

func TestUpsertVirtualTablePoint(t *testing.T) {
	ctx := context.Background()
	db, table := openTable(t, "s")
	require.NoError(t, kd.EnsureShadow(ctx, db, "", "places"))
	require.NoError(t, UpsertVirtualTablePoint(ctx, db, "places", "s", geom.Pt(0.3, 0.3), "x"))
	require.NoError(t, UpsertVirtualTablePoint(ctx, db, "places", "s", geom.Pt(0.3, 0.3), "y"))

	places, err := table.Range(ctx, geom.UnitSquare)
	require.NoError(t, err)
	assert.Equal(t, []Place{{Point: geom.Pt(0.3, 0.3), Label: "y"}}, places)

	err = UpsertShadowPoint(ctx, db, ShadowTableName("places"), "s", geom.Pt(math.NaN(), 1), "")
	require.ErrorIs(t, err, index.ErrInvalidArgument)
}
