package kd

import (
	"bytes"
	"context"
	"database/sql"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/sqlite-kd/engine"
	"github.com/viant/sqlite-kd/geom"
)

var scenario = []geom.Point{
	geom.Pt(0.7, 0.2), geom.Pt(0.5, 0.4), geom.Pt(0.2, 0.3), geom.Pt(0.4, 0.7), geom.Pt(0.9, 0.6),
}

// openPlaces creates a kd virtual table named places with the given
// arguments and seeds dataset "s" with points.
func openPlaces(t *testing.T, using string, points []geom.Point) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "kd.sqlite")
	db, err := engine.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	// Single connection while registering and creating the virtual table.
	db.SetMaxOpenConns(1)
	require.NoError(t, Register(db))
	_, err = db.Exec(`PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;`)
	require.NoError(t, err)

	_, err = db.Exec(`CREATE VIRTUAL TABLE places USING ` + using)
	if err != nil && strings.Contains(err.Error(), "no such module: kd") {
		t.Skipf("skipping: kd vtab not available (%v)", err)
	}
	require.NoError(t, err)
	require.NoError(t, EnsureShadow(context.Background(), db, "main", "places"))
	for i, p := range points {
		_, err := db.Exec(`INSERT INTO _kd_places(dataset_id, x, y, label) VALUES('s', ?, ?, ?)`, p.X, p.Y, "p"+string(rune('1'+i)))
		require.NoError(t, err)
	}
	// Allow a second connection for the internal shadow queries.
	db.SetMaxOpenConns(2)
	return db
}

func queryPoints(t *testing.T, db *sql.DB, query string, args ...any) []geom.Point {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	rows, err := db.QueryContext(ctx, query, args...)
	require.NoError(t, err)
	defer rows.Close()
	var out []geom.Point
	for rows.Next() {
		var p geom.Point
		require.NoError(t, rows.Scan(&p.X, &p.Y))
		out = append(out, p)
	}
	require.NoError(t, rows.Err())
	return out
}

func TestKdVirtualTable_Scan(t *testing.T) {
	db := openPlaces(t, `kd(index=kdtree)`, scenario)

	assert.Equal(t, scenario, queryPoints(t, db, `SELECT x, y FROM places ORDER BY rowid`))
	assert.Equal(t, scenario, queryPoints(t, db, `SELECT x, y FROM places WHERE dataset_id = 's'`))
	assert.Empty(t, queryPoints(t, db, `SELECT x, y FROM places WHERE dataset_id = 'other'`))

	var label string
	require.NoError(t, db.QueryRow(`SELECT label FROM places WHERE dataset_id = 's' AND x = 0.2`).Scan(&label))
	assert.Equal(t, "p3", label)
}

func TestKdVirtualTable_Range(t *testing.T) {
	for _, using := range []string{`kd(index=kdtree)`, `kd(index=brute)`, `kd`} {
		t.Run(using, func(t *testing.T) {
			db := openPlaces(t, using, scenario)

			got := queryPoints(t, db, `SELECT x, y FROM places WHERE dataset_id = 's' AND x >= 0 AND x <= 0.6 AND y >= 0 AND y <= 0.6`)
			assert.Equal(t, []geom.Point{geom.Pt(0.5, 0.4), geom.Pt(0.2, 0.3)}, got)

			got = queryPoints(t, db, `SELECT x, y FROM places WHERE dataset_id = 's' AND x BETWEEN 0.5 AND 0.9`)
			assert.Equal(t, []geom.Point{geom.Pt(0.7, 0.2), geom.Pt(0.5, 0.4), geom.Pt(0.9, 0.6)}, got)

			got = queryPoints(t, db, `SELECT x, y FROM places WHERE dataset_id = 's' AND x > 0.5 AND y < 0.6`)
			assert.Equal(t, []geom.Point{geom.Pt(0.7, 0.2)}, got)

			got = queryPoints(t, db, `SELECT x, y FROM places WHERE dataset_id = 's' AND y >= 0.9`)
			assert.Empty(t, got)

			got = queryPoints(t, db, `SELECT x, y FROM places WHERE dataset_id = 's' AND x >= 0.8 AND x <= 0.1`)
			assert.Empty(t, got)
		})
	}
}

func TestKdVirtualTable_Nearest(t *testing.T) {
	db := openPlaces(t, `kd(index=kdtree)`, scenario)

	var (
		x, y, distance float64
		label          string
	)
	err := db.QueryRow(`SELECT x, y, label, distance FROM places WHERE dataset_id = 's' AND near MATCH 'POINT(0.55 0.4)'`).Scan(&x, &y, &label, &distance)
	require.NoError(t, err)
	assert.Equal(t, geom.Pt(0.5, 0.4), geom.Pt(x, y))
	assert.Equal(t, "p2", label)
	assert.InDelta(t, 0.05, distance, 1e-12)

	got := queryPoints(t, db, `SELECT x, y FROM places WHERE dataset_id = 's' AND near MATCH ?`, "0.95,0.65")
	assert.Equal(t, []geom.Point{geom.Pt(0.9, 0.6)}, got)

	assert.Empty(t, queryPoints(t, db, `SELECT x, y FROM places WHERE dataset_id = 'empty' AND near MATCH '0.5,0.5'`))

	_, err = db.Query(`SELECT x, y FROM places WHERE near MATCH '0.5,0.5'`)
	assert.Error(t, err)

	var n int
	err = db.QueryRow(`SELECT COUNT(*) FROM places WHERE dataset_id = 's' AND near MATCH 'not a point'`).Scan(&n)
	assert.Error(t, err)
}

func TestKdVirtualTable_InvalidatedByShadowWrites(t *testing.T) {
	db := openPlaces(t, `kd(index=kdtree)`, scenario)
	nearest := func() geom.Point {
		got := queryPoints(t, db, `SELECT x, y FROM places WHERE dataset_id = 's' AND near MATCH '0.55,0.4'`)
		require.Len(t, got, 1)
		return got[0]
	}
	assert.Equal(t, geom.Pt(0.5, 0.4), nearest())

	_, err := db.Exec(`INSERT INTO _kd_places(dataset_id, x, y, label) VALUES('s', 0.56, 0.41, 'new')`)
	require.NoError(t, err)
	assert.Equal(t, geom.Pt(0.56, 0.41), nearest())

	_, err = db.Exec(`UPDATE _kd_places SET dataset_id = 'moved' WHERE label = 'new'`)
	require.NoError(t, err)
	assert.Equal(t, geom.Pt(0.5, 0.4), nearest())

	_, err = db.Exec(`DELETE FROM _kd_places WHERE dataset_id = 's' AND x = 0.5 AND y = 0.4`)
	require.NoError(t, err)
	assert.Equal(t, geom.Pt(0.7, 0.2), nearest())
}

func TestKdVirtualTable_WritesInvalidateOnlyTheirDatabase(t *testing.T) {
	db := openPlaces(t, `kd(index=kdtree)`, scenario)
	assert.Len(t, queryPoints(t, db, `SELECT x, y FROM places WHERE dataset_id = 's' AND x <= 1`), len(scenario))

	path, err := DatabasePath(context.Background(), db, "main")
	require.NoError(t, err)
	own := getCacheEntry(cacheKey{dbPath: path, table: "places", dataset: "s"})
	require.NotNil(t, own.get())
	other := getCacheEntry(cacheKey{dbPath: path + ".other", table: "places", dataset: "s"})
	_, gen, ok := other.startBuild()
	require.True(t, ok)
	other.finishBuild(gen, &snapshot{kind: indexBrute})

	_, err = db.Exec(`INSERT INTO _kd_places(dataset_id, x, y, label) VALUES('s', 0.1, 0.1, 'new')`)
	require.NoError(t, err)
	assert.Nil(t, own.get())
	assert.NotNil(t, other.get())
}

func TestEnsureShadow_RebindsTriggersToDatabasePath(t *testing.T) {
	db := openPlaces(t, `kd(index=kdtree)`, nil)
	ctx := context.Background()
	_, err := db.Exec(`DROP TRIGGER trg_kd_main__kd_places_ins`)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TRIGGER trg_kd_main__kd_places_ins AFTER INSERT ON _kd_places BEGIN SELECT kd_invalidate_at('/elsewhere.sqlite', 'main._kd_places', NEW.dataset_id); END;`)
	require.NoError(t, err)

	require.NoError(t, EnsureShadow(ctx, db, "", "places"))
	path, err := DatabasePath(ctx, db, "main")
	require.NoError(t, err)
	stmt, err := triggerSQL(ctx, db, "main", "trg_kd_main__kd_places_ins")
	require.NoError(t, err)
	assert.Contains(t, stmt, quoteLiteral(path))
	assert.NotContains(t, stmt, "/elsewhere.sqlite")
}

func TestKdVirtualTable_NumericDatasetConstraint(t *testing.T) {
	db := openPlaces(t, `kd(index=kdtree)`, scenario)
	_, err := db.Exec(`INSERT INTO _kd_places(dataset_id, x, y, label) VALUES(1, 0.3, 0.3, 'one'), ('2.0', 0.6, 0.6, 'two')`)
	require.NoError(t, err)

	assert.Equal(t, []geom.Point{geom.Pt(0.3, 0.3)}, queryPoints(t, db, `SELECT x, y FROM places WHERE dataset_id = 1`))
	assert.Equal(t, []geom.Point{geom.Pt(0.6, 0.6)}, queryPoints(t, db, `SELECT x, y FROM places WHERE dataset_id = ?`, 2.0))
}

func TestKdVirtualTable_DomainWidening(t *testing.T) {
	points := []geom.Point{geom.Pt(-73.98, 40.75), geom.Pt(2.35, 48.85), geom.Pt(139.69, 35.68)}
	db := openPlaces(t, `kd(index=kdtree, domain='0,0,1,1')`, points)

	got := queryPoints(t, db, `SELECT x, y FROM places WHERE dataset_id = 's' AND x <= 10`)
	assert.Equal(t, points[:2], got)

	got = queryPoints(t, db, `SELECT x, y FROM places WHERE dataset_id = 's' AND near MATCH 'POINT(135 35)'`)
	assert.Equal(t, []geom.Point{points[2]}, got)
}

func TestKdVirtualTable_Logging(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	defer SetLogger(nil)

	db := openPlaces(t, `kd(index=auto)`, scenario)
	assert.Len(t, queryPoints(t, db, `SELECT x, y FROM places WHERE dataset_id = 's' AND x <= 1`), 5)
	out := buf.String()
	assert.Contains(t, out, `msg="kd index built"`)
	assert.Contains(t, out, "points=5")
	assert.Contains(t, out, "kind=brute")
}

func TestKdVirtualTable_InvalidOptions(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "kd_opts.sqlite")
	db, err := engine.Open(dbPath)
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(1)
	require.NoError(t, Register(db))

	_, err = db.Exec(`CREATE VIRTUAL TABLE bad USING kd(index=cover)`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported index")
}
