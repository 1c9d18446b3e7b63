package kd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ShadowPrefix prefixes the shadow table of every kd virtual table.
const ShadowPrefix = "_kd_"

// ShadowTableName returns the shadow table of a kd virtual table, qualified
// with dbName when it is not empty.
func ShadowTableName(dbName, table string) string {
	base := ShadowPrefix + table
	if strings.TrimSpace(dbName) == "" {
		return base
	}
	return dbName + "." + base
}

func tableNameFromShadow(shadow string) string {
	if shadow == "" {
		return ""
	}
	if i := strings.Index(shadow, "."+ShadowPrefix); i >= 0 {
		return shadow[i+len("."+ShadowPrefix):]
	}
	if strings.HasPrefix(shadow, ShadowPrefix) {
		return strings.TrimPrefix(shadow, ShadowPrefix)
	}
	return ""
}

// EnsureShadow creates the shadow table of a kd virtual table and the
// triggers that invalidate cached indexes on every write. It is idempotent.
// Call it before writing points when the virtual table has not been queried
// yet; the module itself creates the shadow lazily on first query. An empty
// dbName means main.
func EnsureShadow(ctx context.Context, db *sql.DB, dbName, table string) error {
	if db == nil {
		return fmt.Errorf("kd: db is nil")
	}
	if strings.TrimSpace(dbName) == "" {
		dbName = "main"
	}
	name := ShadowTableName(dbName, table)
	base := ShadowTableName("", table)
	stmt := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    dataset_id TEXT NOT NULL DEFAULT '',
    x REAL NOT NULL,
    y REAL NOT NULL,
    label TEXT,
    PRIMARY KEY(dataset_id, x, y)
);
`, name)
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("kd: create shadow %s: %w", name, err)
	}
	path, err := resolveDbPath(ctx, db, dbName)
	if err != nil {
		return fmt.Errorf("kd: resolve path of %s: %w", dbName, err)
	}
	// Triggers drop cached indexes for the touched datasets of this database file so the next query rebuilds them.
	trigBase := sanitizeName("trg_kd_" + name)
	pathLit := quoteLiteral(path)
	shadowLit := quoteLiteral(name)
	invNew := `SELECT kd_invalidate_at(` + pathLit + `, ` + shadowLit + `, NEW.dataset_id);`
	invOld := `SELECT kd_invalidate_at(` + pathLit + `, ` + shadowLit + `, OLD.dataset_id);`
	triggers := []struct {
		name string
		stmt string
	}{
		{trigBase + "_ins", fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %s.%s_ins AFTER INSERT ON %s BEGIN %s END;`, dbName, trigBase, base, invNew)},
		// AFTER UPDATE invalidates both datasets to cover dataset moves.
		{trigBase + "_upd", fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %s.%s_upd AFTER UPDATE ON %s BEGIN %s %s END;`, dbName, trigBase, base, invNew, invOld)},
		{trigBase + "_del", fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %s.%s_del AFTER DELETE ON %s BEGIN %s END;`, dbName, trigBase, base, invOld)},
	}
	for _, trigger := range triggers {
		current, err := triggerSQL(ctx, db, dbName, trigger.name)
		if err != nil {
			return fmt.Errorf("kd: inspect trigger %s: %w", trigger.name, err)
		}
		if current != "" && strings.Contains(current, pathLit) {
			continue
		}
		// A trigger bound to another path is left from a copied or moved database file.
		if current != "" {
			if _, err := db.ExecContext(ctx, fmt.Sprintf(`DROP TRIGGER IF EXISTS %s.%s`, dbName, trigger.name)); err != nil {
				return fmt.Errorf("kd: drop trigger %s: %w", trigger.name, err)
			}
		}
		if _, err := db.ExecContext(ctx, trigger.stmt); err != nil {
			return fmt.Errorf("kd: create trigger on %s: %w", name, err)
		}
	}
	return nil
}

// triggerSQL returns the stored definition of a trigger, or "" when it does not exist.
func triggerSQL(ctx context.Context, db *sql.DB, dbName, trigger string) (string, error) {
	var stmt sql.NullString
	err := db.QueryRowContext(ctx, fmt.Sprintf(`SELECT sql FROM %s.sqlite_master WHERE type = 'trigger' AND name = ?`, dbName), trigger).Scan(&stmt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return stmt.String, nil
}

// DatabasePath returns the file of the attached database dbName as used to
// scope cached indexes. In-memory databases report their schema name.
func DatabasePath(ctx context.Context, db *sql.DB, dbName string) (string, error) {
	return resolveDbPath(ctx, db, dbName)
}

func resolveDbPath(ctx context.Context, db *sql.DB, dbName string) (string, error) {
	if db == nil {
		return "", fmt.Errorf("kd: db is nil")
	}
	rows, err := db.QueryContext(ctx, `SELECT name, file FROM pragma_database_list`)
	if err != nil {
		return "", err
	}
	defer rows.Close()
	if dbName == "" {
		dbName = "main"
	}
	for rows.Next() {
		var name, file string
		if err := rows.Scan(&name, &file); err != nil {
			return "", err
		}
		if name != dbName {
			continue
		}
		if file == "" {
			return name, nil
		}
		return file, nil
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return dbName, nil
}

// sanitizeName converts a qualified name into a safe identifier for triggers.
func sanitizeName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch r {
		case '.', '-', ' ':
			out = append(out, '_')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

// quoteLiteral returns SQL string literal with single quotes escaped for safe embedding.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
