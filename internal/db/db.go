// Package db persists evaluation summaries in a SQLite database so results
// of many runs can be compared without re-reading every run folder.
package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/vio-eval/internal/timeutil"
)

// DB wraps the SQLite handle of the result store.
type DB struct {
	*sql.DB
	// Clock stamps recorded evaluations.
	Clock timeutil.Clock
}

// Open opens (creating if needed) the database at path, applies the
// connection PRAGMAs and migrates the schema to the latest version.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := applyPragmas(sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}

	db := &DB{DB: sqlDB, Clock: timeutil.RealClock{}}
	migFS, err := MigrationsFS()
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	if err := db.MigrateUp(migFS); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

func applyPragmas(db *sql.DB) error {
	for _, p := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}
	return nil
}
