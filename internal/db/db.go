// Package db opens the PostgreSQL and SQLite databases and applies their
// embedded goose migrations.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	pgmigrations "github.com/albertomaydayjhondoe/porterias/internal/migrations/postgres"
	litemigrations "github.com/albertomaydayjhondoe/porterias/internal/migrations/sqlite"
)

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

func migrate(ctx context.Context, db *sql.DB, fsys fs.FS, dialect string) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	return nil
}

// OpenPostgres connects with the pgx driver and migrates the catalog and
// account tables.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := migrate(ctx, db, pgmigrations.Migrations, "pgx"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenSQLite opens the local store at path and migrates it.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := migrate(ctx, db, litemigrations.Migrations, "sqlite3"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
