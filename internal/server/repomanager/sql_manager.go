package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"auboutique/internal/dbx"
	"auboutique/internal/server/messages"
	"auboutique/internal/server/migrations"
	"auboutique/internal/server/products"
	"auboutique/internal/server/ratings"
	"auboutique/internal/server/users"
)

// SQLRepositoryManager vends SQL-backed repositories. The same repository
// code serves both drivers; only the goose dialect differs.
type SQLRepositoryManager struct {
	gooseDialect string
}

func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(db)
}

func (m *SQLRepositoryManager) Products(db dbx.DBTX) products.Repository {
	return products.NewSQLRepository(db)
}

func (m *SQLRepositoryManager) Ratings(db dbx.DBTX) ratings.Repository {
	return ratings.NewSQLRepository(db)
}

func (m *SQLRepositoryManager) Messages(db dbx.DBTX) messages.Repository {
	return messages.NewSQLRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations for the
// manager's dialect and runs them against the provided connection.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	dir := "postgres"
	if m.gooseDialect == "sqlite3" {
		dir = "sqlite"
	}

	fsys, err := migrations.ForDialect(dir)
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}

	goose.SetBaseFS(fsys)
	if err := goose.SetDialect(m.gooseDialect); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Open connects to the store named by dsn. A postgres:// or postgresql://
// DSN selects the pgx driver; anything else is treated as a SQLite file
// path (":memory:" included). SQLite connections are capped at one so all
// writes serialize on a single connection.
func Open(dsn string) (*sql.DB, RepositoryManager, error) {
	driver, dialect := "sqlite", "sqlite3"
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver, dialect = "pgx", "pgx"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}

	return db, &SQLRepositoryManager{gooseDialect: dialect}, nil
}
