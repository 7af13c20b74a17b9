// Package repomanager selects and wires a storage backend for the entity
// store: PostgreSQL or SQLite, picked from the DSN, plus an in-memory
// variant for tests and throwaway runs.
package repomanager

import (
	"context"
	"database/sql"

	"auboutique/internal/dbx"
	"auboutique/internal/server/messages"
	"auboutique/internal/server/products"
	"auboutique/internal/server/ratings"
	"auboutique/internal/server/users"
)

// RepositoryManager vends repository implementations for one backend and
// exposes a schema migration hook.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Products(db dbx.DBTX) products.Repository
	Ratings(db dbx.DBTX) ratings.Repository
	Messages(db dbx.DBTX) messages.Repository
}
