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

// MemoryRepositoryManager vends in-memory repositories. Unlike the SQL
// manager it carries state, so every accessor returns the same instance.
type MemoryRepositoryManager struct {
	users    *users.MemoryRepository
	products *products.MemoryRepository
	ratings  *ratings.MemoryRepository
	messages *messages.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	userRepo := users.NewMemoryRepository()
	return &MemoryRepositoryManager{
		users:    userRepo,
		products: products.NewMemoryRepository(),
		ratings:  ratings.NewMemoryRepository(),
		messages: messages.NewMemoryRepository(userRepo),
	}
}

func (m *MemoryRepositoryManager) Users(_ dbx.DBTX) users.Repository {
	return m.users
}

func (m *MemoryRepositoryManager) Products(_ dbx.DBTX) products.Repository {
	return m.products
}

func (m *MemoryRepositoryManager) Ratings(_ dbx.DBTX) ratings.Repository {
	return m.ratings
}

func (m *MemoryRepositoryManager) Messages(_ dbx.DBTX) messages.Repository {
	return m.messages
}

// RunMigrations is a no-op for the in-memory backend.
func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}
