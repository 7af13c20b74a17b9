// Package products implements the catalog: listing, searching, adding and
// the race-free purchase of items.
package products

import (
	"context"

	"auboutique/internal/server/models"
)

// Repository is the storage contract for catalog items.
type Repository interface {
	// Add inserts a new product and returns it with ID set.
	Add(ctx context.Context, product *models.Product) (*models.Product, error)

	// List returns the whole catalog.
	List(ctx context.Context) ([]*models.Product, error)

	// SearchByName returns products whose name contains term,
	// case-insensitively.
	SearchByName(ctx context.Context, term string) ([]*models.Product, error)

	// ListByOwner returns the products owned by the given user.
	ListByOwner(ctx context.Context, ownerID int64) ([]*models.Product, error)

	// GetByID returns one product, or common.ErrNotFound.
	GetByID(ctx context.Context, id int64) (*models.Product, error)

	// Buy atomically decrements the product's quantity by one and, when
	// the last unit goes, records buyerID on the product. Returns
	// common.ErrProductUnavailable if the product does not exist or has
	// no units left. Under concurrent calls against the last unit exactly
	// one caller succeeds.
	Buy(ctx context.Context, productID, buyerID int64) error
}
