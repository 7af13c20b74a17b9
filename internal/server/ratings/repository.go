// Package ratings implements per-product scoring with one vote per user.
package ratings

import (
	"context"

	"auboutique/internal/server/models"
)

// Repository is the storage contract for product ratings.
type Repository interface {
	// Upsert records the user's rating for a product, replacing any
	// earlier rating by the same user.
	Upsert(ctx context.Context, rating *models.Rating) error

	// Average returns the mean rating of a product, or 0 when the
	// product has no ratings yet.
	Average(ctx context.Context, productID int64) (float64, error)
}
