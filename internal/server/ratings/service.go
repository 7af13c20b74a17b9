package ratings

import (
	"context"
	"errors"

	"auboutique/internal/server/models"
	"auboutique/internal/server/products"
)

// ErrOutOfRange indicates a rating outside the accepted 1..5 scale.
var ErrOutOfRange = errors.New("rating must be between 1 and 5")

// Service implements rating submission and averages.
type Service struct {
	repo     Repository
	products products.Repository
}

// NewService builds a Service. The products repository is consulted to
// reject ratings for products that do not exist.
func NewService(repo Repository, products products.Repository) *Service {
	return &Service{repo: repo, products: products}
}

// Rate records the user's score for a product. A second rating by the
// same user replaces the first. Returns common.ErrNotFound for an
// unknown product.
func (s *Service) Rate(ctx context.Context, productID, userID int64, rating int) error {
	if rating < 1 || rating > 5 {
		return ErrOutOfRange
	}

	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return err
	}

	return s.repo.Upsert(ctx, &models.Rating{
		ProductID: productID,
		UserID:    userID,
		Rating:    rating,
	})
}

// Average returns the mean rating of a product, 0 when nobody has rated
// it. Returns common.ErrNotFound for an unknown product.
func (s *Service) Average(ctx context.Context, productID int64) (float64, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return 0, err
	}
	return s.repo.Average(ctx, productID)
}
