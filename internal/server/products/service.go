package products

import (
	"context"
	"errors"

	"auboutique/internal/server/models"
	"auboutique/internal/server/users"
)

var (
	// ErrEmptyName indicates a product submitted without a name.
	ErrEmptyName = errors.New("product name cannot be empty")
	// ErrNegativePrice indicates a product with a negative price.
	ErrNegativePrice = errors.New("price cannot be negative")
	// ErrNegativeQuantity indicates a product with a negative quantity.
	ErrNegativeQuantity = errors.New("quantity cannot be negative")
)

// Service implements catalog operations on top of a Repository.
type Service struct {
	repo  Repository
	users *users.Service
}

// NewService builds a Service. The users service resolves seller usernames
// for the per-seller listing.
func NewService(repo Repository, users *users.Service) *Service {
	return &Service{repo: repo, users: users}
}

// Add validates and stores a new product owned by ownerID.
func (s *Service) Add(ctx context.Context, ownerID int64, product *models.Product) (*models.Product, error) {
	if product.Name == "" {
		return nil, ErrEmptyName
	}
	if product.Price < 0 {
		return nil, ErrNegativePrice
	}
	if product.Quantity < 0 {
		return nil, ErrNegativeQuantity
	}

	product.OwnerID = ownerID
	product.BuyerID = nil
	return s.repo.Add(ctx, product)
}

// List returns the full catalog.
func (s *Service) List(ctx context.Context) ([]*models.Product, error) {
	return s.repo.List(ctx)
}

// Search returns products whose name contains term, case-insensitively.
// An empty term matches the whole catalog.
func (s *Service) Search(ctx context.Context, term string) ([]*models.Product, error) {
	if term == "" {
		return s.repo.List(ctx)
	}
	return s.repo.SearchByName(ctx, term)
}

// SearchUserProducts lists the products owned by the user with the given
// username. Returns common.ErrNotFound for an unknown username.
func (s *Service) SearchUserProducts(ctx context.Context, username string) ([]*models.Product, error) {
	owner, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByOwner(ctx, owner.ID)
}

// Buy purchases one unit of the product for buyerID. Returns
// common.ErrProductUnavailable when the product is unknown or sold out.
func (s *Service) Buy(ctx context.Context, productID, buyerID int64) (*models.Product, error) {
	if err := s.repo.Buy(ctx, productID, buyerID); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, productID)
}
