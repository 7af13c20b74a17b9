package products

import (
	"context"
	"sort"
	"strings"
	"sync"

	"auboutique/internal/common"
	"auboutique/internal/server/models"
)

// MemoryRepository is an in-memory Repository used in tests and for
// running the server without a database file.
type MemoryRepository struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*models.Product
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[int64]*models.Product)}
}

func (r *MemoryRepository) Add(_ context.Context, product *models.Product) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	stored := *product
	stored.ID = r.nextID
	r.byID[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (r *MemoryRepository) List(_ context.Context) ([]*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.collect(func(*models.Product) bool { return true }), nil
}

func (r *MemoryRepository) SearchByName(_ context.Context, term string) ([]*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	term = strings.ToLower(term)
	return r.collect(func(p *models.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), term)
	}), nil
}

func (r *MemoryRepository) ListByOwner(_ context.Context, ownerID int64) ([]*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.collect(func(p *models.Product) bool { return p.OwnerID == ownerID }), nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id int64) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := *p
	return &out, nil
}

// Buy performs the check-and-decrement under the repository lock, so
// concurrent buyers of the last unit see exactly one success.
func (r *MemoryRepository) Buy(_ context.Context, productID, buyerID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[productID]
	if !ok || p.Quantity <= 0 {
		return common.ErrProductUnavailable
	}

	p.Quantity--
	if p.Quantity == 0 {
		p.BuyerID = &buyerID
	}
	return nil
}

// collect must be called with the lock held.
func (r *MemoryRepository) collect(match func(*models.Product) bool) []*models.Product {
	out := make([]*models.Product, 0)
	for _, p := range r.byID {
		if match(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
