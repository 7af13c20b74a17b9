package ratings

import (
	"context"
	"sync"

	"auboutique/internal/server/models"
)

type ratingKey struct {
	productID int64
	userID    int64
}

// MemoryRepository is an in-memory Repository used in tests and for
// running the server without a database file.
type MemoryRepository struct {
	mu      sync.RWMutex
	ratings map[ratingKey]int
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{ratings: make(map[ratingKey]int)}
}

func (r *MemoryRepository) Upsert(_ context.Context, rating *models.Rating) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ratings[ratingKey{rating.ProductID, rating.UserID}] = rating.Rating
	return nil
}

func (r *MemoryRepository) Average(_ context.Context, productID int64) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sum, count int
	for k, v := range r.ratings {
		if k.productID == productID {
			sum += v
			count++
		}
	}
	if count == 0 {
		return 0, nil
	}
	return float64(sum) / float64(count), nil
}
