package users

import (
	"context"
	"sort"
	"sync"

	"auboutique/internal/common"
	"auboutique/internal/server/models"
)

// MemoryRepository is an in-memory Repository used in tests and for
// running the server without a database file.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]*models.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[int64]*models.User)}
}

func (r *MemoryRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.byID {
		if u.UserName == user.UserName {
			return nil, common.ErrDuplicateUsername
		}
	}

	r.nextID++
	stored := *user
	stored.ID = r.nextID
	r.byID[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (r *MemoryRepository) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.byID {
		if u.UserName == username {
			out := *u
			return &out, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *MemoryRepository) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (r *MemoryRepository) SetOnline(_ context.Context, id int64, ip string, port int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.byID[id]; ok {
		u.Online = true
		u.IP = &ip
		u.Port = &port
	}
	return nil
}

func (r *MemoryRepository) SetOffline(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := r.byID[id]; ok {
		u.Online = false
		u.IP = nil
		u.Port = nil
	}
	return nil
}

func (r *MemoryRepository) OnlineUsernames(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	usernames := make([]string, 0)
	for _, u := range r.byID {
		if u.Online {
			usernames = append(usernames, u.UserName)
		}
	}
	sort.Strings(usernames)
	return usernames, nil
}
