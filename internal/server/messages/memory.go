package messages

import (
	"context"
	"sync"

	"auboutique/internal/server/models"
	"auboutique/internal/server/users"
)

// MemoryRepository is an in-memory Repository used in tests and for
// running the server without a database file. It resolves sender
// usernames through the users repository at drain time, like the SQL
// join does.
type MemoryRepository struct {
	mu     sync.Mutex
	users  users.Repository
	queued []*models.Message
}

func NewMemoryRepository(users users.Repository) *MemoryRepository {
	return &MemoryRepository{users: users}
}

func (r *MemoryRepository) Create(_ context.Context, msg *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *msg
	r.queued = append(r.queued, &stored)
	return nil
}

func (r *MemoryRepository) ListForReceiver(ctx context.Context, receiverID int64) ([]*models.InboxMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// kept is a fresh slice so an error mid-drain leaves r.queued intact
	out := make([]*models.InboxMessage, 0)
	kept := make([]*models.Message, 0, len(r.queued))
	for _, m := range r.queued {
		if m.ReceiverID != receiverID {
			kept = append(kept, m)
			continue
		}

		sender, err := r.users.GetByID(ctx, m.SenderID)
		if err != nil {
			return nil, err
		}
		out = append(out, &models.InboxMessage{
			From:   sender.UserName,
			Body:   m.Body,
			SentAt: m.SentAt,
		})
	}
	r.queued = kept
	return out, nil
}
