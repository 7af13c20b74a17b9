package messages

import (
	"context"
	"time"

	"auboutique/internal/server/models"
	"auboutique/internal/server/users"
)

// Service implements the message queue for offline recipients.
type Service struct {
	repo  Repository
	users *users.Service
	now   func() time.Time
}

// NewService builds a Service. The users service resolves receiver
// usernames to ids.
func NewService(repo Repository, users *users.Service) *Service {
	return &Service{repo: repo, users: users, now: time.Now}
}

// Send queues a message from senderID to the user with the given
// username. Returns common.ErrNotFound for an unknown receiver.
func (s *Service) Send(ctx context.Context, senderID int64, receiverUsername, body string) error {
	receiver, err := s.users.GetByUsername(ctx, receiverUsername)
	if err != nil {
		return err
	}

	return s.repo.Create(ctx, &models.Message{
		SenderID:   senderID,
		ReceiverID: receiver.ID,
		Body:       body,
		SentAt:     s.now().UTC(),
	})
}

// Inbox drains and returns the queued messages for receiverID, oldest
// first. A second call returns an empty list until new messages arrive.
func (s *Service) Inbox(ctx context.Context, receiverID int64) ([]*models.InboxMessage, error) {
	return s.repo.ListForReceiver(ctx, receiverID)
}
