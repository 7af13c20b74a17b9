// Package messages implements the store-and-forward fallback for direct
// messages to offline users. Messages to online users are handed off
// peer to peer and never reach this package.
package messages

import (
	"context"

	"auboutique/internal/server/models"
)

// Repository is the storage contract for queued messages.
type Repository interface {
	// Create persists a message for later pickup.
	Create(ctx context.Context, msg *models.Message) error

	// ListForReceiver returns the receiver's queued messages joined with
	// their senders' usernames, oldest first, and deletes them from the
	// queue.
	ListForReceiver(ctx context.Context, receiverID int64) ([]*models.InboxMessage, error)
}
