// Package users implements accounts and the presence registry: registration,
// credential checks, the online flag and the ip/port pair recorded at login.
package users

import (
	"context"

	"auboutique/internal/server/models"
)

// Repository is the storage contract for users and their presence record.
type Repository interface {
	// Create inserts a new user and returns it with ID set.
	// Returns common.ErrDuplicateUsername if the username is taken.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByUsername returns the user with the given username, or
	// common.ErrNotFound.
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// GetByID returns the user with the given id, or common.ErrNotFound.
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// SetOnline marks the user online and records the address its peer
	// listener is reachable at.
	SetOnline(ctx context.Context, id int64, ip string, port int) error

	// SetOffline clears the presence record. Clearing an already-offline
	// user is not an error.
	SetOffline(ctx context.Context, id int64) error

	// OnlineUsernames lists the usernames of all currently online users.
	OnlineUsernames(ctx context.Context) ([]string, error)
}
