package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"auboutique/internal/common"
	"auboutique/internal/server/models"
)

var (
	// ErrNameNotLetters indicates a first or last name containing
	// non-letter characters.
	ErrNameNotLetters = errors.New("names must contain only letters")
	// ErrBadEmailDomain indicates an email outside the required domain.
	ErrBadEmailDomain = errors.New("email outside required domain")
	// ErrEmptyCredentials indicates an empty username or password.
	ErrEmptyCredentials = errors.New("username and password cannot be empty")
)

// Service implements registration, login/logout and presence lookups.
//
// Authorization note: the user id returned by Login is the bearer
// credential for all owner-scoped operations. There are no session tokens
// and no expiry; the deployment scope is a trusted internal network.
type Service struct {
	repo        Repository
	emailDomain string
}

// NewService builds a Service. emailDomain is the required email suffix
// for registration, e.g. "@mail.aub.edu".
func NewService(repo Repository, emailDomain string) *Service {
	return &Service{repo: repo, emailDomain: emailDomain}
}

// EmailDomain returns the required email suffix, for user-facing messages.
func (s *Service) EmailDomain() string {
	return s.emailDomain
}

// Register validates the submitted fields and inserts a new offline user.
// The password arrives as a client-side digest and is stored only as a
// bcrypt hash of that digest; no plain text ever reaches the store.
func (s *Service) Register(ctx context.Context, firstName, lastName, email, username, password string) (*models.User, error) {
	if !isLetters(firstName) || !isLetters(lastName) {
		return nil, ErrNameNotLetters
	}
	if !strings.HasSuffix(email, s.emailDomain) {
		return nil, ErrBadEmailDomain
	}
	if username == "" || password == "" {
		return nil, ErrEmptyCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &models.User{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		UserName:     username,
		PasswordHash: string(hash),
	}

	return s.repo.Create(ctx, user)
}

// Login checks credentials and, on success, records the caller's peer
// address in the presence registry and returns the user.
func (s *Service) Login(ctx context.Context, username, password, ip string, port int) (*models.User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, common.ErrInvalidCredentials
	}

	if err := s.repo.SetOnline(ctx, user.ID, ip, port); err != nil {
		return nil, err
	}

	user.Online = true
	user.IP = &ip
	user.Port = &port
	return user, nil
}

// Logout clears the presence record. Logging out an already-offline user
// succeeds.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	return s.repo.SetOffline(ctx, userID)
}

// ConnectionInfo resolves a username to the (ip, port) pair recorded at
// its last login. Returns common.ErrNotFound for an unknown username and
// common.ErrUserOffline when the user has no live presence record.
func (s *Service) ConnectionInfo(ctx context.Context, username string) (string, int, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return "", 0, err
	}

	if !user.Online || user.IP == nil || user.Port == nil {
		return "", 0, common.ErrUserOffline
	}

	return *user.IP, *user.Port, nil
}

// OnlineUsers lists the usernames of everyone currently online.
func (s *Service) OnlineUsers(ctx context.Context) ([]string, error) {
	return s.repo.OnlineUsernames(ctx)
}

// GetByUsername exposes the repository lookup to sibling services that
// resolve usernames to ids.
func (s *Service) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

func isLetters(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
