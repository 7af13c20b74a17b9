package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"auboutique/internal/common"
	"auboutique/internal/dbx"
	"auboutique/internal/server/models"
)

// SQLRepository stores users in the relational entity store. The $n
// placeholder syntax is understood by both supported drivers.
type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (first_name, last_name, email, username, password_hash, online)
		 VALUES ($1, $2, $3, $4, $5, FALSE)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.FirstName, user.LastName, user.Email, user.UserName, user.PasswordHash).Scan(&user.ID)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrDuplicateUsername
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *SQLRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query :=
		`SELECT id, first_name, last_name, email, username, password_hash, online, ip, port
		 FROM users
		 WHERE username = $1
		 `
	return r.scanUser(r.db.QueryRowContext(ctx, query, username))
}

func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query :=
		`SELECT id, first_name, last_name, email, username, password_hash, online, ip, port
		 FROM users
		 WHERE id = $1
		 `
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var ip sql.NullString
	var port sql.NullInt64

	err := row.Scan(&user.ID, &user.FirstName, &user.LastName, &user.Email,
		&user.UserName, &user.PasswordHash, &user.Online, &ip, &port)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if ip.Valid {
		user.IP = &ip.String
	}
	if port.Valid {
		p := int(port.Int64)
		user.Port = &p
	}

	return user, nil
}

func (r *SQLRepository) SetOnline(ctx context.Context, id int64, ip string, port int) error {
	query :=
		`UPDATE users SET online = TRUE, ip = $2, port = $3
		 WHERE id = $1
		 `

	if _, err := r.db.ExecContext(ctx, query, id, ip, port); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) SetOffline(ctx context.Context, id int64) error {
	query :=
		`UPDATE users SET online = FALSE, ip = NULL, port = NULL
		 WHERE id = $1
		 `

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) OnlineUsernames(ctx context.Context) ([]string, error) {
	query :=
		`SELECT username FROM users
		 WHERE online = TRUE
		 ORDER BY username
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	usernames := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		usernames = append(usernames, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return usernames, nil
}
