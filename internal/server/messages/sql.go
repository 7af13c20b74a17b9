package messages

import (
	"context"
	"database/sql"
	"fmt"

	"auboutique/internal/dbx"
	"auboutique/internal/server/models"
)

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Create(ctx context.Context, msg *models.Message) error {
	query :=
		`INSERT INTO messages (sender_id, receiver_id, body, sent_at)
		 VALUES ($1, $2, $3, $4)
		 `

	_, err := r.db.ExecContext(ctx, query, msg.SenderID, msg.ReceiverID, msg.Body, msg.SentAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListForReceiver reads and deletes the receiver's queue as one atomic
// unit, so a message is never delivered twice to concurrent pickups. When
// the repository is constructed over a plain connection the two steps run
// inside dbx.WithTx; inside an existing transaction the caller already
// owns atomicity.
func (r *SQLRepository) ListForReceiver(ctx context.Context, receiverID int64) ([]*models.InboxMessage, error) {
	if db, ok := r.db.(*sql.DB); ok {
		var out []*models.InboxMessage
		err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			var err error
			out, err = drainInbox(ctx, tx, receiverID)
			return err
		})
		return out, err
	}
	return drainInbox(ctx, r.db, receiverID)
}

func drainInbox(ctx context.Context, db dbx.DBTX, receiverID int64) ([]*models.InboxMessage, error) {
	query :=
		`SELECT u.username, m.body, m.sent_at
		 FROM messages m
		 JOIN users u ON u.id = m.sender_id
		 WHERE m.receiver_id = $1
		 ORDER BY m.sent_at, m.id
		 `

	rows, err := db.QueryContext(ctx, query, receiverID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make([]*models.InboxMessage, 0)
	for rows.Next() {
		msg := &models.InboxMessage{}
		if err := rows.Scan(&msg.From, &msg.Body, &msg.SentAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM messages WHERE receiver_id = $1`, receiverID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return out, nil
}
