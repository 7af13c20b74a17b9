package ratings

import (
	"context"
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

func (r *SQLRepository) Upsert(ctx context.Context, rating *models.Rating) error {
	query :=
		`INSERT INTO ratings (product_id, user_id, rating)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (product_id, user_id) DO UPDATE SET rating = EXCLUDED.rating
		 `

	_, err := r.db.ExecContext(ctx, query, rating.ProductID, rating.UserID, rating.Rating)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) Average(ctx context.Context, productID int64) (float64, error) {
	query := `SELECT COALESCE(AVG(rating), 0) FROM ratings WHERE product_id = $1`

	var avg float64
	if err := r.db.QueryRowContext(ctx, query, productID).Scan(&avg); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return avg, nil
}
