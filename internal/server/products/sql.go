package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"auboutique/internal/common"
	"auboutique/internal/dbx"
	"auboutique/internal/server/models"
)

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

const productColumns = `id, name, owner_id, category, price, description, image, quantity, buyer_id`

func (r *SQLRepository) Add(ctx context.Context, product *models.Product) (*models.Product, error) {
	query :=
		`INSERT INTO products (name, owner_id, category, price, description, image, quantity)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		product.Name, product.OwnerID, product.Category, product.Price,
		product.Description, product.Image, product.Quantity).Scan(&product.ID)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return product, nil
}

func (r *SQLRepository) List(ctx context.Context) ([]*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY id`
	return r.queryProducts(ctx, query)
}

func (r *SQLRepository) SearchByName(ctx context.Context, term string) ([]*models.Product, error) {
	// lower() on both sides keeps the match case-insensitive on every
	// supported driver.
	query := `SELECT ` + productColumns + ` FROM products
		 WHERE lower(name) LIKE '%' || lower($1) || '%'
		 ORDER BY id`
	return r.queryProducts(ctx, query, term)
}

func (r *SQLRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products
		 WHERE owner_id = $1
		 ORDER BY id`
	return r.queryProducts(ctx, query, ownerID)
}

func (r *SQLRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return product, nil
}

// Buy is a single conditional UPDATE: the WHERE clause refuses exhausted
// stock, so concurrent purchases of the last unit resolve to exactly one
// affected row.
func (r *SQLRepository) Buy(ctx context.Context, productID, buyerID int64) error {
	query :=
		`UPDATE products
		 SET quantity = quantity - 1,
		     buyer_id = CASE WHEN quantity = 1 THEN $2 ELSE buyer_id END
		 WHERE id = $1 AND quantity > 0
		 `

	res, err := r.db.ExecContext(ctx, query, productID, buyerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrProductUnavailable
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	product := &models.Product{}
	var buyerID sql.NullInt64

	err := row.Scan(&product.ID, &product.Name, &product.OwnerID, &product.Category,
		&product.Price, &product.Description, &product.Image, &product.Quantity, &buyerID)
	if err != nil {
		return nil, err
	}

	if buyerID.Valid {
		product.BuyerID = &buyerID.Int64
	}
	return product, nil
}

func (r *SQLRepository) queryProducts(ctx context.Context, query string, args ...any) ([]*models.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return out, nil
}
