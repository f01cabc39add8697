package product

import (
	"context"
	"errors"
	"io"
	"log"

	"zawadi-commerce/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const productColumns = `id::text, sku, name, COALESCE(description, ''), COALESCE(category, ''), COALESCE(image_url, ''), price_cents, currency, stock_quantity, created_at`

func (r *postgresRepo) List(ctx context.Context, category string) ([]domain.Product, error) {
	q := `
SELECT ` + productColumns + `
FROM products
ORDER BY created_at DESC
`
	args := []interface{}{}
	if category != "" {
		q = `
SELECT ` + productColumns + `
FROM products
WHERE category = $1
ORDER BY created_at DESC
`
		args = append(args, category)
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Printf("product repo: list category=%q error=%v", category, err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("product repo: list rows error=%v", err)
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	q := `
SELECT ` + productColumns + `
FROM products
WHERE id = $1
`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepo) Create(ctx context.Context, in CreateProductInput) (*domain.Product, error) {
	q := `
INSERT INTO products (sku, name, description, category, image_url, price_cents, currency, stock_quantity)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + productColumns + `
`
	p, err := scanProduct(r.pool.QueryRow(ctx, q,
		in.SKU, in.Name, in.Description, in.Category, in.ImageURL,
		in.PriceCents, in.Currency, in.StockQuantity,
	))
	if err != nil {
		r.logger.Printf("product repo: create sku=%s error=%v", in.SKU, err)
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepo) SetStock(ctx context.Context, id string, quantity int) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE products
SET stock_quantity = $1
WHERE id = $2
`, quantity, id)
	if err != nil {
		r.logger.Printf("product repo: set stock id=%s error=%v", id, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID,
		&p.SKU,
		&p.Name,
		&p.Description,
		&p.Category,
		&p.ImageURL,
		&p.PriceCents,
		&p.Currency,
		&p.StockQuantity,
		&p.CreatedAt,
	)
	return p, err
}
