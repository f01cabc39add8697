package order

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

const orderColumns = `id::text, order_number, status, payment_method, payment_status,
subtotal_cents, delivery_fee_cents, total_cents, currency,
customer_name, phone, address, COALESCE(city, ''), COALESCE(notes, ''),
COALESCE(receipt_number, ''), COALESCE(correlation_id, ''), created_at, updated_at`

func (r *postgresRepo) Create(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Consume stock first; a short fall on any line aborts the whole order.
	for _, item := range in.Items {
		cmd, err := tx.Exec(ctx, `
UPDATE products
SET stock_quantity = stock_quantity - $1
WHERE id = $2 AND stock_quantity >= $1
`, item.Quantity, item.ProductID)
		if err != nil {
			return nil, err
		}
		if cmd.RowsAffected() == 0 {
			r.logger.Printf("order repo: stock decrement refused product_id=%s qty=%d", item.ProductID, item.Quantity)
			return nil, domain.ErrOutOfStock
		}
	}

	q := `
INSERT INTO orders (order_number, payment_method, subtotal_cents, delivery_fee_cents, total_cents, currency, customer_name, phone, address, city, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING ` + orderColumns + `
`
	ord, err := scanOrder(tx.QueryRow(ctx, q,
		in.OrderNumber, in.PaymentMethod,
		in.SubtotalCents, in.DeliveryFeeCents, in.TotalCents, in.Currency,
		in.CustomerName, in.Phone, in.Address, in.City, in.Notes,
	))
	if err != nil {
		r.logger.Printf("order repo: create number=%s error=%v", in.OrderNumber, err)
		return nil, err
	}

	for _, item := range in.Items {
		var oi domain.OrderItem
		var productID *string
		err := tx.QueryRow(ctx, `
INSERT INTO order_items (order_id, product_id, product_name, product_image, unit_price_cents, quantity)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id::text, order_id::text, product_id::text, product_name, COALESCE(product_image, ''), unit_price_cents, quantity
`, ord.ID, item.ProductID, item.ProductName, item.ProductImage, item.UnitPriceCents, item.Quantity).Scan(
			&oi.ID, &oi.OrderID, &productID, &oi.ProductName, &oi.ProductImage, &oi.UnitPriceCents, &oi.Quantity,
		)
		if err != nil {
			return nil, err
		}
		oi.ProductID = productID
		ord.Items = append(ord.Items, oi)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &ord, nil
}

func (r *postgresRepo) GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	q := `
SELECT ` + orderColumns + `
FROM orders
WHERE order_number = $1
`
	ord, err := scanOrder(r.pool.QueryRow(ctx, q, orderNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	items, err := r.fetchItems(ctx, ord.ID)
	if err != nil {
		return nil, err
	}
	ord.Items = items
	return &ord, nil
}

func (r *postgresRepo) List(ctx context.Context, status string) ([]domain.Order, error) {
	q := `
SELECT ` + orderColumns + `
FROM orders
ORDER BY created_at DESC
`
	args := []interface{}{}
	if status != "" {
		q = `
SELECT ` + orderColumns + `
FROM orders
WHERE status = $1
ORDER BY created_at DESC
`
		args = append(args, status)
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Printf("order repo: list status=%q error=%v", status, err)
		return nil, err
	}
	defer rows.Close()

	var result []domain.Order
	for rows.Next() {
		ord, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, ord)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *postgresRepo) SetCorrelationID(ctx context.Context, orderID, correlationID string) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE orders
SET correlation_id = $1, updated_at = now()
WHERE id = $2
`, correlationID, orderID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) MarkPaid(ctx context.Context, orderID, receiptNumber string) (bool, error) {
	cmd, err := r.pool.Exec(ctx, `
UPDATE orders
SET payment_status = 'paid', status = 'processing', receipt_number = $1, updated_at = now()
WHERE id = $2 AND payment_status = 'pending'
`, receiptNumber, orderID)
	if err != nil {
		return false, err
	}
	if cmd.RowsAffected() == 0 {
		// Either missing or already settled; distinguish for callers.
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists); err != nil {
			return false, err
		}
		if !exists {
			return false, domain.ErrNotFound
		}
		return false, nil
	}
	return true, nil
}

func (r *postgresRepo) SwitchToCash(ctx context.Context, orderID string) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE orders
SET payment_method = 'cash_on_delivery', updated_at = now()
WHERE id = $1 AND payment_status = 'pending'
`, orderID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *postgresRepo) AdvanceStatus(ctx context.Context, orderNumber, next string) (*domain.Order, error) {
	ord, err := r.GetByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if !domain.StatusAdvances(ord.Status, next) {
		return nil, domain.ErrConflict
	}

	// Conditional on the status we read, so a concurrent advance loses cleanly.
	cmd, err := r.pool.Exec(ctx, `
UPDATE orders
SET status = $1, updated_at = now()
WHERE order_number = $2 AND status = $3
`, next, orderNumber, ord.Status)
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, domain.ErrConflict
	}
	return r.GetByNumber(ctx, orderNumber)
}

func (r *postgresRepo) CreateAttempt(ctx context.Context, in AttemptInput) (*domain.PaymentAttempt, error) {
	q := `
INSERT INTO payment_attempts (order_id, correlation_id, phone, amount_cents, status)
VALUES ($1, $2, $3, $4, 'pending')
RETURNING id::text, order_id::text, correlation_id, phone, amount_cents, status, COALESCE(receipt_number, ''), COALESCE(failure_reason, ''), created_at, updated_at
`
	var a domain.PaymentAttempt
	err := r.pool.QueryRow(ctx, q, in.OrderID, in.CorrelationID, in.Phone, in.AmountCents).Scan(
		&a.ID, &a.OrderID, &a.CorrelationID, &a.Phone, &a.AmountCents,
		&a.Status, &a.ReceiptNumber, &a.FailureReason, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		r.logger.Printf("order repo: create attempt order_id=%s error=%v", in.OrderID, err)
		return nil, err
	}
	return &a, nil
}

func (r *postgresRepo) FinishAttempt(ctx context.Context, correlationID, status, receiptNumber, failureReason string) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE payment_attempts
SET status = $1, receipt_number = NULLIF($2, ''), failure_reason = NULLIF($3, ''), updated_at = now()
WHERE correlation_id = $4
`, status, receiptNumber, failureReason, correlationID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) fetchItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	const q = `
SELECT id::text, order_id::text, product_id::text, product_name, COALESCE(product_image, ''), unit_price_cents, quantity
FROM order_items
WHERE order_id = $1
`
	rows, err := r.pool.Query(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		var productID *string
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&productID,
			&item.ProductName,
			&item.ProductImage,
			&item.UnitPriceCents,
			&item.Quantity,
		); err != nil {
			return nil, err
		}
		item.ProductID = productID
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.Status,
		&o.PaymentMethod,
		&o.PaymentStatus,
		&o.SubtotalCents,
		&o.DeliveryFeeCents,
		&o.TotalCents,
		&o.Currency,
		&o.CustomerName,
		&o.Phone,
		&o.Address,
		&o.City,
		&o.Notes,
		&o.ReceiptNumber,
		&o.CorrelationID,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	return o, err
}
