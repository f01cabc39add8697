package order

import (
	"context"

	"zawadi-commerce/internal/domain"
)

type CreateOrderInput struct {
	OrderNumber      string
	PaymentMethod    string
	SubtotalCents    int64
	DeliveryFeeCents int64
	TotalCents       int64
	Currency         string
	CustomerName     string
	Phone            string
	Address          string
	City             string
	Notes            string
	Items            []ItemInput
}

type ItemInput struct {
	ProductID      string
	ProductName    string
	ProductImage   string
	UnitPriceCents int64
	Quantity       int
}

type AttemptInput struct {
	OrderID       string
	CorrelationID string
	Phone         string
	AmountCents   int64
}

type Repository interface {
	// Create persists the order, its frozen line items and the matching
	// stock decrements in one transaction. A line whose product no longer
	// has enough stock fails the whole transaction with ErrOutOfStock.
	Create(ctx context.Context, in CreateOrderInput) (*domain.Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	List(ctx context.Context, status string) ([]domain.Order, error)

	SetCorrelationID(ctx context.Context, orderID, correlationID string) error
	// MarkPaid flips payment_status pending->paid and advances the order to
	// processing. Returns updated=false when the order was already paid, so
	// callers can keep finalization idempotent.
	MarkPaid(ctx context.Context, orderID, receiptNumber string) (bool, error)
	SwitchToCash(ctx context.Context, orderID string) error
	AdvanceStatus(ctx context.Context, orderNumber, next string) (*domain.Order, error)

	CreateAttempt(ctx context.Context, in AttemptInput) (*domain.PaymentAttempt, error)
	FinishAttempt(ctx context.Context, correlationID, status, receiptNumber, failureReason string) error
}
