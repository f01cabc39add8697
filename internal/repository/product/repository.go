package product

import (
	"context"

	"zawadi-commerce/internal/domain"
)

type CreateProductInput struct {
	SKU           string
	Name          string
	Description   string
	Category      string
	ImageURL      string
	PriceCents    int64
	Currency      string
	StockQuantity int
}

type Repository interface {
	List(ctx context.Context, category string) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, in CreateProductInput) (*domain.Product, error)
	SetStock(ctx context.Context, id string, quantity int) error
}
