package cart

import (
	"context"

	"zawadi-commerce/internal/domain"
)

type Repository interface {
	GetOrCreateByToken(ctx context.Context, token, currency string) (*domain.Cart, error)
	GetByToken(ctx context.Context, token string) (*domain.Cart, error)
	AddLine(ctx context.Context, cartID string, product domain.Product, quantity int) error
	ChangeLineQuantity(ctx context.Context, cartID, lineID string, quantity int) error
	Clear(ctx context.Context, cartID string) error
}
