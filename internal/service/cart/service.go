package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"zawadi-commerce/internal/domain"
	cartrepo "zawadi-commerce/internal/repository/cart"
)

// Service is the cart aggregator: it owns line management and computes the
// subtotal / delivery fee / total the checkout flow works from.
type Service struct {
	repo             cartRepo
	productRepo      productRepo
	deliveryFeeCents int64
	currency         string
}

type cartRepo interface {
	GetOrCreateByToken(ctx context.Context, token, currency string) (*domain.Cart, error)
	GetByToken(ctx context.Context, token string) (*domain.Cart, error)
	AddLine(ctx context.Context, cartID string, product domain.Product, quantity int) error
	ChangeLineQuantity(ctx context.Context, cartID, lineID string, quantity int) error
	Clear(ctx context.Context, cartID string) error
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

func New(repo cartrepo.Repository, productRepo productRepo, deliveryFeeCents int64, currency string) *Service {
	return &Service{
		repo:             repo,
		productRepo:      productRepo,
		deliveryFeeCents: deliveryFeeCents,
		currency:         currency,
	}
}

func (s *Service) Get(ctx context.Context, token string) (*domain.Cart, error) {
	return s.repo.GetOrCreateByToken(ctx, token, s.currency)
}

func (s *Service) AddItem(ctx context.Context, token, productID string, quantity int) (*domain.Cart, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, errors.New("productId required")
	}
	if quantity <= 0 {
		return nil, errors.New("quantity must be positive")
	}

	cart, err := s.repo.GetOrCreateByToken(ctx, token, s.currency)
	if err != nil {
		return nil, err
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
		}
		return nil, err
	}
	if !product.InStock() {
		return nil, domain.ErrOutOfStock
	}

	if err := s.repo.AddLine(ctx, cart.ID, *product, quantity); err != nil {
		return nil, err
	}
	return s.repo.GetByToken(ctx, token)
}

func (s *Service) ChangeQuantity(ctx context.Context, token, lineID string, quantity int) (*domain.Cart, error) {
	if strings.TrimSpace(lineID) == "" {
		return nil, errors.New("lineId required")
	}
	cart, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ChangeLineQuantity(ctx, cart.ID, lineID, quantity); err != nil {
		return nil, err
	}
	return s.repo.GetByToken(ctx, token)
}

func (s *Service) Clear(ctx context.Context, cartID string) error {
	return s.repo.Clear(ctx, cartID)
}

// Snapshot captures the cart as checkout sees it. Totals are computed here,
// server-side; whatever the client displayed is only an echo to be verified.
func (s *Service) Snapshot(ctx context.Context, token string) (*domain.CartSnapshot, error) {
	cart, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if len(cart.Lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	var subtotal int64
	for _, line := range cart.Lines {
		subtotal += line.UnitPriceCents * int64(line.Quantity)
	}

	return &domain.CartSnapshot{
		CartID:           cart.ID,
		Lines:            cart.Lines,
		SubtotalCents:    subtotal,
		DeliveryFeeCents: s.deliveryFeeCents,
		TotalCents:       subtotal + s.deliveryFeeCents,
		Currency:         cart.Currency,
		CapturedAt:       time.Now().UTC(),
	}, nil
}
