package catalog

import (
	"context"
	"errors"
	"strings"

	"zawadi-commerce/internal/domain"
	productrepo "zawadi-commerce/internal/repository/product"
)

type Service struct {
	repo productRepo
}

type productRepo interface {
	List(ctx context.Context, category string) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, in productrepo.CreateProductInput) (*domain.Product, error)
	SetStock(ctx context.Context, id string, quantity int) error
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, category string) ([]domain.Product, error) {
	return s.repo.List(ctx, strings.TrimSpace(category))
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

type CreateInput struct {
	SKU           string `json:"sku"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Category      string `json:"category"`
	ImageURL      string `json:"imageUrl"`
	PriceCents    int64  `json:"priceCents"`
	Currency      string `json:"currency"`
	StockQuantity int    `json:"stockQuantity"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Product, error) {
	if strings.TrimSpace(in.SKU) == "" {
		return nil, errors.New("sku required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, errors.New("name required")
	}
	if in.PriceCents <= 0 {
		return nil, errors.New("price must be positive")
	}
	if in.StockQuantity < 0 {
		return nil, errors.New("stock must not be negative")
	}
	currency := strings.TrimSpace(in.Currency)
	if currency == "" {
		currency = "KES"
	}
	return s.repo.Create(ctx, productrepo.CreateProductInput{
		SKU:           strings.TrimSpace(in.SKU),
		Name:          strings.TrimSpace(in.Name),
		Description:   in.Description,
		Category:      strings.TrimSpace(in.Category),
		ImageURL:      in.ImageURL,
		PriceCents:    in.PriceCents,
		Currency:      currency,
		StockQuantity: in.StockQuantity,
	})
}

func (s *Service) SetStock(ctx context.Context, id string, quantity int) error {
	if quantity < 0 {
		return errors.New("stock must not be negative")
	}
	return s.repo.SetStock(ctx, id, quantity)
}
