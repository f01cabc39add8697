package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"zawadi-commerce/internal/domain"
)

type stubProductRepo struct {
	products map[string]*domain.Product
	errs     map[string]error
}

func (s *stubProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	if err, ok := s.errs[id]; ok {
		return nil, err
	}
	if p, ok := s.products[id]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func snapshotWith(lines ...domain.CartLine) *domain.CartSnapshot {
	var subtotal int64
	for _, l := range lines {
		subtotal += l.UnitPriceCents * int64(l.Quantity)
	}
	return &domain.CartSnapshot{
		CartID:           "cart-1",
		Lines:            lines,
		SubtotalCents:    subtotal,
		DeliveryFeeCents: 20000,
		TotalCents:       subtotal + 20000,
		Currency:         "KES",
		CapturedAt:       time.Now(),
	}
}

func TestVerifier_AllAvailable(t *testing.T) {
	repo := &stubProductRepo{products: map[string]*domain.Product{
		"p1": {ID: "p1", Name: "Ring", StockQuantity: 5},
		"p2": {ID: "p2", Name: "Necklace", StockQuantity: 2},
	}}
	v := NewVerifier(repo, nil)

	report := v.Check(context.Background(), snapshotWith(
		domain.CartLine{ProductID: "p1", Quantity: 3, UnitPriceCents: 100},
		domain.CartLine{ProductID: "p2", Quantity: 2, UnitPriceCents: 100},
	))
	if report.HasIssues {
		t.Fatalf("unexpected issues: %+v", report.Issues)
	}
}

func TestVerifier_ReportsEveryKind(t *testing.T) {
	repo := &stubProductRepo{
		products: map[string]*domain.Product{
			"ok":    {ID: "ok", Name: "Bracelet", StockQuantity: 10},
			"short": {ID: "short", Name: "Ring", StockQuantity: 1},
			"zero":  {ID: "zero", Name: "Pendant", StockQuantity: 0},
		},
		errs: map[string]error{
			"down": errors.New("connection refused"),
		},
	}
	v := NewVerifier(repo, nil)

	report := v.Check(context.Background(), snapshotWith(
		domain.CartLine{ProductID: "ok", Quantity: 2},
		domain.CartLine{ProductID: "short", Quantity: 3},
		domain.CartLine{ProductID: "zero", Quantity: 1},
		domain.CartLine{ProductID: "gone", Quantity: 1},
		domain.CartLine{ProductID: "down", Quantity: 1},
	))
	if !report.HasIssues {
		t.Fatal("expected issues")
	}
	if len(report.Issues) != 4 {
		t.Fatalf("issues = %d, want 4 (every line is checked even when one fails)", len(report.Issues))
	}

	kinds := map[string]string{}
	for _, issue := range report.Issues {
		kinds[issue.ProductID] = issue.Kind
	}
	if kinds["short"] != domain.StockIssueInsufficient {
		t.Errorf("short kind = %q", kinds["short"])
	}
	if kinds["zero"] != domain.StockIssueOutOfStock {
		t.Errorf("zero kind = %q", kinds["zero"])
	}
	if kinds["gone"] != domain.StockIssueNotFound {
		t.Errorf("gone kind = %q", kinds["gone"])
	}
	if kinds["down"] != domain.StockIssueUnavailable {
		t.Errorf("down kind = %q (probe failures fail closed)", kinds["down"])
	}
}

func TestVerifier_InsufficientCarriesQuantities(t *testing.T) {
	repo := &stubProductRepo{products: map[string]*domain.Product{
		"p1": {ID: "p1", Name: "Ring", StockQuantity: 2},
	}}
	v := NewVerifier(repo, nil)

	report := v.Check(context.Background(), snapshotWith(
		domain.CartLine{ProductID: "p1", Quantity: 5},
	))
	if len(report.Issues) != 1 {
		t.Fatalf("issues = %d", len(report.Issues))
	}
	issue := report.Issues[0]
	if issue.RequestedQty != 5 || issue.AvailableQty != 2 {
		t.Fatalf("quantities = %d/%d, want 5/2", issue.RequestedQty, issue.AvailableQty)
	}
}
