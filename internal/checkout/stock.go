package checkout

import (
	"context"
	"errors"
	"io"
	"log"
	"sort"
	"sync"

	"zawadi-commerce/internal/domain"
)

type stockProductRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

// Verifier re-checks, at checkout time, that every cart line still has
// sufficient inventory. It is a read-only probe: nothing is reserved here.
// The authoritative reservation happens inside the order-create transaction.
type Verifier struct {
	products stockProductRepo
	logger   *log.Logger
}

func NewVerifier(products stockProductRepo, logger *log.Logger) *Verifier {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Verifier{products: products, logger: logger}
}

// Check probes every line concurrently and aggregates the results after all
// probes settle. A probe failure marks its line unavailable (fail closed)
// without aborting the remaining lines.
func (v *Verifier) Check(ctx context.Context, snap *domain.CartSnapshot) domain.StockReport {
	issues := make([]domain.StockIssue, len(snap.Lines))
	found := make([]bool, len(snap.Lines))

	var wg sync.WaitGroup
	for i, line := range snap.Lines {
		wg.Add(1)
		go func(i int, line domain.CartLine) {
			defer wg.Done()
			if issue := v.checkLine(ctx, line); issue != nil {
				issues[i] = *issue
				found[i] = true
			}
		}(i, line)
	}
	wg.Wait()

	var report domain.StockReport
	for i := range issues {
		if found[i] {
			report.Issues = append(report.Issues, issues[i])
		}
	}
	report.HasIssues = len(report.Issues) > 0
	if report.HasIssues {
		sort.Slice(report.Issues, func(a, b int) bool {
			return report.Issues[a].ProductID < report.Issues[b].ProductID
		})
		v.logger.Printf("checkout: stock check cart_id=%s issues=%d", snap.CartID, len(report.Issues))
	}
	return report
}

func (v *Verifier) checkLine(ctx context.Context, line domain.CartLine) *domain.StockIssue {
	product, err := v.products.GetByID(ctx, line.ProductID)
	if err != nil {
		kind := domain.StockIssueUnavailable
		if errors.Is(err, domain.ErrNotFound) {
			kind = domain.StockIssueNotFound
		}
		return &domain.StockIssue{
			ProductID:    line.ProductID,
			ProductName:  line.ProductName,
			RequestedQty: line.Quantity,
			Kind:         kind,
		}
	}

	switch {
	case product.StockQuantity <= 0:
		return &domain.StockIssue{
			ProductID:    line.ProductID,
			ProductName:  product.Name,
			RequestedQty: line.Quantity,
			AvailableQty: 0,
			Kind:         domain.StockIssueOutOfStock,
		}
	case product.StockQuantity < line.Quantity:
		return &domain.StockIssue{
			ProductID:    line.ProductID,
			ProductName:  product.Name,
			RequestedQty: line.Quantity,
			AvailableQty: product.StockQuantity,
			Kind:         domain.StockIssueInsufficient,
		}
	}
	return nil
}
