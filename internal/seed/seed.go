package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type productSeed struct {
	SKU           string
	Name          string
	Description   string
	Category      string
	ImageURL      string
	PriceCents    int64
	StockQuantity int
}

// Apply inserts demo catalog data for manual testing. Idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	products := []productSeed{
		{
			SKU:           "ZW-RING-GOLD-01",
			Name:          "Twisted Gold Band",
			Description:   "18k gold band with a twisted rope profile",
			Category:      "rings",
			ImageURL:      "/images/twisted-gold-band.jpg",
			PriceCents:    1250000,
			StockQuantity: 8,
		},
		{
			SKU:           "ZW-NECK-PRL-01",
			Name:          "Freshwater Pearl Necklace",
			Description:   "Single-strand freshwater pearls, 45cm",
			Category:      "necklaces",
			ImageURL:      "/images/pearl-necklace.jpg",
			PriceCents:    850000,
			StockQuantity: 5,
		},
		{
			SKU:           "ZW-EAR-SIL-01",
			Name:          "Silver Hoop Earrings",
			Description:   "Sterling silver hoops, 30mm",
			Category:      "earrings",
			ImageURL:      "/images/silver-hoops.jpg",
			PriceCents:    320000,
			StockQuantity: 20,
		},
		{
			SKU:           "ZW-BRC-BEAD-01",
			Name:          "Maasai Bead Bracelet",
			Description:   "Handmade bead bracelet with brass clasp",
			Category:      "bracelets",
			ImageURL:      "/images/maasai-bracelet.jpg",
			PriceCents:    180000,
			StockQuantity: 30,
		},
	}

	for _, p := range products {
		if _, err := pool.Exec(ctx, `
INSERT INTO products (sku, name, description, category, image_url, price_cents, currency, stock_quantity)
VALUES ($1, $2, $3, $4, $5, $6, 'KES', $7)
ON CONFLICT (sku) DO UPDATE
SET name = EXCLUDED.name,
    description = EXCLUDED.description,
    category = EXCLUDED.category,
    image_url = EXCLUDED.image_url,
    price_cents = EXCLUDED.price_cents,
    stock_quantity = EXCLUDED.stock_quantity
`, p.SKU, p.Name, p.Description, p.Category, p.ImageURL, p.PriceCents, p.StockQuantity); err != nil {
			return fmt.Errorf("seed product %s: %w", p.SKU, err)
		}
	}
	return nil
}
