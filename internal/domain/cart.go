package domain

import "time"

type Cart struct {
	ID         string     `json:"id"`
	Token      string     `json:"-"`
	Currency   string     `json:"currency"`
	TotalCents int64      `json:"totalCents"`
	State      string     `json:"state"`
	CreatedAt  time.Time  `json:"createdAt"`
	Lines      []CartLine `json:"lineItems,omitempty"`
}

type CartLine struct {
	ID             string    `json:"id"`
	CartID         string    `json:"cartId"`
	ProductID      string    `json:"productId"`
	ProductName    string    `json:"productName"`
	ProductImage   string    `json:"productImage,omitempty"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unitPriceCents"`
	TotalCents     int64     `json:"totalCents"`
	CreatedAt      time.Time `json:"createdAt"`
}

// CartSnapshot is the immutable view of a cart handed to checkout. Totals are
// computed server-side at capture time; client echoes are checked against it.
type CartSnapshot struct {
	CartID           string     `json:"cartId"`
	Lines            []CartLine `json:"lines"`
	SubtotalCents    int64      `json:"subtotalCents"`
	DeliveryFeeCents int64      `json:"deliveryFeeCents"`
	TotalCents       int64      `json:"totalCents"`
	Currency         string     `json:"currency"`
	CapturedAt       time.Time  `json:"capturedAt"`
}
