package domain

import "time"

// Order lifecycle. Transitions are append-only: an order never moves back to
// an earlier stage through the public API.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusPaid       = "paid"
	OrderStatusDelivered  = "delivered"
	OrderStatusCompleted  = "completed"
)

const (
	PaymentMethodPush = "push_payment"
	PaymentMethodCash = "cash_on_delivery"
)

const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// orderStatusRank orders lifecycle stages for append-only checks.
var orderStatusRank = map[string]int{
	OrderStatusPending:    0,
	OrderStatusProcessing: 1,
	OrderStatusPaid:       2,
	OrderStatusDelivered:  3,
	OrderStatusCompleted:  4,
}

// StatusAdvances reports whether moving from to next is a forward transition.
func StatusAdvances(from, next string) bool {
	a, ok := orderStatusRank[from]
	if !ok {
		return false
	}
	b, ok := orderStatusRank[next]
	if !ok {
		return false
	}
	return b > a
}

type Order struct {
	ID               string      `json:"id"`
	OrderNumber      string      `json:"orderNumber"`
	Status           string      `json:"status"`
	PaymentMethod    string      `json:"paymentMethod"`
	PaymentStatus    string      `json:"paymentStatus"`
	SubtotalCents    int64       `json:"subtotalCents"`
	DeliveryFeeCents int64       `json:"deliveryFeeCents"`
	TotalCents       int64       `json:"totalCents"`
	Currency         string      `json:"currency"`
	CustomerName     string      `json:"customerName"`
	Phone            string      `json:"phone"`
	Address          string      `json:"address"`
	City             string      `json:"city,omitempty"`
	Notes            string      `json:"notes,omitempty"`
	ReceiptNumber    string      `json:"receiptNumber,omitempty"`
	CorrelationID    string      `json:"-"`
	Items            []OrderItem `json:"items,omitempty"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

// OrderItem is a frozen copy of the product at purchase time. It is never
// joined live against the catalog: name, image and price stay as sold even
// if the product is edited or deleted afterwards.
type OrderItem struct {
	ID             string  `json:"id"`
	OrderID        string  `json:"orderId"`
	ProductID      *string `json:"productId,omitempty"`
	ProductName    string  `json:"productName"`
	ProductImage   string  `json:"productImage,omitempty"`
	UnitPriceCents int64   `json:"unitPriceCents"`
	Quantity       int     `json:"quantity"`
}
