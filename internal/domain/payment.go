package domain

import "time"

// Gateway status vocabulary for a push-payment attempt.
const (
	PushStatusPending           = "pending"
	PushStatusCompleted         = "completed"
	PushStatusFailed            = "failed"
	PushStatusCancelled         = "cancelled"
	PushStatusInsufficientFunds = "failed_insufficient_funds"
	PushStatusTimeout           = "timeout"
)

// PaymentAttempt tracks one push request from initiation to its terminal
// result. CorrelationID links the push to subsequent status queries.
type PaymentAttempt struct {
	ID            string    `json:"id"`
	OrderID       string    `json:"orderId"`
	CorrelationID string    `json:"correlationId"`
	Phone         string    `json:"phone"`
	AmountCents   int64     `json:"amountCents"`
	Status        string    `json:"status"`
	ReceiptNumber string    `json:"receiptNumber,omitempty"`
	FailureReason string    `json:"failureReason,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// TerminalPushStatus reports whether status ends an attempt.
func TerminalPushStatus(status string) bool {
	switch status {
	case PushStatusCompleted, PushStatusFailed, PushStatusCancelled,
		PushStatusInsufficientFunds, PushStatusTimeout:
		return true
	}
	return false
}
