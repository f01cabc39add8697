package domain

// Stock issue kinds reported by the checkout stock verifier.
const (
	StockIssueNotFound     = "not_found"
	StockIssueOutOfStock   = "out_of_stock"
	StockIssueInsufficient = "insufficient_stock"
	// StockIssueUnavailable marks a line whose stock could not be probed at
	// all. The check fails closed, but callers can offer a retry instead of
	// telling the customer the item is gone.
	StockIssueUnavailable = "unavailable"
)

type StockIssue struct {
	ProductID    string `json:"productId"`
	ProductName  string `json:"productName,omitempty"`
	RequestedQty int    `json:"requestedQty"`
	AvailableQty int    `json:"availableQty"`
	Kind         string `json:"kind"`
}

// StockReport aggregates per-line availability gathered immediately before
// order creation. It is computed fresh on every checkout attempt.
type StockReport struct {
	HasIssues bool         `json:"hasIssues"`
	Issues    []StockIssue `json:"issues,omitempty"`
}
