// Package mpesa is a client for an M-Pesa style STK push gateway: it starts a
// push-payment prompt on the buyer's phone and answers status queries against
// the returned CheckoutRequestID.
package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"zawadi-commerce/internal/domain"
)

type Config struct {
	BaseURL   string
	ShortCode string
	Passkey   string
	APIKey    string
	// Timeout bounds every gateway round trip.
	Timeout time.Duration
}

type Client struct {
	httpClient *http.Client
	cfg        Config
	logger     *log.Logger
	nowFunc    func() time.Time
}

func NewClient(cfg Config, logger *log.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		logger:     logger,
		nowFunc:    time.Now,
	}
}

// PushResult carries the correlation id that links the push request to
// subsequent status queries.
type PushResult struct {
	CorrelationID     string
	MerchantRequestID string
	Description       string
}

// StatusResult is one answer to a status query, mapped into the
// domain.PushStatus vocabulary.
type StatusResult struct {
	Status        string
	ReceiptNumber string
	Description   string
}

type pushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type pushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	ErrorMessage        string `json:"errorMessage"`
}

type queryRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	CheckoutRequestID string `json:"CheckoutRequestID"`
}

type queryResponse struct {
	ResponseCode  string `json:"ResponseCode"`
	ResultCode    string `json:"ResultCode"`
	ResultDesc    string `json:"ResultDesc"`
	ReceiptNumber string `json:"MpesaReceiptNumber"`
	ErrorCode     string `json:"errorCode"`
	ErrorMessage  string `json:"errorMessage"`
	RequestID     string `json:"requestId"`
}

// InitiatePush asks the gateway to prompt phone for amountCents. The amount
// is rounded up to whole currency units; the gateway takes no fractions.
func (c *Client) InitiatePush(ctx context.Context, phone string, amountCents int64, reference string) (*PushResult, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}

	ts := c.nowFunc().UTC().Format("20060102150405")
	body := pushRequest{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          c.password(ts),
		Timestamp:         ts,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            WholeUnits(amountCents),
		PartyA:            normalized,
		PartyB:            c.cfg.ShortCode,
		PhoneNumber:       normalized,
		AccountReference:  reference,
		TransactionDesc:   "Order " + reference,
	}

	var resp pushResponse
	if err := c.post(ctx, "/mpesa/stkpush/v1/processrequest", body, &resp); err != nil {
		return nil, fmt.Errorf("push request: %w", err)
	}
	if resp.ResponseCode != "0" || resp.CheckoutRequestID == "" {
		reason := resp.ResponseDescription
		if reason == "" {
			reason = resp.ErrorMessage
		}
		if reason == "" {
			reason = "gateway refused the push request"
		}
		return nil, fmt.Errorf("push rejected: %s", reason)
	}

	c.logger.Printf("mpesa: push accepted reference=%s correlation_id=%s", reference, resp.CheckoutRequestID)
	return &PushResult{
		CorrelationID:     resp.CheckoutRequestID,
		MerchantRequestID: resp.MerchantRequestID,
		Description:       resp.ResponseDescription,
	}, nil
}

// QueryStatus asks the gateway what became of a push identified by its
// correlation id. A still-running transaction reports a pending status, not
// an error.
func (c *Client) QueryStatus(ctx context.Context, correlationID string) (*StatusResult, error) {
	ts := c.nowFunc().UTC().Format("20060102150405")
	body := queryRequest{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          c.password(ts),
		Timestamp:         ts,
		CheckoutRequestID: correlationID,
	}

	var resp queryResponse
	if err := c.post(ctx, "/mpesa/stkpushquery/v1/query", body, &resp); err != nil {
		return nil, fmt.Errorf("status query: %w", err)
	}

	// The gateway answers "still processing" as an error payload.
	if resp.ErrorCode == "500.001.1001" {
		return &StatusResult{Status: domain.PushStatusPending, Description: resp.ErrorMessage}, nil
	}
	if resp.ErrorCode != "" {
		return nil, fmt.Errorf("status query: gateway error %s: %s", resp.ErrorCode, resp.ErrorMessage)
	}

	return &StatusResult{
		Status:        statusFromResultCode(resp.ResultCode),
		ReceiptNumber: resp.ReceiptNumber,
		Description:   resp.ResultDesc,
	}, nil
}

func statusFromResultCode(code string) string {
	switch code {
	case "0":
		return domain.PushStatusCompleted
	case "1":
		return domain.PushStatusInsufficientFunds
	case "1032":
		return domain.PushStatusCancelled
	case "1037":
		return domain.PushStatusTimeout
	case "":
		return domain.PushStatusPending
	default:
		return domain.PushStatusFailed
	}
}

// WholeUnits rounds cents up to the nearest whole currency unit.
func WholeUnits(cents int64) int64 {
	return (cents + 99) / 100
}

func (c *Client) password(timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(c.cfg.ShortCode + c.cfg.Passkey + timestamp))
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode gateway response (http %d): %w", resp.StatusCode, err)
	}
	return nil
}
