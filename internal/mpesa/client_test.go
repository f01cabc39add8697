package mpesa

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"zawadi-commerce/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:   srv.URL,
		ShortCode: "174379",
		Passkey:   "testkey",
	}, nil)
}

func TestInitiatePush_Success(t *testing.T) {
	var received pushRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/mpesa/stkpush/v1/processrequest" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(pushResponse{
			MerchantRequestID:   "mr-1",
			CheckoutRequestID:   "ws_CO_123",
			ResponseCode:        "0",
			ResponseDescription: "Success. Request accepted for processing",
		})
	})

	res, err := client.InitiatePush(context.Background(), "0712345678", 520000, "ZW-250901-ABC123")
	if err != nil {
		t.Fatalf("InitiatePush: %v", err)
	}
	if res.CorrelationID != "ws_CO_123" {
		t.Fatalf("correlation id = %q", res.CorrelationID)
	}
	if received.PhoneNumber != "254712345678" || received.PartyA != "254712345678" {
		t.Fatalf("phone not normalized: %+v", received)
	}
	if received.Amount != 5200 {
		t.Fatalf("amount = %d, want whole units 5200", received.Amount)
	}
}

func TestInitiatePush_InvalidPhone(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("gateway should not be called for an invalid phone")
	})
	if _, err := client.InitiatePush(context.Background(), "12345", 520000, "ZW-1"); err == nil {
		t.Fatal("expected error for invalid phone")
	}
}

func TestInitiatePush_GatewayRejection(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"errorMessage": "Invalid PhoneNumber"})
	})
	_, err := client.InitiatePush(context.Background(), "0712345678", 100, "ZW-1")
	if err == nil {
		t.Fatal("expected rejection error")
	}
}

func TestQueryStatus_Mapping(t *testing.T) {
	cases := []struct {
		name       string
		resultCode string
		want       string
	}{
		{"success", "0", domain.PushStatusCompleted},
		{"insufficient funds", "1", domain.PushStatusInsufficientFunds},
		{"cancelled by payer", "1032", domain.PushStatusCancelled},
		{"push expired", "1037", domain.PushStatusTimeout},
		{"other failure", "2001", domain.PushStatusFailed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(queryResponse{
					ResponseCode:  "0",
					ResultCode:    tc.resultCode,
					ResultDesc:    "desc",
					ReceiptNumber: "ABC123XYZ",
				})
			})
			res, err := client.QueryStatus(context.Background(), "ws_CO_123")
			if err != nil {
				t.Fatalf("QueryStatus: %v", err)
			}
			if res.Status != tc.want {
				t.Fatalf("status = %q, want %q", res.Status, tc.want)
			}
		})
	}
}

func TestQueryStatus_StillProcessingIsPending(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(queryResponse{
			ErrorCode:    "500.001.1001",
			ErrorMessage: "The transaction is being processed",
		})
	})
	res, err := client.QueryStatus(context.Background(), "ws_CO_123")
	if err != nil {
		t.Fatalf("QueryStatus: %v", err)
	}
	if res.Status != domain.PushStatusPending {
		t.Fatalf("status = %q, want pending", res.Status)
	}
}

func TestWholeUnits_RoundsUp(t *testing.T) {
	cases := []struct {
		cents int64
		want  int64
	}{
		{0, 0},
		{1, 1},
		{99, 1},
		{100, 1},
		{101, 2},
		{520000, 5200},
		{520050, 5201},
	}
	for _, tc := range cases {
		if got := WholeUnits(tc.cents); got != tc.want {
			t.Errorf("WholeUnits(%d) = %d, want %d", tc.cents, got, tc.want)
		}
	}
}
