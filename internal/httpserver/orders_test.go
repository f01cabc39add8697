package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"zawadi-commerce/internal/domain"

	"github.com/gin-gonic/gin"
)

type stubOrders struct {
	orders map[string]*domain.Order
}

func (s *stubOrders) GetByNumber(_ context.Context, orderNumber string) (*domain.Order, error) {
	if ord, ok := s.orders[orderNumber]; ok {
		return ord, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubOrders) List(_ context.Context, status string) ([]domain.Order, error) {
	var out []domain.Order
	for _, ord := range s.orders {
		if status == "" || ord.Status == status {
			out = append(out, *ord)
		}
	}
	return out, nil
}

func (s *stubOrders) AdvanceStatus(_ context.Context, orderNumber, next string) (*domain.Order, error) {
	ord, ok := s.orders[orderNumber]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !domain.StatusAdvances(ord.Status, next) {
		return nil, domain.ErrConflict
	}
	ord.Status = next
	return ord, nil
}

func newOrderRouter(orders *stubOrders) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/orders/:orderNumber", getOrderHandler(orders))
	r.GET("/api/orders/:orderNumber/invoice", invoiceHandler(orders))
	r.GET("/api/admin/orders", listOrdersHandler(orders))
	r.POST("/api/admin/orders/:orderNumber/advance", advanceOrderHandler(orders))
	return r
}

func paidOrder() *domain.Order {
	return &domain.Order{
		ID:            "ord-1",
		OrderNumber:   "ZW-260901-3FA2BC",
		Status:        domain.OrderStatusProcessing,
		PaymentMethod: domain.PaymentMethodPush,
		PaymentStatus: domain.PaymentStatusPaid,
		TotalCents:    520000,
		Currency:      "KES",
		CustomerName:  "Amina Otieno",
		Phone:         "254712345678",
		Address:       "14 Riverside Drive, Westlands",
		ReceiptNumber: "ABC123XYZ",
		CorrelationID: "ws_CO_010920261234",
		CreatedAt:     time.Now(),
		Items: []domain.OrderItem{
			{ProductName: "Maasai Beaded Ring", UnitPriceCents: 250000, Quantity: 2},
		},
	}
}

func TestGetOrderHandler(t *testing.T) {
	ord := paidOrder()
	router := newOrderRouter(&stubOrders{orders: map[string]*domain.Order{ord.OrderNumber: ord}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders/"+ord.OrderNumber, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var got domain.Order
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.OrderNumber != ord.OrderNumber || got.ReceiptNumber != "ABC123XYZ" {
		t.Errorf("got %+v", got)
	}
	if strings.Contains(rec.Body.String(), "ws_CO_010920261234") {
		t.Error("correlation id must never serialize")
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders/ZW-000000-NOPE00", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing order status = %d", rec.Code)
	}
}

func TestInvoiceHandler(t *testing.T) {
	ord := paidOrder()
	router := newOrderRouter(&stubOrders{orders: map[string]*domain.Order{ord.OrderNumber: ord}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders/"+ord.OrderNumber+"/invoice", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "Maasai Beaded Ring") {
		t.Error("invoice missing line item")
	}
	if strings.Contains(rec.Body.String(), "ws_CO_010920261234") {
		t.Error("customer invoice must not expose the correlation id")
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders/"+ord.OrderNumber+"/invoice?audience=admin", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("admin status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ws_CO_010920261234") {
		t.Error("admin invoice must include the correlation id")
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders/"+ord.OrderNumber+"/invoice?audience=public", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown audience status = %d", rec.Code)
	}
}

func TestAdvanceOrderHandler(t *testing.T) {
	ord := paidOrder()
	router := newOrderRouter(&stubOrders{orders: map[string]*domain.Order{ord.OrderNumber: ord}})

	body := strings.NewReader(`{"status":"delivered"}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/orders/"+ord.OrderNumber+"/advance", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Moving backwards is a conflict.
	body = strings.NewReader(`{"status":"pending"}`)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/orders/"+ord.OrderNumber+"/advance", body))
	if rec.Code != http.StatusConflict {
		t.Errorf("backwards transition status = %d", rec.Code)
	}
}

func TestListOrdersHandler(t *testing.T) {
	ord := paidOrder()
	router := newOrderRouter(&stubOrders{orders: map[string]*domain.Order{ord.OrderNumber: ord}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/orders?status=processing", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var out struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Count != 1 {
		t.Errorf("count = %d, want 1", out.Count)
	}
}
