package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"zawadi-commerce/internal/domain"
	"zawadi-commerce/internal/mpesa"
	orderrepo "zawadi-commerce/internal/repository/order"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// DeliveryDetails is what the customer fills into the checkout form.
type DeliveryDetails struct {
	Name    string `json:"name" validate:"required,min=2,max=120"`
	Phone   string `json:"phone" validate:"required,kephone"`
	Address string `json:"address" validate:"required,min=5,max=300"`
	City    string `json:"city" validate:"max=80"`
	Notes   string `json:"notes" validate:"max=500"`
}

// TotalsEcho is the client's view of the money involved, checked against the
// server-side snapshot before any order is created.
type TotalsEcho struct {
	SubtotalCents    int64 `json:"subtotalCents"`
	DeliveryFeeCents int64 `json:"deliveryFeeCents"`
	TotalCents       int64 `json:"totalCents"`
}

// ValidationError carries per-field messages for a 400-class response.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid delivery details: %d field(s)", len(e.Fields))
}

// Builder turns a verified cart snapshot plus delivery details into one
// persisted order with frozen line items.
type Builder struct {
	orders   orderrepo.Repository
	validate *validatorv10.Validate
	logger   *log.Logger
}

func NewBuilder(orders orderrepo.Repository, logger *log.Logger) *Builder {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	v := validatorv10.New()
	// kephone accepts any number the gateway's normalization accepts.
	_ = v.RegisterValidation("kephone", func(fl validatorv10.FieldLevel) bool {
		_, err := mpesa.NormalizePhone(fl.Field().String())
		return err == nil
	})
	return &Builder{orders: orders, validate: v, logger: logger}
}

// Build validates details, verifies the client's totals echo, and creates the
// order atomically. Stock is consumed inside the same transaction, so a line
// that lost its inventory since the stock check fails the whole build with
// domain.ErrOutOfStock.
func (b *Builder) Build(ctx context.Context, snap *domain.CartSnapshot, details DeliveryDetails, paymentMethod string, echo *TotalsEcho) (*domain.Order, error) {
	if err := b.validateDetails(details); err != nil {
		return nil, err
	}
	if paymentMethod != domain.PaymentMethodPush && paymentMethod != domain.PaymentMethodCash {
		return nil, &ValidationError{Fields: map[string]string{"paymentMethod": "must be push_payment or cash_on_delivery"}}
	}
	if len(snap.Lines) == 0 {
		return nil, errors.New("cart snapshot is empty")
	}
	if echo != nil {
		if echo.SubtotalCents != snap.SubtotalCents ||
			echo.DeliveryFeeCents != snap.DeliveryFeeCents ||
			echo.TotalCents != snap.TotalCents {
			return nil, &ValidationError{Fields: map[string]string{"totals": "do not match the server-side cart"}}
		}
	}

	items := make([]orderrepo.ItemInput, 0, len(snap.Lines))
	for _, line := range snap.Lines {
		items = append(items, orderrepo.ItemInput{
			ProductID:      line.ProductID,
			ProductName:    line.ProductName,
			ProductImage:   line.ProductImage,
			UnitPriceCents: line.UnitPriceCents,
			Quantity:       line.Quantity,
		})
	}

	ord, err := b.orders.Create(ctx, orderrepo.CreateOrderInput{
		OrderNumber:      newOrderNumber(),
		PaymentMethod:    paymentMethod,
		SubtotalCents:    snap.SubtotalCents,
		DeliveryFeeCents: snap.DeliveryFeeCents,
		TotalCents:       snap.TotalCents,
		Currency:         snap.Currency,
		CustomerName:     strings.TrimSpace(details.Name),
		Phone:            strings.TrimSpace(details.Phone),
		Address:          strings.TrimSpace(details.Address),
		City:             strings.TrimSpace(details.City),
		Notes:            strings.TrimSpace(details.Notes),
		Items:            items,
	})
	if err != nil {
		return nil, err
	}
	b.logger.Printf("checkout: order created number=%s method=%s total_cents=%d", ord.OrderNumber, paymentMethod, ord.TotalCents)
	return ord, nil
}

func (b *Builder) validateDetails(details DeliveryDetails) error {
	err := b.validate.Struct(details)
	if err == nil {
		return nil
	}
	fields := map[string]string{}
	var verrs validatorv10.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields[strings.ToLower(fe.Field())] = validationMessage(fe)
		}
	} else {
		fields["details"] = err.Error()
	}
	return &ValidationError{Fields: fields}
}

func validationMessage(fe validatorv10.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "kephone":
		return "is not a valid Kenyan mobile number"
	case "min":
		return "is too short"
	case "max":
		return "is too long"
	}
	return "is invalid"
}

// newOrderNumber builds a short human-shareable reference like
// ZW-250901-3FA2BC. Uniqueness is enforced by the orders table.
func newOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("ZW-%s-%s", time.Now().UTC().Format("060102"), suffix)
}
