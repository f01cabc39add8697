// Package invoice renders printable order invoices from the frozen order
// items. It deliberately never consults the live catalog: an invoice shows
// the goods as they were sold.
package invoice

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"zawadi-commerce/internal/domain"
)

const (
	AudienceCustomer = "customer"
	AudienceAdmin    = "admin"
)

var tmpl = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"money": FormatMoney,
	"lineTotal": func(item domain.OrderItem) int64 {
		return item.UnitPriceCents * int64(item.Quantity)
	},
}).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Invoice {{.Order.OrderNumber}}</title></head>
<body>
<h1>Zawadi Jewellers</h1>
<h2>Invoice {{.Order.OrderNumber}}</h2>
<p>Date: {{.Order.CreatedAt.Format "02 Jan 2006"}}</p>
<p>Billed to: {{.Order.CustomerName}}, {{.Order.Address}}{{if .Order.City}}, {{.Order.City}}{{end}}</p>
<table border="1" cellpadding="6" cellspacing="0">
<tr><th>Item</th><th>Qty</th><th>Unit price</th><th>Total</th></tr>
{{range .Order.Items}}<tr>
<td>{{.ProductName}}</td>
<td>{{.Quantity}}</td>
<td>{{money $.Order.Currency .UnitPriceCents}}</td>
<td>{{money $.Order.Currency (lineTotal .)}}</td>
</tr>{{end}}
</table>
<p>Subtotal: {{money .Order.Currency .Order.SubtotalCents}}</p>
<p>Delivery: {{money .Order.Currency .Order.DeliveryFeeCents}}</p>
<p><strong>Total: {{money .Order.Currency .Order.TotalCents}}</strong></p>
<p>Payment: {{.PaymentLabel}}{{if .Order.ReceiptNumber}} (receipt {{.Order.ReceiptNumber}}){{end}}</p>
{{if .ShowInternal}}
<hr>
<p>Order id: {{.Order.ID}}</p>
<p>Payment status: {{.Order.PaymentStatus}} / order status: {{.Order.Status}}</p>
{{if .Order.CorrelationID}}<p>Gateway correlation id: {{.Order.CorrelationID}}</p>{{end}}
{{end}}
</body>
</html>
`))

type invoiceData struct {
	Order        *domain.Order
	PaymentLabel string
	ShowInternal bool
}

// Render produces the invoice document for the given audience. The admin
// view includes internal payment references; the customer view does not.
func Render(order *domain.Order, audience string) ([]byte, error) {
	if order == nil {
		return nil, fmt.Errorf("no order")
	}
	if audience != AudienceCustomer && audience != AudienceAdmin {
		return nil, fmt.Errorf("unknown audience %q", audience)
	}

	data := invoiceData{
		Order:        order,
		PaymentLabel: paymentLabel(order.PaymentMethod),
		ShowInternal: audience == AudienceAdmin,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render invoice: %w", err)
	}
	return buf.Bytes(), nil
}

func paymentLabel(method string) string {
	switch method {
	case domain.PaymentMethodPush:
		return "M-Pesa"
	case domain.PaymentMethodCash:
		return "Cash on delivery"
	}
	return method
}

// FormatMoney renders int64 cents as "KES 5,200.00".
func FormatMoney(currency string, cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := cents / 100
	frac := cents % 100
	return fmt.Sprintf("%s %s%s.%02d", currency, sign, groupThousands(whole), frac)
}

func groupThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	return s + "," + strings.Join(parts, ",")
}
