// Package events publishes order lifecycle notifications to an AMQP topic
// exchange for back-office consumers. The publisher is optional: without an
// AMQP URL the API runs with a no-op implementation.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"zawadi-commerce/internal/domain"

	"github.com/streadway/amqp"
)

const exchangeName = "orders"

const (
	routingOrderCreated  = "order.created"
	routingOrderPaid     = "order.paid"
	routingPaymentFailed = "order.payment_failed"
)

type orderEvent struct {
	OrderNumber   string    `json:"order_number"`
	Status        string    `json:"status"`
	PaymentMethod string    `json:"payment_method"`
	TotalCents    int64     `json:"total_cents"`
	Currency      string    `json:"currency"`
	ReceiptNumber string    `json:"receipt_number,omitempty"`
	FailureReason string    `json:"failure_reason,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher sends order events over one AMQP channel.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *log.Logger
}

// NewPublisher dials the broker and declares the orders exchange.
func NewPublisher(url string, logger *log.Logger) (*Publisher, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchangeName, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{conn: conn, channel: ch, logger: logger}, nil
}

func (p *Publisher) OrderCreated(_ context.Context, o *domain.Order) error {
	return p.publish(routingOrderCreated, eventFromOrder(o, ""))
}

func (p *Publisher) OrderPaid(_ context.Context, o *domain.Order) error {
	return p.publish(routingOrderPaid, eventFromOrder(o, ""))
}

func (p *Publisher) PaymentFailed(_ context.Context, o *domain.Order, reason string) error {
	return p.publish(routingPaymentFailed, eventFromOrder(o, reason))
}

func (p *Publisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}

func (p *Publisher) publish(routingKey string, ev orderEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	err = p.channel.Publish(exchangeName, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	p.logger.Printf("events: published key=%s order=%s", routingKey, ev.OrderNumber)
	return nil
}

func eventFromOrder(o *domain.Order, failureReason string) orderEvent {
	return orderEvent{
		OrderNumber:   o.OrderNumber,
		Status:        o.Status,
		PaymentMethod: o.PaymentMethod,
		TotalCents:    o.TotalCents,
		Currency:      o.Currency,
		ReceiptNumber: o.ReceiptNumber,
		FailureReason: failureReason,
		OccurredAt:    time.Now().UTC(),
	}
}

// Noop satisfies the checkout publisher contract when eventing is disabled.
type Noop struct{}

func (Noop) OrderCreated(context.Context, *domain.Order) error { return nil }

func (Noop) OrderPaid(context.Context, *domain.Order) error { return nil }

func (Noop) PaymentFailed(context.Context, *domain.Order, string) error { return nil }
