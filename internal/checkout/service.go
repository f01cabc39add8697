// Package checkout coordinates the storefront's one real state machine: cart
// snapshot -> stock verification -> order creation -> push payment ->
// confirmation polling -> finalization.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"zawadi-commerce/internal/domain"
	"zawadi-commerce/internal/mpesa"
	orderrepo "zawadi-commerce/internal/repository/order"
)

// Flow states visible to the UI.
const (
	StateIdle          = "idle"
	StateInitiating    = "initiating"
	StatePolling       = "polling"
	StateSuccess       = "success"
	StateFailed        = "failed"
	StateStockConflict = "stock_conflict"
)

var (
	// ErrFlowInProgress means this cart session already has an active flow.
	ErrFlowInProgress = errors.New("a checkout is already in progress for this cart")
	// ErrAlreadyPaid blocks retries against a settled order.
	ErrAlreadyPaid = errors.New("order is already paid")
	// ErrPaymentInitiation wraps gateway rejections at the push step. The
	// order already exists and stays pending; no charge state was created.
	ErrPaymentInitiation = errors.New("payment initiation failed")
)

type cartService interface {
	Get(ctx context.Context, token string) (*domain.Cart, error)
	Snapshot(ctx context.Context, token string) (*domain.CartSnapshot, error)
	Clear(ctx context.Context, cartID string) error
}

// Gateway is the push-payment collaborator.
type Gateway interface {
	InitiatePush(ctx context.Context, phone string, amountCents int64, reference string) (*mpesa.PushResult, error)
	QueryStatus(ctx context.Context, correlationID string) (*mpesa.StatusResult, error)
}

// EventPublisher receives order lifecycle notifications. Publish failures are
// logged, never surfaced to the customer.
type EventPublisher interface {
	OrderCreated(ctx context.Context, o *domain.Order) error
	OrderPaid(ctx context.Context, o *domain.Order) error
	PaymentFailed(ctx context.Context, o *domain.Order, reason string) error
}

// FlowStatus is the orchestrator's answer to UI status polling.
type FlowStatus struct {
	OrderNumber     string `json:"orderNumber"`
	State           string `json:"state"`
	ReceiptNumber   string `json:"receiptNumber,omitempty"`
	FailureReason   string `json:"failureReason,omitempty"`
	Attempts        int    `json:"attempts,omitempty"`
	CanRetry        bool   `json:"canRetry"`
	CanSwitchToCash bool   `json:"canSwitchToCash"`
}

type ServiceConfig struct {
	PollInterval    time.Duration
	PollMaxAttempts int
	GatewayTimeout  time.Duration
}

// Service drives the checkout flow end to end and tracks per-order flow state
// for the UI. At most one flow runs per cart token, and an order created by
// one attempt is never duplicated by retries.
type Service struct {
	carts    cartService
	verifier *Verifier
	builder  *Builder
	orders   orderrepo.Repository
	gateway  Gateway
	poller   *Poller
	locker   FlowLocker
	events   EventPublisher
	logger   *log.Logger

	gatewayTimeout time.Duration
	lockTTL        time.Duration

	mu    sync.Mutex
	flows map[string]*FlowStatus

	flowCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewService(carts cartService, verifier *Verifier, builder *Builder, orders orderrepo.Repository, gateway Gateway, locker FlowLocker, events EventPublisher, cfg ServiceConfig, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if cfg.GatewayTimeout <= 0 {
		cfg.GatewayTimeout = 10 * time.Second
	}
	poller := NewPoller(gateway, cfg.PollInterval, cfg.PollMaxAttempts, logger)

	// The lock must outlive the longest possible poll.
	lockTTL := poller.interval*time.Duration(poller.maxAttempts) + 30*time.Second

	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		carts:          carts,
		verifier:       verifier,
		builder:        builder,
		orders:         orders,
		gateway:        gateway,
		poller:         poller,
		locker:         locker,
		events:         events,
		logger:         logger,
		gatewayTimeout: cfg.GatewayTimeout,
		lockTTL:        lockTTL,
		flows:          make(map[string]*FlowStatus),
		flowCtx:        ctx,
		cancel:         cancel,
	}
}

type BeginInput struct {
	Delivery      DeliveryDetails `json:"delivery"`
	PaymentMethod string          `json:"paymentMethod"`
	Totals        *TotalsEcho     `json:"totals,omitempty"`
}

type BeginResult struct {
	State string              `json:"state"`
	Order *domain.Order       `json:"order,omitempty"`
	Stock *domain.StockReport `json:"stock,omitempty"`
}

// Begin runs one checkout attempt for the cart identified by token. A stock
// conflict aborts before any order exists; the cash path settles immediately;
// the push path hands off to a background confirmation poll.
func (s *Service) Begin(ctx context.Context, token string, in BeginInput) (*BeginResult, error) {
	acquired, err := s.locker.Acquire(ctx, token, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire flow lock: %w", err)
	}
	if !acquired {
		return nil, ErrFlowInProgress
	}
	// Released here unless a background poll takes ownership.
	ownsLock := true
	defer func() {
		if ownsLock {
			s.releaseLock(token)
		}
	}()

	snap, err := s.carts.Snapshot(ctx, token)
	if err != nil {
		return nil, err
	}

	report := s.verifier.Check(ctx, snap)
	if report.HasIssues {
		return &BeginResult{State: StateStockConflict, Stock: &report}, nil
	}

	ord, err := s.builder.Build(ctx, snap, in.Delivery, in.PaymentMethod, in.Totals)
	if err != nil {
		return nil, err
	}
	if err := s.events.OrderCreated(ctx, ord); err != nil {
		s.logger.Printf("checkout: publish order created number=%s error=%v", ord.OrderNumber, err)
	}

	if in.PaymentMethod == domain.PaymentMethodCash {
		if err := s.carts.Clear(ctx, snap.CartID); err != nil {
			s.logger.Printf("checkout: clear cart cart_id=%s error=%v", snap.CartID, err)
		}
		s.setFlow(&FlowStatus{OrderNumber: ord.OrderNumber, State: StateSuccess})
		return &BeginResult{State: StateSuccess, Order: ord}, nil
	}

	if err := s.startPush(ctx, ord, snap.CartID, token); err != nil {
		return nil, err
	}
	ownsLock = false
	return &BeginResult{State: StatePolling, Order: ord}, nil
}

// Retry re-enters the payment step for an existing order. It never creates a
// second order.
func (s *Service) Retry(ctx context.Context, token, orderNumber string) (*FlowStatus, error) {
	ord, err := s.orders.GetByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if ord.PaymentStatus == domain.PaymentStatusPaid {
		return nil, ErrAlreadyPaid
	}
	if ord.PaymentMethod != domain.PaymentMethodPush {
		return nil, domain.ErrConflict
	}

	acquired, err := s.locker.Acquire(ctx, token, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire flow lock: %w", err)
	}
	if !acquired {
		return nil, ErrFlowInProgress
	}

	cartID := ""
	if cart, err := s.carts.Get(ctx, token); err == nil {
		cartID = cart.ID
	}

	if err := s.startPush(ctx, ord, cartID, token); err != nil {
		s.releaseLock(token)
		return nil, err
	}
	return s.flowByNumber(ord.OrderNumber), nil
}

// SwitchToCash converts an order whose push payment failed into a
// cash-on-delivery order, keeping the same order id. A flow that is still
// initiating or polling must settle first: switching mid-poll would let a
// late gateway confirmation pay the now-cash order.
func (s *Service) SwitchToCash(ctx context.Context, token, orderNumber string) (*domain.Order, error) {
	ord, err := s.orders.GetByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if fs := s.flowByNumber(orderNumber); fs != nil && (fs.State == StateInitiating || fs.State == StatePolling) {
		return nil, ErrFlowInProgress
	}

	acquired, err := s.locker.Acquire(ctx, token, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire flow lock: %w", err)
	}
	if !acquired {
		return nil, ErrFlowInProgress
	}
	defer s.releaseLock(token)

	if err := s.orders.SwitchToCash(ctx, ord.ID); err != nil {
		return nil, err
	}

	if cart, err := s.carts.Get(ctx, token); err == nil {
		if err := s.carts.Clear(ctx, cart.ID); err != nil {
			s.logger.Printf("checkout: clear cart cart_id=%s error=%v", cart.ID, err)
		}
	}
	s.setFlow(&FlowStatus{OrderNumber: ord.OrderNumber, State: StateSuccess})

	return s.orders.GetByNumber(ctx, orderNumber)
}

// Status reports the flow state for an order. Orders with no in-memory flow
// (after a restart, or from another replica) are derived from the record.
func (s *Service) Status(ctx context.Context, orderNumber string) (*FlowStatus, error) {
	if fs := s.flowByNumber(orderNumber); fs != nil {
		return fs, nil
	}

	ord, err := s.orders.GetByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	switch {
	case ord.PaymentStatus == domain.PaymentStatusPaid:
		return &FlowStatus{OrderNumber: orderNumber, State: StateSuccess, ReceiptNumber: ord.ReceiptNumber}, nil
	case ord.PaymentMethod == domain.PaymentMethodCash:
		return &FlowStatus{OrderNumber: orderNumber, State: StateSuccess}, nil
	default:
		return &FlowStatus{OrderNumber: orderNumber, State: StateIdle, CanRetry: true, CanSwitchToCash: true}, nil
	}
}

// Close cancels in-flight confirmation polls and waits for them to stop.
func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
}

// startPush initiates the gateway push and hands the correlation id to a
// background poll. On gateway rejection the order stays pending with no
// charge state; the caller keeps the lock.
func (s *Service) startPush(ctx context.Context, ord *domain.Order, cartID, token string) error {
	s.setFlow(&FlowStatus{OrderNumber: ord.OrderNumber, State: StateInitiating})

	initCtx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	res, err := s.gateway.InitiatePush(initCtx, ord.Phone, ord.TotalCents, ord.OrderNumber)
	if err != nil {
		s.setFlow(&FlowStatus{
			OrderNumber:     ord.OrderNumber,
			State:           StateFailed,
			FailureReason:   err.Error(),
			CanRetry:        true,
			CanSwitchToCash: true,
		})
		return fmt.Errorf("%w: %v", ErrPaymentInitiation, err)
	}

	if err := s.orders.SetCorrelationID(ctx, ord.ID, res.CorrelationID); err != nil {
		s.logger.Printf("checkout: store correlation id number=%s error=%v", ord.OrderNumber, err)
	}
	if _, err := s.orders.CreateAttempt(ctx, orderrepo.AttemptInput{
		OrderID:       ord.ID,
		CorrelationID: res.CorrelationID,
		Phone:         ord.Phone,
		AmountCents:   ord.TotalCents,
	}); err != nil {
		s.logger.Printf("checkout: record attempt number=%s error=%v", ord.OrderNumber, err)
	}

	s.setFlow(&FlowStatus{OrderNumber: ord.OrderNumber, State: StatePolling})

	s.wg.Add(1)
	go s.runPoll(ord, res.CorrelationID, cartID, token)
	return nil
}

// runPoll drives one confirmation poll to its terminal state. The flow lock
// is released strictly before the terminal flow state becomes visible, so a
// caller observing failed/success can immediately retry or switch to cash.
func (s *Service) runPoll(ord *domain.Order, correlationID, cartID, token string) {
	defer s.wg.Done()

	outcome, err := s.poller.Await(s.flowCtx, correlationID)
	if err != nil {
		// Cancelled (shutdown or navigation away); the attempt record stays
		// pending for reconciliation.
		s.releaseLock(token)
		s.setFlow(&FlowStatus{
			OrderNumber:     ord.OrderNumber,
			State:           StateFailed,
			FailureReason:   "Checkout was interrupted before payment could be confirmed.",
			CanRetry:        true,
			CanSwitchToCash: true,
		})
		return
	}

	// Poll goroutines outlive the request; finalization gets its own bound.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if outcome.Succeeded {
		s.finalizeSuccess(ctx, ord, correlationID, cartID, outcome)
		s.releaseLock(token)
		s.setFlow(&FlowStatus{
			OrderNumber:   ord.OrderNumber,
			State:         StateSuccess,
			ReceiptNumber: outcome.ReceiptNumber,
			Attempts:      outcome.Attempts,
		})
		return
	}

	if err := s.orders.FinishAttempt(ctx, correlationID, outcome.Status, "", outcome.FailureReason); err != nil {
		s.logger.Printf("checkout: finish attempt correlation_id=%s error=%v", correlationID, err)
	}
	if err := s.events.PaymentFailed(ctx, ord, outcome.FailureReason); err != nil {
		s.logger.Printf("checkout: publish payment failed number=%s error=%v", ord.OrderNumber, err)
	}
	s.releaseLock(token)
	s.setFlow(&FlowStatus{
		OrderNumber:     ord.OrderNumber,
		State:           StateFailed,
		FailureReason:   outcome.FailureReason,
		Attempts:        outcome.Attempts,
		CanRetry:        true,
		CanSwitchToCash: true,
	})
}

// finalizeSuccess is idempotent: only the first confirmation marks the order
// paid, clears the cart and publishes the paid event. A duplicate terminal
// result records its receipt and nothing else.
func (s *Service) finalizeSuccess(ctx context.Context, ord *domain.Order, correlationID, cartID string, outcome *PollOutcome) {
	updated, err := s.orders.MarkPaid(ctx, ord.ID, outcome.ReceiptNumber)
	if err != nil {
		s.logger.Printf("checkout: mark paid number=%s error=%v", ord.OrderNumber, err)
	}
	if err := s.orders.FinishAttempt(ctx, correlationID, domain.PushStatusCompleted, outcome.ReceiptNumber, ""); err != nil {
		s.logger.Printf("checkout: finish attempt correlation_id=%s error=%v", correlationID, err)
	}

	if !updated {
		return
	}
	if cartID != "" {
		if err := s.carts.Clear(ctx, cartID); err != nil {
			s.logger.Printf("checkout: clear cart cart_id=%s error=%v", cartID, err)
		}
	}
	if err := s.events.OrderPaid(ctx, ord); err != nil {
		s.logger.Printf("checkout: publish order paid number=%s error=%v", ord.OrderNumber, err)
	}
}

func (s *Service) setFlow(fs *FlowStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flows[fs.OrderNumber] = fs
}

func (s *Service) flowByNumber(orderNumber string) *FlowStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fs, ok := s.flows[orderNumber]; ok {
		copied := *fs
		return &copied
	}
	return nil
}

func (s *Service) releaseLock(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.locker.Release(ctx, token); err != nil {
		s.logger.Printf("checkout: release flow lock token=%s error=%v", token, err)
	}
}
