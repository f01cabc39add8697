package checkout

import (
	"context"
	"io"
	"log"
	"time"

	"zawadi-commerce/internal/domain"
	"zawadi-commerce/internal/mpesa"
)

type statusQuerier interface {
	QueryStatus(ctx context.Context, correlationID string) (*mpesa.StatusResult, error)
}

// PollOutcome is the terminal result of one confirmation poll.
type PollOutcome struct {
	Succeeded     bool
	TimedOut      bool
	Status        string
	ReceiptNumber string
	FailureReason string
	Attempts      int
}

// timeoutReason matches the push expiry window: if nothing definitive came
// back, the prompt most likely expired on the handset.
const timeoutReason = "We could not confirm your payment in time. Please check your messages and try again."

// Poller repeatedly queries payment status until a definitive result or the
// attempt ceiling. Transient query errors are swallowed and retried on the
// next tick; only context cancellation aborts the loop early.
type Poller struct {
	gateway     statusQuerier
	interval    time.Duration
	maxAttempts int
	logger      *log.Logger
}

func NewPoller(gateway statusQuerier, interval time.Duration, maxAttempts int, logger *log.Logger) *Poller {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 35
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Poller{gateway: gateway, interval: interval, maxAttempts: maxAttempts, logger: logger}
}

// Await blocks until the push identified by correlationID settles. It stops
// immediately on a definitive success or failure; nothing is queried after a
// terminal result. The returned error is non-nil only when ctx is cancelled.
func (p *Poller) Await(ctx context.Context, correlationID string) (*PollOutcome, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		res, err := p.gateway.QueryStatus(ctx, correlationID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Transient; retry on the next tick.
			p.logger.Printf("checkout: poll attempt=%d correlation_id=%s transient error=%v", attempt, correlationID, err)
			continue
		}

		switch {
		case res.Status == domain.PushStatusCompleted:
			p.logger.Printf("checkout: poll settled success attempt=%d correlation_id=%s", attempt, correlationID)
			return &PollOutcome{
				Succeeded:     true,
				Status:        res.Status,
				ReceiptNumber: res.ReceiptNumber,
				Attempts:      attempt,
			}, nil
		case domain.TerminalPushStatus(res.Status):
			reason := res.Description
			if reason == "" {
				reason = "Payment was not completed."
			}
			p.logger.Printf("checkout: poll settled failure attempt=%d correlation_id=%s status=%s", attempt, correlationID, res.Status)
			return &PollOutcome{
				Succeeded:     false,
				Status:        res.Status,
				ReceiptNumber: res.ReceiptNumber,
				FailureReason: reason,
				Attempts:      attempt,
			}, nil
		default:
			// Still pending; next tick.
			continue
		}
	}

	p.logger.Printf("checkout: poll ceiling reached correlation_id=%s attempts=%d", correlationID, p.maxAttempts)
	return &PollOutcome{
		Succeeded:     false,
		TimedOut:      true,
		Status:        domain.PushStatusTimeout,
		FailureReason: timeoutReason,
		Attempts:      p.maxAttempts,
	}, nil
}
