package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"zawadi-commerce/internal/domain"
	"zawadi-commerce/internal/mpesa"
)

// scriptedGateway returns one scripted result per call and counts queries.
// The last step repeats once the script runs out.
type scriptedGateway struct {
	mu     sync.Mutex
	script []queryStep
	calls  int
}

type queryStep struct {
	res *mpesa.StatusResult
	err error
}

func (g *scriptedGateway) QueryStatus(_ context.Context, _ string) (*mpesa.StatusResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	step := g.script[len(g.script)-1]
	if g.calls < len(g.script) {
		step = g.script[g.calls]
	}
	g.calls++
	return step.res, step.err
}

func (g *scriptedGateway) queryCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func pendingStep() queryStep {
	return queryStep{res: &mpesa.StatusResult{Status: domain.PushStatusPending}}
}

func newTestPoller(g *scriptedGateway, maxAttempts int) *Poller {
	return NewPoller(g, time.Millisecond, maxAttempts, nil)
}

func TestPoller_SuccessOnFourthAttempt(t *testing.T) {
	g := &scriptedGateway{script: []queryStep{
		pendingStep(),
		pendingStep(),
		pendingStep(),
		{res: &mpesa.StatusResult{Status: domain.PushStatusCompleted, ReceiptNumber: "ABC123XYZ"}},
	}}
	p := newTestPoller(g, 35)

	outcome, err := p.Await(context.Background(), "ws_CO_1")
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if !outcome.Succeeded || outcome.ReceiptNumber != "ABC123XYZ" {
		t.Fatalf("outcome = %+v", outcome)
	}
	if outcome.Attempts != 4 {
		t.Fatalf("attempts = %d, want 4", outcome.Attempts)
	}
	if n := g.queryCount(); n != 4 {
		t.Fatalf("queries = %d, want 4 (no queries after a terminal result)", n)
	}
}

func TestPoller_CancelledOnFirstAttempt(t *testing.T) {
	g := &scriptedGateway{script: []queryStep{
		{res: &mpesa.StatusResult{Status: domain.PushStatusCancelled, Description: "Request cancelled by user"}},
	}}
	p := newTestPoller(g, 35)

	outcome, err := p.Await(context.Background(), "ws_CO_1")
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if outcome.Succeeded {
		t.Fatal("expected failure")
	}
	if outcome.FailureReason != "Request cancelled by user" {
		t.Fatalf("reason = %q", outcome.FailureReason)
	}
	if outcome.Status != domain.PushStatusCancelled {
		t.Fatalf("status = %q", outcome.Status)
	}
	if n := g.queryCount(); n != 1 {
		t.Fatalf("queries = %d, want 1", n)
	}
}

func TestPoller_EveryTerminalFailureHaltsImmediately(t *testing.T) {
	for _, status := range []string{
		domain.PushStatusFailed,
		domain.PushStatusCancelled,
		domain.PushStatusInsufficientFunds,
		domain.PushStatusTimeout,
	} {
		t.Run(status, func(t *testing.T) {
			g := &scriptedGateway{script: []queryStep{
				{res: &mpesa.StatusResult{Status: status, Description: "settled"}},
			}}
			p := newTestPoller(g, 35)

			outcome, err := p.Await(context.Background(), "ws_CO_1")
			if err != nil {
				t.Fatalf("Await: %v", err)
			}
			if outcome.Succeeded || outcome.TimedOut {
				t.Fatalf("outcome = %+v", outcome)
			}
			if outcome.Status != status {
				t.Errorf("status = %q, want %q", outcome.Status, status)
			}
			if n := g.queryCount(); n != 1 {
				t.Errorf("queries = %d, want 1", n)
			}
		})
	}
}

func TestPoller_TransientErrorsAreSwallowed(t *testing.T) {
	g := &scriptedGateway{script: []queryStep{
		{err: errors.New("connection reset")},
		{err: errors.New("connection reset")},
		{res: &mpesa.StatusResult{Status: domain.PushStatusCompleted, ReceiptNumber: "R1"}},
	}}
	p := newTestPoller(g, 35)

	outcome, err := p.Await(context.Background(), "ws_CO_1")
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if !outcome.Succeeded {
		t.Fatalf("outcome = %+v", outcome)
	}
	if n := g.queryCount(); n != 3 {
		t.Fatalf("queries = %d, want 3", n)
	}
}

func TestPoller_CeilingReached(t *testing.T) {
	g := &scriptedGateway{script: []queryStep{pendingStep()}}
	p := newTestPoller(g, 35)

	outcome, err := p.Await(context.Background(), "ws_CO_1")
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if outcome.Succeeded || !outcome.TimedOut {
		t.Fatalf("outcome = %+v", outcome)
	}
	if n := g.queryCount(); n != 35 {
		t.Fatalf("queries = %d, want exactly 35", n)
	}
	if outcome.FailureReason != timeoutReason {
		t.Fatalf("reason = %q", outcome.FailureReason)
	}
}

func TestPoller_ContextCancellationStopsLoop(t *testing.T) {
	g := &scriptedGateway{script: []queryStep{pendingStep()}}
	p := NewPoller(g, 50*time.Millisecond, 35, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := p.Await(ctx, "ws_CO_1")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
