package payment

import (
	"context"
	"fmt"
	"sync"
)

// FakeProcessor is a deterministic in-memory Processor for development and
// tests. It mirrors the real implementation's state transitions exactly; only
// the external calls are replaced.
type FakeProcessor struct {
	mu sync.Mutex

	sessions  map[string]*fakeSession
	transfers map[string]string // idempotency key -> transfer id
	refunded  map[string]bool   // payment intent id -> refunded
	captured  map[string]bool   // payment intent id -> captured
	seq       int

	// AutoComplete marks every created session as complete immediately, so a
	// verify call succeeds without a browser step.
	AutoComplete bool

	// TransferErr, when set, is returned by Transfer to simulate processor
	// failures (ErrInsufficientBalance, ErrRecipientNotPayable, ...).
	TransferErr error
	// RefundErr, when set, is returned by Refund.
	RefundErr error
}

type fakeSession struct {
	id              string
	url             string
	paymentIntentID string
	complete        bool
	metadata        map[string]string
	amountCents     int64
}

// NewFakeProcessor constructs an empty FakeProcessor.
func NewFakeProcessor() *FakeProcessor {
	return &FakeProcessor{
		sessions:  make(map[string]*fakeSession),
		transfers: make(map[string]string),
		refunded:  make(map[string]bool),
		captured:  make(map[string]bool),
	}
}

func (p *FakeProcessor) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.seq++
	s := &fakeSession{
		id:              fmt.Sprintf("cs_fake_%06d", p.seq),
		paymentIntentID: fmt.Sprintf("pi_fake_%06d", p.seq),
		metadata:        cloneMetadata(params.Metadata),
		amountCents:     params.AmountCents,
		complete:        p.AutoComplete,
	}
	s.url = "https://checkout.fake.local/pay/" + s.id
	p.sessions[s.id] = s

	return &CheckoutSession{
		ID:              s.id,
		URL:             s.url,
		PaymentIntentID: s.paymentIntentID,
		Complete:        s.complete,
		Metadata:        cloneMetadata(s.metadata),
	}, nil
}

func (p *FakeProcessor) GetSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("fake processor: no such session %s", sessionID)
	}
	return &CheckoutSession{
		ID:              s.id,
		URL:             s.url,
		PaymentIntentID: s.paymentIntentID,
		Complete:        s.complete,
		Metadata:        cloneMetadata(s.metadata),
	}, nil
}

// CompleteSession marks a session as paid; the test stand-in for the client
// finishing hosted checkout.
func (p *FakeProcessor) CompleteSession(sessionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.sessions[sessionID]
	if !ok {
		return fmt.Errorf("fake processor: no such session %s", sessionID)
	}
	s.complete = true
	return nil
}

func (p *FakeProcessor) Capture(ctx context.Context, paymentIntentID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.captured[paymentIntentID] = true
	return nil
}

func (p *FakeProcessor) Refund(ctx context.Context, params RefundParams) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.RefundErr != nil {
		return p.RefundErr
	}
	p.refunded[params.PaymentIntentID] = true
	return nil
}

func (p *FakeProcessor) Transfer(ctx context.Context, params TransferParams) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.TransferErr != nil {
		return "", p.TransferErr
	}
	if id, ok := p.transfers[params.IdempotencyKey]; ok {
		return id, nil
	}
	id := fmt.Sprintf("tr_fake_%06d", len(p.transfers)+1)
	p.transfers[params.IdempotencyKey] = id
	return id, nil
}

// Refunded reports whether the given payment intent was refunded.
func (p *FakeProcessor) Refunded(paymentIntentID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refunded[paymentIntentID]
}

// Captured reports whether the given payment intent was captured.
func (p *FakeProcessor) Captured(paymentIntentID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.captured[paymentIntentID]
}

// TransferCount returns how many distinct transfers were executed.
func (p *FakeProcessor) TransferCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.transfers)
}

func cloneMetadata(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
