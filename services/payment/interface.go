package payment

import (
	"context"
	"errors"
)

// Terminal processor-side failures the booking engine distinguishes. Both
// leave local state untouched so the operation can be retried.
var (
	// ErrRecipientNotPayable means the destination account is missing or has
	// not finished onboarding; retrying without fixing the account is useless.
	ErrRecipientNotPayable = errors.New("recipient account is not payable")

	// ErrInsufficientBalance means the platform balance cannot cover the
	// transfer right now; retrying later may succeed.
	ErrInsufficientBalance = errors.New("platform balance insufficient for transfer")
)

// CheckoutParams describes a hosted checkout session to open. Funds are
// authorized at checkout and captured later, so the session is created with
// manual capture.
type CheckoutParams struct {
	AmountCents int64
	Currency    string
	Description string
	Metadata    map[string]string
	SuccessURL  string
	CancelURL   string
}

// CheckoutSession is the processor's view of a hosted checkout.
type CheckoutSession struct {
	ID              string
	URL             string
	PaymentIntentID string
	Complete        bool // the client finished checkout and funds are authorized
	Metadata        map[string]string
}

// RefundParams describes a refund of a captured or authorized payment.
// ReverseTransfer also claws back an already-executed transfer including the
// platform fee, where the processor supports it.
type RefundParams struct {
	PaymentIntentID string
	ReverseTransfer bool
	IdempotencyKey  string
}

// TransferParams describes a payout transfer to a connected account. The
// idempotency key is derived from the booking id so a retried network call
// cannot double-transfer.
type TransferParams struct {
	AmountCents    int64
	Currency       string
	Destination    string
	BookingID      string
	IdempotencyKey string
}

// Processor is the payment-processor capability the engine consumes. Two
// implementations exist: Stripe and a deterministic fake, selected by
// configuration.
type Processor interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
	GetSession(ctx context.Context, sessionID string) (*CheckoutSession, error)

	// Capture is idempotent: capturing an already-captured intent succeeds,
	// so a sweep retried after a crash can still record the capture locally.
	Capture(ctx context.Context, paymentIntentID string) error
	Refund(ctx context.Context, params RefundParams) error
	Transfer(ctx context.Context, params TransferParams) (string, error)
}
