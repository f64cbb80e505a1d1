package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/refund"
	"github.com/stripe/stripe-go/v76/transfer"
	"go.uber.org/zap"
)

// StripeProcessor implements Processor against the live Stripe API. The API
// key is set globally in main via stripe.Key.
type StripeProcessor struct {
	logger *zap.Logger
}

// NewStripeProcessor constructs a StripeProcessor.
func NewStripeProcessor(logger *zap.Logger) *StripeProcessor {
	return &StripeProcessor{logger: logger}
}

func (p *StripeProcessor) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	sessParams := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(params.Currency),
					UnitAmount: stripe.Int64(params.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(params.Description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		// Authorize now, capture after the configured delay.
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
			Metadata:      params.Metadata,
		},
		Metadata: params.Metadata,
	}
	sessParams.Context = ctx

	s, err := session.New(sessParams)
	if err != nil {
		return nil, fmt.Errorf("stripe: failed to create checkout session: %w", err)
	}

	out := &CheckoutSession{
		ID:       s.ID,
		URL:      s.URL,
		Metadata: s.Metadata,
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	return out, nil
}

func (p *StripeProcessor) GetSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent")

	s, err := session.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: failed to retrieve checkout session %s: %w", sessionID, err)
	}

	out := &CheckoutSession{
		ID:       s.ID,
		URL:      s.URL,
		Complete: s.Status == stripe.CheckoutSessionStatusComplete,
		Metadata: s.Metadata,
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	return out, nil
}

func (p *StripeProcessor) Capture(ctx context.Context, paymentIntentID string) error {
	params := &stripe.PaymentIntentCaptureParams{}
	params.Context = ctx
	if _, err := paymentintent.Capture(paymentIntentID, params); err != nil {
		var stripeErr *stripe.Error
		// A retried sweep after a crash-before-record: the intent is already
		// captured, so local bookkeeping may proceed.
		if errors.As(err, &stripeErr) && stripeErr.Code == "payment_intent_unexpected_state" {
			p.logger.Info("stripe: payment intent already captured",
				zap.String("paymentIntent", paymentIntentID))
			return nil
		}
		return fmt.Errorf("stripe: failed to capture payment intent %s: %w", paymentIntentID, err)
	}
	return nil
}

func (p *StripeProcessor) Refund(ctx context.Context, rp RefundParams) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(rp.PaymentIntentID),
	}
	if rp.ReverseTransfer {
		params.ReverseTransfer = stripe.Bool(true)
		params.RefundApplicationFee = stripe.Bool(true)
	}
	params.Context = ctx
	if rp.IdempotencyKey != "" {
		params.SetIdempotencyKey(rp.IdempotencyKey)
	}

	if _, err := refund.New(params); err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			switch stripeErr.Code {
			case stripe.ErrorCodeChargeAlreadyRefunded:
				// A repeated compensation attempt; nothing left to do.
				p.logger.Info("stripe: payment already refunded",
					zap.String("paymentIntent", rp.PaymentIntentID))
				return nil
			case "charge_not_captured":
				// Authorized but never captured: releasing the hold means
				// canceling the payment intent.
				return p.cancelIntent(ctx, rp.PaymentIntentID)
			}
		}
		return fmt.Errorf("stripe: failed to refund payment intent %s: %w", rp.PaymentIntentID, err)
	}
	return nil
}

func (p *StripeProcessor) cancelIntent(ctx context.Context, paymentIntentID string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	if _, err := paymentintent.Cancel(paymentIntentID, params); err != nil {
		var stripeErr *stripe.Error
		// Already canceled counts as released.
		if errors.As(err, &stripeErr) && stripeErr.Code == "payment_intent_unexpected_state" {
			return nil
		}
		return fmt.Errorf("stripe: failed to cancel payment intent %s: %w", paymentIntentID, err)
	}
	return nil
}

func (p *StripeProcessor) Transfer(ctx context.Context, tp TransferParams) (string, error) {
	params := &stripe.TransferParams{
		Amount:        stripe.Int64(tp.AmountCents),
		Currency:      stripe.String(tp.Currency),
		Destination:   stripe.String(tp.Destination),
		TransferGroup: stripe.String("booking_" + tp.BookingID),
		Metadata:      map[string]string{"booking_id": tp.BookingID},
	}
	params.Context = ctx
	params.SetIdempotencyKey(tp.IdempotencyKey)

	t, err := transfer.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			switch stripeErr.Code {
			case stripe.ErrorCodeBalanceInsufficient:
				return "", ErrInsufficientBalance
			case stripe.ErrorCodeAccountInvalid:
				return "", ErrRecipientNotPayable
			}
			if stripeErr.Param == "destination" {
				return "", ErrRecipientNotPayable
			}
		}
		return "", fmt.Errorf("stripe: failed to transfer to %s: %w", tp.Destination, err)
	}
	return t.ID, nil
}
