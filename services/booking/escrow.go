package booking

import (
	"context"
	"errors"

	bookingRepo "brightnest/database/repository/booking"
	"brightnest/models"
	"brightnest/services/payment"

	"go.uber.org/zap"
)

// Release moves the escrowed funds to the provider, minus the platform fee,
// exactly once. Reason is one of the models.Release* constants.
//
// The held_in_escrow guard is re-read immediately before the transfer, and
// the transfer itself carries an idempotency key derived from the booking id,
// so neither a racing confirm/sweep pair nor a retried network call can
// double-pay. A failed transfer leaves local state untouched; the booking
// stays eligible for the next sweep or a manual re-trigger.
func (e *DefaultBookingEngine) Release(ctx context.Context, bookingID, reason string) (*models.Booking, error) {
	b, err := e.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	// Last guard before the external call.
	if b.PaymentStatus != models.PaymentHeldInEscrow {
		if b.PaymentStatus == models.PaymentReleased {
			return nil, NewError(CodeInvalidTransition, "booking %s was already released", bookingID)
		}
		return nil, NewError(CodeEscrowNotHeld,
			"booking %s has payment status %s, not held_in_escrow", bookingID, b.PaymentStatus)
	}

	provider, err := e.Providers.GetByID(ctx, b.ProviderID)
	if err != nil {
		return nil, NewError(CodeProviderNotPayable, "provider %s not found", b.ProviderID)
	}
	if !provider.Payable() {
		return nil, NewError(CodeProviderNotPayable,
			"provider %s has no verified payout account", b.ProviderID)
	}

	_, feeCents, providerCents := e.platformSplit(b.Amount)

	transferID, err := e.Processor.Transfer(ctx, payment.TransferParams{
		AmountCents:    providerCents,
		Currency:       b.Currency,
		Destination:    provider.Payout.StripeAccountID,
		BookingID:      b.ID,
		IdempotencyKey: "transfer_" + b.ID,
	})
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrInsufficientBalance):
			return nil, NewError(CodeBalanceInsufficient,
				"platform balance cannot cover payout for booking %s", b.ID)
		case errors.Is(err, payment.ErrRecipientNotPayable):
			return nil, NewError(CodeProviderNotPayable,
				"payout account of provider %s rejected the transfer", b.ProviderID)
		}
		return nil, err
	}

	released, err := e.Bookings.MarkReleased(ctx, b.ID, reason, transferID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrGuardFailed) {
			// A competing path won between our guard and the update. The
			// idempotent transfer means no money moved twice; log loudly and
			// return the winner's state.
			e.Logger.Error("release race detected after transfer; relying on transfer idempotency",
				zap.String("booking", b.ID), zap.String("reason", reason))
			return e.GetBooking(ctx, b.ID)
		}
		return nil, err
	}

	e.Logger.Info("escrow released",
		zap.String("booking", released.ID),
		zap.String("reason", reason),
		zap.String("transfer", transferID),
		zap.Int64("providerCents", providerCents),
		zap.Int64("feeCents", feeCents))

	_ = e.Notifier.EscrowReleased(ctx, released, float64(providerCents)/100)
	return released, nil
}

// RefundEscrow refunds the full original amount to the client and cancels
// the booking. Used by dispute resolution and by cancellation of paid
// bookings. Reverses an already-executed transfer (including the platform
// fee) in the degenerate case one exists.
//
// The status the caller read on b is re-checked atomically by the guarded
// update; a transition that raced in between leaves the row untouched and
// the winner's state is returned.
func (e *DefaultBookingEngine) RefundEscrow(ctx context.Context, b *models.Booking, reason string) (*models.Booking, error) {
	err := e.Processor.Refund(ctx, payment.RefundParams{
		PaymentIntentID: b.PaymentIntentID,
		ReverseTransfer: b.TransferID != "",
		IdempotencyKey:  "refund_" + b.ID,
	})
	if err != nil {
		return nil, err
	}

	refunded, err := e.Bookings.MarkRefunded(ctx, b.ID, b.Status, reason)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrGuardFailed) {
			e.Logger.Error("refund race detected after processor refund; relying on refund idempotency",
				zap.String("booking", b.ID), zap.String("reason", reason))
			return e.GetBooking(ctx, b.ID)
		}
		return nil, err
	}

	e.Logger.Info("escrow refunded",
		zap.String("booking", refunded.ID),
		zap.String("reason", reason),
		zap.Float64("amount", refunded.Amount))

	_ = e.Notifier.BookingRefunded(ctx, refunded, reason)
	return refunded, nil
}
