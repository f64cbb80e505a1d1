package booking

import (
	"context"
	"errors"
	"time"

	bookingRepo "brightnest/database/repository/booking"
	"brightnest/models"

	"go.uber.org/zap"
)

const maxPhotoProofs = 10

// CompleteBooking records the provider's claim that the work is done. It
// requires funds already held in escrow, stamps the photo proofs and starts
// the client confirmation window. The escrow itself does not move here.
func (e *DefaultBookingEngine) CompleteBooking(ctx context.Context, bookingID, providerID string, proofs []string) (*models.Booking, error) {
	if len(proofs) == 0 {
		return nil, NewError(CodeValidation, "at least one photo proof is required")
	}
	if len(proofs) > maxPhotoProofs {
		return nil, NewError(CodeValidation, "at most %d photo proofs are accepted", maxPhotoProofs)
	}
	for _, p := range proofs {
		if p == "" {
			return nil, NewError(CodeValidation, "photo proof URLs must be non-empty")
		}
	}

	b, err := e.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.ProviderID != providerID {
		return nil, NewError(CodeForbidden, "booking %s does not belong to provider %s", bookingID, providerID)
	}

	deadline := time.Now().Add(e.Config.ConfirmationWindow)
	updated, err := e.Bookings.MarkAwaitingConfirmation(ctx, bookingID, proofs, deadline)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrGuardFailed) {
			if b.AwaitingClientConfirmation {
				return nil, NewError(CodeInvalidTransition,
					"completion of booking %s was already reported", bookingID)
			}
			if b.PaymentStatus != models.PaymentHeldInEscrow {
				return nil, NewError(CodeEscrowNotHeld,
					"booking %s has payment status %s; funds must be in escrow before completion", bookingID, b.PaymentStatus)
			}
			return nil, NewError(CodeInvalidTransition,
				"booking %s is %s and cannot be completed", bookingID, b.Status)
		}
		return nil, err
	}

	e.Logger.Info("completion reported",
		zap.String("booking", updated.ID),
		zap.String("provider", providerID),
		zap.Int("proofs", len(proofs)),
		zap.Time("confirmationDeadline", deadline))

	_ = e.Notifier.CompletionReported(ctx, updated)
	return updated, nil
}

// ConfirmCompletion is the client accepting the reported work, which releases
// the escrow to the provider immediately.
func (e *DefaultBookingEngine) ConfirmCompletion(ctx context.Context, bookingID, userID string) (*models.Booking, error) {
	b, err := e.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, NewError(CodeForbidden, "booking %s does not belong to user %s", bookingID, userID)
	}
	if b.DisputeStatus == models.DisputeOpen {
		return nil, NewError(CodeInvalidTransition,
			"booking %s has an open dispute; it must be resolved by an admin", bookingID)
	}
	if !b.AwaitingClientConfirmation || b.Status != models.BookingAwaitingConf {
		return nil, NewError(CodeNotAwaitingConfirmation,
			"booking %s is not awaiting confirmation", bookingID)
	}

	return e.Release(ctx, bookingID, models.ReleaseClientConfirmed)
}

// CancelBooking cancels a not-yet-completed booking and refunds whatever the
// processor is holding. Either party of the booking may cancel while it is
// still pending; once the provider reported completion the client's recourse
// is a dispute, not a cancellation.
func (e *DefaultBookingEngine) CancelBooking(ctx context.Context, bookingID, actorID, reason string) (*models.Booking, error) {
	b, err := e.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != actorID && b.ProviderID != actorID {
		return nil, NewError(CodeForbidden, "booking %s does not involve %s", bookingID, actorID)
	}
	if b.Status != models.BookingPending {
		return nil, NewError(CodeInvalidTransition,
			"booking %s is %s and can no longer be cancelled", bookingID, b.Status)
	}

	if reason == "" {
		reason = "cancelled by " + actorRole(b, actorID)
	}

	switch b.PaymentStatus {
	case models.PaymentAuthorized, models.PaymentHeldInEscrow:
		cancelled, err := e.RefundEscrow(ctx, b, reason)
		if err != nil {
			return nil, err
		}
		e.Logger.Info("booking cancelled with refund",
			zap.String("booking", bookingID), zap.String("actor", actorID))
		return cancelled, nil

	case models.PaymentUnpaid:
		cancelled, err := e.Bookings.MarkCancelled(ctx, bookingID, reason)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrGuardFailed) {
				return nil, NewError(CodeInvalidTransition,
					"booking %s was already transitioned by a concurrent request", bookingID)
			}
			return nil, err
		}
		return cancelled, nil
	}

	return nil, NewError(CodeInvalidTransition,
		"booking %s has payment status %s and cannot be cancelled", bookingID, b.PaymentStatus)
}

func actorRole(b *models.Booking, actorID string) string {
	if b.ProviderID == actorID {
		return "provider"
	}
	return "client"
}
