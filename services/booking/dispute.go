package booking

import (
	"context"
	"errors"

	bookingRepo "brightnest/database/repository/booking"
	"brightnest/models"

	"go.uber.org/zap"
)

const minDisputeReasonLen = 10

// Dispute resolutions accepted from the admin surface.
const (
	ResolutionRefund  = "refund"
	ResolutionRelease = "release"
)

// OpenDispute lets the client contest a reported completion. The escrow is
// frozen: the auto-release sweep skips disputed bookings until an admin rules.
func (e *DefaultBookingEngine) OpenDispute(ctx context.Context, bookingID, userID, reason string) (*models.Booking, error) {
	if len(reason) < minDisputeReasonLen {
		return nil, NewError(CodeValidation,
			"dispute reason must be at least %d characters", minDisputeReasonLen)
	}

	b, err := e.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, NewError(CodeForbidden, "booking %s does not belong to user %s", bookingID, userID)
	}

	disputed, err := e.Bookings.OpenDispute(ctx, bookingID, reason)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrGuardFailed) {
			if b.DisputeStatus != "" {
				return nil, NewError(CodeDisputeAlreadyOpen,
					"booking %s already has a dispute on record", bookingID)
			}
			return nil, NewError(CodeNotAwaitingConfirmation,
				"booking %s is not awaiting confirmation; only reported completions can be disputed", bookingID)
		}
		return nil, err
	}

	e.Logger.Info("dispute opened",
		zap.String("booking", disputed.ID),
		zap.String("user", userID))

	_ = e.Notifier.DisputeOpened(ctx, disputed)
	return disputed, nil
}

// ResolveDispute records an admin verdict and then moves the money. The
// verdict is stamped first through a guarded update, so two admins racing on
// the same dispute produce exactly one ruling; the payment step runs after
// and is idempotent, so a crash between the two leaves a booking that an
// admin can safely re-resolve with the same verdict.
func (e *DefaultBookingEngine) ResolveDispute(ctx context.Context, bookingID, adminID, resolution, notes string) (*models.Booking, error) {
	var verdict string
	switch resolution {
	case ResolutionRefund:
		verdict = models.DisputeResolvedRefund
	case ResolutionRelease:
		verdict = models.DisputeResolvedPay
	default:
		return nil, NewError(CodeValidation,
			"resolution must be %q or %q", ResolutionRefund, ResolutionRelease)
	}

	b, err := e.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	stamped, err := e.Bookings.ResolveDispute(ctx, bookingID, verdict, adminID, notes)
	if err != nil {
		if !errors.Is(err, bookingRepo.ErrGuardFailed) {
			return nil, err
		}
		// Not an open dispute. Allow re-running the payment step when the same
		// verdict was already stamped but the money never moved.
		switch {
		case b.DisputeStatus == verdict && b.PaymentStatus == models.PaymentHeldInEscrow:
			stamped = b
		case b.DisputeStatus == models.DisputeResolvedRefund || b.DisputeStatus == models.DisputeResolvedPay:
			return nil, NewError(CodeDisputeResolved,
				"dispute on booking %s was already resolved as %s", bookingID, b.DisputeStatus)
		default:
			return nil, NewError(CodeDisputeNotOpen, "booking %s has no open dispute", bookingID)
		}
	}

	var resolved *models.Booking
	if verdict == models.DisputeResolvedRefund {
		resolved, err = e.RefundEscrow(ctx, stamped, "dispute resolved in client's favor")
	} else {
		resolved, err = e.Release(ctx, bookingID, models.ReleaseAdminResolved)
	}
	if err != nil {
		e.Logger.Error("dispute verdict stamped but payment step failed; safe to retry",
			zap.String("booking", bookingID),
			zap.String("verdict", verdict),
			zap.Error(err))
		return nil, err
	}

	e.Logger.Info("dispute resolved",
		zap.String("booking", resolved.ID),
		zap.String("admin", adminID),
		zap.String("verdict", verdict))

	_ = e.Notifier.DisputeResolved(ctx, resolved)
	return resolved, nil
}
