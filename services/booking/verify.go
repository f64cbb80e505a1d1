package booking

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	bookingRepo "brightnest/database/repository/booking"
	"brightnest/models"
	"brightnest/services/payment"
	"brightnest/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// VerifyPayment materializes the booking for a completed checkout session.
//
// The operation is idempotent: the booking id is derived from nothing but the
// session, and a unique index on checkoutSessionId guarantees at most one row
// per session, so repeated callbacks return the same booking. The insert runs
// inside a transaction that re-checks slot overlap against current data; when
// the slot was lost in the meantime the already-authorized payment is
// refunded as a compensating action and the caller gets a
// SLOT_NO_LONGER_AVAILABLE error.
func (e *DefaultBookingEngine) VerifyPayment(ctx context.Context, sessionID string) (*models.Booking, error) {
	if sessionID == "" {
		return nil, NewError(CodeValidation, "session_id is required")
	}

	// Repeated callback for an already-materialized session.
	if existing, err := e.Bookings.GetBySessionID(ctx, sessionID); err == nil {
		return existing, nil
	} else if !errors.Is(err, bookingRepo.ErrNotFound) {
		return nil, err
	}

	sess, err := e.Processor.GetSession(ctx, sessionID)
	if err != nil {
		return nil, NewError(CodePaymentNotCompleted, "could not retrieve checkout session %s: %v", sessionID, err)
	}
	if !sess.Complete {
		return nil, NewError(CodePaymentNotCompleted, "checkout session %s has not completed payment", sessionID)
	}

	draft, err := e.draftForSession(ctx, sess)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	captureAfter := now.Add(e.Config.CaptureDelay)
	b := &models.Booking{
		ID:                uuid.New().String(),
		ServiceID:         draft.ServiceID,
		UserID:            draft.UserID,
		ProviderID:        draft.ProviderID,
		Date:              draft.Date,
		Amount:            draft.Amount,
		Currency:          draft.Currency,
		Status:            models.BookingPending,
		PaymentStatus:     models.PaymentAuthorized,
		CheckoutSessionID: sess.ID,
		PaymentIntentID:   sess.PaymentIntentID,
		CaptureAfter:      &captureAfter,
		Notes:             draft.Notes,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if draft.StartTime != "" && draft.EndTime != "" {
		b.StartTime = &draft.StartTime
		b.EndTime = &draft.EndTime
	}

	err = e.Bookings.CreateIfSlotFree(ctx, b)
	switch {
	case err == nil:
		// fall through
	case errors.Is(err, bookingRepo.ErrSessionExists):
		// Concurrent callback won the insert; return its booking.
		return e.Bookings.GetBySessionID(ctx, sessionID)
	case errors.Is(err, bookingRepo.ErrSlotTaken):
		// The conflicting row may be this very session, committed by a
		// concurrent callback; refunding then would strip the winner's
		// booking of its payment. Re-read before compensating.
		if winner, readErr := e.Bookings.GetBySessionID(ctx, sessionID); readErr == nil {
			return winner, nil
		}
		e.compensateLostSlot(ctx, sess.PaymentIntentID, sessionID)
		return nil, NewError(CodeSlotConflict,
			"slot on %s is no longer available; the payment is being refunded", draft.Date)
	default:
		return nil, err
	}

	e.Logger.Info("booking materialized",
		zap.String("booking", b.ID),
		zap.String("session", sessionID),
		zap.String("service", b.ServiceID),
		zap.String("date", b.Date))

	_ = e.Notifier.BookingCreated(ctx, b)
	return b, nil
}

// draftForSession rebuilds the booking draft from session metadata, falling
// back to the cached copy written at checkout time.
func (e *DefaultBookingEngine) draftForSession(ctx context.Context, sess *payment.CheckoutSession) (*models.CheckoutDraft, error) {
	draft, err := models.DraftFromMetadata(sess.Metadata)
	if err == nil {
		return draft, nil
	}

	if e.Cache != nil {
		data, cacheErr := e.Cache.Get(ctx, utils.CheckoutDraftPrefix+sess.ID).Result()
		if cacheErr == nil {
			var meta map[string]string
			if jsonErr := json.Unmarshal([]byte(data), &meta); jsonErr == nil {
				if draft, err2 := models.DraftFromMetadata(meta); err2 == nil {
					return draft, nil
				}
			}
		}
	}
	return nil, NewError(CodeMetadataInvalid, "checkout session %s carries no usable booking draft: %v", sess.ID, err)
}

// compensateLostSlot refunds a payment whose slot was taken by a competing
// booking. The refund is enqueued durably first so a crash cannot lose the
// compensation, then attempted once synchronously for a fast user-facing
// outcome; the queued task is idempotent against the synchronous attempt.
func (e *DefaultBookingEngine) compensateLostSlot(ctx context.Context, paymentIntentID, sessionID string) {
	if e.Refunds != nil {
		if err := e.Refunds.ScheduleRefund(ctx, paymentIntentID, "slot_conflict"); err != nil {
			e.Logger.Error("failed to enqueue conflict refund",
				zap.String("paymentIntent", paymentIntentID), zap.Error(err))
		}
	}

	err := e.Processor.Refund(ctx, payment.RefundParams{
		PaymentIntentID: paymentIntentID,
		IdempotencyKey:  "refund_conflict_" + paymentIntentID,
	})
	if err != nil {
		e.Logger.Warn("synchronous conflict refund failed, queued task will retry",
			zap.String("paymentIntent", paymentIntentID),
			zap.String("session", sessionID),
			zap.Error(err))
	}
}
