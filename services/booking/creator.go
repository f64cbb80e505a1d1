package booking

import (
	"context"
	"encoding/json"
	"fmt"

	"brightnest/models"
	"brightnest/services/payment"
	"brightnest/utils"

	"go.uber.org/zap"
)

// CreateBookingRequest is the client's intent to book a slot. StartTime and
// EndTime are optional: both empty books the whole day; start without end
// lets the engine derive the end from the estimated duration.
type CreateBookingRequest struct {
	UserID    string `json:"userId"`
	ServiceID string `json:"serviceId"`
	Date      string `json:"date"`      // "YYYY-MM-DD"
	StartTime string `json:"startTime"` // "HH:MM", optional
	EndTime   string `json:"endTime"`   // "HH:MM", optional

	ApartmentSqm int    `json:"apartmentSqm"`
	Windows      int    `json:"windows"`
	Notes        string `json:"notes"`
}

// CheckoutIntent is what the caller needs to send the client to hosted
// checkout. No booking row exists yet; the row is materialized by
// VerifyPayment once the processor confirms payment.
type CheckoutIntent struct {
	CheckoutID  string  `json:"checkoutId"`
	RedirectURL string  `json:"redirectUrl"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
}

// CreateBooking validates the request, runs the best-effort pre-flight slot
// check, prices the job and opens a hosted checkout session carrying the full
// booking draft as metadata.
func (e *DefaultBookingEngine) CreateBooking(ctx context.Context, req CreateBookingRequest) (*CheckoutIntent, error) {
	if req.UserID == "" || req.ServiceID == "" || req.Date == "" {
		return nil, NewError(CodeValidation, "userId, serviceId and date are required")
	}

	svc, err := e.Services.GetByID(ctx, req.ServiceID)
	if err != nil {
		return nil, NewError(CodeServiceNotFound, "service %s not found", req.ServiceID)
	}
	if !svc.Active {
		return nil, NewError(CodeServiceUnavailable, "service %s is not active", req.ServiceID)
	}

	estimate := EstimateBooking(svc, req.ApartmentSqm, req.Windows)

	// Derive the end time when only a start was given.
	startTime, endTime := req.StartTime, req.EndTime
	if startTime != "" && endTime == "" {
		start, err := models.ParseClock(startTime)
		if err != nil {
			return nil, NewError(CodeValidation, "invalid startTime: %v", err)
		}
		endTime = models.FormatClock(start + estimate.DurationMinutes)
	}

	if err := ValidateSchedule(svc, req.Date, startTime, endTime); err != nil {
		return nil, err
	}

	if estimate.Amount < e.Config.MinBookingAmount {
		return nil, NewError(CodeAmountBelowMinimum,
			"booking amount %.2f is below the payable minimum %.2f", estimate.Amount, e.Config.MinBookingAmount)
	}

	// Best-effort pre-flight; the authoritative re-check runs at commit time.
	startMinute, endMinute := wholeDayOr(startTime, endTime)
	if err := e.checkSlotFree(ctx, req.ServiceID, req.Date, startMinute, endMinute); err != nil {
		return nil, err
	}

	draft := models.CheckoutDraft{
		ServiceID:  req.ServiceID,
		UserID:     req.UserID,
		ProviderID: svc.ProviderID,
		Date:       req.Date,
		StartTime:  startTime,
		EndTime:    endTime,
		Amount:     estimate.Amount,
		Currency:   e.Config.Currency,
		Notes:      req.Notes,
	}

	sess, err := e.Processor.CreateCheckoutSession(ctx, payment.CheckoutParams{
		AmountCents: toCents(estimate.Amount),
		Currency:    e.Config.Currency,
		Description: fmt.Sprintf("%s on %s", svc.Name, req.Date),
		Metadata:    draft.ToMetadata(),
		SuccessURL:  e.Config.CheckoutSuccessURL + "?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   e.Config.CheckoutCancelURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open checkout session: %w", err)
	}

	// Cache the draft as a backup for metadata; losing it only costs the
	// fallback, so failures are logged and ignored.
	if e.Cache != nil {
		if data, err := json.Marshal(draft.ToMetadata()); err == nil {
			if err := e.Cache.Set(ctx, utils.CheckoutDraftPrefix+sess.ID, data, utils.CheckoutDraftTTL).Err(); err != nil {
				e.Logger.Warn("failed to cache checkout draft", zap.String("session", sess.ID), zap.Error(err))
			}
		}
	}

	e.Logger.Info("checkout session opened",
		zap.String("session", sess.ID),
		zap.String("service", req.ServiceID),
		zap.String("date", req.Date),
		zap.Float64("amount", estimate.Amount))

	return &CheckoutIntent{
		CheckoutID:  sess.ID,
		RedirectURL: sess.URL,
		Amount:      estimate.Amount,
		Currency:    e.Config.Currency,
	}, nil
}

// wholeDayOr converts optional clock strings into the minute interval used
// for conflict checks, falling back to the whole day.
func wholeDayOr(startTime, endTime string) (int, int) {
	if startTime == "" || endTime == "" {
		return 0, 24 * 60
	}
	start, err := models.ParseClock(startTime)
	if err != nil {
		return 0, 24 * 60
	}
	end, err := models.ParseClock(endTime)
	if err != nil {
		return 0, 24 * 60
	}
	return start, end
}
