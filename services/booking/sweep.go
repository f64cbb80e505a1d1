package booking

import (
	"context"
	"fmt"
	"time"

	"brightnest/models"

	"go.uber.org/zap"
)

// SweepSummary reports a sweep run. Failures are isolated per booking so one
// bad row cannot starve the rest of the batch.
type SweepSummary struct {
	Scanned   int      `json:"scanned"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

func (s *SweepSummary) recordFailure(bookingID string, err error) {
	s.Failed++
	s.Errors = append(s.Errors, fmt.Sprintf("%s: %v", bookingID, err))
}

// SweepAutoRelease releases escrow for every booking whose confirmation
// deadline passed without a client reaction or a dispute. Disputed bookings
// never match the query; each release is guarded and idempotent, so a sweep
// racing a late client confirmation settles on exactly one payout.
func (e *DefaultBookingEngine) SweepAutoRelease(ctx context.Context) (*SweepSummary, error) {
	due, err := e.Bookings.DueForAutoRelease(ctx, time.Now())
	if err != nil {
		return nil, fmt.Errorf("querying bookings due for auto-release: %w", err)
	}

	summary := &SweepSummary{Scanned: len(due)}
	for i := range due {
		b := &due[i]
		if _, err := e.Release(ctx, b.ID, models.ReleaseAutoReleased); err != nil {
			summary.recordFailure(b.ID, err)
			e.Logger.Warn("auto-release failed for booking",
				zap.String("booking", b.ID), zap.Error(err))
			continue
		}
		summary.Succeeded++
	}

	e.Logger.Info("auto-release sweep finished",
		zap.Int("scanned", summary.Scanned),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed))
	return summary, nil
}

// SweepCapture captures authorized payments whose hold window elapsed,
// moving the funds into escrow. Run on a schedule well inside the
// processor's authorization expiry.
func (e *DefaultBookingEngine) SweepCapture(ctx context.Context) (*SweepSummary, error) {
	due, err := e.Bookings.DueForCapture(ctx, time.Now())
	if err != nil {
		return nil, fmt.Errorf("querying bookings due for capture: %w", err)
	}

	summary := &SweepSummary{Scanned: len(due)}
	for i := range due {
		b := &due[i]
		if err := e.Processor.Capture(ctx, b.PaymentIntentID); err != nil {
			summary.recordFailure(b.ID, err)
			e.Logger.Warn("payment capture failed for booking",
				zap.String("booking", b.ID), zap.Error(err))
			continue
		}
		captured, err := e.Bookings.MarkCaptured(ctx, b.ID)
		if err != nil {
			summary.recordFailure(b.ID, err)
			e.Logger.Error("captured at processor but local state update failed",
				zap.String("booking", b.ID), zap.Error(err))
			continue
		}
		summary.Succeeded++
		_ = e.Notifier.PaymentCaptured(ctx, captured)
	}

	e.Logger.Info("capture sweep finished",
		zap.Int("scanned", summary.Scanned),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed))
	return summary, nil
}
