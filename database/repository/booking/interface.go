package bookingRepo

import (
	"context"
	"errors"
	"time"

	"brightnest/models"
)

// Sentinel errors surfaced by the repository. The service layer maps these to
// its stable error codes.
var (
	// ErrSlotTaken aborts the booking transaction when the in-transaction
	// overlap re-check finds a competing non-cancelled booking.
	ErrSlotTaken = errors.New("slot already taken by a conflicting booking")

	// ErrSessionExists signals the unique checkout-session index rejected a
	// duplicate insert; the caller should re-read the existing booking.
	ErrSessionExists = errors.New("booking for this checkout session already exists")

	// ErrNotFound is returned when no booking matches the lookup.
	ErrNotFound = errors.New("booking not found")

	// ErrGuardFailed is returned when a guarded state transition matched no
	// document, i.e. the booking was not in the required prior state.
	ErrGuardFailed = errors.New("booking not in required state for transition")
)

// BookingRepository defines data access for bookings.
type BookingRepository interface {
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	GetBySessionID(ctx context.Context, sessionID string) (*models.Booking, error)
	GetByUserID(ctx context.Context, userID string, limit int64) ([]models.Booking, error)

	// FindActiveOnDate returns all non-cancelled bookings for a service on a
	// date; used by the pre-flight conflict check.
	FindActiveOnDate(ctx context.Context, serviceID, date string) ([]models.Booking, error)

	// CreateIfSlotFree inserts the booking inside a transaction that re-runs
	// the overlap check against current data. Returns ErrSlotTaken when a
	// competing booking won the slot and ErrSessionExists when the checkout
	// session was already materialized.
	CreateIfSlotFree(ctx context.Context, booking *models.Booking) error

	// Guarded transitions. Each one re-checks the required prior state in the
	// update filter so a lost race surfaces as ErrGuardFailed instead of a
	// double transition.
	MarkCaptured(ctx context.Context, id string) (*models.Booking, error)
	MarkAwaitingConfirmation(ctx context.Context, id string, proofs []string, deadline time.Time) (*models.Booking, error)
	MarkReleased(ctx context.Context, id, reason, transferID string) (*models.Booking, error)
	MarkRefunded(ctx context.Context, id, priorStatus, cancelReason string) (*models.Booking, error)
	MarkCancelled(ctx context.Context, id, cancelReason string) (*models.Booking, error)
	OpenDispute(ctx context.Context, id, reason string) (*models.Booking, error)
	ResolveDispute(ctx context.Context, id, resolution, adminID, notes string) (*models.Booking, error)

	// Sweep queries.
	DueForAutoRelease(ctx context.Context, now time.Time) ([]models.Booking, error)
	DueForCapture(ctx context.Context, now time.Time) ([]models.Booking, error)

	EnsureIndexes() error
}
