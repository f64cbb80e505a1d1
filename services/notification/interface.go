package notification

import (
	"context"

	"brightnest/models"
)

// NotificationService dispatches booking lifecycle notifications to both
// marketplace sides: a push message plus a persisted in-app record. Every
// method is fire-and-forget from the engine's point of view: a returned
// error is logged by the caller and must never roll back a payment state
// change.
type NotificationService interface {
	BookingCreated(ctx context.Context, b *models.Booking) error
	PaymentCaptured(ctx context.Context, b *models.Booking) error
	CompletionReported(ctx context.Context, b *models.Booking) error
	EscrowReleased(ctx context.Context, b *models.Booking, providerAmount float64) error
	BookingRefunded(ctx context.Context, b *models.Booking, reason string) error
	DisputeOpened(ctx context.Context, b *models.Booking) error
	DisputeResolved(ctx context.Context, b *models.Booking) error
}
