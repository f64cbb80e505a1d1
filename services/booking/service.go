package booking

import (
	"context"
	"math"
	"time"

	bookingRepo "brightnest/database/repository/booking"
	providerRepo "brightnest/database/repository/provider"
	serviceRepo "brightnest/database/repository/service"
	"brightnest/models"
	"brightnest/services/notification"
	"brightnest/services/payment"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RefundScheduler enqueues a durable, retryable refund of an authorized
// payment. Used as the compensating action when a paid checkout loses the
// slot race; the enqueue must survive a crash of the verifying process.
type RefundScheduler interface {
	ScheduleRefund(ctx context.Context, paymentIntentID, reason string) error
}

// EngineConfig carries the escrow lifecycle knobs. main fills it from the
// app config; tests set fields directly.
type EngineConfig struct {
	PlatformFeePercent float64
	CaptureDelay       time.Duration
	ConfirmationWindow time.Duration
	MinBookingAmount   float64
	Currency           string
	CheckoutSuccessURL string
	CheckoutCancelURL  string
}

// BookingEngine drives the booking and escrow payment lifecycle.
type BookingEngine interface {
	CreateBooking(ctx context.Context, req CreateBookingRequest) (*CheckoutIntent, error)
	VerifyPayment(ctx context.Context, sessionID string) (*models.Booking, error)
	CompleteBooking(ctx context.Context, bookingID, providerID string, proofs []string) (*models.Booking, error)
	ConfirmCompletion(ctx context.Context, bookingID, userID string) (*models.Booking, error)
	OpenDispute(ctx context.Context, bookingID, userID, reason string) (*models.Booking, error)
	ResolveDispute(ctx context.Context, bookingID, adminID, resolution, notes string) (*models.Booking, error)
	CancelBooking(ctx context.Context, bookingID, actorID, reason string) (*models.Booking, error)
	GetBooking(ctx context.Context, bookingID string) (*models.Booking, error)
	GetUserBookings(ctx context.Context, userID string) ([]models.Booking, error)

	SweepAutoRelease(ctx context.Context) (*SweepSummary, error)
	SweepCapture(ctx context.Context) (*SweepSummary, error)
}

// DefaultBookingEngine implements BookingEngine.
type DefaultBookingEngine struct {
	Bookings  bookingRepo.BookingRepository
	Services  serviceRepo.ServiceRepository
	Providers providerRepo.ProviderRepository
	Processor payment.Processor
	Notifier  notification.NotificationService
	Refunds   RefundScheduler
	Cache     *redis.Client
	Config    EngineConfig
	Logger    *zap.Logger
}

func (e *DefaultBookingEngine) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	b, err := e.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		if err == bookingRepo.ErrNotFound {
			return nil, NewError(CodeBookingNotFound, "booking %s not found", bookingID)
		}
		return nil, err
	}
	return b, nil
}

func (e *DefaultBookingEngine) GetUserBookings(ctx context.Context, userID string) ([]models.Booking, error) {
	return e.Bookings.GetByUserID(ctx, userID, 100)
}

// platformSplit computes the fee split in cents. providerCents is what the
// provider receives; feeCents stays with the platform.
func (e *DefaultBookingEngine) platformSplit(amount float64) (totalCents, feeCents, providerCents int64) {
	totalCents = toCents(amount)
	feeCents = int64(math.Round(float64(totalCents) * e.Config.PlatformFeePercent / 100))
	providerCents = totalCents - feeCents
	return totalCents, feeCents, providerCents
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func roundMoney(amount float64) float64 {
	return math.Round(amount*100) / 100
}
