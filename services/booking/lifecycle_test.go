package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	bookingRepo "brightnest/database/repository/booking"
	"brightnest/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createAndVerify(t *testing.T, te *testEngine, req CreateBookingRequest) *models.Booking {
	t.Helper()
	intent, err := te.engine.CreateBooking(context.Background(), req)
	require.NoError(t, err)

	b, err := te.engine.VerifyPayment(context.Background(), intent.CheckoutID)
	require.NoError(t, err)
	return b
}

func defaultRequest() CreateBookingRequest {
	return CreateBookingRequest{
		UserID:    "user-1",
		ServiceID: "svc-1",
		Date:      "2026-09-07",
		StartTime: "10:00",
		EndTime:   "13:00",
	}
}

func TestCreateBookingOpensCheckout(t *testing.T) {
	te := newTestEngine([]*models.Service{fixedService()}, []*models.Provider{payableProvider()})

	intent, err := te.engine.CreateBooking(context.Background(), defaultRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, intent.CheckoutID)
	assert.NotEmpty(t, intent.RedirectURL)
	assert.Equal(t, 100.00, intent.Amount)
	assert.Equal(t, "eur", intent.Currency)

	// No booking row exists until payment is verified.
	_, err = te.bookings.GetBySessionID(context.Background(), intent.CheckoutID)
	assert.Error(t, err)
}

func TestCreateBookingDerivesEndTimeFromEstimate(t *testing.T) {
	te := newTestEngine([]*models.Service{fixedService()}, []*models.Provider{payableProvider()})

	req := defaultRequest()
	req.EndTime = ""
	req.ApartmentSqm = 60
	req.Windows = 4 // 180 minutes estimated

	b := createAndVerify(t, te, req)
	require.NotNil(t, b.EndTime)
	assert.Equal(t, "13:00", *b.EndTime)
}

func TestCreateBookingRejectsUnknownService(t *testing.T) {
	te := newTestEngine(nil, nil)

	_, err := te.engine.CreateBooking(context.Background(), defaultRequest())
	require.Error(t, err)
	assert.Equal(t, CodeServiceNotFound, CodeOf(err))
}

func TestCreateBookingRejectsInactiveService(t *testing.T) {
	svc := fixedService()
	svc.Active = false
	te := newTestEngine([]*models.Service{svc}, []*models.Provider{payableProvider()})

	_, err := te.engine.CreateBooking(context.Background(), defaultRequest())
	require.Error(t, err)
	assert.Equal(t, CodeServiceUnavailable, CodeOf(err))
}

func TestCreateBookingRejectsAmountBelowMinimum(t *testing.T) {
	svc := fixedService()
	svc.Amount = 0.20
	te := newTestEngine([]*models.Service{svc}, []*models.Provider{payableProvider()})

	_, err := te.engine.CreateBooking(context.Background(), defaultRequest())
	require.Error(t, err)
	assert.Equal(t, CodeAmountBelowMinimum, CodeOf(err))
}

func TestCreateBookingPreflightConflict(t *testing.T) {
	te := newTestEngine([]*models.Service{fixedService()}, []*models.Provider{payableProvider()})
	createAndVerify(t, te, defaultRequest())

	req := defaultRequest()
	req.StartTime = "12:00"
	req.EndTime = "14:00"
	_, err := te.engine.CreateBooking(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, CodeSlotConflict, CodeOf(err))
}

func TestVerifyPaymentMaterializesBooking(t *testing.T) {
	te := newTestEngine([]*models.Service{fixedService()}, []*models.Provider{payableProvider()})

	b := createAndVerify(t, te, defaultRequest())
	assert.Equal(t, models.BookingPending, b.Status)
	assert.Equal(t, models.PaymentAuthorized, b.PaymentStatus)
	assert.Equal(t, "user-1", b.UserID)
	assert.Equal(t, "prov-1", b.ProviderID)
	assert.NotEmpty(t, b.PaymentIntentID)
	require.NotNil(t, b.CaptureAfter)
	assert.True(t, b.CaptureAfter.After(time.Now()))
	assert.Equal(t, 1, te.notifier.count("booking_created"))
}

func TestVerifyPaymentIsIdempotent(t *testing.T) {
	te := newTestEngine([]*models.Service{fixedService()}, []*models.Provider{payableProvider()})

	intent, err := te.engine.CreateBooking(context.Background(), defaultRequest())
	require.NoError(t, err)

	first, err := te.engine.VerifyPayment(context.Background(), intent.CheckoutID)
	require.NoError(t, err)
	second, err := te.engine.VerifyPayment(context.Background(), intent.CheckoutID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, te.notifier.count("booking_created"))
}

func TestVerifyPaymentRejectsIncompleteCheckout(t *testing.T) {
	te := newTestEngine([]*models.Service{fixedService()}, []*models.Provider{payableProvider()})
	te.processor.AutoComplete = false

	intent, err := te.engine.CreateBooking(context.Background(), defaultRequest())
	require.NoError(t, err)

	_, err = te.engine.VerifyPayment(context.Background(), intent.CheckoutID)
	require.Error(t, err)
	assert.Equal(t, CodePaymentNotCompleted, CodeOf(err))
}

func TestVerifyPaymentSlotLostTriggersRefund(t *testing.T) {
	te := newTestEngine([]*models.Service{fixedService()}, []*models.Provider{payableProvider()})

	// Two clients pay for overlapping slots before either is verified.
	first, err := te.engine.CreateBooking(context.Background(), defaultRequest())
	require.NoError(t, err)

	second, err := te.engine.CreateBooking(context.Background(), CreateBookingRequest{
		UserID:    "user-2",
		ServiceID: "svc-1",
		Date:      "2026-09-07",
		StartTime: "12:00",
		EndTime:   "14:00",
	})
	require.NoError(t, err)

	_, err = te.engine.VerifyPayment(context.Background(), first.CheckoutID)
	require.NoError(t, err)

	_, err = te.engine.VerifyPayment(context.Background(), second.CheckoutID)
	require.Error(t, err)
	assert.Equal(t, CodeSlotConflict, CodeOf(err))

	// The loser's payment is compensated: enqueued durably and refunded.
	assert.Equal(t, 1, te.refunds.count())
	loserSess, err := te.processor.GetSession(context.Background(), second.CheckoutID)
	require.NoError(t, err)
	assert.True(t, te.processor.Refunded(loserSess.PaymentIntentID))
}

// raceBookingRepo simulates two callbacks verifying the same session at
// once: the session lookup misses once, as it does for a caller whose
// pre-check ran before the competing insert committed, and the insert then
// reports the committed same-session row as an ordinary slot conflict.
type raceBookingRepo struct {
	*memBookingRepo
	missLookupOnce bool
}

func (r *raceBookingRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.Booking, error) {
	if r.missLookupOnce {
		r.missLookupOnce = false
		return nil, bookingRepo.ErrNotFound
	}
	return r.memBookingRepo.GetBySessionID(ctx, sessionID)
}

func (r *raceBookingRepo) CreateIfSlotFree(ctx context.Context, b *models.Booking) error {
	err := r.memBookingRepo.CreateIfSlotFree(ctx, b)
	if errors.Is(err, bookingRepo.ErrSessionExists) {
		return bookingRepo.ErrSlotTaken
	}
	return err
}

func TestVerifyPaymentConcurrentCallbacksSameSessionNeverRefund(t *testing.T) {
	te := newTestEngine([]*models.Service{fixedService()}, []*models.Provider{payableProvider()})

	intent, err := te.engine.CreateBooking(context.Background(), defaultRequest())
	require.NoError(t, err)

	first, err := te.engine.VerifyPayment(context.Background(), intent.CheckoutID)
	require.NoError(t, err)

	// The redirect callback races the webhook for the same session.
	te.engine.Bookings = &raceBookingRepo{memBookingRepo: te.bookings, missLookupOnce: true}

	second, err := te.engine.VerifyPayment(context.Background(), intent.CheckoutID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// The winner's payment must not be compensated away.
	assert.Equal(t, 0, te.refunds.count())
	assert.False(t, te.processor.Refunded(first.PaymentIntentID))

	b, err := te.bookings.GetByID(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, b.Status)
	assert.Equal(t, models.PaymentAuthorized, b.PaymentStatus)
}

func TestVerifyPaymentWholeDayBlocksEverything(t *testing.T) {
	te := newTestEngine([]*models.Service{fixedService()}, []*models.Provider{payableProvider()})

	req := defaultRequest()
	req.StartTime = ""
	req.EndTime = ""
	createAndVerify(t, te, req)

	_, err := te.engine.CreateBooking(context.Background(), CreateBookingRequest{
		UserID:    "user-2",
		ServiceID: "svc-1",
		Date:      "2026-09-07",
		StartTime: "16:00",
		EndTime:   "17:00",
	})
	require.Error(t, err)
	assert.Equal(t, CodeSlotConflict, CodeOf(err))
}

func escrowedBooking(t *testing.T, te *testEngine) *models.Booking {
	t.Helper()
	b := createAndVerify(t, te, defaultRequest())

	// Simulate the capture sweep having run.
	captured, err := te.bookings.MarkCaptured(context.Background(), b.ID)
	require.NoError(t, err)
	return captured
}

func TestCompleteBookingStartsConfirmationWindow(t *testing.T) {
	te := newTestEngine([]*models.Service{fixedService()}, []*models.Provider{payableProvider()})
	b := escrowedBooking(t, te)

	updated, err := te.engine.CompleteBooking(context.Background(), b.ID, "prov-1", []string{"https://img/1.jpg"})
	require.NoError(t, err)
	assert.Equal(t, models.BookingAwaitingConf, updated.Status)
	assert.True(t, updated.AwaitingClientConfirmation)
	require.NotNil(t, updated.ConfirmationDeadline)
	assert.WithinDuration(t, time.Now().Add(72*time.Hour), *updated.ConfirmationDeadline, time.Minute)
	assert.Equal(t, 1, te.notifier.count("completion_reported"))
}

func TestCompleteBookingRequiresProofs(t *testing.T) {
	te := newTestEngine([]*models.Service{fixedService()}, []*models.Provider{payableProvider()})
	b := escrowedBooking(t, te)

	_, err := te.engine.CompleteBooking(context.Background(), b.ID, "prov-1", nil)
	require.Error(t, err)
	assert.Equal(t, CodeValidation, CodeOf(err))

	proofs := make([]string, 11)
	for i := range proofs {
		proofs[i] = "https://img/p.jpg"
	}
	_, err = te.engine.CompleteBooking(context.Background(), b.ID, "prov-1", proofs)
	require.Error(t, err)
	assert.Equal(t, CodeValidation, CodeOf(err))
}

func TestCompleteBookingWrongProvider(t *testing.T) {
	te := newTestEngine([]*models.Service{fixedService()}, []*models.Provider{payableProvider()})
	b := escrowedBooking(t, te)

	_, err := te.engine.CompleteBooking(context.Background(), b.ID, "prov-other", []string{"https://img/1.jpg"})
	require.Error(t, err)
	assert.Equal(t, CodeForbidden, CodeOf(err))
}

func TestCompleteBookingBeforeCapture(t *testing.T) {
	te := newTestEngine([]*models.Service{fixedService()}, []*models.Provider{payableProvider()})
	b := createAndVerify(t, te, defaultRequest())

	_, err := te.engine.CompleteBooking(context.Background(), b.ID, "prov-1", []string{"https://img/1.jpg"})
	require.Error(t, err)
	assert.Equal(t, CodeEscrowNotHeld, CodeOf(err))
}

func TestCompleteBookingTwice(t *testing.T) {
	te := newTestEngine([]*models.Service{fixedService()}, []*models.Provider{payableProvider()})
	b := escrowedBooking(t, te)

	_, err := te.engine.CompleteBooking(context.Background(), b.ID, "prov-1", []string{"https://img/1.jpg"})
	require.NoError(t, err)

	_, err = te.engine.CompleteBooking(context.Background(), b.ID, "prov-1", []string{"https://img/2.jpg"})
	require.Error(t, err)
	assert.Equal(t, CodeInvalidTransition, CodeOf(err))
}

func TestConfirmCompletionReleasesEscrowWithFeeSplit(t *testing.T) {
	te := newTestEngine([]*models.Service{fixedService()}, []*models.Provider{payableProvider()})
	b := escrowedBooking(t, te)

	_, err := te.engine.CompleteBooking(context.Background(), b.ID, "prov-1", []string{"https://img/1.jpg"})
	require.NoError(t, err)

	released, err := te.engine.ConfirmCompletion(context.Background(), b.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingCompleted, released.Status)
	assert.Equal(t, models.PaymentReleased, released.PaymentStatus)
	assert.Equal(t, models.ReleaseClientConfirmed, released.ReleaseReason)
	assert.NotEmpty(t, released.TransferID)
	assert.Equal(t, 1, te.processor.TransferCount())

	// 100.00 at 15% platform fee: the provider gets 85.00.
	_, fee, provider := te.engine.platformSplit(b.Amount)
	assert.Equal(t, int64(1500), fee)
	assert.Equal(t, int64(8500), provider)
}

func TestConfirmCompletionWrongUser(t *testing.T) {
	te := newTestEngine([]*models.Service{fixedService()}, []*models.Provider{payableProvider()})
	b := escrowedBooking(t, te)

	_, err := te.engine.CompleteBooking(context.Background(), b.ID, "prov-1", []string{"https://img/1.jpg"})
	require.NoError(t, err)

	_, err = te.engine.ConfirmCompletion(context.Background(), b.ID, "user-2")
	require.Error(t, err)
	assert.Equal(t, CodeForbidden, CodeOf(err))
}

func TestConfirmCompletionNotAwaiting(t *testing.T) {
	te := newTestEngine([]*models.Service{fixedService()}, []*models.Provider{payableProvider()})
	b := escrowedBooking(t, te)

	_, err := te.engine.ConfirmCompletion(context.Background(), b.ID, "user-1")
	require.Error(t, err)
	assert.Equal(t, CodeNotAwaitingConfirmation, CodeOf(err))
}

func TestConfirmCompletionTwiceTransfersOnce(t *testing.T) {
	te := newTestEngine([]*models.Service{fixedService()}, []*models.Provider{payableProvider()})
	b := escrowedBooking(t, te)

	_, err := te.engine.CompleteBooking(context.Background(), b.ID, "prov-1", []string{"https://img/1.jpg"})
	require.NoError(t, err)

	_, err = te.engine.ConfirmCompletion(context.Background(), b.ID, "user-1")
	require.NoError(t, err)

	_, err = te.engine.ConfirmCompletion(context.Background(), b.ID, "user-1")
	require.Error(t, err)
	assert.Equal(t, 1, te.processor.TransferCount())
}

func TestCancelBookingByClientRefunds(t *testing.T) {
	te := newTestEngine([]*models.Service{fixedService()}, []*models.Provider{payableProvider()})
	b := createAndVerify(t, te, defaultRequest())

	cancelled, err := te.engine.CancelBooking(context.Background(), b.ID, "user-1", "changed plans")
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, cancelled.Status)
	assert.Equal(t, models.PaymentRefunded, cancelled.PaymentStatus)
	assert.Equal(t, "changed plans", cancelled.CancelReason)
	assert.True(t, te.processor.Refunded(b.PaymentIntentID))
	assert.Equal(t, 1, te.notifier.count("booking_refunded"))
}

func TestCancelBookingByProvider(t *testing.T) {
	te := newTestEngine([]*models.Service{fixedService()}, []*models.Provider{payableProvider()})
	b := escrowedBooking(t, te)

	cancelled, err := te.engine.CancelBooking(context.Background(), b.ID, "prov-1", "")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRefunded, cancelled.PaymentStatus)
	assert.Equal(t, "cancelled by provider", cancelled.CancelReason)
}

func TestCancelBookingByStranger(t *testing.T) {
	te := newTestEngine([]*models.Service{fixedService()}, []*models.Provider{payableProvider()})
	b := createAndVerify(t, te, defaultRequest())

	_, err := te.engine.CancelBooking(context.Background(), b.ID, "someone-else", "")
	require.Error(t, err)
	assert.Equal(t, CodeForbidden, CodeOf(err))
}

func TestCancelBookingAfterCompletionReport(t *testing.T) {
	te := newTestEngine([]*models.Service{fixedService()}, []*models.Provider{payableProvider()})
	b := escrowedBooking(t, te)

	_, err := te.engine.CompleteBooking(context.Background(), b.ID, "prov-1", []string{"https://img/1.jpg"})
	require.NoError(t, err)

	_, err = te.engine.CancelBooking(context.Background(), b.ID, "user-1", "")
	require.Error(t, err)
	assert.Equal(t, CodeInvalidTransition, CodeOf(err))
}

func TestCancelRacingCompletionLeavesReportedWorkIntact(t *testing.T) {
	te := newTestEngine([]*models.Service{fixedService()}, []*models.Provider{payableProvider()})
	stale := escrowedBooking(t, te)

	// Provider reports completion after the cancel path already read the
	// booking as pending.
	_, err := te.engine.CompleteBooking(context.Background(), stale.ID, "prov-1", []string{"https://img/1.jpg"})
	require.NoError(t, err)

	// The stale refund loses the guard and the reported state survives.
	out, err := te.engine.RefundEscrow(context.Background(), stale, "cancelled by client")
	require.NoError(t, err)
	assert.Equal(t, models.BookingAwaitingConf, out.Status)
	assert.Equal(t, models.PaymentHeldInEscrow, out.PaymentStatus)
	assert.Equal(t, 0, te.notifier.count("booking_refunded"))
}

func TestCancelBookingFreesSlot(t *testing.T) {
	te := newTestEngine([]*models.Service{fixedService()}, []*models.Provider{payableProvider()})
	b := createAndVerify(t, te, defaultRequest())

	_, err := te.engine.CancelBooking(context.Background(), b.ID, "user-1", "")
	require.NoError(t, err)

	// The slot is available again for a different client.
	rebooked := createAndVerify(t, te, CreateBookingRequest{
		UserID:    "user-2",
		ServiceID: "svc-1",
		Date:      "2026-09-07",
		StartTime: "10:00",
		EndTime:   "13:00",
	})
	assert.Equal(t, "user-2", rebooked.UserID)
}
