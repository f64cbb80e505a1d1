package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	bookingRepo "brightnest/database/repository/booking"
	providerRepo "brightnest/database/repository/provider"
	serviceRepo "brightnest/database/repository/service"
	"brightnest/models"
	"brightnest/services/payment"

	"go.uber.org/zap"
)

// memBookingRepo is an in-memory BookingRepository with the same guard and
// conflict semantics as the Mongo implementation.
type memBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{bookings: make(map[string]*models.Booking)}
}

func (r *memBookingRepo) clone(b *models.Booking) *models.Booking {
	cp := *b
	return &cp
}

func (r *memBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	return r.clone(b), nil
}

func (r *memBookingRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.CheckoutSessionID == sessionID {
			return r.clone(b), nil
		}
	}
	return nil, bookingRepo.ErrNotFound
}

func (r *memBookingRepo) GetByUserID(ctx context.Context, userID string, limit int64) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memBookingRepo) FindActiveOnDate(ctx context.Context, serviceID, date string) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.ServiceID == serviceID && b.Date == date && b.Status != models.BookingCancelled {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *memBookingRepo) CreateIfSlotFree(ctx context.Context, booking *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.CheckoutSessionID == booking.CheckoutSessionID {
			return bookingRepo.ErrSessionExists
		}
	}
	start, end := booking.Interval()
	for _, b := range r.bookings {
		if b.ServiceID == booking.ServiceID && b.Date == booking.Date && b.Status != models.BookingCancelled {
			if b.ConflictsWith(start, end) {
				return bookingRepo.ErrSlotTaken
			}
		}
	}
	r.bookings[booking.ID] = r.clone(booking)
	return nil
}

func (r *memBookingRepo) MarkCaptured(ctx context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.Status != models.BookingPending || b.PaymentStatus != models.PaymentAuthorized {
		return nil, bookingRepo.ErrGuardFailed
	}
	b.PaymentStatus = models.PaymentHeldInEscrow
	b.UpdatedAt = time.Now()
	return r.clone(b), nil
}

func (r *memBookingRepo) MarkAwaitingConfirmation(ctx context.Context, id string, proofs []string, deadline time.Time) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.Status != models.BookingPending || b.PaymentStatus != models.PaymentHeldInEscrow || b.AwaitingClientConfirmation {
		return nil, bookingRepo.ErrGuardFailed
	}
	b.Status = models.BookingAwaitingConf
	b.PhotoProofs = proofs
	b.AwaitingClientConfirmation = true
	b.ConfirmationDeadline = &deadline
	b.UpdatedAt = time.Now()
	return r.clone(b), nil
}

func (r *memBookingRepo) MarkReleased(ctx context.Context, id, reason, transferID string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.PaymentStatus != models.PaymentHeldInEscrow {
		return nil, bookingRepo.ErrGuardFailed
	}
	now := time.Now()
	b.Status = models.BookingCompleted
	b.PaymentStatus = models.PaymentReleased
	b.AwaitingClientConfirmation = false
	b.ReleaseReason = reason
	b.TransferID = transferID
	b.CompletedAt = &now
	b.UpdatedAt = now
	return r.clone(b), nil
}

func (r *memBookingRepo) MarkRefunded(ctx context.Context, id, priorStatus, cancelReason string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.Status != priorStatus ||
		(b.PaymentStatus != models.PaymentAuthorized && b.PaymentStatus != models.PaymentHeldInEscrow) {
		return nil, bookingRepo.ErrGuardFailed
	}
	b.Status = models.BookingCancelled
	b.PaymentStatus = models.PaymentRefunded
	b.AwaitingClientConfirmation = false
	b.CancelReason = cancelReason
	b.UpdatedAt = time.Now()
	return r.clone(b), nil
}

func (r *memBookingRepo) MarkCancelled(ctx context.Context, id, cancelReason string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.Status != models.BookingPending || b.PaymentStatus != models.PaymentUnpaid {
		return nil, bookingRepo.ErrGuardFailed
	}
	b.Status = models.BookingCancelled
	b.CancelReason = cancelReason
	b.UpdatedAt = time.Now()
	return r.clone(b), nil
}

func (r *memBookingRepo) OpenDispute(ctx context.Context, id, reason string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || !b.AwaitingClientConfirmation || b.PaymentStatus != models.PaymentHeldInEscrow || b.DisputeStatus != "" {
		return nil, bookingRepo.ErrGuardFailed
	}
	now := time.Now()
	b.Status = models.BookingDisputed
	b.DisputeStatus = models.DisputeOpen
	b.DisputeReason = reason
	b.DisputeOpenedAt = &now
	b.AwaitingClientConfirmation = false
	b.UpdatedAt = now
	return r.clone(b), nil
}

func (r *memBookingRepo) ResolveDispute(ctx context.Context, id, resolution, adminID, notes string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.Status != models.BookingDisputed || b.DisputeStatus != models.DisputeOpen {
		return nil, bookingRepo.ErrGuardFailed
	}
	now := time.Now()
	b.DisputeStatus = resolution
	b.DisputeResolvedAt = &now
	b.DisputeResolvedBy = adminID
	b.DisputeNotes = notes
	b.UpdatedAt = now
	return r.clone(b), nil
}

func (r *memBookingRepo) DueForAutoRelease(ctx context.Context, now time.Time) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.AwaitingClientConfirmation &&
			b.ConfirmationDeadline != nil && !b.ConfirmationDeadline.After(now) &&
			b.PaymentStatus == models.PaymentHeldInEscrow &&
			b.DisputeStatus == "" {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *memBookingRepo) DueForCapture(ctx context.Context, now time.Time) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.Status == models.BookingPending &&
			b.PaymentStatus == models.PaymentAuthorized &&
			b.CaptureAfter != nil && !b.CaptureAfter.After(now) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *memBookingRepo) EnsureIndexes() error { return nil }

// put stores a booking directly, bypassing the slot check.
func (r *memBookingRepo) put(b *models.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[b.ID] = r.clone(b)
}

type memServiceRepo struct {
	mu       sync.Mutex
	services map[string]*models.Service
}

func newMemServiceRepo(svcs ...*models.Service) *memServiceRepo {
	r := &memServiceRepo{services: make(map[string]*models.Service)}
	for _, s := range svcs {
		r.services[s.ID] = s
	}
	return r
}

func (r *memServiceRepo) GetByID(ctx context.Context, id string) (*models.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.services[id]
	if !ok {
		return nil, serviceRepo.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *memServiceRepo) GetByProviderID(ctx context.Context, providerID string) ([]models.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Service
	for _, s := range r.services {
		if s.ProviderID == providerID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *memServiceRepo) Create(ctx context.Context, svc *models.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *svc
	r.services[svc.ID] = &cp
	return nil
}

type memProviderRepo struct {
	mu        sync.Mutex
	providers map[string]*models.Provider
}

func newMemProviderRepo(ps ...*models.Provider) *memProviderRepo {
	r := &memProviderRepo{providers: make(map[string]*models.Provider)}
	for _, p := range ps {
		r.providers[p.ID] = p
	}
	return r
}

func (r *memProviderRepo) GetByID(ctx context.Context, id string) (*models.Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.providers[id]
	if !ok {
		return nil, providerRepo.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memProviderRepo) AppendNotification(ctx context.Context, providerID string, n models.Notification) error {
	return nil
}

func (r *memProviderRepo) SetPayout(ctx context.Context, providerID string, payout models.PayoutDetails) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.providers[providerID]; ok {
		p.Payout = payout
	}
	return nil
}

// recordingNotifier counts lifecycle notifications by kind.
type recordingNotifier struct {
	mu     sync.Mutex
	events map[string]int
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{events: make(map[string]int)}
}

func (n *recordingNotifier) record(kind string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events[kind]++
	return nil
}

func (n *recordingNotifier) count(kind string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.events[kind]
}

func (n *recordingNotifier) BookingCreated(ctx context.Context, b *models.Booking) error {
	return n.record("booking_created")
}
func (n *recordingNotifier) PaymentCaptured(ctx context.Context, b *models.Booking) error {
	return n.record("payment_captured")
}
func (n *recordingNotifier) CompletionReported(ctx context.Context, b *models.Booking) error {
	return n.record("completion_reported")
}
func (n *recordingNotifier) EscrowReleased(ctx context.Context, b *models.Booking, providerAmount float64) error {
	return n.record("escrow_released")
}
func (n *recordingNotifier) BookingRefunded(ctx context.Context, b *models.Booking, reason string) error {
	return n.record("booking_refunded")
}
func (n *recordingNotifier) DisputeOpened(ctx context.Context, b *models.Booking) error {
	return n.record("dispute_opened")
}
func (n *recordingNotifier) DisputeResolved(ctx context.Context, b *models.Booking) error {
	return n.record("dispute_resolved")
}

// memRefundScheduler records scheduled refunds in order.
type memRefundScheduler struct {
	mu        sync.Mutex
	scheduled []string
}

func (s *memRefundScheduler) ScheduleRefund(ctx context.Context, paymentIntentID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduled = append(s.scheduled, paymentIntentID)
	return nil
}

func (s *memRefundScheduler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.scheduled)
}

// testEngine bundles the engine and its fakes for assertions.
type testEngine struct {
	engine    *DefaultBookingEngine
	bookings  *memBookingRepo
	services  *memServiceRepo
	providers *memProviderRepo
	processor *payment.FakeProcessor
	notifier  *recordingNotifier
	refunds   *memRefundScheduler
}

func newTestEngine(svcs []*models.Service, providers []*models.Provider) *testEngine {
	te := &testEngine{
		bookings:  newMemBookingRepo(),
		services:  newMemServiceRepo(svcs...),
		providers: newMemProviderRepo(providers...),
		processor: payment.NewFakeProcessor(),
		notifier:  newRecordingNotifier(),
		refunds:   &memRefundScheduler{},
	}
	te.processor.AutoComplete = true
	te.engine = &DefaultBookingEngine{
		Bookings:  te.bookings,
		Services:  te.services,
		Providers: te.providers,
		Processor: te.processor,
		Notifier:  te.notifier,
		Refunds:   te.refunds,
		Config: EngineConfig{
			PlatformFeePercent: 15,
			CaptureDelay:       24 * time.Hour,
			ConfirmationWindow: 72 * time.Hour,
			MinBookingAmount:   0.50,
			Currency:           "eur",
			CheckoutSuccessURL: "http://localhost/verify",
			CheckoutCancelURL:  "http://localhost/cancelled",
		},
		Logger: zap.NewNop(),
	}
	return te
}

func fixedService() *models.Service {
	return &models.Service{
		ID:           "svc-1",
		ProviderID:   "prov-1",
		Name:         "Deep Clean",
		Amount:       100.00,
		PriceType:    models.PriceFixed,
		Currency:     "eur",
		WorkingHours: models.WorkingWindow{Start: "08:00", End: "18:00"},
		SlotMinutes:  30,
		Active:       true,
	}
}

func payableProvider() *models.Provider {
	return &models.Provider{
		ID:   "prov-1",
		Name: "Sparkle Ltd",
		Payout: models.PayoutDetails{
			StripeAccountID: "acct_test_1",
			StripeVerified:  true,
			Currency:        "eur",
		},
	}
}
