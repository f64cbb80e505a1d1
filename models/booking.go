package models

import "time"

// Booking statuses.
const (
	BookingPending      = "pending"
	BookingAwaitingConf = "awaiting_confirmation"
	BookingCompleted    = "completed"
	BookingDisputed     = "disputed"
	BookingCancelled    = "cancelled"
)

// Payment statuses.
const (
	PaymentUnpaid       = "unpaid"
	PaymentAuthorized   = "authorized"
	PaymentHeldInEscrow = "held_in_escrow"
	PaymentReleased     = "released"
	PaymentRefunded     = "refunded"
)

// Dispute statuses. A booking without an open or resolved dispute has an
// empty DisputeStatus.
const (
	DisputeOpen           = "open"
	DisputeResolvedRefund = "resolved_refund"
	DisputeResolvedPay    = "resolved_payment"
)

// Release reasons recorded when escrow funds move to the provider.
const (
	ReleaseClientConfirmed = "client_confirmed"
	ReleaseAutoReleased    = "auto_released"
	ReleaseAdminResolved   = "admin_resolved"
)

// Booking is the durable record of a paid reservation. It is created only by
// the payment verifier once the processor reports the checkout as paid, and
// its status/paymentStatus/dispute fields are owned exclusively by the
// booking engine.
type Booking struct {
	ID         string `bson:"id" json:"id"`
	ServiceID  string `bson:"serviceId" json:"serviceId"`
	UserID     string `bson:"userId" json:"userId"`
	ProviderID string `bson:"providerId" json:"providerId"`

	Date      string  `bson:"date" json:"date"`                             // "YYYY-MM-DD"
	StartTime *string `bson:"startTime,omitempty" json:"startTime,omitempty"` // "HH:MM"; nil blocks the whole day
	EndTime   *string `bson:"endTime,omitempty" json:"endTime,omitempty"`

	Amount   float64 `bson:"amount" json:"amount"`
	Currency string  `bson:"currency" json:"currency"`

	Status        string `bson:"status" json:"status"`
	PaymentStatus string `bson:"paymentStatus" json:"paymentStatus"`

	// Processor references.
	CheckoutSessionID string `bson:"checkoutSessionId" json:"checkoutSessionId"`
	PaymentIntentID   string `bson:"paymentIntentId" json:"paymentIntentId"`
	TransferID        string `bson:"transferId,omitempty" json:"transferId,omitempty"`

	// Completion / confirmation.
	PhotoProofs                []string   `bson:"photoProofs,omitempty" json:"photoProofs,omitempty"`
	AwaitingClientConfirmation bool       `bson:"awaitingClientConfirmation" json:"awaitingClientConfirmation"`
	ConfirmationDeadline       *time.Time `bson:"confirmationDeadline,omitempty" json:"confirmationDeadline,omitempty"`
	ReleaseReason              string     `bson:"releaseReason,omitempty" json:"releaseReason,omitempty"`
	CompletedAt                *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`

	// Delayed capture; funds are authorized at verification time and captured
	// into escrow once this instant has passed.
	CaptureAfter *time.Time `bson:"captureAfter,omitempty" json:"captureAfter,omitempty"`

	// Dispute fields; empty DisputeStatus means no dispute was ever opened.
	DisputeStatus     string     `bson:"disputeStatus,omitempty" json:"disputeStatus,omitempty"`
	DisputeReason     string     `bson:"disputeReason,omitempty" json:"disputeReason,omitempty"`
	DisputeOpenedAt   *time.Time `bson:"disputeOpenedAt,omitempty" json:"disputeOpenedAt,omitempty"`
	DisputeResolvedAt *time.Time `bson:"disputeResolvedAt,omitempty" json:"disputeResolvedAt,omitempty"`
	DisputeResolvedBy string     `bson:"disputeResolvedBy,omitempty" json:"disputeResolvedBy,omitempty"`
	DisputeNotes      string     `bson:"disputeNotes,omitempty" json:"disputeNotes,omitempty"`

	CancelReason string `bson:"cancelReason,omitempty" json:"cancelReason,omitempty"`
	Notes        string `bson:"notes,omitempty" json:"notes,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// HasTimes reports whether the booking carries an explicit time window.
// Legacy rows without one occupy their entire date for conflict purposes.
func (b *Booking) HasTimes() bool {
	return b.StartTime != nil && b.EndTime != nil
}
