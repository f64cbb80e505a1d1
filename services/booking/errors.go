package booking

import (
	"errors"
	"fmt"
)

// Stable error codes surfaced to the HTTP boundary. Handlers map them to
// status codes and user-facing messages; the slot-conflict code additionally
// signals the caller that a compensating refund was scheduled.
const (
	CodeValidation              = "VALIDATION_ERROR"
	CodeForbidden               = "FORBIDDEN"
	CodeServiceNotFound         = "SERVICE_NOT_FOUND"
	CodeBookingNotFound         = "BOOKING_NOT_FOUND"
	CodeServiceUnavailable      = "SERVICE_UNAVAILABLE"
	CodeAmountBelowMinimum      = "AMOUNT_BELOW_MINIMUM"
	CodeSlotConflict            = "SLOT_NO_LONGER_AVAILABLE"
	CodePaymentNotCompleted     = "PAYMENT_NOT_COMPLETED"
	CodeMetadataInvalid         = "SESSION_METADATA_INVALID"
	CodeEscrowNotHeld           = "ESCROW_NOT_HELD"
	CodeNotAwaitingConfirmation = "NOT_AWAITING_CONFIRMATION"
	CodeInvalidTransition       = "INVALID_TRANSITION"
	CodeDisputeAlreadyOpen      = "DISPUTE_ALREADY_OPEN"
	CodeDisputeNotOpen          = "DISPUTE_NOT_OPEN"
	CodeDisputeResolved         = "DISPUTE_ALREADY_RESOLVED"
	CodeProviderNotPayable      = "PROVIDER_STRIPE_NOT_READY"
	CodeBalanceInsufficient     = "PLATFORM_BALANCE_INSUFFICIENT"
)

// Error is a typed engine error carrying a stable code.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError builds a typed engine error.
func NewError(code, format string, args ...interface{}) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the stable code from an error, or "" for untyped errors.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
