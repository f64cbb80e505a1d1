package handlers

import (
	"net/http"

	"brightnest/middleware"
	"brightnest/services/booking"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler exposes the booking and escrow lifecycle over HTTP.
type BookingHandler struct {
	Engine booking.BookingEngine
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(engine booking.BookingEngine) *BookingHandler {
	return &BookingHandler{Engine: engine}
}

// statusForCode maps engine error codes to HTTP statuses. Unknown codes mean
// an untyped internal failure.
func statusForCode(code string) int {
	switch code {
	case booking.CodeValidation, booking.CodeAmountBelowMinimum, booking.CodeMetadataInvalid:
		return http.StatusBadRequest
	case booking.CodeForbidden:
		return http.StatusForbidden
	case booking.CodeServiceNotFound, booking.CodeBookingNotFound:
		return http.StatusNotFound
	case booking.CodeServiceUnavailable, booking.CodeSlotConflict,
		booking.CodeInvalidTransition, booking.CodeEscrowNotHeld,
		booking.CodeNotAwaitingConfirmation, booking.CodeDisputeAlreadyOpen,
		booking.CodeDisputeNotOpen, booking.CodeDisputeResolved:
		return http.StatusConflict
	case booking.CodePaymentNotCompleted:
		return http.StatusPaymentRequired
	case booking.CodeProviderNotPayable, booking.CodeBalanceInsufficient:
		return http.StatusUnprocessableEntity
	case "":
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	code := booking.CodeOf(err)
	status := statusForCode(code)
	if status == http.StatusInternalServerError {
		zap.L().Error("booking operation failed", zap.Error(err))
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}

// CreateBookingHandler opens a checkout session for a slot request.
func (bh *BookingHandler) CreateBookingHandler(c *gin.Context) {
	var req booking.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	req.UserID = middleware.ActorID(c)

	intent, err := bh.Engine.CreateBooking(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, intent)
}

// VerifyPaymentHandler materializes the booking after checkout. Safe to call
// repeatedly for the same session.
func (bh *BookingHandler) VerifyPaymentHandler(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id query parameter is required"})
		return
	}

	b, err := bh.Engine.VerifyPayment(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// GetBookingHandler returns a single booking visible to its participants.
func (bh *BookingHandler) GetBookingHandler(c *gin.Context) {
	b, err := bh.Engine.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	actor := middleware.ActorID(c)
	if b.UserID != actor && b.ProviderID != actor && middleware.ActorRole(c) != middleware.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant of this booking"})
		return
	}
	c.JSON(http.StatusOK, b)
}

// MyBookingsHandler lists the caller's bookings, newest first.
func (bh *BookingHandler) MyBookingsHandler(c *gin.Context) {
	list, err := bh.Engine.GetUserBookings(c.Request.Context(), middleware.ActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": list})
}

// CompleteBookingHandler lets the provider report the work as done.
func (bh *BookingHandler) CompleteBookingHandler(c *gin.Context) {
	var input struct {
		PhotoProofs []string `json:"photoProofs"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	b, err := bh.Engine.CompleteBooking(c.Request.Context(), c.Param("id"), middleware.ActorID(c), input.PhotoProofs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// ConfirmCompletionHandler lets the client accept the work, releasing escrow.
func (bh *BookingHandler) ConfirmCompletionHandler(c *gin.Context) {
	b, err := bh.Engine.ConfirmCompletion(c.Request.Context(), c.Param("id"), middleware.ActorID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// OpenDisputeHandler lets the client contest a reported completion.
func (bh *BookingHandler) OpenDisputeHandler(c *gin.Context) {
	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	b, err := bh.Engine.OpenDispute(c.Request.Context(), c.Param("id"), middleware.ActorID(c), input.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// CancelBookingHandler cancels a pending booking and refunds held funds.
func (bh *BookingHandler) CancelBookingHandler(c *gin.Context) {
	var input struct {
		Reason string `json:"reason"`
	}
	// Body is optional for cancellation.
	_ = c.ShouldBindJSON(&input)

	b, err := bh.Engine.CancelBooking(c.Request.Context(), c.Param("id"), middleware.ActorID(c), input.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}
