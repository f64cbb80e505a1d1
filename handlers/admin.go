package handlers

import (
	"net/http"

	"brightnest/middleware"
	"brightnest/services/booking"

	"github.com/gin-gonic/gin"
)

// AdminHandler encapsulates elevated admin-level operations: dispute
// resolution and manual sweep triggers.
type AdminHandler struct {
	Engine booking.BookingEngine
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(engine booking.BookingEngine) *AdminHandler {
	return &AdminHandler{Engine: engine}
}

// ResolveDisputeHandler records an admin verdict on an open dispute and
// moves the escrowed funds accordingly.
func (ah *AdminHandler) ResolveDisputeHandler(c *gin.Context) {
	var input struct {
		Resolution string `json:"resolution"` // "refund" or "release"
		Notes      string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	b, err := ah.Engine.ResolveDispute(c.Request.Context(), c.Param("id"), middleware.ActorID(c), input.Resolution, input.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// TriggerAutoReleaseSweepHandler runs the auto-release sweep immediately,
// outside its schedule.
func (ah *AdminHandler) TriggerAutoReleaseSweepHandler(c *gin.Context) {
	summary, err := ah.Engine.SweepAutoRelease(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// TriggerCaptureSweepHandler runs the capture sweep immediately.
func (ah *AdminHandler) TriggerCaptureSweepHandler(c *gin.Context) {
	summary, err := ah.Engine.SweepCapture(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
