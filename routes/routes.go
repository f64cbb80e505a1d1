package routes

import (
	"net/http"
	"time"

	"brightnest/handlers"
	"brightnest/middleware"
	"brightnest/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes registers the booking lifecycle endpoints.
func RegisterBookingRoutes(r *gin.Engine, bh *handlers.BookingHandler) {
	api := r.Group("/api/bookings")
	{
		// Clients open checkouts and drive their side of the lifecycle.
		api.POST("", middleware.JWTAuthMiddleware(middleware.RoleUser), bh.CreateBookingHandler)
		api.GET("/verify", middleware.JWTAuthMiddleware(middleware.RoleUser), bh.VerifyPaymentHandler)
		api.GET("/mine", middleware.JWTAuthMiddleware(middleware.RoleUser), bh.MyBookingsHandler)
		api.POST("/:id/confirm", middleware.JWTAuthMiddleware(middleware.RoleUser), bh.ConfirmCompletionHandler)
		api.POST("/:id/dispute", middleware.JWTAuthMiddleware(middleware.RoleUser), bh.OpenDisputeHandler)

		// Providers report completion; either party may cancel.
		api.POST("/:id/complete", middleware.JWTAuthMiddleware(middleware.RoleProvider), bh.CompleteBookingHandler)
		api.POST("/:id/cancel", middleware.JWTAuthMiddleware(middleware.RoleUser, middleware.RoleProvider), bh.CancelBookingHandler)

		api.GET("/:id", middleware.JWTAuthMiddleware(), bh.GetBookingHandler)
	}
}

// RegisterAdminRoutes registers dispute resolution and manual sweep triggers.
func RegisterAdminRoutes(r *gin.Engine, ah *handlers.AdminHandler) {
	api := r.Group("/api/admin")
	api.Use(middleware.JWTAuthMiddleware(middleware.RoleAdmin))
	{
		api.POST("/bookings/:id/dispute/resolve", ah.ResolveDisputeHandler)
		api.POST("/sweeps/auto-release", ah.TriggerAutoReleaseSweepHandler)
		api.POST("/sweeps/capture", ah.TriggerCaptureSweepHandler)
	}
}

// SetupRouter wires middleware and all route groups.
func SetupRouter(bh *handlers.BookingHandler, ah *handlers.AdminHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(utils.ErrorHandler())
	r.Use(gin.Logger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimitMiddleware())

	r.GET("/health", handlers.HealthHandler)
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	RegisterBookingRoutes(r, bh)
	RegisterAdminRoutes(r, ah)
	return r
}
