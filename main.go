package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"brightnest/config"
	"brightnest/cron"
	"brightnest/database"
	bookingRepoPkg "brightnest/database/repository/booking"
	providerRepoPkg "brightnest/database/repository/provider"
	serviceRepoPkg "brightnest/database/repository/service"
	userRepoPkg "brightnest/database/repository/user"
	"brightnest/handlers"
	"brightnest/routes"
	"brightnest/services/booking"
	"brightnest/services/notification"
	"brightnest/services/payment"
	"brightnest/utils"

	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitRedis()
	utils.FirebaseInit()
	stripe.Key = config.AppConfig.StripeKey

	// repositories.
	bookingRepo := bookingRepoPkg.NewMongoBookingRepo()
	serviceRepo := serviceRepoPkg.NewMongoServiceRepo()
	providerRepo := providerRepoPkg.NewMongoProviderRepo()
	userRepo := userRepoPkg.NewMongoUserRepo()

	if err := bookingRepo.EnsureIndexes(); err != nil {
		logger.Sugar().Fatalf("main: failed to ensure booking indexes: %v", err)
	}

	// payment processor, selectable for local development.
	var processor payment.Processor
	switch config.AppConfig.PaymentMode {
	case "fake":
		fake := payment.NewFakeProcessor()
		fake.AutoComplete = true
		processor = fake
		logger.Warn("main: running with the fake payment processor")
	default:
		processor = payment.NewStripeProcessor(logger)
	}

	notificationService := &notification.DefaultNotificationService{
		Users:     userRepo,
		Providers: providerRepo,
		Logger:    logger,
	}

	engine := &booking.DefaultBookingEngine{
		Bookings:  bookingRepo,
		Services:  serviceRepo,
		Providers: providerRepo,
		Processor: processor,
		Notifier:  notificationService,
		Refunds:   cron.NewRefundScheduler(),
		Cache:     utils.GetCacheClient(),
		Config: booking.EngineConfig{
			PlatformFeePercent: config.AppConfig.PlatformFeePercent,
			CaptureDelay:       time.Duration(config.AppConfig.CaptureDelayHours) * time.Hour,
			ConfirmationWindow: time.Duration(config.AppConfig.ConfirmationWindowHours) * time.Hour,
			MinBookingAmount:   config.AppConfig.MinBookingAmount,
			Currency:           config.AppConfig.Currency,
			CheckoutSuccessURL: config.AppConfig.CheckoutSuccessURL,
			CheckoutCancelURL:  config.AppConfig.CheckoutCancelURL,
		},
		Logger: logger,
	}

	// Background worker: queued refunds plus the capture and auto-release sweeps.
	cron.InitEscrowWorker(engine, processor)
	cron.InitSweepScheduler()

	bookingHandler := handlers.NewBookingHandler(engine)
	adminHandler := handlers.NewAdminHandler(engine)
	router := routes.SetupRouter(bookingHandler, adminHandler)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
