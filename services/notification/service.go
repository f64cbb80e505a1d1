package notification

import (
	"context"
	"fmt"
	"time"

	providerRepo "brightnest/database/repository/provider"
	userRepo "brightnest/database/repository/user"
	"brightnest/models"
	"brightnest/utils"

	"firebase.google.com/go/v4/messaging"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultNotificationService is the production implementation: FCM pushes to
// every registered device plus an in-app record on the recipient document.
type DefaultNotificationService struct {
	Users     userRepo.UserRepository
	Providers providerRepo.ProviderRepository
	Logger    *zap.Logger
}

func (s *DefaultNotificationService) BookingCreated(ctx context.Context, b *models.Booking) error {
	msg := fmt.Sprintf("Booking for %s is confirmed and paid.", b.Date)
	s.toUser(ctx, b.UserID, "booking_created", "Booking confirmed", msg, b)
	s.toProvider(ctx, b.ProviderID, "booking_created", "New booking", fmt.Sprintf("You have a new booking on %s.", b.Date), b)
	return nil
}

func (s *DefaultNotificationService) PaymentCaptured(ctx context.Context, b *models.Booking) error {
	msg := fmt.Sprintf("Payment of %.2f %s is now held securely until the service is completed.", b.Amount, b.Currency)
	s.toUser(ctx, b.UserID, "payment_captured", "Payment secured", msg, b)
	return nil
}

func (s *DefaultNotificationService) CompletionReported(ctx context.Context, b *models.Booking) error {
	msg := "The provider marked your booking as completed. Please confirm or open a dispute."
	if b.ConfirmationDeadline != nil {
		msg = fmt.Sprintf("%s You have until %s.", msg, b.ConfirmationDeadline.Format(time.RFC1123))
	}
	s.toUser(ctx, b.UserID, "completion_reported", "Service completed", msg, b)
	return nil
}

func (s *DefaultNotificationService) EscrowReleased(ctx context.Context, b *models.Booking, providerAmount float64) error {
	s.toProvider(ctx, b.ProviderID, "escrow_released", "Payout on the way",
		fmt.Sprintf("%.2f %s for booking %s has been transferred to your account.", providerAmount, b.Currency, b.ID), b)
	s.toUser(ctx, b.UserID, "booking_completed", "Booking completed",
		"Thanks for confirming - the booking is now closed.", b)
	return nil
}

func (s *DefaultNotificationService) BookingRefunded(ctx context.Context, b *models.Booking, reason string) error {
	s.toUser(ctx, b.UserID, "booking_refunded", "Booking refunded",
		fmt.Sprintf("Your payment of %.2f %s was refunded (%s).", b.Amount, b.Currency, reason), b)
	s.toProvider(ctx, b.ProviderID, "booking_refunded", "Booking refunded",
		fmt.Sprintf("Booking %s was cancelled and refunded.", b.ID), b)
	return nil
}

func (s *DefaultNotificationService) DisputeOpened(ctx context.Context, b *models.Booking) error {
	s.toProvider(ctx, b.ProviderID, "dispute_opened", "Dispute opened",
		fmt.Sprintf("The client disputed booking %s. Payout is on hold pending review.", b.ID), b)
	return nil
}

func (s *DefaultNotificationService) DisputeResolved(ctx context.Context, b *models.Booking) error {
	msg := fmt.Sprintf("The dispute on booking %s was resolved (%s).", b.ID, b.DisputeStatus)
	s.toUser(ctx, b.UserID, "dispute_resolved", "Dispute resolved", msg, b)
	s.toProvider(ctx, b.ProviderID, "dispute_resolved", "Dispute resolved", msg, b)
	return nil
}

func (s *DefaultNotificationService) toUser(ctx context.Context, userID, ntype, title, body string, b *models.Booking) {
	record := models.Notification{
		ID:        uuid.New().String(),
		Type:      ntype,
		Message:   body,
		Data:      map[string]interface{}{"bookingId": b.ID},
		CreatedAt: time.Now(),
	}
	if err := s.Users.AppendNotification(ctx, userID, record); err != nil {
		s.Logger.Warn("failed to persist user notification", zap.String("userId", userID), zap.Error(err))
	}

	usr, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		s.Logger.Warn("failed to load user for push", zap.String("userId", userID), zap.Error(err))
		return
	}
	s.push(ctx, usr.FCMTokens, title, body, b.ID)
}

func (s *DefaultNotificationService) toProvider(ctx context.Context, providerID, ntype, title, body string, b *models.Booking) {
	record := models.Notification{
		ID:        uuid.New().String(),
		Type:      ntype,
		Message:   body,
		Data:      map[string]interface{}{"bookingId": b.ID},
		CreatedAt: time.Now(),
	}
	if err := s.Providers.AppendNotification(ctx, providerID, record); err != nil {
		s.Logger.Warn("failed to persist provider notification", zap.String("providerId", providerID), zap.Error(err))
	}

	prov, err := s.Providers.GetByID(ctx, providerID)
	if err != nil {
		s.Logger.Warn("failed to load provider for push", zap.String("providerId", providerID), zap.Error(err))
		return
	}
	s.push(ctx, prov.FCMTokens, title, body, b.ID)
}

func (s *DefaultNotificationService) push(ctx context.Context, tokens []string, title, body, bookingID string) {
	if utils.FCMClient == nil || len(tokens) == 0 {
		return
	}
	for _, token := range tokens {
		msg := &messaging.Message{
			Token: token,
			Notification: &messaging.Notification{
				Title: title,
				Body:  body,
			},
			Data: map[string]string{"bookingId": bookingID},
		}
		if _, err := utils.FCMClient.Send(ctx, msg); err != nil {
			s.Logger.Debug("push send failed", zap.Error(err))
		}
	}
}
