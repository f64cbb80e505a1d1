package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the bookings collection.
func (repo *MongoBookingRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		// Unique booking id.
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// One booking per checkout session; this is what makes verifyPayment
		// idempotent under concurrent callbacks.
		{
			Keys:    bson.D{{Key: "checkoutSessionId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_checkout_session"),
		},
		// Primary conflict-check query pattern.
		{
			Keys:    bson.D{{Key: "serviceId", Value: 1}, {Key: "date", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("service_date_status_idx"),
		},
		// Sweep query patterns.
		{
			Keys:    bson.D{{Key: "awaitingClientConfirmation", Value: 1}, {Key: "confirmationDeadline", Value: 1}},
			Options: options.Index().SetName("confirmation_deadline_idx"),
		},
		{
			Keys:    bson.D{{Key: "paymentStatus", Value: 1}, {Key: "captureAfter", Value: 1}},
			Options: options.Index().SetName("capture_after_idx"),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("user_created_idx"),
		},
	}

	if _, err := repo.bookingColl.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}

	lockIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "serviceId", Value: 1}, {Key: "date", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("unique_service_date"),
	}
	if _, err := repo.slotLockColl.Indexes().CreateOne(ctx, lockIndex); err != nil {
		return fmt.Errorf("failed to create slot lock index: %w", err)
	}
	return nil
}
