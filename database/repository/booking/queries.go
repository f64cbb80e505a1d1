package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"brightnest/models"

	"go.mongodb.org/mongo-driver/bson"
)

// DueForAutoRelease selects bookings whose confirmation window elapsed with
// no dispute and funds still in escrow.
func (repo *MongoBookingRepo) DueForAutoRelease(ctx context.Context, now time.Time) ([]models.Booking, error) {
	filter := bson.M{
		"awaitingClientConfirmation": true,
		"confirmationDeadline":       bson.M{"$lte": now},
		"paymentStatus":              models.PaymentHeldInEscrow,
		"disputeStatus":              bson.M{"$in": []interface{}{nil, ""}},
	}
	cursor, err := repo.bookingColl.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error querying bookings due for auto-release: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.Booking
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("error decoding auto-release candidates: %w", err)
	}
	return out, nil
}

// DueForCapture selects authorized bookings whose capture delay elapsed.
func (repo *MongoBookingRepo) DueForCapture(ctx context.Context, now time.Time) ([]models.Booking, error) {
	filter := bson.M{
		"status":        models.BookingPending,
		"paymentStatus": models.PaymentAuthorized,
		"captureAfter":  bson.M{"$lte": now},
	}
	cursor, err := repo.bookingColl.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error querying bookings due for capture: %w", err)
	}
	defer cursor.Close(ctx)

	var out []models.Booking
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("error decoding capture candidates: %w", err)
	}
	return out, nil
}
