package bookingRepo

import (
	"context"
	"errors"
	"fmt"

	"brightnest/database"
	"brightnest/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	bookingColl *mongo.Collection
	// slotLockColl holds one document per (serviceId, date). Bumping its
	// revision inside the booking transaction forces a write-write conflict
	// between concurrent commits for the same day, which is what turns the
	// snapshot-isolated overlap re-check into a first-committer-wins race.
	slotLockColl *mongo.Collection
}

// NewMongoBookingRepo constructs a new instance of MongoBookingRepo.
func NewMongoBookingRepo() BookingRepository {
	db := database.DB()
	return &MongoBookingRepo{
		bookingColl:  db.Collection("bookings"),
		slotLockColl: db.Collection("slot_locks"),
	}
}

func (repo *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	var b models.Booking
	if err := repo.bookingColl.FindOne(ctx, bson.M{"id": id}).Decode(&b); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error fetching booking with id %s: %w", id, err)
	}
	return &b, nil
}

func (repo *MongoBookingRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.Booking, error) {
	var b models.Booking
	if err := repo.bookingColl.FindOne(ctx, bson.M{"checkoutSessionId": sessionID}).Decode(&b); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error fetching booking for session %s: %w", sessionID, err)
	}
	return &b, nil
}

func (repo *MongoBookingRepo) GetByUserID(ctx context.Context, userID string, limit int64) ([]models.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := repo.bookingColl.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error fetching bookings for user %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	var out []models.Booking
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("error decoding user bookings: %w", err)
	}
	return out, nil
}

// FindActiveOnDate returns every non-cancelled booking for the service on the
// given date, including legacy rows without explicit times.
func (repo *MongoBookingRepo) FindActiveOnDate(ctx context.Context, serviceID, date string) ([]models.Booking, error) {
	filter := bson.M{
		"serviceId": serviceID,
		"date":      date,
		"status":    bson.M{"$ne": models.BookingCancelled},
	}
	cursor, err := repo.bookingColl.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error fetching bookings for service %s on %s: %w", serviceID, date, err)
	}
	defer cursor.Close(ctx)

	var out []models.Booking
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("error decoding bookings: %w", err)
	}
	return out, nil
}
