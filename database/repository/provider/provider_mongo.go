package providerRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"brightnest/database"
	"brightnest/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound is returned when no provider matches the lookup.
var ErrNotFound = errors.New("provider not found")

// ProviderRepository defines the data access the engine needs from providers:
// payout readiness reads and notification appends. Onboarding CRUD lives in a
// separate system.
type ProviderRepository interface {
	GetByID(ctx context.Context, id string) (*models.Provider, error)
	AppendNotification(ctx context.Context, providerID string, n models.Notification) error
	SetPayout(ctx context.Context, providerID string, payout models.PayoutDetails) error
}

// MongoProviderRepo implements ProviderRepository using MongoDB.
type MongoProviderRepo struct {
	coll *mongo.Collection
}

// NewMongoProviderRepo constructs a new instance of MongoProviderRepo.
func NewMongoProviderRepo() ProviderRepository {
	return &MongoProviderRepo{coll: database.DB().Collection("providers")}
}

func (repo *MongoProviderRepo) GetByID(ctx context.Context, id string) (*models.Provider, error) {
	var p models.Provider
	if err := repo.coll.FindOne(ctx, bson.M{"id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error fetching provider with id %s: %w", id, err)
	}
	return &p, nil
}

func (repo *MongoProviderRepo) AppendNotification(ctx context.Context, providerID string, n models.Notification) error {
	update := bson.M{
		"$push": bson.M{"notifications": n},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	if _, err := repo.coll.UpdateOne(ctx, bson.M{"id": providerID}, update); err != nil {
		return fmt.Errorf("error appending notification to provider %s: %w", providerID, err)
	}
	return nil
}

func (repo *MongoProviderRepo) SetPayout(ctx context.Context, providerID string, payout models.PayoutDetails) error {
	payout.LastUpdated = time.Now()
	update := bson.M{"$set": bson.M{"payout": payout, "updatedAt": time.Now()}}
	res, err := repo.coll.UpdateOne(ctx, bson.M{"id": providerID}, update)
	if err != nil {
		return fmt.Errorf("error updating payout details for provider %s: %w", providerID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
