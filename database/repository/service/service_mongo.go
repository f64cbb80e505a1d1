package serviceRepo

import (
	"context"
	"errors"
	"fmt"

	"brightnest/database"
	"brightnest/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound is returned when no service matches the lookup.
var ErrNotFound = errors.New("service not found")

// ServiceRepository defines data access for the service catalogue.
type ServiceRepository interface {
	GetByID(ctx context.Context, id string) (*models.Service, error)
	GetByProviderID(ctx context.Context, providerID string) ([]models.Service, error)
	Create(ctx context.Context, svc *models.Service) error
}

// MongoServiceRepo implements ServiceRepository using MongoDB.
type MongoServiceRepo struct {
	coll *mongo.Collection
}

// NewMongoServiceRepo constructs a new instance of MongoServiceRepo.
func NewMongoServiceRepo() ServiceRepository {
	return &MongoServiceRepo{coll: database.DB().Collection("services")}
}

func (repo *MongoServiceRepo) GetByID(ctx context.Context, id string) (*models.Service, error) {
	var svc models.Service
	if err := repo.coll.FindOne(ctx, bson.M{"id": id}).Decode(&svc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error fetching service with id %s: %w", id, err)
	}
	return &svc, nil
}

func (repo *MongoServiceRepo) GetByProviderID(ctx context.Context, providerID string) ([]models.Service, error) {
	cursor, err := repo.coll.Find(ctx, bson.M{"providerId": providerID})
	if err != nil {
		return nil, fmt.Errorf("error fetching services for provider %s: %w", providerID, err)
	}
	defer cursor.Close(ctx)

	var out []models.Service
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("error decoding services: %w", err)
	}
	return out, nil
}

func (repo *MongoServiceRepo) Create(ctx context.Context, svc *models.Service) error {
	if _, err := repo.coll.InsertOne(ctx, svc); err != nil {
		return fmt.Errorf("error creating service: %w", err)
	}
	return nil
}
