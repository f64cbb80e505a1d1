package userRepo

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

// ErrNotFound is returned when no user matches the lookup.
var ErrNotFound = errors.New("user not found")

// UserRepository defines the data access the engine needs from users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	AppendNotification(ctx context.Context, userID string, n models.Notification) error
}

// MongoUserRepo implements UserRepository using MongoDB.
type MongoUserRepo struct {
	coll *mongo.Collection
}

// NewMongoUserRepo constructs a new instance of MongoUserRepo.
func NewMongoUserRepo() UserRepository {
	return &MongoUserRepo{coll: database.DB().Collection("users")}
}

func (repo *MongoUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := repo.coll.FindOne(ctx, bson.M{"id": id}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error fetching user with id %s: %w", id, err)
	}
	return &u, nil
}

func (repo *MongoUserRepo) AppendNotification(ctx context.Context, userID string, n models.Notification) error {
	update := bson.M{
		"$push": bson.M{"notifications": n},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	if _, err := repo.coll.UpdateOne(ctx, bson.M{"id": userID}, update); err != nil {
		return fmt.Errorf("error appending notification to user %s: %w", userID, err)
	}
	return nil
}
