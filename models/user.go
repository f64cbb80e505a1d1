package models

import "time"

// User is the client-side party of the marketplace. Authentication and
// profile CRUD live outside the engine.
type User struct {
	ID          string `bson:"id" json:"id"`
	Name        string `bson:"name" json:"name"`
	Email       string `bson:"email" json:"email"`
	PhoneNumber string `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`

	FCMTokens     []string       `bson:"fcmTokens,omitempty" json:"-"`
	Notifications []Notification `bson:"notifications,omitempty" json:"notifications,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
