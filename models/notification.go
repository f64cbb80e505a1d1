package models

import "time"

// Notification is an in-app notification record appended to the recipient's
// document. Push delivery happens on a separate, fire-and-forget channel.
type Notification struct {
	ID        string                 `bson:"id" json:"id"`
	Type      string                 `bson:"type" json:"type"`
	Message   string                 `bson:"message" json:"message"`
	Data      map[string]interface{} `bson:"data,omitempty" json:"data,omitempty"`
	Read      bool                   `bson:"read" json:"read"`
	CreatedAt time.Time              `bson:"createdAt" json:"createdAt"`
}
