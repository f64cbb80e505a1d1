package models

import "time"

// PayoutDetails carries the provider's Stripe Connect state. A provider is
// payable only when the connected account exists and finished onboarding.
type PayoutDetails struct {
	StripeAccountID string    `bson:"stripeAccountID,omitempty" json:"stripeAccountID,omitempty"`
	StripeVerified  bool      `bson:"stripeVerified" json:"stripeVerified"`
	Currency        string    `bson:"currency" json:"currency"`
	LastUpdated     time.Time `bson:"lastUpdated" json:"lastUpdated"`
}

// Provider is the service-side party of the marketplace. Onboarding and
// profile management live outside the engine; the engine reads payout state
// and appends notifications.
type Provider struct {
	ID          string `bson:"id" json:"id"`
	Name        string `bson:"name" json:"name"`
	Email       string `bson:"email" json:"email"`
	PhoneNumber string `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`

	Payout PayoutDetails `bson:"payout" json:"payout"`

	FCMTokens     []string       `bson:"fcmTokens,omitempty" json:"-"`
	Notifications []Notification `bson:"notifications,omitempty" json:"notifications,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Payable reports whether escrow funds can be transferred to this provider.
func (p *Provider) Payable() bool {
	return p.Payout.StripeAccountID != "" && p.Payout.StripeVerified
}
