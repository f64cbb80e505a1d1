package models

import "time"

// Price types supported by the catalogue.
const (
	PriceFixed   = "fixed"
	PriceHourly  = "hourly"
	PricePerArea = "per-area"
)

// WorkingWindow is the daily window during which a service may be rendered,
// expressed as "HH:MM" wall-clock times.
type WorkingWindow struct {
	Start string `bson:"start" json:"start"`
	End   string `bson:"end" json:"end"`
}

// Service is a cleaning offer published by a provider. Read-only to clients;
// the booking engine consults it for pricing and availability rules.
type Service struct {
	ID          string `bson:"id" json:"id"`
	ProviderID  string `bson:"providerId" json:"providerId"`
	Name        string `bson:"name" json:"name"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`

	Amount    float64 `bson:"amount" json:"amount"`       // base price in major units
	PriceType string  `bson:"priceType" json:"priceType"` // fixed | hourly | per-area
	Currency  string  `bson:"currency" json:"currency"`

	WorkingHours WorkingWindow `bson:"workingHours" json:"workingHours"`
	SlotMinutes  int           `bson:"slotMinutes" json:"slotMinutes"` // slot granularity

	// Weekly availability: weekday names ("monday"…"sunday") that are switched
	// off, plus explicit blocked dates in "YYYY-MM-DD" form.
	DisabledWeekdays []string `bson:"disabledWeekdays,omitempty" json:"disabledWeekdays,omitempty"`
	BlockedDates     []string `bson:"blockedDates,omitempty" json:"blockedDates,omitempty"`

	Active    bool      `bson:"active" json:"active"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
