package models

import (
	"fmt"
	"strconv"
	"unicode/utf8"
)

// Stripe caps metadata values at 500 characters; free text is truncated to
// fit with headroom rather than rejected.
const MaxMetadataNoteLen = 450

// CheckoutDraft is the typed metadata attached to a hosted checkout session.
// It carries every field needed to materialize the booking when the processor
// confirms payment, so verification needs no second round trip to the client.
type CheckoutDraft struct {
	ServiceID  string
	UserID     string
	ProviderID string
	Date       string  // "YYYY-MM-DD"
	StartTime  string  // "HH:MM", empty for whole-day bookings
	EndTime    string
	Amount     float64
	Currency   string
	Notes      string
}

// ToMetadata serializes the draft into processor metadata. Free-text fields
// are truncated, never rejected.
func (d CheckoutDraft) ToMetadata() map[string]string {
	notes := truncateUTF8(d.Notes, MaxMetadataNoteLen)
	m := map[string]string{
		"service_id":  d.ServiceID,
		"user_id":     d.UserID,
		"provider_id": d.ProviderID,
		"date":        d.Date,
		"amount":      strconv.FormatFloat(d.Amount, 'f', 2, 64),
		"currency":    d.Currency,
	}
	if d.StartTime != "" {
		m["start_time"] = d.StartTime
	}
	if d.EndTime != "" {
		m["end_time"] = d.EndTime
	}
	if notes != "" {
		m["notes"] = notes
	}
	return m
}

// truncateUTF8 cuts s to at most max bytes without splitting a rune.
func truncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// DraftFromMetadata rebuilds a draft from processor metadata.
func DraftFromMetadata(m map[string]string) (*CheckoutDraft, error) {
	d := &CheckoutDraft{
		ServiceID:  m["service_id"],
		UserID:     m["user_id"],
		ProviderID: m["provider_id"],
		Date:       m["date"],
		StartTime:  m["start_time"],
		EndTime:    m["end_time"],
		Currency:   m["currency"],
		Notes:      m["notes"],
	}
	if d.ServiceID == "" || d.UserID == "" || d.ProviderID == "" || d.Date == "" {
		return nil, fmt.Errorf("checkout metadata missing required booking fields")
	}
	amount, err := strconv.ParseFloat(m["amount"], 64)
	if err != nil {
		return nil, fmt.Errorf("checkout metadata has invalid amount %q: %w", m["amount"], err)
	}
	d.Amount = amount
	return d, nil
}
