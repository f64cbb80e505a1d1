package models

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutDraftMetadataRoundTrip(t *testing.T) {
	d := CheckoutDraft{
		ServiceID:  "svc-1",
		UserID:     "user-1",
		ProviderID: "prov-1",
		Date:       "2026-09-07",
		StartTime:  "10:00",
		EndTime:    "13:00",
		Amount:     100.00,
		Currency:   "eur",
		Notes:      "ring the top bell",
	}

	got, err := DraftFromMetadata(d.ToMetadata())
	require.NoError(t, err)
	assert.Equal(t, d, *got)
}

func TestCheckoutDraftWholeDayOmitsTimes(t *testing.T) {
	d := CheckoutDraft{
		ServiceID:  "svc-1",
		UserID:     "user-1",
		ProviderID: "prov-1",
		Date:       "2026-09-07",
		Amount:     50.00,
		Currency:   "eur",
	}

	m := d.ToMetadata()
	_, hasStart := m["start_time"]
	_, hasEnd := m["end_time"]
	assert.False(t, hasStart)
	assert.False(t, hasEnd)

	got, err := DraftFromMetadata(m)
	require.NoError(t, err)
	assert.Empty(t, got.StartTime)
	assert.Empty(t, got.EndTime)
}

func TestCheckoutDraftTruncatesLongNotes(t *testing.T) {
	d := CheckoutDraft{
		ServiceID:  "svc-1",
		UserID:     "user-1",
		ProviderID: "prov-1",
		Date:       "2026-09-07",
		Amount:     50.00,
		Currency:   "eur",
		Notes:      strings.Repeat("x", 600),
	}

	m := d.ToMetadata()
	assert.Len(t, m["notes"], MaxMetadataNoteLen)
}

func TestCheckoutDraftTruncationKeepsValidUTF8(t *testing.T) {
	d := CheckoutDraft{
		ServiceID:  "svc-1",
		UserID:     "user-1",
		ProviderID: "prov-1",
		Date:       "2026-09-07",
		Amount:     50.00,
		// Two-byte runes; 450 is not a multiple of 2 after the prefix, so a
		// byte-boundary cut would split one.
		Notes: "x" + strings.Repeat("ä", 400),
	}

	m := d.ToMetadata()
	assert.LessOrEqual(t, len(m["notes"]), MaxMetadataNoteLen)
	assert.True(t, utf8.ValidString(m["notes"]))
}

func TestDraftFromMetadataMissingFields(t *testing.T) {
	_, err := DraftFromMetadata(map[string]string{
		"service_id": "svc-1",
		"date":       "2026-09-07",
		"amount":     "50.00",
	})
	assert.Error(t, err)
}

func TestDraftFromMetadataBadAmount(t *testing.T) {
	_, err := DraftFromMetadata(map[string]string{
		"service_id":  "svc-1",
		"user_id":     "user-1",
		"provider_id": "prov-1",
		"date":        "2026-09-07",
		"amount":      "fifty",
	})
	assert.Error(t, err)
}
