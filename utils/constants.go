package utils

import "time"

const (
	// AuthCachePrefix prefixes auth token hash cache keys.
	AuthCachePrefix = "auth:"

	// CheckoutDraftPrefix prefixes cached checkout drafts keyed by session id.
	CheckoutDraftPrefix = "checkout:draft:"

	// CheckoutDraftTTL bounds how long an unpaid checkout draft is kept. Stripe
	// expires hosted sessions after 24h; the cache outlives that slightly.
	CheckoutDraftTTL = 25 * time.Hour

	// AuthCacheTTL is the sliding TTL for cached token hashes.
	AuthCacheTTL = time.Hour
)
