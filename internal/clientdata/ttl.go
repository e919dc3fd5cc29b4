package clientdata

import "time"

// TTL constants for different data types.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// TTLExchangeRate - currency exchange rates change slowly enough for an hour
	TTLExchangeRate = time.Hour
	// TTLCurrentPrice - live price cache for batch evaluation runs
	TTLCurrentPrice = 10 * time.Minute
)
