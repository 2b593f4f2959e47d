package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMalformedEntry indicates stored text that does not decode into a CacheEntry.
var ErrMalformedEntry = errors.New("malformed cache entry")

// CacheEntry is the record stored under a finance key in both tiers.
//
//nolint:revive // CacheEntry is the canonical name for this exported type.
type CacheEntry struct {
	// Value is the quote value, stored verbatim.
	Value Value `json:"value"`

	// Timestamp is the write instant in milliseconds since the Unix epoch.
	Timestamp int64 `json:"timestamp"`

	// Date is the ISO trading date (YYYY-MM-DD) the value applies to.
	Date string `json:"date"`

	// Symbol is the normalized (uppercase) ticker.
	Symbol string `json:"symbol"`

	// Attribute is the normalized (lowercase) field name.
	Attribute string `json:"attribute"`
}

// NewCacheEntry creates an entry stamped with now.
// Symbol and attribute are normalized the same way MakeKey normalizes them.
func NewCacheEntry(symbol, attribute string, value Value, date string, now time.Time) *CacheEntry {
	return &CacheEntry{
		Value:     value,
		Timestamp: now.UnixMilli(),
		Date:      date,
		Symbol:    NormalizeSymbol(symbol),
		Attribute: NormalizeAttribute(attribute),
	}
}

// WrittenAt returns Timestamp as a time.Time.
func (e *CacheEntry) WrittenAt() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// Age returns how long ago the entry was written, relative to now.
func (e *CacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.WrittenAt())
}

// IsExpired reports whether the entry is strictly older than maxAge at now.
func (e *CacheEntry) IsExpired(maxAge time.Duration, now time.Time) bool {
	return IsExpired(e.Timestamp, maxAge, now)
}

// Encode serializes the entry to the text stored in both tiers.
func (e *CacheEntry) Encode() (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	return string(data), nil
}

// DecodeCacheEntry parses stored text. Any decode failure wraps ErrMalformedEntry.
func DecodeCacheEntry(raw string) (*CacheEntry, error) {
	var entry CacheEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEntry, err)
	}
	return &entry, nil
}

// IsExpired reports whether a millisecond timestamp is older than maxAge at now.
func IsExpired(timestampMs int64, maxAge time.Duration, now time.Time) bool {
	return now.UnixMilli()-timestampMs > maxAge.Milliseconds()
}
