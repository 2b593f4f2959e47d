package engine

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rshade/pecunia/internal/engine/cache"
)

// HistoryPoint is one dated entry of a series. Err is set when the stored record could
// not be decoded; Date and Value are then empty.
type HistoryPoint struct {
	Key   string
	Date  string
	Value cache.Value
	Err   error
}

// EntryInfo describes one durable finance record for listings.
type EntryInfo struct {
	Key   string
	Entry *cache.CacheEntry
	Age   time.Duration
	Err   error
}

// History returns every durable entry for the series, newest date first.
func (c *FinanceCache) History(ctx context.Context, symbol, attribute string) []HistoryPoint {
	prefix := cache.KeyPrefix(symbol, attribute)
	unlock := c.locks.lock(prefix)
	defer unlock()

	keys, err := c.durable.Keys(ctx, prefix)
	if err != nil {
		c.logger.Warn().Ctx(ctx).Err(err).Str("prefix", prefix).Msg("listing durable keys failed")
		return nil
	}
	slices.Reverse(keys)

	points := make([]HistoryPoint, 0, len(keys))
	for _, key := range keys {
		raw, getErr := c.durable.Get(ctx, key)
		if getErr != nil {
			continue
		}
		entry, decodeErr := cache.DecodeCacheEntry(raw)
		if decodeErr != nil {
			points = append(points, HistoryPoint{Key: key, Err: decodeErr})
			continue
		}
		points = append(points, HistoryPoint{Key: key, Date: entry.Date, Value: entry.Value})
	}
	return points
}

// Entries returns every durable finance record in key order. Keys outside the finance
// namespace are ignored.
func (c *FinanceCache) Entries(ctx context.Context) []EntryInfo {
	unlock := c.locks.lockAll()
	defer unlock()

	keys, err := c.durable.Keys(ctx, cache.KeyNamespace)
	if err != nil {
		c.logger.Warn().Ctx(ctx).Err(err).Msg("listing durable keys failed")
		return nil
	}

	now := c.now()
	infos := make([]EntryInfo, 0, len(keys))
	for _, key := range keys {
		raw, getErr := c.durable.Get(ctx, key)
		if getErr != nil {
			continue
		}
		entry, decodeErr := cache.DecodeCacheEntry(raw)
		if decodeErr != nil {
			infos = append(infos, EntryInfo{Key: key, Err: decodeErr})
			continue
		}
		infos = append(infos, EntryInfo{Key: key, Entry: entry, Age: entry.Age(now)})
	}
	return infos
}

// ListAll renders every durable finance record with its age in minutes.
func (c *FinanceCache) ListAll(ctx context.Context) string {
	infos := c.Entries(ctx)
	if len(infos) == 0 {
		return "No cached finance data"
	}

	var b strings.Builder
	b.WriteString("Cached Finance Data:\n")
	for _, info := range infos {
		if info.Err != nil {
			fmt.Fprintf(&b, "%s: [error reading]\n", info.Key)
			continue
		}
		fmt.Fprintf(&b, "%s: %s (%.1f min old)\n", info.Key, info.Entry.Value, info.Age.Minutes())
	}
	return b.String()
}
