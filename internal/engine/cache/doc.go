// Package cache provides the storage tiers and record format behind the finance cache.
//
// Two tiers are modelled by the same Store capability:
//   - Tier-1 (MemoryStore): fast, capacity-bounded, per-key TTL, silently evicting.
//   - Tier-2 (FileStore, RedisStore): durable, unbounded, no TTL; the source of truth.
//
// Records are stored as JSON text under keys derived by MakeKey, which normalizes the
// symbol to uppercase and the attribute to lowercase:
//
//	finance_<SYMBOL>_<attribute>_<YYYY-MM-DD>
//
// Expiration policy lives in the engine, not here. Stores only implement storage semantics.
package cache
