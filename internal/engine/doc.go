// Package engine implements the finance cache engine: reads, writes, promotion and
// expiration across a fast tier and a durable tier.
//
// # Lookups
//
// A dated lookup checks the fast tier, then the durable tier. A durable hit is promoted:
// the stored text is copied into the fast tier with the fast TTL. Dated lookups never
// check staleness.
//
// A latest lookup (empty date) lists the durable keys for the series, picks the
// lexicographically greatest (ISO dates sort chronologically), and reads it the same way.
// A durable hit older than the staleness window is deleted from the durable tier and the
// lookup reports absent.
//
// # Concurrency
//
// Operations on one (symbol, attribute) series are serialized by a striped lock. Whole-store
// operations (ClearAll, ExpireOlderThan, Entries, ListAll) hold every stripe.
//
// # Errors
//
// The engine does not return errors. Store failures and malformed records are logged and
// treated as misses; failed writes are logged and counted.
package engine
