// Package verifycache caches reconciliation outcomes across two tiers: a
// fast in-process map and an optional durable Store for cross-session reuse.
//
// Reads consult the fast tier first, then the durable tier, backfilling the
// fast tier on a durable hit. Entries past their expiry are treated as
// absent and removed lazily on read; there is no background sweeper. Writes
// that hit the durable store's quota evict the oldest third of entries by
// creation time and retry once.
//
// Verified outcomes get a long TTL, failed and unverified ones a short TTL
// so they retry naturally without a full re-scan. The clock is injectable
// for expiry tests.
package verifycache
