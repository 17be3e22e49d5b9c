// Package reconcile matches loosely specified recommendation stubs against
// authoritative metadata records and reports how confident the match is.
//
// The Reconciler resolves each stub through a tiered candidate search
// (direct identifier, title plus year, title only, simplified title),
// scores candidates with the similarity package, and classifies the result
// as verified, deferred to the user, unverified, or failed. Outcomes are
// cached through verifycache so repeated stubs skip the lookup entirely,
// and transient collaborator failures are retried with bounded backoff.
//
// ReconcileBatch fans a slice of stubs out in fixed-size concurrent
// batches with pacing between batches, deduplicates stub identities, and
// aggregates per-item outcomes; a failing item never aborts its batch.
// Centralize new matching heuristics here so single and batch paths stay
// consistent.
package reconcile
