// Package similarity provides the text comparison primitives used by
// reconciliation: title normalization, edit-distance title scoring, and
// token-based plot/keyword overlap.
//
// Title scoring layers several heuristics: exact match after normalization,
// a suspicious-title cap for strings that look like several titles jammed
// into one field, a containment rule guarded by a length ratio so short
// titles are not swallowed by longer ones, and normalized Levenshtein
// distance as the general case. Plot comparison uses Jaccard overlap over
// filtered token sets; keyword comparison restricts that to the top
// frequency-ranked terms after stop-word removal.
//
// All scores are in [0, 1]. Keep new comparison heuristics here so the
// resolver and classifier share one implementation.
package similarity
