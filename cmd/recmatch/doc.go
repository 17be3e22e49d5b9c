// Command recmatch reconciles loosely specified content recommendations
// against a metadata catalog, producing verified matches with confidence
// scores or deferring ambiguous ones for user selection.
package main
