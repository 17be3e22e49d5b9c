// Package logging centralizes slog construction and attribute helpers.
//
// New builds a logger from Options (level, format, output paths) producing
// either JSON or console output, optionally fanned out to log files.
// Components take a *slog.Logger and scope it with NewComponentLogger so
// every record carries a component attribute. NewNop returns a logger that
// discards everything, which keeps nil checks out of library code.
package logging
