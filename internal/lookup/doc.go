// Package lookup defines the metadata collaborator boundary: the canonical
// candidate record shape and the narrow service interface the reconciliation
// engine consumes.
//
// Adapters that talk to real metadata providers live outside the engine and
// are responsible for mapping provider field names onto Record; the engine
// never sees provider-specific shapes. Adapter errors should be tagged with
// the sentinel markers in internal/services so retry classification works.
package lookup
