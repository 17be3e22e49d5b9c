// Package catalog provides a JSON-file-backed metadata catalog. It exists
// for offline use: the CLI and tests can run the reconciliation engine
// against a local records file instead of a live metadata collaborator.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"recmatch/internal/lookup"
	"recmatch/internal/services"
	"recmatch/internal/similarity"
)

// Catalog implements lookup.Service over an in-memory record set loaded
// from a JSON file. The catalog is immutable after Load.
type Catalog struct {
	byID    map[string]lookup.Record
	records []lookup.Record
}

// Load reads a catalog file: either a bare JSON array of records or an
// object with a "records" field.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse builds a catalog from raw JSON.
func Parse(data []byte) (*Catalog, error) {
	var records []lookup.Record
	if err := json.Unmarshal(data, &records); err != nil {
		var wrapper struct {
			Records []lookup.Record `json:"records"`
		}
		if err2 := json.Unmarshal(data, &wrapper); err2 != nil {
			return nil, fmt.Errorf("decode catalog: %w", err)
		}
		records = wrapper.Records
	}

	c := &Catalog{byID: make(map[string]lookup.Record, len(records))}
	for _, rec := range records {
		if strings.TrimSpace(rec.Title) == "" {
			continue
		}
		if rec.ExternalID != "" {
			c.byID[rec.ExternalID] = rec
		}
		c.records = append(c.records, rec)
	}
	return c, nil
}

// Len reports how many records the catalog holds.
func (c *Catalog) Len() int {
	return len(c.records)
}

// GetByID returns the record with the given external id, or (nil, nil)
// when the catalog has no such record.
func (c *Catalog) GetByID(ctx context.Context, id string) (*lookup.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if rec, ok := c.byID[strings.TrimSpace(id)]; ok {
		copied := rec
		return &copied, nil
	}
	return nil, nil
}

// SearchByTitle returns records whose normalized title contains the
// normalized query. A year hint narrows the results unless it would
// eliminate all of them.
func (c *Catalog) SearchByTitle(ctx context.Context, title, yearHint string) ([]lookup.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	query := similarity.Normalize(title)
	if query == "" {
		return nil, services.ErrValidation
	}

	var matches []lookup.Record
	for _, rec := range c.records {
		if strings.Contains(similarity.Normalize(rec.Title), query) {
			matches = append(matches, rec)
		}
	}
	if yearHint == "" {
		return matches, nil
	}

	narrowed := make([]lookup.Record, 0, len(matches))
	for _, rec := range matches {
		if lookup.YearMatches(rec.Year, yearHint) {
			narrowed = append(narrowed, rec)
		}
	}
	if len(narrowed) == 0 {
		return matches, nil
	}
	return narrowed, nil
}

var _ lookup.Service = (*Catalog)(nil)
