package testsupport

import (
	"context"
	"strings"
	"sync"

	"recmatch/internal/lookup"
)

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// FakeLookup is an in-memory lookup.Service for tests. Records are matched
// by exact external id and by case-insensitive title containment, and every
// call is counted so tests can assert on lookup traffic.
type FakeLookup struct {
	mu      sync.Mutex
	byID    map[string]lookup.Record
	records []lookup.Record

	GetByIDErr       error
	SearchErr        error
	GetByIDCallCount int
	SearchCallCount  int

	// SearchHook, when set, replaces the built-in search behavior.
	SearchHook func(title, yearHint string) ([]lookup.Record, error)
}

// NewFakeLookup builds a fake seeded with the given records.
func NewFakeLookup(records ...lookup.Record) *FakeLookup {
	f := &FakeLookup{byID: make(map[string]lookup.Record)}
	for _, rec := range records {
		f.Add(rec)
	}
	return f
}

// Add registers one more record.
func (f *FakeLookup) Add(rec lookup.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec.ExternalID != "" {
		f.byID[rec.ExternalID] = rec
	}
	f.records = append(f.records, rec)
}

func (f *FakeLookup) GetByID(ctx context.Context, id string) (*lookup.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GetByIDCallCount++
	if f.GetByIDErr != nil {
		return nil, f.GetByIDErr
	}
	if rec, ok := f.byID[id]; ok {
		copied := rec
		return &copied, nil
	}
	return nil, nil
}

func (f *FakeLookup) SearchByTitle(ctx context.Context, title, yearHint string) ([]lookup.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SearchCallCount++
	if f.SearchErr != nil {
		return nil, f.SearchErr
	}
	if f.SearchHook != nil {
		return f.SearchHook(title, yearHint)
	}
	var matches []lookup.Record
	for _, rec := range f.records {
		if containsFold(rec.Title, title) {
			matches = append(matches, rec)
		}
	}
	return matches, nil
}

// Calls reports the total number of lookup calls made so far.
func (f *FakeLookup) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.GetByIDCallCount + f.SearchCallCount
}

var _ lookup.Service = (*FakeLookup)(nil)
