package metricstore

import (
	"context"
	"sort"
	"sync"
	"time"
)

type recordKey struct {
	title   int
	chapter string
	section string
	date    time.Time
}

// InMemory is a mutex-guarded keyed map, used in tests and local runs. The
// map key is the natural key, so the upsert invariant holds by construction.
type InMemory struct {
	mu      sync.RWMutex
	records map[recordKey]Record
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[recordKey]Record)}
}

func keyOf(r Record) recordKey {
	return recordKey{title: r.Title, chapter: r.Chapter, section: r.Section, date: day(r.Date)}
}

// Upsert writes records by natural key; existing rows are overwritten.
func (s *InMemory) Upsert(_ context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		r.Date = day(r.Date)
		s.records[keyOf(r)] = r
	}
	return nil
}

// QueryMatching returns all records matching the selector within the range,
// ordered by date then title, chapter, section for deterministic output.
func (s *InMemory) QueryMatching(_ context.Context, sel Selector, dr DateRange) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Record
	for _, r := range s.records {
		if sel.matches(r) && dr.contains(r.Date) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		if a.Chapter != b.Chapter {
			return a.Chapter < b.Chapter
		}
		return a.Section < b.Section
	})
	return out, nil
}

// HasSnapshot reports whether any record exists for (title, date).
func (s *InMemory) HasSnapshot(_ context.Context, title int, date time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	date = day(date)
	for k := range s.records {
		if k.title == title && k.date.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

// Len reports the number of stored records. Test helper.
func (s *InMemory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
