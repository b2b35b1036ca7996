// Package metricstore persists per-section text metrics keyed by
// (title, chapter, section, snapshot date). The natural key is enforced by
// the store itself: re-ingesting a snapshot overwrites records in place and
// can never duplicate them, which is what keeps repeated runs from
// double-counting totals.
package metricstore

import (
	"context"
	"time"
)

// Record is the atomic unit: one section's metrics at one snapshot date.
// Section may be coarser than a real section (the chapter id) when the
// source document could not be decomposed below chapter granularity.
type Record struct {
	Title        int
	Chapter      string
	Section      string
	Date         time.Time
	WordCount    int
	MandateCount int
	ReadingEase  float64
}

// Ref selects records belonging to one (title, chapter) pair.
type Ref struct {
	Title   int
	Chapter string
}

// Selector matches records either by whole title or by a list of
// (title, chapter) references. Refs win when non-empty.
type Selector struct {
	Title int
	Refs  []Ref
}

// DateRange bounds a query; zero values mean unbounded.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Store is the metrics persistence boundary. Upsert must be keyed by the
// natural key: writing the same (title, chapter, section, date) twice leaves
// exactly one record, holding the values written last.
type Store interface {
	Upsert(ctx context.Context, records []Record) error
	QueryMatching(ctx context.Context, sel Selector, dr DateRange) ([]Record, error)
	HasSnapshot(ctx context.Context, title int, date time.Time) (bool, error)
}

// day normalizes a timestamp to its UTC date so keys and range checks agree
// regardless of the caller's wall-clock zone.
func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (dr DateRange) contains(t time.Time) bool {
	t = day(t)
	if !dr.From.IsZero() && t.Before(day(dr.From)) {
		return false
	}
	if !dr.To.IsZero() && t.After(day(dr.To)) {
		return false
	}
	return true
}

func (s Selector) matches(r Record) bool {
	if len(s.Refs) > 0 {
		for _, ref := range s.Refs {
			if r.Title == ref.Title && r.Chapter == ref.Chapter {
				return true
			}
		}
		return false
	}
	return r.Title == s.Title
}
