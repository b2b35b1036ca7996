// Package query turns stored per-section metrics into the per-date series
// and dense tables the API serves.
package query

import (
	"context"
	"fmt"
	"sort"
	"time"

	dErrors "regpulse/pkg/domain-errors"

	"regpulse/internal/metricstore"
)

// Metric names one aggregatable section metric.
type Metric string

const (
	MetricWordCount    Metric = "word_count"
	MetricMandateCount Metric = "mandate_count"
	MetricReadingEase  Metric = "reading_ease"
)

// ParseMetric validates a metric name from the API surface.
// "readability_score" is accepted as an alias for reading_ease.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricWordCount, MetricMandateCount, MetricReadingEase:
		return Metric(s), nil
	case "readability_score":
		return MetricReadingEase, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown metric %q", s))
	}
}

// Point is one aggregated value on one snapshot date.
type Point struct {
	Date  time.Time
	Value float64
}

// Engine aggregates stored records into per-date series. Counts sum across
// a date's sections; reading ease takes the arithmetic mean, since summing
// a score is meaningless. Dates with no records are absent from the series,
// never fabricated as zero.
type Engine struct {
	store metricstore.Store
}

func NewEngine(store metricstore.Store) *Engine {
	return &Engine{store: store}
}

// Aggregate returns the selector's per-date series for one metric, ordered
// by date ascending.
func (e *Engine) Aggregate(ctx context.Context, sel metricstore.Selector, metric Metric) ([]Point, error) {
	records, err := e.store.QueryMatching(ctx, sel, metricstore.DateRange{})
	if err != nil {
		return nil, fmt.Errorf("aggregate %s: %w", metric, err)
	}

	sums := make(map[time.Time]float64)
	counts := make(map[time.Time]int)
	for _, r := range records {
		var v float64
		switch metric {
		case MetricWordCount:
			v = float64(r.WordCount)
		case MetricMandateCount:
			v = float64(r.MandateCount)
		case MetricReadingEase:
			v = r.ReadingEase
		default:
			return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown metric %q", metric))
		}
		sums[r.Date] += v
		counts[r.Date]++
	}

	points := make([]Point, 0, len(sums))
	for date, sum := range sums {
		value := sum
		if metric == MetricReadingEase {
			value = sum / float64(counts[date])
		}
		points = append(points, Point{Date: date, Value: value})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}
