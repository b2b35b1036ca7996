package query

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"regpulse/internal/metricstore"
	"regpulse/internal/platform/metrics"
	"regpulse/internal/registry"
	dErrors "regpulse/pkg/domain-errors"
	platformstrings "regpulse/pkg/platform/strings"
)

// By names the grouping axis of a table request.
type By string

const (
	ByAgency   By = "agency"
	ByCFRTitle By = "cfr-title"
)

// ParseBy validates a grouping axis from the API surface.
func ParseBy(s string) (By, error) {
	switch By(s) {
	case ByAgency, ByCFRTitle:
		return By(s), nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown grouping %q", s))
	}
}

// Row is one snapshot date across all requested groups. A nil value means
// the group has no data on that date; zero is a real measurement.
type Row struct {
	Date   string              `json:"date"`
	Values map[string]*float64 `json:"values"`
}

// Table is the dense result of one facade query: one row per date in the
// union of the groups' dates, one cell per group. Groups whose store query
// failed appear in Failed and contribute all-null columns.
type Table struct {
	Metric Metric   `json:"metric"`
	Groups []string `json:"groups"`
	Dates  []string `json:"dates"`
	Rows   []Row    `json:"rows"`
	Failed []string `json:"failed"`
}

// Facade resolves group names to store selectors and assembles dense
// tables, pacing the store calls.
type Facade struct {
	engine   *Engine
	registry *registry.Registry
	logger   *slog.Logger
	metrics  *metrics.Metrics
	pacer    Pacer
	cache    *Cache
	groupCap int
}

// FacadeOption configures the Facade.
type FacadeOption func(*Facade)

// WithPacer sets the delay between consecutive group queries. Without one
// the facade queries back to back.
func WithPacer(p Pacer) FacadeOption {
	return func(f *Facade) { f.pacer = p }
}

// WithCache adds a Redis table cache.
func WithCache(c *Cache) FacadeOption {
	return func(f *Facade) { f.cache = c }
}

// WithGroupCap bounds how many groups one request may select.
func WithGroupCap(n int) FacadeOption {
	return func(f *Facade) {
		if n > 0 {
			f.groupCap = n
		}
	}
}

func NewFacade(engine *Engine, reg *registry.Registry, logger *slog.Logger, m *metrics.Metrics, opts ...FacadeOption) *Facade {
	f := &Facade{
		engine:   engine,
		registry: reg,
		logger:   logger,
		metrics:  m,
		groupCap: 3,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// GroupCap reports the configured per-request group limit.
func (f *Facade) GroupCap() int {
	return f.groupCap
}

// Resolve builds the dense table for the named groups. Unknown names and
// agencies with no chaptered references yield empty columns rather than
// errors; a group whose store query fails yields a null column and an entry
// in Failed. Cancellation of ctx stops further group queries.
func (f *Facade) Resolve(ctx context.Context, by By, names []string, metric Metric) (*Table, error) {
	names = platformstrings.DedupeAndTrim(names)
	if len(names) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one group is required")
	}
	if len(names) > f.groupCap {
		return nil, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("at most %d groups per request", f.groupCap))
	}

	key := cacheKey(by, names, metric)
	if f.cache != nil {
		if table, ok := f.cache.Get(ctx, key); ok {
			f.metrics.QueryCacheHits.Inc()
			return table, nil
		}
		f.metrics.QueryCacheMisses.Inc()
	}

	start := time.Now()
	defer func() {
		f.metrics.QueryDuration.Observe(time.Since(start).Seconds())
	}()

	series := make(map[string][]Point, len(names))
	var failed []string
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f.pacer != nil {
			if err := f.pacer.Wait(ctx); err != nil {
				return nil, err
			}
		}

		sel, ok := f.selectorFor(by, name)
		if !ok {
			// Unresolvable groups are empty, not errors: the caller asked a
			// legitimate question whose answer is "no data".
			series[name] = nil
			continue
		}
		points, err := f.engine.Aggregate(ctx, sel, metric)
		if err != nil {
			f.logger.WarnContext(ctx, "group query failed", "group", name, "error", err)
			f.metrics.GroupQueryFailures.Inc()
			failed = append(failed, name)
			continue
		}
		series[name] = points
	}

	table := buildTable(names, series, failed, metric)
	if f.cache != nil {
		f.cache.Set(ctx, key, table)
	}
	return table, nil
}

// selectorFor maps a group name to a store selector. ok=false means the
// name resolves to nothing queryable.
func (f *Facade) selectorFor(by By, name string) (metricstore.Selector, bool) {
	switch by {
	case ByAgency:
		agency, err := f.registry.AgencyByName(name)
		if err != nil {
			return metricstore.Selector{}, false
		}
		chapterRefs := agency.ChapterRefs()
		if len(chapterRefs) == 0 {
			return metricstore.Selector{}, false
		}
		refs := make([]metricstore.Ref, 0, len(chapterRefs))
		for _, r := range chapterRefs {
			refs = append(refs, metricstore.Ref{Title: r.Title, Chapter: r.Chapter})
		}
		return metricstore.Selector{Refs: refs}, true
	case ByCFRTitle:
		id, err := strconv.Atoi(name)
		if err != nil {
			return metricstore.Selector{}, false
		}
		if _, err := f.registry.TitleByID(id); err != nil {
			return metricstore.Selector{}, false
		}
		return metricstore.Selector{Title: id}, true
	default:
		return metricstore.Selector{}, false
	}
}

func cacheKey(by By, names []string, metric Metric) string {
	sorted := append([]string{}, names...)
	sort.Strings(sorted)
	return "query:" + string(by) + ":" + string(metric) + ":" + strings.Join(sorted, ",")
}

// buildTable unions the groups' dates and fills one cell per (date, group),
// nil where a group has nothing on that date.
func buildTable(names []string, series map[string][]Point, failed []string, metric Metric) *Table {
	dateSet := make(map[string]struct{})
	for _, points := range series {
		for _, p := range points {
			dateSet[p.Date.Format("2006-01-02")] = struct{}{}
		}
	}
	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	rows := make([]Row, 0, len(dates))
	for _, d := range dates {
		row := Row{Date: d, Values: make(map[string]*float64, len(names))}
		for _, name := range names {
			row.Values[name] = nil
			for _, p := range series[name] {
				if p.Date.Format("2006-01-02") == d {
					v := p.Value
					row.Values[name] = &v
					break
				}
			}
		}
		rows = append(rows, row)
	}

	if failed == nil {
		failed = []string{}
	}
	return &Table{
		Metric: metric,
		Groups: names,
		Dates:  dates,
		Rows:   rows,
		Failed: failed,
	}
}
