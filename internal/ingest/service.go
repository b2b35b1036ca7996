// Package ingest runs the snapshot pipeline: fetch a title's XML for one
// date, decompose it into sections, score each section, and upsert the
// results. A unit of work is one (title, snapshot date) pair; units fail
// independently so one unpublished title never poisons a run.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"regpulse/internal/audit"
	"regpulse/internal/ecfr"
	"regpulse/internal/metricstore"
	"regpulse/internal/platform/metrics"
	"regpulse/internal/textmetrics"
	"regpulse/pkg/platform/sentinel"
)

// State is an ingest unit's position in its lifecycle.
type State string

const (
	StatePending   State = "PENDING"
	StateFetching  State = "FETCHING"
	StateParsing   State = "PARSING"
	StateScoring   State = "SCORING"
	StatePersisted State = "PERSISTED"
	StateFailed    State = "FAILED"
	StateSkipped   State = "SKIPPED"
)

// Unit is one (title, snapshot date) pair.
type Unit struct {
	Title int
	Date  time.Time
}

// Outcome is a unit's terminal record for one run.
type Outcome struct {
	Unit     Unit
	State    State
	Sections int
	Err      error
}

// Request describes one ingest run. Zero-value fields fall back to the
// defaults: all publishable titles across the annual snapshot dates.
type Request struct {
	Titles []int
	Dates  []time.Time
	Force  bool
	Actor  string
}

// reservedTitle has no content in the eCFR; fetching it always 404s.
const reservedTitle = 35

// DefaultTitles returns CFR titles 1-50 minus the reserved title 35.
func DefaultTitles() []int {
	titles := make([]int, 0, 49)
	for t := 1; t <= 50; t++ {
		if t == reservedTitle {
			continue
		}
		titles = append(titles, t)
	}
	return titles
}

// DefaultDates returns the annual February 13 snapshots from 2017 through
// 2025. February 13 predates the yearly title revision cycle, so every
// title has a stable published version on that date.
func DefaultDates() []time.Time {
	dates := make([]time.Time, 0, 9)
	for year := 2017; year <= 2025; year++ {
		dates = append(dates, time.Date(year, time.February, 13, 0, 0, 0, 0, time.UTC))
	}
	return dates
}

const (
	persistAttempts = 3
	persistBaseWait = 500 * time.Millisecond
)

// Service orchestrates ingest runs.
type Service struct {
	source      ecfr.Source
	store       metricstore.Store
	publisher   *audit.Publisher
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
	concurrency int
	persistWait time.Duration
}

// Option configures the Service.
type Option func(*Service)

// WithConcurrency bounds how many titles are processed in parallel.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithTracer sets the tracer used to wrap pipeline phases.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// WithPersistBackoff overrides the initial wait between store write retries.
func WithPersistBackoff(d time.Duration) Option {
	return func(s *Service) { s.persistWait = d }
}

func NewService(source ecfr.Source, store metricstore.Store, publisher *audit.Publisher, logger *slog.Logger, m *metrics.Metrics, opts ...Option) *Service {
	s := &Service{
		source:      source,
		store:       store,
		publisher:   publisher,
		logger:      logger,
		metrics:     m,
		tracer:      noop.NewTracerProvider().Tracer("ingest"),
		concurrency: 5,
		persistWait: persistBaseWait,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run processes every unit in the request and returns all outcomes, ordered
// by title then date. The returned error reflects run-level failure only;
// individual unit failures live in the outcomes.
func (s *Service) Run(ctx context.Context, runID string, req Request) ([]Outcome, error) {
	if runID == "" {
		runID = uuid.NewString()
	}
	titles := req.Titles
	if len(titles) == 0 {
		titles = DefaultTitles()
	}
	dates := req.Dates
	if len(dates) == 0 {
		dates = DefaultDates()
	}

	s.logger.Info("ingest run starting",
		"run_id", runID, "titles", len(titles), "dates", len(dates), "force", req.Force)

	var (
		mu       sync.Mutex
		outcomes []Outcome
	)

	// One goroutine per title keeps a title's dates strictly sequential, so
	// two units never race on the same natural keys.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, title := range titles {
		g.Go(func() error {
			for _, date := range dates {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				out := s.processUnit(gctx, runID, Unit{Title: title, Date: date}, req.Force, req.Actor)
				mu.Lock()
				outcomes = append(outcomes, out)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ingest run %s: %w", runID, err)
	}

	sort.Slice(outcomes, func(i, j int) bool {
		a, b := outcomes[i], outcomes[j]
		if a.Unit.Title != b.Unit.Title {
			return a.Unit.Title < b.Unit.Title
		}
		return a.Unit.Date.Before(b.Unit.Date)
	})

	s.logger.Info("ingest run finished", "run_id", runID, "units", len(outcomes))
	return outcomes, nil
}

func (s *Service) processUnit(ctx context.Context, runID string, unit Unit, force bool, actor string) Outcome {
	ctx, span := s.tracer.Start(ctx, "ingest.unit")
	defer span.End()

	logger := s.logger.With("run_id", runID, "title", unit.Title, "date", unit.Date.Format("2006-01-02"))

	if !force {
		exists, err := s.store.HasSnapshot(ctx, unit.Title, unit.Date)
		if err != nil {
			return s.fail(ctx, runID, unit, actor, fmt.Errorf("check existing snapshot: %w", err))
		}
		if exists {
			logger.Debug("snapshot already ingested, skipping")
			s.emit(ctx, runID, unit, StateSkipped, 0, nil, actor)
			s.metrics.IncrementIngestUnit(string(StateSkipped))
			return Outcome{Unit: unit, State: StateSkipped}
		}
	}

	s.emit(ctx, runID, unit, StateFetching, 0, nil, actor)
	content, err := s.fetch(ctx, unit)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			logger.Warn("title not published for snapshot date")
		} else {
			logger.Error("fetch failed", "error", err)
		}
		return s.fail(ctx, runID, unit, actor, fmt.Errorf("fetch title %d: %w", unit.Title, err))
	}

	s.emit(ctx, runID, unit, StateParsing, 0, nil, actor)
	sections, err := s.parse(ctx, unit, content)
	if err != nil {
		logger.Error("parse failed", "error", err)
		return s.fail(ctx, runID, unit, actor, fmt.Errorf("parse title %d: %w", unit.Title, err))
	}

	s.emit(ctx, runID, unit, StateScoring, len(sections), nil, actor)
	records := s.score(ctx, unit, sections)
	if len(records) == 0 {
		return s.fail(ctx, runID, unit, actor, fmt.Errorf("title %d: no scoreable text", unit.Title))
	}

	if err := s.persist(ctx, records); err != nil {
		logger.Error("persist failed", "error", err)
		return s.fail(ctx, runID, unit, actor, fmt.Errorf("persist title %d: %w", unit.Title, err))
	}

	logger.Info("unit persisted", "sections", len(records))
	s.emit(ctx, runID, unit, StatePersisted, len(records), nil, actor)
	s.metrics.IncrementIngestUnit(string(StatePersisted))
	return Outcome{Unit: unit, State: StatePersisted, Sections: len(records)}
}

func (s *Service) fetch(ctx context.Context, unit Unit) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "ingest.fetch")
	defer span.End()
	return s.source.FullTitleXML(ctx, unit.Title, unit.Date)
}

// parse extracts section texts, falling back to chapter granularity when the
// document carries chapter text but no recognizable sections.
func (s *Service) parse(ctx context.Context, unit Unit, content []byte) ([]ecfr.SectionText, error) {
	_, span := s.tracer.Start(ctx, "ingest.parse")
	defer span.End()

	sections, err := ecfr.ParseSections(content)
	if err != nil {
		return nil, err
	}
	if len(sections) > 0 {
		return sections, nil
	}

	chapters, err := ecfr.ChapterTexts(content)
	if err != nil {
		return nil, err
	}
	for _, ch := range chapters {
		sections = append(sections, ecfr.SectionText{
			Title:   ch.Title,
			Chapter: ch.Chapter,
			Section: ch.Chapter,
			Text:    ch.Text,
		})
	}
	if len(sections) == 0 {
		return nil, errors.New("document contains no sections or chapters")
	}
	return sections, nil
}

// score computes metrics per section, skipping texts too degenerate to
// score. A skipped section is absent from the store, not stored as zeros.
func (s *Service) score(ctx context.Context, unit Unit, sections []ecfr.SectionText) []metricstore.Record {
	_, span := s.tracer.Start(ctx, "ingest.score")
	defer span.End()

	records := make([]metricstore.Record, 0, len(sections))
	for _, sec := range sections {
		ease, ok := textmetrics.ReadingEase(sec.Text)
		if !ok {
			continue
		}
		records = append(records, metricstore.Record{
			Title:        sec.Title,
			Chapter:      sec.Chapter,
			Section:      sec.Section,
			Date:         unit.Date,
			WordCount:    textmetrics.WordCount(sec.Text),
			MandateCount: textmetrics.MandateCount(sec.Text),
			ReadingEase:  ease,
		})
		s.metrics.SectionsScored.Inc()
	}
	return records
}

// persist upserts with bounded exponential backoff; the store's natural-key
// upsert makes retrying a partially applied batch safe.
func (s *Service) persist(ctx context.Context, records []metricstore.Record) error {
	ctx, span := s.tracer.Start(ctx, "ingest.persist")
	defer span.End()

	var err error
	wait := s.persistWait
	for attempt := 1; attempt <= persistAttempts; attempt++ {
		if err = s.store.Upsert(ctx, records); err == nil {
			return nil
		}
		if attempt == persistAttempts || ctx.Err() != nil {
			break
		}
		s.metrics.UpsertRetries.Inc()
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
		wait *= 2
	}
	return err
}

func (s *Service) fail(ctx context.Context, runID string, unit Unit, actor string, err error) Outcome {
	s.emit(ctx, runID, unit, StateFailed, 0, err, actor)
	s.metrics.IncrementIngestUnit(string(StateFailed))
	return Outcome{Unit: unit, State: StateFailed, Err: err}
}

func (s *Service) emit(ctx context.Context, runID string, unit Unit, state State, sections int, failure error, actor string) {
	event := audit.Event{
		RunID:    runID,
		Title:    unit.Title,
		Date:     unit.Date.Format("2006-01-02"),
		State:    string(state),
		Sections: sections,
		Actor:    actor,
	}
	if failure != nil {
		event.Error = failure.Error()
	}
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.logger.Warn("audit emission failed", "run_id", runID, "error", err)
	}
}
