package metricstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func (s *InMemoryStoreSuite) seed() {
	s.Require().NoError(s.store.Upsert(s.ctx, []Record{
		{Title: 7, Chapter: "I", Section: "1.1", Date: date("2020-02-13"), WordCount: 100, MandateCount: 5, ReadingEase: 60},
		{Title: 7, Chapter: "I", Section: "1.2", Date: date("2020-02-13"), WordCount: 50, MandateCount: 2, ReadingEase: 40},
		{Title: 7, Chapter: "II", Section: "200.1", Date: date("2020-02-13"), WordCount: 150, MandateCount: 9, ReadingEase: 80},
		{Title: 7, Chapter: "I", Section: "1.1", Date: date("2021-02-13"), WordCount: 110, MandateCount: 6, ReadingEase: 58},
		{Title: 40, Chapter: "I", Section: "52.1", Date: date("2020-02-13"), WordCount: 900, MandateCount: 40, ReadingEase: 20},
	}))
}

// TestUpsertIdempotence verifies the natural-key invariant: re-ingesting a
// snapshot leaves the store with the same rows, not additive contents.
func (s *InMemoryStoreSuite) TestUpsertIdempotence() {
	records := []Record{
		{Title: 7, Chapter: "I", Section: "1.1", Date: date("2021-02-13"), WordCount: 100, MandateCount: 5, ReadingEase: 60},
		{Title: 7, Chapter: "I", Section: "1.2", Date: date("2021-02-13"), WordCount: 50, MandateCount: 2, ReadingEase: 40},
	}

	s.Require().NoError(s.store.Upsert(s.ctx, records))
	s.Require().NoError(s.store.Upsert(s.ctx, records))

	s.Equal(2, s.store.Len())

	got, err := s.store.QueryMatching(s.ctx, Selector{Title: 7}, DateRange{})
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(100, got[0].WordCount)
}

func (s *InMemoryStoreSuite) TestUpsertOverwritesValues() {
	rec := Record{Title: 7, Chapter: "I", Section: "1.1", Date: date("2021-02-13"), WordCount: 100}
	s.Require().NoError(s.store.Upsert(s.ctx, []Record{rec}))

	rec.WordCount = 175
	s.Require().NoError(s.store.Upsert(s.ctx, []Record{rec}))

	got, err := s.store.QueryMatching(s.ctx, Selector{Title: 7}, DateRange{})
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(175, got[0].WordCount)
}

func (s *InMemoryStoreSuite) TestQueryByTitle() {
	s.seed()

	got, err := s.store.QueryMatching(s.ctx, Selector{Title: 7}, DateRange{})
	s.Require().NoError(err)
	s.Len(got, 4)

	// All chapters of the title match, ordered by date first.
	s.Equal(date("2020-02-13"), got[0].Date)
	s.Equal(date("2021-02-13"), got[3].Date)
}

func (s *InMemoryStoreSuite) TestQueryByRefs() {
	s.seed()

	sel := Selector{Refs: []Ref{{Title: 7, Chapter: "II"}, {Title: 40, Chapter: "I"}}}
	got, err := s.store.QueryMatching(s.ctx, sel, DateRange{})
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("200.1", got[0].Section)
	s.Equal("52.1", got[1].Section)
}

func (s *InMemoryStoreSuite) TestQueryDateRange() {
	s.seed()

	got, err := s.store.QueryMatching(s.ctx, Selector{Title: 7},
		DateRange{From: date("2021-01-01")})
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(date("2021-02-13"), got[0].Date)
}

func (s *InMemoryStoreSuite) TestQueryNoMatches() {
	s.seed()

	got, err := s.store.QueryMatching(s.ctx, Selector{Title: 21}, DateRange{})
	s.Require().NoError(err)
	s.Empty(got)
}

func (s *InMemoryStoreSuite) TestHasSnapshot() {
	s.seed()

	ok, err := s.store.HasSnapshot(s.ctx, 7, date("2020-02-13"))
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.store.HasSnapshot(s.ctx, 7, date("2019-02-13"))
	s.Require().NoError(err)
	s.False(ok)
}
