package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regpulse/internal/platform/logger"
	"regpulse/internal/query"
	"regpulse/internal/query/handler"
	dErrors "regpulse/pkg/domain-errors"
)

type fakeResolver struct {
	table *query.Table
	err   error

	gotBy     query.By
	gotNames  []string
	gotMetric query.Metric
}

func (f *fakeResolver) Resolve(_ context.Context, by query.By, names []string, metric query.Metric) (*query.Table, error) {
	f.gotBy = by
	f.gotNames = names
	f.gotMetric = metric
	if f.err != nil {
		return nil, f.err
	}
	return f.table, nil
}

func setup(resolver handler.Resolver) *chi.Mux {
	h := handler.New(resolver, logger.New("error"))
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func get(t *testing.T, router http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestMetricsReturnsTable(t *testing.T) {
	v := 250.0
	resolver := &fakeResolver{table: &query.Table{
		Metric: query.MetricWordCount,
		Groups: []string{"Department of Agriculture"},
		Dates:  []string{"2020-02-13"},
		Rows: []query.Row{
			{Date: "2020-02-13", Values: map[string]*float64{"Department of Agriculture": &v}},
		},
		Failed: []string{},
	}}
	router := setup(resolver)

	rec := get(t, router, "/api/v1/metrics?by=agency&items=Department+of+Agriculture&metric=word_count")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, query.ByAgency, resolver.gotBy)
	assert.Equal(t, []string{"Department of Agriculture"}, resolver.gotNames)
	assert.Equal(t, query.MetricWordCount, resolver.gotMetric)

	var body struct {
		Dates  []string `json:"dates"`
		Groups []string `json:"groups"`
		Rows   []struct {
			Date   string              `json:"date"`
			Values map[string]*float64 `json:"values"`
		} `json:"rows"`
		Failed []string `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"2020-02-13"}, body.Dates)
	require.Len(t, body.Rows, 1)
	require.NotNil(t, body.Rows[0].Values["Department of Agriculture"])
	assert.Equal(t, 250.0, *body.Rows[0].Values["Department of Agriculture"])
	assert.Empty(t, body.Failed)
}

func TestMetricsNullCellsSurviveSerialization(t *testing.T) {
	resolver := &fakeResolver{table: &query.Table{
		Metric: query.MetricWordCount,
		Groups: []string{"a"},
		Dates:  []string{"2020-02-13"},
		Rows:   []query.Row{{Date: "2020-02-13", Values: map[string]*float64{"a": nil}}},
		Failed: []string{},
	}}
	router := setup(resolver)

	rec := get(t, router, "/api/v1/metrics?by=agency&items=a&metric=word_count")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"a":null`)
}

func TestMetricsValidation(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{name: "unknown by", target: "/api/v1/metrics?by=chapter&items=a&metric=word_count"},
		{name: "missing by", target: "/api/v1/metrics?items=a&metric=word_count"},
		{name: "unknown metric", target: "/api/v1/metrics?by=agency&items=a&metric=sentences"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, setup(&fakeResolver{}), tt.target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestMetricsResolverErrorsMapToEnvelope(t *testing.T) {
	resolver := &fakeResolver{err: dErrors.New(dErrors.CodeValidation, "at most 3 groups per request")}
	router := setup(resolver)

	rec := get(t, router, "/api/v1/metrics?by=agency&items=a,b,c,d&metric=word_count")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "at most 3 groups")
}
