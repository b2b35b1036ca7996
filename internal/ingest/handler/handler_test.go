package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regpulse/internal/audit"
	"regpulse/internal/ingest"
	"regpulse/internal/ingest/handler"
	"regpulse/internal/platform/logger"
	"regpulse/pkg/testutil"
)

type fakeRunner struct {
	mu     sync.Mutex
	runs   []ingest.Request
	runIDs []string
	err    error
}

func (f *fakeRunner) Run(_ context.Context, runID string, req ingest.Request) ([]ingest.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, req)
	f.runIDs = append(f.runIDs, runID)
	return nil, f.err
}

func (f *fakeRunner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.runs)
}

func setup(runner handler.Runner, trail handler.Trail) *chi.Mux {
	h := handler.New(runner, trail, logger.New("error"))
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func TestStartAcceptsRunAndReturnsRunID(t *testing.T) {
	runner := &fakeRunner{}
	router := setup(runner, audit.NewInMemoryStore())

	req := testutil.NewRequestWithBody(t, http.MethodPost, "/admin/v1/ingest",
		`{"titles":[7,40],"dates":["2021-02-13"],"force":true}`)
	rr := testutil.DoRequest(router, testutil.WithActor(req, "ops"))

	testutil.AssertStatus(t, rr, http.StatusAccepted)
	resp := testutil.UnmarshalResponse[handler.StartResponse](t, rr)
	assert.NotEmpty(t, resp.RunID)

	require.Eventually(t, func() bool { return runner.count() == 1 },
		time.Second, 5*time.Millisecond)

	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.Equal(t, []int{7, 40}, runner.runs[0].Titles)
	assert.True(t, runner.runs[0].Force)
	assert.Equal(t, "ops", runner.runs[0].Actor)
	require.Len(t, runner.runs[0].Dates, 1)
	assert.Equal(t, time.Date(2021, 2, 13, 0, 0, 0, 0, time.UTC), runner.runs[0].Dates[0])
	assert.Equal(t, resp.RunID, runner.runIDs[0])
}

func TestStartRejectsInvalidBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{name: "malformed json", body: `{"titles":`, code: "bad_request"},
		{name: "title out of range", body: `{"titles":[51]}`, code: "validation_failed"},
		{name: "bad date format", body: `{"dates":["13-02-2021"]}`, code: "validation_failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{}
			router := setup(runner, audit.NewInMemoryStore())

			req := testutil.NewRequestWithBody(t, http.MethodPost, "/admin/v1/ingest", tt.body)
			rr := testutil.DoRequest(router, req)

			testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, tt.code)
			assert.Zero(t, runner.count())
		})
	}
}

func TestStatusReturnsRunEvents(t *testing.T) {
	trail := audit.NewInMemoryStore()
	ctx := context.Background()
	require.NoError(t, trail.Append(ctx, audit.Event{RunID: "run-1", Title: 7, Date: "2021-02-13", State: "FETCHING"}))
	require.NoError(t, trail.Append(ctx, audit.Event{RunID: "run-1", Title: 7, Date: "2021-02-13", State: "PERSISTED", Sections: 12}))

	router := setup(&fakeRunner{}, trail)
	rr := testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/admin/v1/ingest/run-1", nil))

	testutil.AssertStatusOK(t, rr)
	resp := testutil.UnmarshalResponse[handler.StatusResponse](t, rr)
	assert.Equal(t, "run-1", resp.RunID)
	require.Len(t, resp.Events, 2)
	assert.Equal(t, "PERSISTED", resp.Events[1].State)
	assert.Equal(t, 12, resp.Events[1].Sections)
}

func TestStatusUnknownRunIs404(t *testing.T) {
	router := setup(&fakeRunner{}, audit.NewInMemoryStore())
	rr := testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/admin/v1/ingest/nope", nil))

	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
}
