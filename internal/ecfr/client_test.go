package ecfr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regpulse/pkg/platform/sentinel"
)

func snapshotDate(t *testing.T) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", "2021-02-13")
	require.NoError(t, err)
	return d
}

func TestClientFullTitleXML(t *testing.T) {
	t.Run("fetches title xml for the snapshot date", func(t *testing.T) {
		var gotPath string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			_, _ = w.Write([]byte("<ECFR/>"))
		}))
		defer srv.Close()

		c := NewClient(srv.URL)
		body, err := c.FullTitleXML(context.Background(), 7, snapshotDate(t))
		require.NoError(t, err)
		assert.Equal(t, "<ECFR/>", string(body))
		assert.Equal(t, "/api/versioner/v1/full/2021-02-13/title-7.xml", gotPath)
	})

	t.Run("not published maps to ErrNotFound", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		c := NewClient(srv.URL)
		_, err := c.FullTitleXML(context.Background(), 3, snapshotDate(t))
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("retries rate-limited responses", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) <= 2 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			_, _ = w.Write([]byte("<ECFR/>"))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, WithRetry(3, time.Millisecond))
		body, err := c.FullTitleXML(context.Background(), 7, snapshotDate(t))
		require.NoError(t, err)
		assert.Equal(t, "<ECFR/>", string(body))
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, WithRetry(2, time.Millisecond))
		_, err := c.FullTitleXML(context.Background(), 7, snapshotDate(t))
		assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	})

	t.Run("server errors are not retried", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, WithRetry(3, time.Millisecond))
		_, err := c.FullTitleXML(context.Background(), 7, snapshotDate(t))
		require.Error(t, err)
		assert.Equal(t, int32(1), calls.Load())
	})
}
