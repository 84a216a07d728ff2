package resilience

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusServer(t *testing.T, status int, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func get(url string) func() (*http.Request, error) {
	return func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, url, nil)
	}
}

func TestDoSuccess(t *testing.T) {
	var hits int32
	srv := statusServer(t, http.StatusOK, &hits)

	resp, err := Do(context.Background(), srv.Client(), NewBreaker("test-ok"), get(srv.URL))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, int32(1), hits)
}

func TestDoMapsStatusCodesWithoutRetrying(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusBadGateway, ErrServerError},
		{http.StatusInternalServerError, ErrServerError},
		{http.StatusNotFound, ErrUnexpectedStatus},
		{http.StatusUnauthorized, ErrUnexpectedStatus},
	}

	for _, tt := range tests {
		var hits int32
		srv := statusServer(t, tt.status, &hits)

		_, err := Do(context.Background(), srv.Client(), NewBreaker("test-status"), get(srv.URL))
		assert.ErrorIs(t, err, tt.want, "status %d", tt.status)
		assert.Equal(t, int32(1), hits, "status %d should be attempted once", tt.status)
	}
}

func TestDoOpensCircuit(t *testing.T) {
	var hits int32
	srv := statusServer(t, http.StatusInternalServerError, &hits)
	cb := NewBreaker("test-open")

	// gobreaker trips after more than five consecutive failures.
	for i := 0; i < 6; i++ {
		_, err := Do(context.Background(), srv.Client(), cb, get(srv.URL))
		require.ErrorIs(t, err, ErrServerError)
	}

	_, err := Do(context.Background(), srv.Client(), cb, get(srv.URL))
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(6), hits)
}

func TestDoClientErrorsKeepCircuitClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("bad") != "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":"NoRoute"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()
	cb := NewBreaker("test-4xx")

	for i := 0; i < 10; i++ {
		_, err := Do(context.Background(), srv.Client(), cb, get(srv.URL+"?bad=1"))
		require.ErrorIs(t, err, ErrUnexpectedStatus)

		var se *StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusBadRequest, se.StatusCode)
		assert.JSONEq(t, `{"code":"NoRoute"}`, string(se.Body))
	}

	resp, err := Do(context.Background(), srv.Client(), cb, get(srv.URL))
	require.NoError(t, err)
	resp.Body.Close()
}

func TestDoHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := Do(ctx, srv.Client(), NewBreaker("test-timeout"), get(srv.URL))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDoWithoutClient(t *testing.T) {
	_, err := Do(context.Background(), nil, NewBreaker("test-nil"), get("http://example.invalid"))
	assert.ErrorIs(t, err, ErrNoHTTPClient)
}
