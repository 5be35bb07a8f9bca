package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitolwatch/capitolwatch/pkg/constants"
	"github.com/capitolwatch/capitolwatch/pkg/errors"
)

func TestGetJSONAppendsAPIKey(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("api_key")
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	c := NewCongressClient("secret",
		WithBaseURL(srv.URL),
		WithMinInterval(time.Microsecond))

	var out struct {
		OK bool `json:"ok"`
	}
	err := c.GetJSON(context.Background(), "/member", nil, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, "secret", gotKey)
}

func TestGetJSONRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newFastTestClient(t, srv.URL)

	var out map[string]interface{}
	err := c.GetJSON(context.Background(), "/bill", nil, &out)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetJSONDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newFastTestClient(t, srv.URL)

	var out map[string]interface{}
	err := c.GetJSON(context.Background(), "/member/X000000", nil, &out)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Equal(t, int32(1), calls.Load(), "404 must not be retried")
}

func TestGetJSONExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newFastTestClient(t, srv.URL)

	var out map[string]interface{}
	err := c.GetJSON(context.Background(), "/schedules/schedule_a", nil, &out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrRetriesExhausted))
	assert.True(t, errors.IsRateLimited(err), "underlying 429 stays visible through the chain")
}

func TestErrorRedactsAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newFastTestClient(t, srv.URL)

	var out map[string]interface{}
	err := c.GetJSON(context.Background(), "/vote", nil, &out)
	require.Error(t, err)

	var apiErr *errors.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.NotContains(t, apiErr.Endpoint, "secret")
	assert.Contains(t, apiErr.Endpoint, "REDACTED")
}

func TestBackoffForSchedule(t *testing.T) {
	base, ceil := constants.RetryBackoff, constants.MaxRetryBackoff
	assert.Equal(t, base, backoffFor(base, ceil, 1))
	assert.Equal(t, 2*base, backoffFor(base, ceil, 2))
	assert.Equal(t, 4*base, backoffFor(base, ceil, 3))
	assert.Equal(t, ceil, backoffFor(base, ceil, 20), "backoff is capped")
}

func TestOffsetPager(t *testing.T) {
	p := NewOffsetPager(250)

	params, ok := p.Next()
	require.True(t, ok)
	assert.Equal(t, "0", params.Get("offset"))
	assert.Equal(t, "250", params.Get("limit"))

	p.Advance(250)
	params, ok = p.Next()
	require.True(t, ok)
	assert.Equal(t, "250", params.Get("offset"))

	// Short page ends the walk.
	p.Advance(17)
	_, ok = p.Next()
	assert.False(t, ok)
}

func TestPagePager(t *testing.T) {
	p := NewPagePager(100)

	params, ok := p.Next()
	require.True(t, ok)
	assert.Equal(t, "1", params.Get("page"))
	assert.Equal(t, "100", params.Get("per_page"))

	p.Advance(2)
	params, ok = p.Next()
	require.True(t, ok)
	assert.Equal(t, "2", params.Get("page"))

	p.Advance(2)
	_, ok = p.Next()
	assert.False(t, ok)
}

func TestGetJSONHonorsContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewCongressClient("secret",
		WithBaseURL(srv.URL),
		WithMinInterval(time.Microsecond),
		WithMaxRetries(10))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out map[string]interface{}
	err := c.GetJSON(ctx, "/bill", url.Values{}, &out)
	require.Error(t, err)
}

// newFastTestClient builds a client with no pacing delay but normal retry
// semantics, pointed at a test server.
func newFastTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	return NewCongressClient("secret",
		WithBaseURL(baseURL),
		WithMinInterval(time.Microsecond),
		WithBackoff(time.Microsecond),
		WithMaxRetries(2))
}
