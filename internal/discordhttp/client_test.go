package discordhttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(ts *httptest.Server) *Client {
	c := NewClient("test-token", "test-agent")
	c.baseURL = ts.URL
	c.pacer.SetLimit(1000)
	c.pacer.SetBurst(1000)
	return c
}

func TestGet_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "1"})
	}))
	defer ts.Close()

	c := newTestClient(ts)
	var out map[string]string
	ok, err := c.Get(context.Background(), "/anything", nil, &out)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", out["id"])
}

func TestGet_NoContent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	c := newTestClient(ts)
	var out map[string]string
	ok, err := c.Get(context.Background(), "/anything", nil, &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGet_ForbiddenIsFatalNotRetried(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "missing access"})
	}))
	defer ts.Close()

	c := newTestClient(ts)
	_, err := c.Get(context.Background(), "/anything", nil, nil)
	require.Error(t, err)
	assert.True(t, IsForbidden(err))
	assert.Equal(t, int32(1), calls)
}

func TestGet_RateLimitDoesNotConsumeAttemptBudget(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n <= 3 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(rateLimitBody{Message: "slow down", RetryAfter: 0.01})
			return
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode([]map[string]any{{"id": "1"}})
	}))
	defer ts.Close()

	c := newTestClient(ts)
	var out []map[string]any
	ok, err := c.Get(context.Background(), "/anything", nil, &out)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int32(4), calls)
}

func TestGet_ServerErrorRetriesThenFails(t *testing.T) {
	oldInitial, oldMax := initialBackoff, maxBackoff
	initialBackoff, maxBackoff = time.Millisecond, 2*time.Millisecond
	defer func() { initialBackoff, maxBackoff = oldInitial, oldMax }()

	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := newTestClient(ts)
	_, err := c.Get(context.Background(), "/anything", nil, nil)
	require.Error(t, err)
	assert.Equal(t, int32(maxAttempts), calls)
}

func TestRetryAfterParsing(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(rec).Encode(rateLimitBody{Message: "rate limited", RetryAfter: 0.5})
	resp := rec.Result()
	got := readRetryAfter(resp)
	assert.Equal(t, 500*time.Millisecond, got)
}

func TestNextBackoffCapsAt64s(t *testing.T) {
	b := initialBackoff
	for i := 0; i < 10; i++ {
		b = nextBackoff(b)
	}
	assert.Equal(t, maxBackoff, b)
}

func TestAPIErrorClassification(t *testing.T) {
	forbidden := &APIError{StatusCode: http.StatusForbidden}
	assert.True(t, IsForbidden(forbidden))
	assert.False(t, IsNotFound(forbidden))

	notFound := &APIError{StatusCode: http.StatusNotFound}
	assert.True(t, IsNotFound(notFound))
	assert.False(t, IsForbidden(notFound))
}
