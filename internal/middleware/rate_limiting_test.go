package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/2beens/fitcalc/internal/middleware"
	"github.com/2beens/fitcalc/internal/telemetry/metrics"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string, redis_rate.Limit) (*redis_rate.Result, error) {
	return nil, errors.New("redis gone")
}

func TestRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	metricsManager := metrics.NewTestManager()
	limited := middleware.RateLimit(redis_rate.NewLimiter(rdb), metricsManager, "functions", 2)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)

	call := func(credential string) int {
		req := httptest.NewRequest(http.MethodPost, "/functions/v1/bmi", nil)
		req.Header.Set("Authorization", "Bearer "+credential)
		rr := httptest.NewRecorder()
		limited.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, call("key-a"))
	assert.Equal(t, http.StatusOK, call("key-a"))
	assert.Equal(t, http.StatusTooManyRequests, call("key-a"))
	// separate budget per credential
	assert.Equal(t, http.StatusOK, call("key-b"))

	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterRateLimitedRequests))
}

func TestRateLimit_LimiterError(t *testing.T) {
	handler := middleware.RateLimit(brokenLimiter{}, nil, "functions", 10)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("next handler must not be called")
		}),
	)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/functions/v1/bmi", nil))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"rate limit internal error"}`, rr.Body.String())
}
