package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rentory/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:   logger.ERROR,
		Format:  logger.JSON,
		Service: "test",
	})
}

func TestAllow_EnforcesLimit(t *testing.T) {
	limiter := NewClientRateLimiter(3, time.Minute, testLogger())
	defer limiter.Stop()

	for i := 0; i < 3; i++ {
		require.True(t, limiter.Allow("10.0.0.1"))
	}
	require.False(t, limiter.Allow("10.0.0.1"))

	// A different client is unaffected.
	require.True(t, limiter.Allow("10.0.0.2"))
}

func TestAllow_WindowSlides(t *testing.T) {
	limiter := NewClientRateLimiter(1, 20*time.Millisecond, testLogger())
	defer limiter.Stop()

	require.True(t, limiter.Allow("10.0.0.1"))
	require.False(t, limiter.Allow("10.0.0.1"))

	time.Sleep(30 * time.Millisecond)
	require.True(t, limiter.Allow("10.0.0.1"))
}

func TestAllow_EmptyKeyAlwaysPasses(t *testing.T) {
	limiter := NewClientRateLimiter(1, time.Minute, testLogger())
	defer limiter.Stop()

	for i := 0; i < 5; i++ {
		require.True(t, limiter.Allow(""))
	}
}

func TestRateLimit_Returns429(t *testing.T) {
	limiter := NewClientRateLimiter(1, time.Minute, testLogger())
	defer limiter.Stop()

	handler := RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:12345"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:12345"
	require.Equal(t, "10.0.0.1", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	require.Equal(t, "203.0.113.7", ClientIP(req))
}
