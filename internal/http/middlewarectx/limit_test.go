package middlewarectx

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func successHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("success")); err != nil {
			t.Errorf("failed to write response: %v", err)
		}
	})
}

func TestNewLimiter(t *testing.T) {
	unlimited := NewLimiter(0, 10)
	assert.Equal(t, rate.Inf, unlimited.Limit())
	for range 1000 {
		assert.True(t, unlimited.Allow())
	}

	l := NewLimiter(5, 0)
	assert.Equal(t, rate.Limit(5), l.Limit())
	assert.Equal(t, 1, l.Burst())
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("allows requests within rate limit", func(t *testing.T) {
		mw := RateLimitMiddleware(newNoopLogger(), rate.NewLimiter(rate.Every(time.Hour), 10))
		req := httptest.NewRequest(http.MethodGet, "/find", nil)

		for range 10 {
			w := httptest.NewRecorder()
			mw(successHandler(t)).ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "success", w.Body.String())
		}
	})

	t.Run("blocks requests exceeding rate limit", func(t *testing.T) {
		mw := RateLimitMiddleware(newNoopLogger(), rate.NewLimiter(rate.Every(time.Hour), 1))
		req := httptest.NewRequest(http.MethodGet, "/find", nil)

		w := httptest.NewRecorder()
		mw(successHandler(t)).ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		mw(successHandler(t)).ServeHTTP(w, req)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
		assert.JSONEq(t, `{"status":"Error","error":"too many requests"}`, w.Body.String())
	})

	t.Run("allows requests after tokens refill", func(t *testing.T) {
		mw := RateLimitMiddleware(newNoopLogger(), rate.NewLimiter(20, 1))
		req := httptest.NewRequest(http.MethodGet, "/find", nil)

		w := httptest.NewRecorder()
		mw(successHandler(t)).ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		mw(successHandler(t)).ServeHTTP(w, req)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)

		time.Sleep(100 * time.Millisecond)

		w = httptest.NewRecorder()
		mw(successHandler(t)).ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRateLimitMiddleware_ConcurrentRequests(t *testing.T) {
	mw := RateLimitMiddleware(newNoopLogger(), rate.NewLimiter(rate.Every(time.Hour), 5))
	handler := mw(successHandler(t))

	results := make(chan int, 10)
	for range 10 {
		go func() {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/find", nil))
			results <- w.Code
		}()
	}

	successCount, limitedCount := 0, 0
	for range 10 {
		select {
		case code := <-results:
			switch code {
			case http.StatusOK:
				successCount++
			case http.StatusTooManyRequests:
				limitedCount++
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for concurrent requests")
		}
	}

	assert.Equal(t, 5, successCount)
	assert.Equal(t, 5, limitedCount)
}

func TestRateLimitMiddleware_HandlerNotCalledWhenRateLimited(t *testing.T) {
	mw := RateLimitMiddleware(newNoopLogger(), rate.NewLimiter(rate.Every(time.Hour), 1))

	var calls int
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodGet} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(method, "/create/", nil))
	}
	assert.Equal(t, 1, calls)
}
