package marketdata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestFanout(t *testing.T) *Fanout {
	t.Helper()
	return NewFanout(zap.NewNop(), NewMetrics(prometheus.NewRegistry()))
}

func TestHandleStatus_NoSnapshotYet(t *testing.T) {
	f := newTestFanout(t)
	rl := NewRateLimitMiddleware(1000, zap.NewNop(), f.metrics)
	router := f.Router(rl)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "no snapshot")
}

func TestHandleStatus_ReturnsLatestSnapshot(t *testing.T) {
	f := newTestFanout(t)
	f.store.set([]byte("SIDE PRICE QUANTITY\n"))
	rl := NewRateLimitMiddleware(1000, zap.NewNop(), f.metrics)
	router := f.Router(rl)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "SIDE PRICE QUANTITY")
}

func TestHandleStatus_LargeSnapshotIsCompressed(t *testing.T) {
	f := newTestFanout(t)
	big := make([]byte, compressThreshold+100)
	for i := range big {
		big[i] = 'x'
	}
	f.store.set(big)
	rl := NewRateLimitMiddleware(1000, zap.NewNop(), f.metrics)
	router := f.Router(rl)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "zstd", rec.Header().Get("Content-Encoding"))
}

func TestRateLimitMiddleware_RejectsOverLimit(t *testing.T) {
	f := newTestFanout(t)
	rl := NewRateLimitMiddleware(1, zap.NewNop(), f.metrics)
	router := f.Router(rl)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/status", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if i >= 1 {
			assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		}
	}
}
