package health

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDB struct{ err error }

func (s stubDB) Ping(ctx context.Context) error { return s.err }

type stubStatus struct{}

func (stubStatus) ModelState() string { return "ready" }
func (stubStatus) NextRun() time.Time { return time.Date(2025, 2, 11, 6, 0, 0, 0, time.UTC) }

func newTestServer(db DatabasePinger) *Server {
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	return NewServer(Config{
		ServiceName: "hoopscore",
		Logger:      log,
		DB:          db,
		Status:      stubStatus{},
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("hoopscore_predictions_total 1\n"))
		}),
	})
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthAndLive(t *testing.T) {
	h := newTestServer(nil).Handler()

	for _, path := range []string{"/health", "/live"} {
		rec := get(t, h, path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		var body HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "ok", body.Status)
		assert.Equal(t, "hoopscore", body.Service)
	}
}

func TestReadyFollowsStateAndDatabase(t *testing.T) {
	s := newTestServer(stubDB{})
	h := s.Handler()

	rec := get(t, h, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	s.SetReady(true)
	rec = get(t, h, "/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
	var body ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Checks["database"])
	assert.Equal(t, "ready", body.Model)
	assert.Equal(t, "2025-02-11T06:00:00Z", body.NextRun)

	down := newTestServer(stubDB{err: errors.New("connection refused")})
	down.SetReady(true)
	rec = get(t, down.Handler(), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestMetricsRoute(t *testing.T) {
	rec := get(t, newTestServer(nil).Handler(), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hoopscore_predictions_total")
}
