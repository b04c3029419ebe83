package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveBackend(t *testing.T) {
	m := NewManager("induo")
	m.ObserveBackend("search", "ok", 20*time.Millisecond)
	m.ObserveBackend("search", "ok", 30*time.Millisecond)
	m.ObserveBackend("search", "transport_error", time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BackendRequests.WithLabelValues("search", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendRequests.WithLabelValues("search", "transport_error")))
}

func TestFavoriteChanged(t *testing.T) {
	m := NewManager("induo")
	m.FavoriteChanged(1, true)
	m.FavoriteChanged(1, false)
	m.FavoriteChanged(2, true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FavoriteChanges.WithLabelValues("added")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FavoriteChanges.WithLabelValues("removed")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewManager("induo")
	m.StaleSearch()
	m.ObserveHTTP("", http.StatusNotFound)
	m.SetVisitors(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "induo_stale_search_responses_total 1")
	assert.Contains(t, string(body), `induo_http_requests_total{code="404",route="unmatched"} 1`)
	assert.Contains(t, string(body), "induo_visitors 3")
}
