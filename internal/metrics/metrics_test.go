package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservePlan(t *testing.T) {
	m := New()
	m.ObservePlan("two-sample", "continuous", nil)
	m.ObservePlan("two-sample", "continuous", nil)
	m.ObservePlan("matched", "dichotomous", errors.New("unsupported"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.plansTotal.WithLabelValues("two-sample", "continuous", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.plansTotal.WithLabelValues("matched", "dichotomous", "error")))
}

func TestObserveSweep(t *testing.T) {
	m := New()
	m.ObserveSweep(12, 3*time.Millisecond, nil)
	m.ObserveSweep(0, 0, errors.New("cell failed"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.sweepsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sweepsTotal.WithLabelValues("error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.sweepCells))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObservePlan("one-sample", "continuous", nil)
		m.ObserveSweep(1, time.Second, nil)
	})
}

func TestGinMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	router := gin.New()
	router.Use(m.GinMiddleware())
	router.GET("/api/plans/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/plans/abc", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/api/plans/:id", "404")))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "gopower_http_requests_total"))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
