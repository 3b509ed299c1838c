package ui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopower/app"
	"gopower/domain/power"
	"gopower/internal/config"
	"gopower/internal/container"
)

func testServer(t *testing.T) (*Server, *container.Container) {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{GinMode: "test"},
		Power: config.PowerConfig{
			DefaultAlpha:     0.05,
			DefaultPower:     0.8,
			SweepConcurrency: 2,
			MaxSweepCells:    50,
		},
		Export:   config.ExportConfig{Dir: t.TempDir()},
		LogLevel: "ERROR",
	}
	c, err := container.New(context.Background(), cfg)
	require.NoError(t, err)

	s, err := NewServer(c)
	require.NoError(t, err)
	return s, c
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestPlanReportPage(t *testing.T) {
	s, c := testServer(t)

	plan, err := c.PlanService.Create(context.Background(), app.PlanRequest{
		ParameterInput: app.ParameterInput{
			BaselineMean:      power.Some(0),
			TargetMean:        power.Some(0.5),
			StandardDeviation: power.Some(1),
		},
		Name:    "hero <banner>",
		Design:  "two-sample",
		Outcome: "continuous",
	})
	require.NoError(t, err)

	w := get(s.Handler(), "/reports/"+plan.ID.String())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	body := w.Body.String()
	assert.Contains(t, body, "<table>")
	assert.Contains(t, body, "<strong>63</strong>")
	assert.Contains(t, body, "<strong>126</strong>")
	assert.NotContains(t, body, "<banner>")

	w = get(s.Handler(), "/reports/"+plan.ID.String()+"/markdown")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "| Effect size | 0.500000 |")

	w = get(s.Handler(), "/reports/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `href="/reports/`+plan.ID.String()+`"`)
}

func TestReportErrors(t *testing.T) {
	s, _ := testServer(t)

	w := get(s.Handler(), "/reports/0190d0a4-3c1e-7b6a-9f3e-3b1f2a4c5d6e")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = get(s.Handler(), "/reports/nope")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSweepReport(t *testing.T) {
	s, _ := testServer(t)

	body := `{"design":"one-sample","outcome":"dichotomous","base":{"baseline_mean":0.1},"differences":[0.05,0.1]}`
	req := httptest.NewRequest(http.MethodPost, "/reports/sweep", strings.NewReader(body))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "<td>283</td>")
}

func TestITSReport(t *testing.T) {
	s, _ := testServer(t)

	body := `{"series":{"t":[1,2,3],"y":[5,5,9]},
		"its":[{"mean":5},{"mean":5},{"mean":9}],
		"counterfactual":[{"mean":5,"mean_ci_lower":4,"mean_ci_upper":6}],
		"start":2,"end":3}`
	req := httptest.NewRequest(http.MethodPost, "/reports/its", strings.NewReader(body))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "<td>4.0000</td>")
	assert.Contains(t, w.Body.String(), "<td>yes</td>")
}

func TestITSReportKeepsErrorKinds(t *testing.T) {
	s, _ := testServer(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{
			name: "alpha out of range",
			body: `{"series":{"t":[1,2,3],"y":[5,5,9]},"its":[{"mean":5},{"mean":5},{"mean":9}],
				"counterfactual":[{"mean":5}],"start":2,"end":3,"constant":true,"alpha":1.5}`,
			status: http.StatusUnprocessableEntity,
		},
		{
			name: "window outside series",
			body: `{"series":{"t":[1,2,3],"y":[5,5,9]},"its":[{"mean":5}],
				"counterfactual":[{"mean":5}],"start":0,"end":3}`,
			status: http.StatusBadRequest,
		},
		{
			name: "short counterfactual",
			body: `{"series":{"t":[1,2,3],"y":[5,5,9]},"its":[{"mean":5},{"mean":5},{"mean":9}],
				"counterfactual":[],"start":1,"end":3,"constant":true}`,
			status: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/reports/its", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestHealthAndAPI(t *testing.T) {
	s, _ := testServer(t)

	w := get(s.Handler(), "/health")
	assert.Equal(t, http.StatusOK, w.Code)

	w = get(s.Handler(), "/api/plans")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRenderMarkdown(t *testing.T) {
	html := string(RenderMarkdown([]byte("# Title\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")))
	assert.Contains(t, html, `<h1 id="title">Title</h1>`)
	assert.Contains(t, html, "<td>1</td>")
}

func TestMetricsEndpoint(t *testing.T) {
	s, c := testServer(t)

	_, err := c.PlanService.Compute(app.PlanRequest{
		ParameterInput: app.ParameterInput{MeanDifference: power.Some(1), StandardDeviation: power.Some(1)},
		Design:         "matched",
		Outcome:        "continuous",
	})
	require.NoError(t, err)

	w := get(s.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `gopower_plans_total{design="matched",outcome="continuous",result="ok"} 1`)
}
