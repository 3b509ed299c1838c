package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopower/domain/its"
	"gopower/internal"
)

func itsRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewITSHandler(internal.NewLogger(internal.LogLevelError)).Register(router.Group("/api"))
	return router
}

func TestITSSummary(t *testing.T) {
	body := `{
		"series": {"t": [1,2,3,4], "y": [10,10,14,15]},
		"its": [
			{"mean":10,"mean_ci_lower":9,"mean_ci_upper":11},
			{"mean":10,"mean_ci_lower":9,"mean_ci_upper":11},
			{"mean":14,"mean_ci_lower":13,"mean_ci_upper":15},
			{"mean":15,"mean_ci_lower":14,"mean_ci_upper":16}
		],
		"counterfactual": [
			{"mean":10,"mean_ci_lower":9,"mean_ci_upper":11},
			{"mean":10,"mean_ci_lower":9,"mean_ci_upper":11}
		],
		"start": 2, "end": 4, "constant": true
	}`

	w := do(itsRouter(), http.MethodPost, "/api/its/summary", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var summary its.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	require.Len(t, summary.Effects, 2)
	assert.Equal(t, 4.0, summary.Effects[0].Lift)
	assert.Equal(t, 5.0, summary.Effects[1].Lift)
	assert.Equal(t, 4.5, summary.MeanLift)
	assert.Equal(t, 2, summary.PeriodsOutside)
	assert.Equal(t, 2.5, summary.InterventionTime)
}

func TestITSSummaryRejectsShortFrames(t *testing.T) {
	body := `{"series":{"t":[1,2,3],"y":[1,2,3]},"its":[{"mean":1}],"counterfactual":[],"start":1,"end":3}`
	w := do(itsRouter(), http.MethodPost, "/api/its/summary", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body = `{"series":{"t":[1,2,3],"y":[1,2,3]},"its":[],"counterfactual":[],"start":0,"end":3}`
	w = do(itsRouter(), http.MethodPost, "/api/its/summary", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestITSRequestCarriesConstant(t *testing.T) {
	var req ITSRequest
	require.NoError(t, json.Unmarshal([]byte(`{"start":1,"end":2,"constant":true,"alpha":0.1}`), &req))

	cfg := req.Config()
	assert.True(t, cfg.Constant)
	assert.Equal(t, its.Config{Start: 1, End: 2, Constant: true, Alpha: 0.1}, cfg)
}
