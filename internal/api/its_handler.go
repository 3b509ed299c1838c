package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"gopower/domain/its"
	"gopower/internal"
	"gopower/internal/errors"
)

// ITSRequest carries an observed series and the predictions of two models fitted elsewhere
type ITSRequest struct {
	Series         its.Series `json:"series"`
	ITS            its.Frame  `json:"its"`
	Counterfactual its.Frame  `json:"counterfactual"`
	Start          int        `json:"start"`
	End            int        `json:"end"`
	Constant       bool       `json:"constant"`
	Alpha          float64    `json:"alpha"`
}

// Config returns the summary window
func (r ITSRequest) Config() its.Config {
	return its.Config{Start: r.Start, End: r.End, Constant: r.Constant, Alpha: r.Alpha}
}

// ITSHandler summarizes interrupted time series
type ITSHandler struct {
	logger *internal.Logger
}

// NewITSHandler creates a new ITS handler
func NewITSHandler(logger *internal.Logger) *ITSHandler {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &ITSHandler{logger: logger.With("its")}
}

// Register mounts the handler's routes under rg
func (h *ITSHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/its/summary", h.Summarize)
}

// Summarize lines up the two frames and reports per-period effects
func (h *ITSHandler) Summarize(c *gin.Context) {
	var req ITSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, errors.InvalidInput("invalid request body: "+err.Error()))
		return
	}

	summary, err := req.Summarize(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Summarize runs its.Summarize over the request's frames. Parameter and domain
// errors keep their codes; anything else is reported as invalid input since every
// value came from the caller.
func (r ITSRequest) Summarize(ctx context.Context) (*its.Summary, error) {
	summary, err := its.Summarize(ctx, r.Series, r.ITS, r.Counterfactual, r.Config())
	if err != nil {
		code := errors.GetCode(err)
		if code == errors.CodeInternalError {
			code = errors.CodeInvalidInput
		}
		return nil, &errors.AppError{Code: code, Message: "its summary failed", Cause: err}
	}
	return summary, nil
}
