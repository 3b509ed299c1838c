package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gopower/adapters/excel"
	"gopower/app"
	"gopower/domain/power"
	"gopower/internal"
	"gopower/internal/errors"
	"gopower/internal/pilot"
	"gopower/ports"
)

// PlanHandler serves the sample-size planning API
type PlanHandler struct {
	plans    *app.PlanService
	sweeps   *app.SweepService
	exporter *excel.PlanExporter
	logger   *internal.Logger
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(plans *app.PlanService, sweeps *app.SweepService, exporter *excel.PlanExporter, logger *internal.Logger) *PlanHandler {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &PlanHandler{
		plans:    plans,
		sweeps:   sweeps,
		exporter: exporter,
		logger:   logger.With("api"),
	}
}

// Register mounts the handler's routes under rg
func (h *PlanHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/plans", h.CreatePlan)
	rg.POST("/plans/compute", h.ComputePlan)
	rg.GET("/plans", h.ListPlans)
	rg.GET("/exports/plans.xlsx", h.ExportPlans)
	rg.GET("/plans/:id", h.GetPlan)
	rg.DELETE("/plans/:id", h.DeletePlan)
	rg.POST("/sweeps", h.RunSweep)
	rg.POST("/exports/sweep.xlsx", h.ExportSweep)
	rg.POST("/pilot", h.EstimatePilot)
}

// CreatePlan computes and stores a plan
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var req app.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, errors.InvalidInput("invalid request body: "+err.Error()))
		return
	}

	plan, err := h.plans.Create(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// ComputePlan computes a plan without storing it
func (h *PlanHandler) ComputePlan(c *gin.Context) {
	var req app.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, errors.InvalidInput("invalid request body: "+err.Error()))
		return
	}

	plan, err := h.plans.Compute(req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// GetPlan returns a stored plan
func (h *PlanHandler) GetPlan(c *gin.Context) {
	plan, err := h.plans.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// ListPlans returns stored plans, optionally filtered by design and outcome
func (h *PlanHandler) ListPlans(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	plans, err := h.plans.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"plans": plans,
		"count": len(plans),
	})
}

// DeletePlan removes a stored plan
func (h *PlanHandler) DeletePlan(c *gin.Context) {
	if err := h.plans.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ExportPlans streams the filtered plans as a workbook
func (h *PlanHandler) ExportPlans(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	plans, err := h.plans.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	f, err := h.exporter.PlansWorkbook(plans)
	if err != nil {
		h.respondError(c, errors.ExportFailed("xlsx", err))
		return
	}
	defer f.Close()

	c.Header("Content-Disposition", `attachment; filename="plans.xlsx"`)
	c.Header("Content-Type", xlsxContentType)
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		h.logger.Error("failed to stream plan export: %v", err)
	}
}

// RunSweep evaluates a sensitivity grid
func (h *PlanHandler) RunSweep(c *gin.Context) {
	result, ok := h.runSweep(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, result)
}

// ExportSweep evaluates a sensitivity grid and streams it as a workbook
func (h *PlanHandler) ExportSweep(c *gin.Context) {
	result, ok := h.runSweep(c)
	if !ok {
		return
	}

	f, err := h.exporter.SweepWorkbook(result)
	if err != nil {
		h.respondError(c, errors.ExportFailed("xlsx", err))
		return
	}
	defer f.Close()

	c.Header("Content-Disposition", `attachment; filename="sweep-`+result.SweepID.String()+`.xlsx"`)
	c.Header("Content-Type", xlsxContentType)
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		h.logger.Error("failed to stream sweep export: %v", err)
	}
}

func (h *PlanHandler) runSweep(c *gin.Context) (*app.SweepResult, bool) {
	var req app.SweepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, errors.InvalidInput("invalid request body: "+err.Error()))
		return nil, false
	}

	result, err := h.sweeps.Run(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	return result, true
}

// PilotRequest carries raw pilot observations
type PilotRequest struct {
	Outcome string    `json:"outcome"`
	Values  []float64 `json:"values"`
}

// EstimatePilot summarizes pilot data into planning inputs
func (h *PlanHandler) EstimatePilot(c *gin.Context) {
	var req PilotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, errors.InvalidInput("invalid request body: "+err.Error()))
		return
	}

	outcome := power.OutcomeContinuous
	if req.Outcome != "" {
		parsed, err := power.ParseOutcome(req.Outcome)
		if err != nil {
			h.respondError(c, err)
			return
		}
		outcome = parsed
	}

	if outcome == power.OutcomeDichotomous {
		summary, err := pilot.EstimateProportion(req.Values)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"outcome":       outcome,
			"summary":       summary,
			"baseline_mean": summary.Proportion,
		})
		return
	}

	summary, err := pilot.Estimate(req.Values)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"outcome":            outcome,
		"summary":            summary,
		"baseline_mean":      summary.Mean,
		"standard_deviation": summary.StdDev,
	})
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func parseFilter(c *gin.Context) (ports.PlanFilter, error) {
	var filter ports.PlanFilter

	if v := c.Query("design"); v != "" {
		design, err := power.ParseDesign(v)
		if err != nil {
			return filter, err
		}
		filter.Design = design
	}
	if v := c.Query("outcome"); v != "" {
		outcome, err := power.ParseOutcome(v)
		if err != nil {
			return filter, err
		}
		filter.Outcome = outcome
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return filter, errors.InvalidInput("limit must be a non-negative integer")
		}
		filter.Limit = limit
	}
	return filter, nil
}

// StatusFor maps an error to the HTTP status reported to clients
func StatusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeInvalidParameters, errors.CodeMissingParameter, errors.CodeInvalidInput:
		return http.StatusBadRequest
	case errors.CodeDomainError:
		return http.StatusUnprocessableEntity
	case errors.CodeNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (h *PlanHandler) respondError(c *gin.Context, err error) {
	writeError(c, h.logger, err)
}

func writeError(c *gin.Context, logger *internal.Logger, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{
		"error": err.Error(),
		"code":  errors.GetCode(err),
	})
}
