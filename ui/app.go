package ui

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gopower/app"
	"gopower/internal"
	"gopower/internal/api"
	"gopower/internal/errors"
	"gopower/ports"
)

//go:embed templates/*.html
var embeddedFiles embed.FS

// ReportApp serves human-readable plan reports
type ReportApp struct {
	router    *chi.Mux
	plans     *app.PlanService
	sweeps    *app.SweepService
	templates *template.Template
	base      string
	logger    *internal.Logger
}

// Config holds report application configuration
type Config struct {
	// Base is the path prefix the app is mounted under, e.g. "/reports"
	Base string
	// AccessLog enables chi's request logger
	AccessLog bool
}

type page struct {
	Title string
	Base  string
	Body  template.HTML
}

// NewReportApp creates a new report application
func NewReportApp(config Config, plans *app.PlanService, sweeps *app.SweepService, logger *internal.Logger) (*ReportApp, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}

	templates, err := template.ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	a := &ReportApp{
		router:    chi.NewRouter(),
		plans:     plans,
		sweeps:    sweeps,
		templates: templates,
		base:      config.Base,
		logger:    logger.With("reports"),
	}

	a.setupMiddleware(config)
	a.setupRoutes()

	return a, nil
}

func (a *ReportApp) setupMiddleware(config Config) {
	if config.AccessLog {
		a.router.Use(middleware.Logger)
	}
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

func (a *ReportApp) setupRoutes() {
	a.router.Get("/", a.handleIndex)
	a.router.Get("/{id}", a.handlePlan)
	a.router.Get("/{id}/markdown", a.handlePlanMarkdown)
	a.router.Post("/sweep", a.handleSweep)
	a.router.Post("/its", a.handleITS)
}

// ServeHTTP makes the app mountable under any router
func (a *ReportApp) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

func (a *ReportApp) handleIndex(w http.ResponseWriter, r *http.Request) {
	plans, err := a.plans.List(r.Context(), ports.PlanFilter{Limit: 200})
	if err != nil {
		a.renderError(w, err)
		return
	}
	a.renderMarkdown(w, "Sample size plans", PlanIndexMarkdown(plans, a.base))
}

func (a *ReportApp) handlePlan(w http.ResponseWriter, r *http.Request) {
	plan, err := a.plans.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.renderError(w, err)
		return
	}
	title := plan.Name
	if title == "" {
		title = plan.ID.String()
	}
	a.renderMarkdown(w, title, PlanMarkdown(plan))
}

func (a *ReportApp) handlePlanMarkdown(w http.ResponseWriter, r *http.Request) {
	plan, err := a.plans.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.renderError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	fmt.Fprint(w, PlanMarkdown(plan))
}

func (a *ReportApp) handleSweep(w http.ResponseWriter, r *http.Request) {
	var req app.SweepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.renderError(w, errors.InvalidInput("invalid request body: "+err.Error()))
		return
	}
	result, err := a.sweeps.Run(r.Context(), req)
	if err != nil {
		a.renderError(w, err)
		return
	}
	a.renderMarkdown(w, "Sensitivity sweep", SweepMarkdown(result))
}

func (a *ReportApp) handleITS(w http.ResponseWriter, r *http.Request) {
	var req api.ITSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.renderError(w, errors.InvalidInput("invalid request body: "+err.Error()))
		return
	}
	summary, err := req.Summarize(r.Context())
	if err != nil {
		a.renderError(w, err)
		return
	}
	a.renderMarkdown(w, "Interrupted time series", ITSMarkdown(summary))
}

func (a *ReportApp) renderMarkdown(w http.ResponseWriter, title, md string) {
	var buf bytes.Buffer
	err := a.templates.ExecuteTemplate(&buf, "layout", page{
		Title: title,
		Base:  a.base,
		Body:  template.HTML(RenderMarkdown([]byte(md))),
	})
	if err != nil {
		a.logger.Error("template error: %v", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (a *ReportApp) renderError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.CodeNotFound:
		status = http.StatusNotFound
	case errors.CodeInvalidInput, errors.CodeInvalidParameters, errors.CodeMissingParameter:
		status = http.StatusBadRequest
	case errors.CodeDomainError:
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		a.logger.Error("report failed: %v", err)
	}
	http.Error(w, err.Error(), status)
}
