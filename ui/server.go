package ui

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gopower/internal"
	"gopower/internal/api"
	"gopower/internal/container"
)

// Server is the HTTP front end: the JSON API under /api and report pages under /reports
type Server struct {
	router  *gin.Engine
	reports *ReportApp
	logger  *internal.Logger
	started time.Time
}

// NewServer wires the API handlers and report pages for a container
func NewServer(c *container.Container) (*Server, error) {
	gin.SetMode(c.Config.Server.GinMode)

	reports, err := NewReportApp(Config{Base: "/reports", AccessLog: false}, c.PlanService, c.SweepService, c.Logger)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:  gin.New(),
		reports: reports,
		logger:  c.Logger.With("server"),
		started: time.Now(),
	}

	s.setupMiddleware(c)
	s.setupRoutes(c)
	return s, nil
}

func (s *Server) setupMiddleware(c *container.Container) {
	s.router.Use(gin.Logger())
	s.router.Use(gin.Recovery())
	s.router.Use(c.Metrics.GinMiddleware())
}

func (s *Server) setupRoutes(c *container.Container) {
	s.router.GET("/health", s.handleHealth)
	if c.Metrics != nil {
		s.router.GET("/metrics", gin.WrapH(c.Metrics.Handler()))
	}

	apiGroup := s.router.Group("/api")
	api.NewPlanHandler(c.PlanService, c.SweepService, c.Exporter, c.Logger).Register(apiGroup)
	api.NewITSHandler(c.Logger).Register(apiGroup)

	reports := gin.WrapH(http.StripPrefix("/reports", s.reports))
	s.router.Any("/reports", reports)
	s.router.Any("/reports/*path", reports)

	s.router.GET("/", func(ctx *gin.Context) {
		ctx.Redirect(http.StatusFound, "/reports/")
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
