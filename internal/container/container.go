package container

import (
	"context"
	"fmt"
	"strings"

	"gopower/adapters/excel"
	"gopower/adapters/memory"
	"gopower/adapters/postgres"
	"gopower/app"
	"gopower/domain/power"
	"gopower/internal"
	"gopower/internal/config"
	"gopower/internal/errors"
	"gopower/internal/metrics"
	"gopower/internal/migration"
	"gopower/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure; nil when plans are kept in memory
	DB *sqlx.DB

	// Repositories (data access layer)
	PlanRepo ports.PlanRepository

	Metrics *metrics.Metrics

	// Services
	PlanService  *app.PlanService
	SweepService *app.SweepService
	Exporter     *excel.PlanExporter
}

// Option adjusts container construction
type Option func(*options)

type options struct {
	engineOpts []power.EngineOption
	repo       ports.PlanRepository
}

// WithEngineOptions passes options to every engine the services build
func WithEngineOptions(opts ...power.EngineOption) Option {
	return func(o *options) { o.engineOpts = append(o.engineOpts, opts...) }
}

// WithPlanRepository skips database setup and uses repo instead
func WithPlanRepository(repo ports.PlanRepository) Option {
	return func(o *options) { o.repo = repo }
}

// New creates a new dependency injection container. When cfg.Database.URL is set
// the container connects to it and runs migrations; otherwise plans live in memory.
// URLs starting with sqlite: open a local sqlite3 file instead of postgres.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	switch {
	case o.repo != nil:
		c.PlanRepo = o.repo
	case cfg.Database.URL != "":
		if err := c.initDatabase(ctx); err != nil {
			return nil, err
		}
		c.PlanRepo = postgres.NewPlanRepository(c.DB)
	default:
		logger.Info("DATABASE_URL not set, plans are kept in memory")
		c.PlanRepo = memory.NewPlanRepository()
	}

	defaults := app.Defaults{Alpha: cfg.Power.DefaultAlpha, Power: cfg.Power.DefaultPower}
	c.Metrics = metrics.New()
	c.PlanService = app.NewPlanService(c.PlanRepo, defaults, logger, o.engineOpts...).
		WithRecorder(c.Metrics)
	c.SweepService = app.NewSweepService(defaults, cfg.Power.SweepConcurrency, cfg.Power.MaxSweepCells, logger, o.engineOpts...).
		WithRecorder(c.Metrics)

	exportConfig := excel.DefaultExcelConfig()
	exportConfig.ExportDir = cfg.Export.Dir
	c.Exporter = excel.NewPlanExporter(exportConfig)

	return c, nil
}

// initDatabase connects and applies the schema
func (c *Container) initDatabase(ctx context.Context) error {
	driver, dsn := DriverFor(c.Config.Database.URL)

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return errors.DatabaseError("failed to connect to database", err)
	}
	if driver == "sqlite3" {
		// sqlite allows one writer; :memory: is also private to a connection
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(c.Config.Database.MaxOpenConns)
	}
	db.SetConnMaxLifetime(c.Config.Database.ConnMaxLifetime)

	migrator := migration.NewRunnerFor(driver)
	if err := migrator.Run(ctx, db); err != nil {
		db.Close()
		return errors.DatabaseError("database migration failed", err)
	}

	c.Logger.Info("connected to %s, schema version %s", driver, migrator.Version())
	c.DB = db
	return nil
}

// DriverFor picks the sqlx driver for a database URL and returns the DSN to open
func DriverFor(url string) (driver, dsn string) {
	for _, prefix := range []string{"sqlite3://", "sqlite://", "sqlite3:", "sqlite:"} {
		if strings.HasPrefix(url, prefix) {
			return "sqlite3", strings.TrimPrefix(url, prefix)
		}
	}
	return "postgres", url
}

// Shutdown releases resources held by the container
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		c.Logger.Info("closing database connection")
		return c.DB.Close()
	}
	return nil
}
