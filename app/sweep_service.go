package app

import (
	"context"
	"fmt"
	"math"
	"time"

	"gopower/domain/core"
	"gopower/domain/power"
	"gopower/internal"

	"golang.org/x/sync/errgroup"
)

// SweepRequest evaluates one calculator over a grid of alphas, powers and differences.
// An empty axis falls back to the value in Base.
type SweepRequest struct {
	Base        ParameterInput `json:"base"`
	Design      string         `json:"design"`
	Outcome     string         `json:"outcome"`
	Alphas      []float64      `json:"alphas"`
	Powers      []float64      `json:"powers"`
	Differences []float64      `json:"differences"`
}

// SweepRow is one grid cell
type SweepRow struct {
	Alpha          float64 `json:"alpha"`
	Power          float64 `json:"power"`
	MeanDifference float64 `json:"mean_difference"`
	EffectSize     float64 `json:"effect_size"`
	SampleSize     float64 `json:"sample_size"`
	PerGroup       int     `json:"per_group"`
	Total          int     `json:"total"`
}

// SweepResult holds the grid in alpha, power, difference order
type SweepResult struct {
	SweepID     core.SweepID  `json:"sweep_id"`
	Design      power.Design  `json:"design"`
	Outcome     power.Outcome `json:"outcome"`
	Rows        []SweepRow    `json:"rows"`
	Fingerprint core.Hash     `json:"fingerprint"`
	RuntimeMs   int64         `json:"runtime_ms"`
}

// SweepService runs sensitivity sweeps concurrently
type SweepService struct {
	defaults    Defaults
	concurrency int
	maxCells    int
	logger      *internal.Logger
	recorder    Recorder
	opts        []power.EngineOption
}

// NewSweepService creates a sweep service
func NewSweepService(defaults Defaults, concurrency, maxCells int, logger *internal.Logger, opts ...power.EngineOption) *SweepService {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &SweepService{
		defaults:    defaults,
		concurrency: concurrency,
		maxCells:    maxCells,
		logger:      logger.With("sweep"),
		recorder:    noopRecorder{},
		opts:        opts,
	}
}

// WithRecorder reports every sweep to r
func (s *SweepService) WithRecorder(r Recorder) *SweepService {
	if r != nil {
		s.recorder = r
	}
	return s
}

type sweepCell struct {
	alpha, power, diff float64
}

// Run evaluates every grid cell. The first failing cell cancels the rest and its error is returned.
func (s *SweepService) Run(ctx context.Context, req SweepRequest) (*SweepResult, error) {
	start := time.Now()
	result, err := s.run(ctx, req, start)
	cells := 0
	if result != nil {
		cells = len(result.Rows)
	}
	s.recorder.ObserveSweep(cells, time.Since(start), err)
	return result, err
}

func (s *SweepService) run(ctx context.Context, req SweepRequest, start time.Time) (*SweepResult, error) {

	design, err := power.ParseDesign(req.Design)
	if err != nil {
		return nil, err
	}
	outcome, err := power.ParseOutcome(req.Outcome)
	if err != nil {
		return nil, err
	}
	if !power.Supported(design, outcome) {
		return nil, core.NewInvalidParametersError(fmt.Sprintf("no calculator for %s %s outcome", design, outcome))
	}

	base := req.Base.toParameters(s.defaults)

	alphas := req.Alphas
	if len(alphas) == 0 {
		alphas = []float64{base.Alpha}
	}
	powers := req.Powers
	if len(powers) == 0 {
		powers = []float64{base.Power}
	}
	diffs := req.Differences
	if len(diffs) == 0 {
		d, err := base.ResolveDifference()
		if err != nil {
			return nil, err
		}
		diffs = []float64{d}
	}

	size, ok := gridSize(len(alphas), len(powers), len(diffs))
	if !ok {
		return nil, core.NewInvalidParametersError(fmt.Sprintf("sweep of %d x %d x %d cells is too large", len(alphas), len(powers), len(diffs)))
	}
	if s.maxCells > 0 && size > s.maxCells {
		return nil, core.NewInvalidParametersError(fmt.Sprintf("sweep has %d cells, limit is %d", size, s.maxCells))
	}

	cells := make([]sweepCell, 0, size)
	for _, a := range alphas {
		for _, p := range powers {
			for _, d := range diffs {
				cells = append(cells, sweepCell{alpha: a, power: p, diff: d})
			}
		}
	}

	rows := make([]SweepRow, len(cells))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, cell := range cells {
		i, cell := i, cell
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row, err := s.evaluate(base, cell, design, outcome)
			if err != nil {
				return fmt.Errorf("alpha=%v power=%v difference=%v: %w", cell.alpha, cell.power, cell.diff, err)
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Debug("sweep aborted: %v", err)
		return nil, err
	}

	fields := base.Fields()
	fields["design"] = string(design)
	fields["outcome"] = string(outcome)
	fields["alphas"] = alphas
	fields["powers"] = powers
	fields["differences"] = diffs

	result := &SweepResult{
		SweepID:     core.NewSweepID(),
		Design:      design,
		Outcome:     outcome,
		Rows:        rows,
		Fingerprint: core.ComputeFingerprint(fields),
		RuntimeMs:   time.Since(start).Milliseconds(),
	}
	s.logger.Info("sweep %s: %d cells in %dms", result.SweepID, len(rows), result.RuntimeMs)
	return result, nil
}

func (s *SweepService) evaluate(base power.TestParameters, cell sweepCell, design power.Design, outcome power.Outcome) (SweepRow, error) {
	params := base
	params.Alpha = cell.alpha
	params.Power = cell.power
	params.MeanDifference = power.Some(cell.diff)

	engine, err := power.NewEngine(params, s.opts...)
	if err != nil {
		return SweepRow{}, err
	}
	effect, err := engine.EffectSize(design, outcome)
	if err != nil {
		return SweepRow{}, err
	}
	n, err := engine.Calculate(design, outcome)
	if err != nil {
		return SweepRow{}, err
	}

	perGroup, total, err := power.Sizes(n, design.Groups())
	if err != nil {
		return SweepRow{}, err
	}
	return SweepRow{
		Alpha:          cell.alpha,
		Power:          cell.power,
		MeanDifference: cell.diff,
		EffectSize:     effect,
		SampleSize:     n,
		PerGroup:       perGroup,
		Total:          total,
	}, nil
}

// gridSize multiplies the axis lengths, reporting false when the product overflows int
func gridSize(axes ...int) (int, bool) {
	n := 1
	for _, a := range axes {
		if a < 0 || (a > 0 && n > math.MaxInt/a) {
			return 0, false
		}
		n *= a
	}
	return n, true
}
