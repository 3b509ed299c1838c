package app

import (
	"context"
	"fmt"

	"gopower/domain/core"
	"gopower/domain/power"
	"gopower/internal"
	"gopower/internal/errors"
	"gopower/internal/pilot"
	"gopower/ports"
)

// Defaults are applied when a request leaves alpha or power unset
type Defaults struct {
	Alpha float64
	Power float64
}

// ParameterInput is the wire form of power.TestParameters, with alpha and power optional
type ParameterInput struct {
	BaselineMean      power.Optional `json:"baseline_mean"`
	TargetMean        power.Optional `json:"target_mean"`
	MeanDifference    power.Optional `json:"mean_difference"`
	StandardDeviation power.Optional `json:"standard_deviation"`
	Alpha             power.Optional `json:"alpha"`
	Power             power.Optional `json:"power"`
}

// PlanRequest asks for one sample-size calculation
type PlanRequest struct {
	ParameterInput
	Name    string `json:"name"`
	Design  string `json:"design"`
	Outcome string `json:"outcome"`
	// Pilot optionally supplies raw observations used to fill baseline_mean and,
	// for continuous outcomes, standard_deviation.
	Pilot []float64 `json:"pilot,omitempty"`
}

// PlanService computes plans and stores them
type PlanService struct {
	repo     ports.PlanRepository
	defaults Defaults
	logger   *internal.Logger
	recorder Recorder
	opts     []power.EngineOption
}

// NewPlanService creates a plan service
func NewPlanService(repo ports.PlanRepository, defaults Defaults, logger *internal.Logger, opts ...power.EngineOption) *PlanService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &PlanService{
		repo:     repo,
		defaults: defaults,
		logger:   logger.With("plans"),
		recorder: noopRecorder{},
		opts:     opts,
	}
}

// WithRecorder reports every computed plan to r
func (s *PlanService) WithRecorder(r Recorder) *PlanService {
	if r != nil {
		s.recorder = r
	}
	return s
}

// Parameters converts wire input into engine parameters using the service defaults
func (s *PlanService) Parameters(in ParameterInput) power.TestParameters {
	return in.toParameters(s.defaults)
}

func (in ParameterInput) toParameters(defaults Defaults) power.TestParameters {
	return power.TestParameters{
		BaselineMean:      in.BaselineMean,
		TargetMean:        in.TargetMean,
		MeanDifference:    in.MeanDifference,
		StandardDeviation: in.StandardDeviation,
		Alpha:             in.Alpha.OrElse(defaults.Alpha),
		Power:             in.Power.OrElse(defaults.Power),
	}
}

// Compute runs the requested calculator without storing the result
func (s *PlanService) Compute(req PlanRequest) (*power.Plan, error) {
	plan, err := s.compute(req)
	design, outcome := "unknown", "unknown"
	if d, perr := power.ParseDesign(req.Design); perr == nil {
		design = string(d)
	}
	if o, perr := power.ParseOutcome(req.Outcome); perr == nil {
		outcome = string(o)
	}
	s.recorder.ObservePlan(design, outcome, err)
	return plan, err
}

func (s *PlanService) compute(req PlanRequest) (*power.Plan, error) {
	design, err := power.ParseDesign(req.Design)
	if err != nil {
		return nil, err
	}
	outcome, err := power.ParseOutcome(req.Outcome)
	if err != nil {
		return nil, err
	}

	params := s.Parameters(req.ParameterInput)
	if len(req.Pilot) > 0 {
		if err := applyPilot(&params, outcome, req.Pilot); err != nil {
			return nil, errors.Wrap(err, "pilot data rejected")
		}
	}

	engine, err := power.NewEngine(params, s.opts...)
	if err != nil {
		return nil, err
	}

	return engine.Plan(req.Name, design, outcome)
}

// Create computes a plan and stores it
func (s *PlanService) Create(ctx context.Context, req PlanRequest) (*power.Plan, error) {
	plan, err := s.Compute(req)
	if err != nil {
		s.logger.Debug("plan rejected: %v", err)
		return nil, err
	}

	if err := s.repo.SavePlan(ctx, plan); err != nil {
		s.logger.Error("failed to save plan %s: %v", plan.ID, err)
		return nil, errors.Wrap(err, "failed to save plan")
	}

	s.logger.Info("plan %s: %s %s n=%.2f per_group=%d total=%d",
		plan.ID, plan.Design, plan.Outcome, plan.SampleSize, plan.PerGroup, plan.Total)
	return plan, nil
}

// Get returns a stored plan
func (s *PlanService) Get(ctx context.Context, id string) (*power.Plan, error) {
	planID, err := core.ParsePlanID(id)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}
	return s.repo.GetPlan(ctx, planID)
}

// List returns stored plans, newest first
func (s *PlanService) List(ctx context.Context, filter ports.PlanFilter) ([]*power.Plan, error) {
	return s.repo.ListPlans(ctx, filter)
}

// Delete removes a stored plan
func (s *PlanService) Delete(ctx context.Context, id string) error {
	planID, err := core.ParsePlanID(id)
	if err != nil {
		return errors.WithCode(errors.CodeInvalidInput, err)
	}
	return s.repo.DeletePlan(ctx, planID)
}

func applyPilot(params *power.TestParameters, outcome power.Outcome, values []float64) error {
	switch outcome {
	case power.OutcomeDichotomous:
		summary, err := pilot.EstimateProportion(values)
		if err != nil {
			return err
		}
		summary.Apply(params)
	case power.OutcomeContinuous:
		summary, err := pilot.Estimate(values)
		if err != nil {
			return err
		}
		summary.Apply(params)
	default:
		return core.NewInvalidParametersError(fmt.Sprintf("unknown outcome %q", outcome))
	}
	return nil
}
