// Package its lines up an interrupted-time-series model and its counterfactual.
//
// Both models are fitted elsewhere; this package only asks them for predictions
// and reports the per-period difference between what happened and what the
// counterfactual expected.
package its

import (
	"context"
	"fmt"

	"gopower/domain/core"

	"github.com/montanaflynn/stats"
)

// Prediction is a model mean with its confidence band
type Prediction struct {
	Mean  float64 `json:"mean"`
	Lower float64 `json:"mean_ci_lower"`
	Upper float64 `json:"mean_ci_upper"`
}

// Predictor returns in-sample predictions for periods [start, end)
type Predictor interface {
	Predict(ctx context.Context, start, end int, alpha float64) ([]Prediction, error)
}

// Forecaster returns out-of-sample forecasts given one exogenous row per step
type Forecaster interface {
	Forecast(ctx context.Context, steps int, exog [][]float64, alpha float64) ([]Prediction, error)
}

// Series is the observed data, one entry per period
type Series struct {
	T []float64 `json:"t"`
	Y []float64 `json:"y"`
}

// Config selects the intervention window
type Config struct {
	// Start is the first post-intervention index, End is exclusive
	Start int
	End   int
	// Constant prepends a 1 to every exogenous row
	Constant bool
	// Exog overrides the exogenous regressor; defaults to Y
	Exog []float64
	// Alpha for confidence bands; 0 means 0.05
	Alpha float64
}

// Effect compares the observation in one post-intervention period to the counterfactual
type Effect struct {
	T              float64 `json:"t"`
	Actual         float64 `json:"actual"`
	Counterfactual float64 `json:"counterfactual"`
	Lift           float64 `json:"lift"`
	// Outside is true when the observation falls outside the counterfactual band
	Outside bool `json:"outside"`
}

// Summary holds both frames and the derived effects
type Summary struct {
	ITS              []Prediction `json:"its"`
	Counterfactual   []Prediction `json:"counterfactual"`
	Effects          []Effect     `json:"effects"`
	MeanLift         float64      `json:"mean_lift"`
	CumulativeLift   float64      `json:"cumulative_lift"`
	PeriodsOutside   int          `json:"periods_outside"`
	InterventionTime float64      `json:"intervention_time"`
}

// Summarize predicts periods [0, End) with the ITS model and forecasts [Start, End)
// with the counterfactual model.
func Summarize(ctx context.Context, series Series, itsModel Predictor, cfModel Forecaster, cfg Config) (*Summary, error) {
	if err := validate(series, cfg); err != nil {
		return nil, err
	}
	alpha := cfg.Alpha
	if alpha == 0 {
		alpha = 0.05
	}

	itsFrame, err := itsModel.Predict(ctx, 0, cfg.End, alpha)
	if err != nil {
		return nil, fmt.Errorf("its prediction failed: %w", err)
	}
	if len(itsFrame) != cfg.End {
		return nil, fmt.Errorf("its prediction returned %d rows, want %d", len(itsFrame), cfg.End)
	}

	steps := cfg.End - cfg.Start
	cfFrame, err := cfModel.Forecast(ctx, steps, exogRows(series, cfg), alpha)
	if err != nil {
		return nil, fmt.Errorf("counterfactual forecast failed: %w", err)
	}
	if len(cfFrame) != steps {
		return nil, fmt.Errorf("counterfactual forecast returned %d rows, want %d", len(cfFrame), steps)
	}

	effects := make([]Effect, steps)
	lifts := make([]float64, steps)
	outside := 0
	for i := 0; i < steps; i++ {
		idx := cfg.Start + i
		cf := cfFrame[i]
		y := series.Y[idx]
		effects[i] = Effect{
			T:              series.T[idx],
			Actual:         y,
			Counterfactual: cf.Mean,
			Lift:           y - cf.Mean,
			Outside:        y < cf.Lower || y > cf.Upper,
		}
		lifts[i] = effects[i].Lift
		if effects[i].Outside {
			outside++
		}
	}

	meanLift, err := stats.Mean(lifts)
	if err != nil {
		return nil, err
	}
	cumulative, err := stats.Sum(lifts)
	if err != nil {
		return nil, err
	}

	return &Summary{
		ITS:              itsFrame,
		Counterfactual:   cfFrame,
		Effects:          effects,
		MeanLift:         meanLift,
		CumulativeLift:   cumulative,
		PeriodsOutside:   outside,
		InterventionTime: (series.T[cfg.Start-1] + series.T[cfg.Start]) / 2,
	}, nil
}

func validate(series Series, cfg Config) error {
	if len(series.T) != len(series.Y) {
		return core.NewInvalidParametersError(fmt.Sprintf("series has %d times and %d values", len(series.T), len(series.Y)))
	}
	if cfg.Start < 1 || cfg.End <= cfg.Start || cfg.End > len(series.Y) {
		return core.NewInvalidParametersError(fmt.Sprintf("window [%d,%d) invalid for %d periods", cfg.Start, cfg.End, len(series.Y)))
	}
	if cfg.Exog != nil && len(cfg.Exog) != len(series.Y) {
		return core.NewInvalidParametersError(fmt.Sprintf("exog has %d values, series has %d", len(cfg.Exog), len(series.Y)))
	}
	if !(cfg.Alpha >= 0 && cfg.Alpha < 1) {
		return core.NewDomainError(fmt.Sprintf("alpha must lie in (0,1), got %v", cfg.Alpha))
	}
	return nil
}

func exogRows(series Series, cfg Config) [][]float64 {
	source := cfg.Exog
	if source == nil {
		source = series.Y
	}
	rows := make([][]float64, 0, cfg.End-cfg.Start)
	for i := cfg.Start; i < cfg.End; i++ {
		if cfg.Constant {
			rows = append(rows, []float64{1, source[i]})
		} else {
			rows = append(rows, []float64{source[i]})
		}
	}
	return rows
}
