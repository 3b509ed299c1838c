package power

import (
	"fmt"
	"math"

	"gopower/domain/core"
)

const (
	DefaultAlpha = 0.05
	DefaultPower = 0.8
)

// TestParameters describes the experiment being planned.
//
// MeanDifference wins over BaselineMean/TargetMean when both are given. For
// dichotomous outcomes BaselineMean is the control proportion p1 and
// MeanDifference is the lift p2-p1.
type TestParameters struct {
	BaselineMean      Optional `json:"baseline_mean"`
	TargetMean        Optional `json:"target_mean"`
	MeanDifference    Optional `json:"mean_difference"`
	StandardDeviation Optional `json:"standard_deviation"`
	Alpha             float64  `json:"alpha"`
	Power             float64  `json:"power"`
}

// NewParameters returns parameters with the conventional alpha and power
func NewParameters() TestParameters {
	return TestParameters{
		Alpha: DefaultAlpha,
		Power: DefaultPower,
	}
}

// ResolveDifference returns the explicit difference or TargetMean - BaselineMean.
func (p TestParameters) ResolveDifference() (float64, error) {
	if d, ok := p.MeanDifference.Get(); ok {
		return d, nil
	}
	mu1, ok1 := p.BaselineMean.Get()
	mu2, ok2 := p.TargetMean.Get()
	if !ok1 || !ok2 {
		return 0, core.NewInvalidParametersError("mean_difference is required unless both baseline_mean and target_mean are given")
	}
	return mu2 - mu1, nil
}

// Fields returns the parameters as a flat map, used for fingerprinting and reports
func (p TestParameters) Fields() map[string]interface{} {
	return map[string]interface{}{
		"baseline_mean":      p.BaselineMean.String(),
		"target_mean":        p.TargetMean.String(),
		"mean_difference":    p.MeanDifference.String(),
		"standard_deviation": p.StandardDeviation.String(),
		"alpha":              p.Alpha,
		"power":              p.Power,
	}
}

func validateProbability(name string, v float64) error {
	if !(v > 0 && v < 1) {
		return core.NewDomainError(fmt.Sprintf("%s must lie in (0,1), got %v", name, v))
	}
	return nil
}

func validateFinite(name string, o Optional) error {
	if v, ok := o.Get(); ok && (math.IsNaN(v) || math.IsInf(v, 0)) {
		return core.NewDomainError(fmt.Sprintf("%s must be finite, got %v", name, v))
	}
	return nil
}
