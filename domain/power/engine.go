package power

import (
	"fmt"
	"math"
	"strings"

	"gopower/domain/core"
)

// Design is the shape of the experiment
type Design string

const (
	DesignOneSample Design = "one-sample"
	DesignTwoSample Design = "two-sample"
	DesignMatched   Design = "matched"
)

// Outcome is the type of the measured variable
type Outcome string

const (
	OutcomeContinuous  Outcome = "continuous"
	OutcomeDichotomous Outcome = "dichotomous"
)

// ParseDesign accepts the canonical names plus a few common aliases
func ParseDesign(s string) (Design, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "one-sample", "one", "onesample", "one_sample":
		return DesignOneSample, nil
	case "two-sample", "two", "twosample", "two_sample", "independent":
		return DesignTwoSample, nil
	case "matched", "matched-pair", "matched-sample", "matchsample", "paired":
		return DesignMatched, nil
	}
	return "", core.NewInvalidParametersError(fmt.Sprintf("unknown design %q", s))
}

// ParseOutcome accepts the canonical names plus a few common aliases
func ParseOutcome(s string) (Outcome, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "continuous", "con", "mean":
		return OutcomeContinuous, nil
	case "dichotomous", "dic", "proportion", "binary":
		return OutcomeDichotomous, nil
	}
	return "", core.NewInvalidParametersError(fmt.Sprintf("unknown outcome %q", s))
}

// Groups returns how many independent groups the design samples
func (d Design) Groups() int {
	if d == DesignTwoSample {
		return 2
	}
	return 1
}

type calculatorKey struct {
	design  Design
	outcome Outcome
}

type calculator struct {
	name   string
	effect func(e *Engine, name string) (float64, error)
	size   SizeFunc
}

var calculators = map[calculatorKey]calculator{
	{DesignOneSample, OutcomeContinuous}: {
		name:   "one-sample continuous",
		effect: absoluteContinuousEffect,
		size:   OneSampleSize,
	},
	{DesignTwoSample, OutcomeContinuous}: {
		name:   "two-sample continuous",
		effect: signedContinuousEffect,
		size:   TwoSampleSize,
	},
	{DesignMatched, OutcomeContinuous}: {
		name:   "matched-sample continuous",
		effect: signedContinuousEffect,
		size:   OneSampleSize,
	},
	{DesignOneSample, OutcomeDichotomous}: {
		name:   "one-sample dichotomous",
		effect: proportionEffect,
		size:   OneSampleSize,
	},
	{DesignTwoSample, OutcomeDichotomous}: {
		name:   "two-sample dichotomous",
		effect: proportionEffect,
		size:   TwoSampleSize,
	},
}

// Supported reports whether a calculator exists for the combination
func Supported(design Design, outcome Outcome) bool {
	_, ok := calculators[calculatorKey{design, outcome}]
	return ok
}

// Engine computes required sample sizes. It is immutable after NewEngine and safe
// for concurrent use.
type Engine struct {
	params         TestParameters
	meanDifference float64
	zAlpha         float64
	zPower         float64
}

// EngineOption configures NewEngine
type EngineOption func(*engineOptions)

type engineOptions struct {
	quantile QuantileProvider
}

// WithQuantileProvider replaces the gonum-backed normal quantile
func WithQuantileProvider(q QuantileProvider) EngineOption {
	return func(o *engineOptions) {
		if q != nil {
			o.quantile = q
		}
	}
}

// NewEngine validates params and derives the z-scores shared by every calculator
func NewEngine(params TestParameters, opts ...EngineOption) (*Engine, error) {
	options := engineOptions{quantile: GonumQuantile{}}
	for _, opt := range opts {
		opt(&options)
	}

	for name, o := range map[string]Optional{
		"baseline_mean":      params.BaselineMean,
		"target_mean":        params.TargetMean,
		"mean_difference":    params.MeanDifference,
		"standard_deviation": params.StandardDeviation,
	} {
		if err := validateFinite(name, o); err != nil {
			return nil, err
		}
	}

	if err := validateProbability("alpha", params.Alpha); err != nil {
		return nil, err
	}
	if err := validateProbability("power", params.Power); err != nil {
		return nil, err
	}

	diff, err := params.ResolveDifference()
	if err != nil {
		return nil, err
	}

	params.MeanDifference = Some(diff)

	return &Engine{
		params:         params,
		meanDifference: diff,
		zAlpha:         options.quantile.NormalQuantile(1 - params.Alpha/2),
		zPower:         options.quantile.NormalQuantile(params.Power),
	}, nil
}

// Parameters returns the construction parameters with MeanDifference resolved
func (e *Engine) Parameters() TestParameters { return e.params }

func (e *Engine) ZAlpha() float64         { return e.zAlpha }
func (e *Engine) ZPower() float64         { return e.zPower }
func (e *Engine) MeanDifference() float64 { return e.meanDifference }

// OneSampleContinuous compares one group's mean against a fixed value
func (e *Engine) OneSampleContinuous() (float64, error) {
	return e.Calculate(DesignOneSample, OutcomeContinuous)
}

// TwoSampleContinuous compares the means of two independent groups. The result is per group.
func (e *Engine) TwoSampleContinuous() (float64, error) {
	return e.Calculate(DesignTwoSample, OutcomeContinuous)
}

// MatchedSampleContinuous compares paired measurements. The result is the number of pairs.
func (e *Engine) MatchedSampleContinuous() (float64, error) {
	return e.Calculate(DesignMatched, OutcomeContinuous)
}

// OneSampleDichotomous compares one group's proportion against the baseline proportion
func (e *Engine) OneSampleDichotomous() (float64, error) {
	return e.Calculate(DesignOneSample, OutcomeDichotomous)
}

// TwoSampleDichotomous compares the proportions of two independent groups. The result is per group.
func (e *Engine) TwoSampleDichotomous() (float64, error) {
	return e.Calculate(DesignTwoSample, OutcomeDichotomous)
}

// Calculate returns the unrounded sample size for the design and outcome
func (e *Engine) Calculate(design Design, outcome Outcome) (float64, error) {
	_, n, err := e.evaluate(design, outcome)
	return n, err
}

// EffectSize returns the standardized effect the calculator would use
func (e *Engine) EffectSize(design Design, outcome Outcome) (float64, error) {
	calc, err := lookup(design, outcome)
	if err != nil {
		return 0, err
	}
	return calc.effect(e, calc.name)
}

func (e *Engine) evaluate(design Design, outcome Outcome) (float64, float64, error) {
	calc, err := lookup(design, outcome)
	if err != nil {
		return 0, 0, err
	}
	effect, err := calc.effect(e, calc.name)
	if err != nil {
		return 0, 0, err
	}
	n, err := calc.size(e.zAlpha, e.zPower, effect)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", calc.name, err)
	}
	return effect, n, nil
}

func lookup(design Design, outcome Outcome) (calculator, error) {
	calc, ok := calculators[calculatorKey{design, outcome}]
	if !ok {
		return calculator{}, core.NewInvalidParametersError(fmt.Sprintf("no calculator for %s %s outcome", design, outcome))
	}
	return calc, nil
}

func (e *Engine) standardDeviation(name string) (float64, error) {
	sd, ok := e.params.StandardDeviation.Get()
	if !ok {
		return 0, core.NewMissingParameterError("standard_deviation", name)
	}
	if sd <= 0 {
		return 0, core.NewDomainError(fmt.Sprintf("standard deviation must be positive, got %v", sd))
	}
	return sd, nil
}

// absoluteContinuousEffect is |d| / sd
func absoluteContinuousEffect(e *Engine, name string) (float64, error) {
	sd, err := e.standardDeviation(name)
	if err != nil {
		return 0, err
	}
	return math.Abs(e.meanDifference) / sd, nil
}

// signedContinuousEffect is d / sd; the sign is squared away by the size formula
func signedContinuousEffect(e *Engine, name string) (float64, error) {
	sd, err := e.standardDeviation(name)
	if err != nil {
		return 0, err
	}
	return e.meanDifference / sd, nil
}

// proportionEffect is |d| / sqrt(p1 (1 - p1))
func proportionEffect(e *Engine, name string) (float64, error) {
	p1, ok := e.params.BaselineMean.Get()
	if !ok {
		return 0, core.NewMissingParameterError("baseline_mean", name)
	}
	if !(p1 > 0 && p1 < 1) {
		return 0, core.NewDomainError(fmt.Sprintf("baseline proportion must lie in (0,1) for variance to be defined, got %v", p1))
	}
	return math.Abs(e.meanDifference) / math.Sqrt(p1*(1-p1)), nil
}
