package power

import (
	"fmt"
	"math"
	"time"

	"gopower/domain/core"
)

// Plan is the recorded outcome of one sample-size calculation
type Plan struct {
	ID          core.PlanID    `json:"id"`
	Name        string         `json:"name,omitempty"`
	Design      Design         `json:"design"`
	Outcome     Outcome        `json:"outcome"`
	Parameters  TestParameters `json:"parameters"`
	ZAlpha      float64        `json:"z_alpha"`
	ZPower      float64        `json:"z_power"`
	EffectSize  float64        `json:"effect_size"`
	SampleSize  float64        `json:"sample_size"` // unrounded, per group
	PerGroup    int            `json:"per_group"`   // SampleSize rounded up
	Groups      int            `json:"groups"`
	Total       int            `json:"total"`
	Fingerprint core.Hash      `json:"fingerprint"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Plan runs the calculator for design and outcome and records the result
func (e *Engine) Plan(name string, design Design, outcome Outcome) (*Plan, error) {
	effect, n, err := e.evaluate(design, outcome)
	if err != nil {
		return nil, err
	}

	groups := design.Groups()
	perGroup, total, err := Sizes(n, groups)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", design, outcome, err)
	}

	fields := e.params.Fields()
	fields["design"] = string(design)
	fields["outcome"] = string(outcome)

	return &Plan{
		ID:          core.NewPlanID(),
		Name:        name,
		Design:      design,
		Outcome:     outcome,
		Parameters:  e.params,
		ZAlpha:      e.zAlpha,
		ZPower:      e.zPower,
		EffectSize:  effect,
		SampleSize:  n,
		PerGroup:    perGroup,
		Groups:      groups,
		Total:       total,
		Fingerprint: core.ComputeFingerprint(fields),
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// MaxSampleSize is the largest per-group or total size a plan can hold; sizes are
// stored in 32-bit integer columns.
const MaxSampleSize = math.MaxInt32

// RoundUp converts an unrounded sample size into the minimum whole number of units.
// Values within 1e-9 of an integer are not bumped to the next one.
func RoundUp(n float64) (int, error) {
	if !(n <= MaxSampleSize) {
		return 0, core.NewDomainError(fmt.Sprintf("sample size %g exceeds representable range", n))
	}
	if n <= 0 {
		return 0, nil
	}
	r := math.Round(n)
	if math.Abs(n-r) < 1e-9 {
		return int(r), nil
	}
	return int(math.Ceil(n)), nil
}

// Sizes rounds n up and scales it by the number of groups
func Sizes(n float64, groups int) (perGroup, total int, err error) {
	perGroup, err = RoundUp(n)
	if err != nil {
		return 0, 0, err
	}
	if groups < 1 {
		groups = 1
	}
	if perGroup > MaxSampleSize/groups {
		return 0, 0, core.NewDomainError(fmt.Sprintf("total sample size %d x %d exceeds representable range", perGroup, groups))
	}
	return perGroup, perGroup * groups, nil
}
