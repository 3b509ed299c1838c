// Package pilot estimates planning inputs (baseline mean, proportion, standard
// deviation) from data collected in a pilot run or from historical metrics.
package pilot

import (
	"fmt"
	"math"

	"gopower/domain/core"
	"gopower/domain/power"

	"github.com/montanaflynn/stats"
)

// Summary describes a continuous pilot sample
type Summary struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"` // sample standard deviation (n-1)
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	// Dropped counts NaN and infinite values ignored during estimation
	Dropped int `json:"dropped"`
}

// ProportionSummary describes a binary pilot sample
type ProportionSummary struct {
	N          int     `json:"n"`
	Successes  int     `json:"successes"`
	Proportion float64 `json:"proportion"`
	Dropped    int     `json:"dropped"`
}

// Estimate summarizes a continuous sample. At least two finite values are required.
func Estimate(values []float64) (*Summary, error) {
	clean, dropped := finite(values)
	if len(clean) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 finite values, got %d", core.ErrInsufficientData, len(clean))
	}

	data := stats.Float64Data(clean)

	mean, err := stats.Mean(data)
	if err != nil {
		return nil, err
	}
	stdDev, err := stats.StandardDeviationSample(data)
	if err != nil {
		return nil, err
	}
	median, err := stats.Median(data)
	if err != nil {
		return nil, err
	}
	min, err := stats.Min(data)
	if err != nil {
		return nil, err
	}
	max, err := stats.Max(data)
	if err != nil {
		return nil, err
	}

	return &Summary{
		N:       len(clean),
		Mean:    mean,
		StdDev:  stdDev,
		Median:  median,
		Min:     min,
		Max:     max,
		Dropped: dropped,
	}, nil
}

// EstimateProportion summarizes a sample of 0/1 outcomes
func EstimateProportion(values []float64) (*ProportionSummary, error) {
	clean, dropped := finite(values)
	if len(clean) == 0 {
		return nil, fmt.Errorf("%w: no finite values", core.ErrInsufficientData)
	}

	successes := 0
	for _, v := range clean {
		switch v {
		case 1:
			successes++
		case 0:
		default:
			return nil, fmt.Errorf("%w: unexpected value %v", core.ErrNotBinary, v)
		}
	}

	sum, err := stats.Sum(clean)
	if err != nil {
		return nil, err
	}

	return &ProportionSummary{
		N:          len(clean),
		Successes:  successes,
		Proportion: sum / float64(len(clean)),
		Dropped:    dropped,
	}, nil
}

// Apply fills BaselineMean and StandardDeviation when the caller left them unset
func (s *Summary) Apply(p *power.TestParameters) {
	if !p.BaselineMean.IsSet() {
		p.BaselineMean = power.Some(s.Mean)
	}
	if !p.StandardDeviation.IsSet() {
		p.StandardDeviation = power.Some(s.StdDev)
	}
}

// Apply fills BaselineMean with the observed proportion when the caller left it unset
func (s *ProportionSummary) Apply(p *power.TestParameters) {
	if !p.BaselineMean.IsSet() {
		p.BaselineMean = power.Some(s.Proportion)
	}
}

func finite(values []float64) ([]float64, int) {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		clean = append(clean, v)
	}
	return clean, len(values) - len(clean)
}
