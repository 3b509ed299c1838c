package app

import (
	"context"
	"math"
	"runtime"
	"testing"
	"time"

	"gopower/domain/core"
	"gopower/domain/power"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepServiceGrid(t *testing.T) {
	svc := NewSweepService(testDefaults, 3, 100, quietLogger())

	result, err := svc.Run(context.Background(), SweepRequest{
		Base:        ParameterInput{StandardDeviation: power.Some(1), MeanDifference: power.Some(0.5)},
		Design:      "two-sample",
		Outcome:     "continuous",
		Alphas:      []float64{0.05, 0.01},
		Powers:      []float64{0.8, 0.9},
		Differences: []float64{0.25, 0.5},
	})
	require.NoError(t, err)
	require.Len(t, result.Rows, 8)

	first := result.Rows[0]
	assert.Equal(t, 0.05, first.Alpha)
	assert.Equal(t, 0.8, first.Power)
	assert.Equal(t, 0.25, first.MeanDifference)

	second := result.Rows[1]
	assert.InDelta(t, 62.79, second.SampleSize, 0.01)
	assert.Equal(t, 63, second.PerGroup)
	assert.Equal(t, 126, second.Total)

	// halving the difference quadruples n
	assert.InDelta(t, 4*second.SampleSize, first.SampleSize, 1e-9)

	// stricter alpha and higher power both need more units
	for i := 0; i < 4; i++ {
		assert.Greater(t, result.Rows[i+4].SampleSize, result.Rows[i].SampleSize)
	}
	assert.Greater(t, result.Rows[2].SampleSize, result.Rows[0].SampleSize)
	assert.False(t, result.Fingerprint.IsEmpty())
}

func TestSweepServiceDefaultsAxes(t *testing.T) {
	svc := NewSweepService(testDefaults, 2, 100, quietLogger())

	result, err := svc.Run(context.Background(), SweepRequest{
		Base:    ParameterInput{BaselineMean: power.Some(0.1), TargetMean: power.Some(0.15)},
		Design:  "one-sample",
		Outcome: "dichotomous",
	})
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.InDelta(t, 282.56, result.Rows[0].SampleSize, 0.05)
}

func TestSweepServiceFailsOnBadCell(t *testing.T) {
	svc := NewSweepService(testDefaults, 4, 100, quietLogger())

	_, err := svc.Run(context.Background(), SweepRequest{
		Base:        ParameterInput{StandardDeviation: power.Some(1)},
		Design:      "one-sample",
		Outcome:     "continuous",
		Differences: []float64{0.5, 0, 1},
	})
	assert.True(t, core.IsDomainError(err))
}

func TestSweepServiceLimits(t *testing.T) {
	svc := NewSweepService(testDefaults, 1, 3, quietLogger())

	_, err := svc.Run(context.Background(), SweepRequest{
		Base:        ParameterInput{StandardDeviation: power.Some(1)},
		Design:      "one-sample",
		Outcome:     "continuous",
		Differences: []float64{0.1, 0.2, 0.3, 0.4},
	})
	assert.True(t, core.IsInvalidParameters(err))

	_, err = svc.Run(context.Background(), SweepRequest{
		Base:    ParameterInput{MeanDifference: power.Some(0.1)},
		Design:  "matched",
		Outcome: "dichotomous",
	})
	assert.True(t, core.IsInvalidParameters(err))
}

func TestSweepServiceRejectsOversizedGridBeforeBuildingIt(t *testing.T) {
	svc := NewSweepService(testDefaults, 1, 10000, quietLogger())

	axis := make([]float64, 400)
	for i := range axis {
		axis[i] = 0.1 + float64(i)*0.001
	}
	req := SweepRequest{
		Base:        ParameterInput{StandardDeviation: power.Some(1)},
		Design:      "one-sample",
		Outcome:     "continuous",
		Alphas:      axis,
		Powers:      axis,
		Differences: axis,
	}

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err := svc.Run(context.Background(), req)
	runtime.ReadMemStats(&after)

	require.Error(t, err)
	assert.True(t, core.IsInvalidParameters(err))
	assert.Contains(t, err.Error(), "64000000 cells")
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(1<<20))
}

func TestGridSize(t *testing.T) {
	n, ok := gridSize(3, 4, 5)
	assert.True(t, ok)
	assert.Equal(t, 60, n)

	n, ok = gridSize(0, math.MaxInt)
	assert.True(t, ok)
	assert.Equal(t, 0, n)

	_, ok = gridSize(math.MaxInt/2, 3)
	assert.False(t, ok)
}

func TestSweepServiceRejectsUnrepresentableCell(t *testing.T) {
	svc := NewSweepService(testDefaults, 2, 100, quietLogger())

	_, err := svc.Run(context.Background(), SweepRequest{
		Base:        ParameterInput{StandardDeviation: power.Some(1)},
		Design:      "two-sample",
		Outcome:     "continuous",
		Differences: []float64{0.5, 1e-150},
	})
	assert.True(t, core.IsDomainError(err))
	assert.Contains(t, err.Error(), "exceeds representable range")
}

func TestSweepServiceCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewSweepService(testDefaults, 1, 100, quietLogger())
	_, err := svc.Run(ctx, SweepRequest{
		Base:        ParameterInput{StandardDeviation: power.Some(1)},
		Design:      "one-sample",
		Outcome:     "continuous",
		Differences: []float64{0.1, 0.2},
	})
	assert.ErrorIs(t, err, context.Canceled)
}

type countingRecorder struct {
	plans, planErrors, sweeps, cells int
}

func (r *countingRecorder) ObservePlan(design, outcome string, err error) {
	r.plans++
	if err != nil {
		r.planErrors++
	}
}

func (r *countingRecorder) ObserveSweep(cells int, elapsed time.Duration, err error) {
	r.sweeps++
	r.cells += cells
}

func TestServicesReportToRecorder(t *testing.T) {
	rec := &countingRecorder{}

	plans := NewPlanService(nil, testDefaults, quietLogger()).WithRecorder(rec)
	_, err := plans.Compute(PlanRequest{
		ParameterInput: ParameterInput{MeanDifference: power.Some(1), StandardDeviation: power.Some(2)},
		Design:         "one-sample",
		Outcome:        "continuous",
	})
	require.NoError(t, err)
	_, err = plans.Compute(PlanRequest{Design: "matched", Outcome: "dichotomous"})
	require.Error(t, err)

	sweeps := NewSweepService(testDefaults, 2, 100, quietLogger()).WithRecorder(rec)
	_, err = sweeps.Run(context.Background(), SweepRequest{
		Base:        ParameterInput{StandardDeviation: power.Some(1)},
		Design:      "two-sample",
		Outcome:     "continuous",
		Differences: []float64{0.5, 1, 2},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, rec.plans)
	assert.Equal(t, 1, rec.planErrors)
	assert.Equal(t, 1, rec.sweeps)
	assert.Equal(t, 3, rec.cells)
}
