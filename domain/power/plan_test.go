package power

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopower/domain/core"
)

func TestPlanRecordsRoundedSizes(t *testing.T) {
	e, err := NewEngine(continuousParams(0, 0.5, 1))
	require.NoError(t, err)

	plan, err := e.Plan("checkout button", DesignTwoSample, OutcomeContinuous)
	require.NoError(t, err)

	assert.False(t, plan.ID == "")
	assert.Equal(t, "checkout button", plan.Name)
	assert.InDelta(t, 62.79, plan.SampleSize, 0.01)
	assert.Equal(t, 63, plan.PerGroup)
	assert.Equal(t, 2, plan.Groups)
	assert.Equal(t, 126, plan.Total)
	assert.InDelta(t, 0.5, plan.EffectSize, 1e-12)
	assert.False(t, plan.Fingerprint.IsEmpty())
}

func TestPlanFingerprintIsStable(t *testing.T) {
	e, err := NewEngine(continuousParams(0, 0.5, 1))
	require.NoError(t, err)

	a, err := e.Plan("a", DesignOneSample, OutcomeContinuous)
	require.NoError(t, err)
	b, err := e.Plan("b", DesignOneSample, OutcomeContinuous)
	require.NoError(t, err)
	c, err := e.Plan("c", DesignMatched, OutcomeContinuous)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.Fingerprint, b.Fingerprint)
	assert.NotEqual(t, a.Fingerprint, c.Fingerprint)
}

func TestRoundUp(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{-3, 0},
		{4, 4},
		{4.0000000000001, 4},
		{4.01, 5},
		{MaxSampleSize, MaxSampleSize},
	}
	for _, tt := range tests {
		got, err := RoundUp(tt.in)
		require.NoError(t, err, "RoundUp(%v)", tt.in)
		assert.Equal(t, tt.want, got, "RoundUp(%v)", tt.in)
	}

	for _, n := range []float64{MaxSampleSize + 1, 1.57e301, math.Inf(1), math.NaN()} {
		_, err := RoundUp(n)
		assert.True(t, core.IsDomainError(err), "RoundUp(%v) = %v", n, err)
	}
}

func TestSizesRejectsTotalsOutOfRange(t *testing.T) {
	perGroup, total, err := Sizes(62.79, 2)
	require.NoError(t, err)
	assert.Equal(t, 63, perGroup)
	assert.Equal(t, 126, total)

	_, _, err = Sizes(MaxSampleSize/2+1, 2)
	assert.True(t, core.IsDomainError(err))
}

func TestPlanRejectsUnrepresentableSize(t *testing.T) {
	e, err := NewEngine(continuousParams(0, 1e-150, 1))
	require.NoError(t, err)

	n, err := e.TwoSampleContinuous()
	require.NoError(t, err)
	assert.Greater(t, n, 1e300)

	plan, err := e.Plan("tiny effect", DesignTwoSample, OutcomeContinuous)
	assert.Nil(t, plan)
	assert.True(t, core.IsDomainError(err))
}

func TestOptionalJSON(t *testing.T) {
	var p TestParameters
	require.NoError(t, json.Unmarshal([]byte(`{"baseline_mean":0.1,"target_mean":null,"alpha":0.05,"power":0.8}`), &p))

	v, ok := p.BaselineMean.Get()
	assert.True(t, ok)
	assert.Equal(t, 0.1, v)
	assert.False(t, p.TargetMean.IsSet())
	assert.False(t, p.MeanDifference.IsSet())

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"baseline_mean":0.1,"target_mean":null,"mean_difference":null,"standard_deviation":null,"alpha":0.05,"power":0.8}`, string(out))

	assert.Equal(t, 3.0, None().OrElse(3))
	assert.Equal(t, "none", None().String())
}
