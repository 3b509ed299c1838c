package power

import (
	"math"

	"gopower/domain/core"
)

// SizeFunc converts z-scores and an effect size into a sample size
type SizeFunc func(zAlpha, zPower, effectSize float64) (float64, error)

// OneSampleSize returns ((zAlpha + zPower) / effectSize)^2.
// The result is not rounded.
func OneSampleSize(zAlpha, zPower, effectSize float64) (float64, error) {
	if err := checkEffectSize(effectSize); err != nil {
		return 0, err
	}
	ratio := (zAlpha + zPower) / effectSize
	return finiteSize(ratio * ratio)
}

// TwoSampleSize returns 2 * ((zAlpha + zPower) / effectSize)^2, the size of each group.
func TwoSampleSize(zAlpha, zPower, effectSize float64) (float64, error) {
	n, err := OneSampleSize(zAlpha, zPower, effectSize)
	if err != nil {
		return 0, err
	}
	return finiteSize(2 * n)
}

func checkEffectSize(effectSize float64) error {
	if effectSize == 0 || math.IsNaN(effectSize) {
		return core.NewDomainError("effect size is undefined when means are equal or baseline proportion variance is zero")
	}
	if math.IsInf(effectSize, 0) {
		return core.NewDomainError("effect size must be finite")
	}
	return nil
}

func finiteSize(n float64) (float64, error) {
	if math.IsInf(n, 0) || math.IsNaN(n) {
		return 0, core.NewDomainError("sample size is not finite; effect size is too small")
	}
	return n, nil
}
