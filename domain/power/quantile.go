package power

import (
	"gonum.org/v1/gonum/stat/distuv"
)

// QuantileProvider returns the standard-normal quantile for a probability in (0,1)
type QuantileProvider interface {
	NormalQuantile(p float64) float64
}

// QuantileFunc adapts a plain function to QuantileProvider
type QuantileFunc func(p float64) float64

func (f QuantileFunc) NormalQuantile(p float64) float64 {
	return f(p)
}

// GonumQuantile is the default provider backed by gonum's unit normal distribution
type GonumQuantile struct{}

// NormalQuantile computes the inverse CDF of the standard normal
func (GonumQuantile) NormalQuantile(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}

// NormalCDF computes the CDF of the standard normal
func NormalCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}
