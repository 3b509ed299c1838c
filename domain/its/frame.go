package its

import (
	"context"
	"fmt"
)

// Frame is a model's predictions computed elsewhere, one row per period.
// It serves as both Predictor and Forecaster; alpha and exog are ignored
// because the band was fixed when the frame was produced.
type Frame []Prediction

func (f Frame) Predict(ctx context.Context, start, end int, alpha float64) ([]Prediction, error) {
	if start < 0 || end > len(f) || start > end {
		return nil, fmt.Errorf("frame has %d rows, cannot predict [%d,%d)", len(f), start, end)
	}
	return f[start:end], nil
}

func (f Frame) Forecast(ctx context.Context, steps int, exog [][]float64, alpha float64) ([]Prediction, error) {
	if steps > len(f) {
		return nil, fmt.Errorf("frame has %d rows, cannot forecast %d steps", len(f), steps)
	}
	return f[:steps], nil
}
