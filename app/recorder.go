package app

import "time"

// Recorder receives service activity for metrics
type Recorder interface {
	ObservePlan(design, outcome string, err error)
	ObserveSweep(cells int, elapsed time.Duration, err error)
}

type noopRecorder struct{}

func (noopRecorder) ObservePlan(string, string, error) {}
func (noopRecorder) ObserveSweep(int, time.Duration, error) {}
