// Package flow supplies the per-tick flow speed from a recorded wind series.
// A producer run reads the source file, precomputes a lookup table on the
// simulation grid, and publishes it over shared memory; sibling worker runs
// attach to the table instead of re-reading the source.
package flow

import "math"

// Series is a uniformly sampled scalar time series.
type Series struct {
	Samples []float64
	Dt      float64
}

func (s *Series) Len() int { return len(s.Samples) }

// TotalTime is the time span the series covers.
func (s *Series) TotalTime() float64 { return float64(len(s.Samples)) * s.Dt }

// Interpolate evaluates the series at time t by linear interpolation between
// neighboring samples. Times before the first sample return the first sample;
// times past the last return the last.
func (s *Series) Interpolate(t float64) float64 {
	n := len(s.Samples)
	if n == 0 {
		return 0
	}
	if t <= 0 {
		return s.Samples[0]
	}
	pos := t / s.Dt
	i := int(math.Floor(pos))
	if i >= n-1 {
		return s.Samples[n-1]
	}
	frac := pos - float64(i)
	return s.Samples[i] + frac*(s.Samples[i+1]-s.Samples[i])
}
