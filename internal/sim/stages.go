package sim

import "windsim/internal/run"

// Status is the data-processing lifecycle phase, published to the dynamic
// store as data_processing_status so processors can tell setup and teardown
// apart from the steady loop.
type Status int

const (
	Beginning Status = iota
	Looping
	Ending
)

func (s Status) String() string {
	switch s {
	case Beginning:
		return "beginning"
	case Looping:
		return "looping"
	case Ending:
		return "ending"
	}
	return "unknown"
}

// StageFunc is the common per-tick stage call.
type StageFunc func(rc *run.Context)

// IntegrateFunc advances the state vector by one step of the active method.
type IntegrateFunc func(rc *run.Context, sv *run.StateVector, t, dt float64)

// Stages collects the resolved stage implementations the loop drives. Every
// field must be non-nil by the time Run starts; the dispatch layer installs
// shutdown-tripping fallbacks for unresolved selectors.
type Stages struct {
	Flow           StageFunc
	Integrate      IntegrateFunc
	TurbineControl StageFunc
	DataProcessing StageFunc
}
