package turbine

import (
	"math"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"windsim/internal/csvlog"
	"windsim/internal/run"
	"windsim/internal/sim"
)

// NoopProcessor is the placeholder data-processing stage for runs that only
// simulate. It satisfies the lifecycle contract and does nothing in any phase.
type NoopProcessor struct{}

func (NoopProcessor) Bind(rc *run.Context) error { return nil }

func (NoopProcessor) Step(rc *run.Context) {}

var recorderHeader = []string{
	"finished_epoch", "sim_time_sec", "loops", "mean_omega", "max_omega", "energy_j",
}

// Recorder is the batch data-processing stage: it accumulates run statistics
// during the loop and appends one summary row to a results file shared by
// every worker in the batch.
type Recorder struct {
	status     *int
	omega      *float64
	tauExtract *float64
	timeSec    *float64
	dtSec      *float64
	path       *string

	samples  int
	sumOmega float64
	maxOmega float64
	energy   float64
	done     bool
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Bind(rc *run.Context) error {
	var err error
	if r.status, err = rc.Dynamic.BindInt("data_processing_status"); err != nil {
		return err
	}
	if r.omega, err = rc.Dynamic.BindDouble("omega"); err != nil {
		return err
	}
	if r.tauExtract, err = rc.Dynamic.BindDouble("tau_flow_extract"); err != nil {
		return err
	}
	if r.timeSec, err = rc.Dynamic.BindDouble("time_sec"); err != nil {
		return err
	}
	if r.dtSec, err = rc.Fixed.BindDouble("dt_sec"); err != nil {
		return err
	}
	if r.path, err = rc.Fixed.BindString("data_processing_results_file"); err != nil {
		return err
	}
	return nil
}

func (r *Recorder) Step(rc *run.Context) {
	switch sim.Status(*r.status) {
	case sim.Beginning:
		if err := csvlog.WriteHeader(*r.path, recorderHeader); err != nil {
			rc.Shutdown.Trip("data processing: " + err.Error())
		}

	case sim.Looping:
		w := *r.omega
		r.samples++
		r.sumOmega += w
		r.maxOmega = math.Max(r.maxOmega, w)
		// Extracted power integrated with the left rectangle rule.
		r.energy += *r.tauExtract * w * *r.dtSec

	case sim.Ending:
		if r.done {
			return
		}
		r.done = true
		mean := 0.0
		if r.samples > 0 {
			mean = r.sumOmega / float64(r.samples)
		}
		row := []string{
			strconv.FormatFloat(float64(time.Now().UnixNano())/1e9, 'f', 6, 64),
			strconv.FormatFloat(*r.timeSec, 'f', 6, 64),
			strconv.Itoa(r.samples),
			strconv.FormatFloat(mean, 'f', 6, 64),
			strconv.FormatFloat(r.maxOmega, 'f', 6, 64),
			strconv.FormatFloat(r.energy, 'f', 6, 64),
		}
		if err := csvlog.AppendRow(*r.path, row); err != nil {
			logrus.Errorf("data processing: %v", err)
			return
		}
		logrus.Infof("run summary: %d loops, mean omega %.4f, energy %.2f J",
			r.samples, mean, r.energy)
	}
}
