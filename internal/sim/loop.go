// Package sim drives the simulation: it owns the tick loop, the control
// cadence, the data-processing lifecycle, and the run's bookkeeping.
package sim

import (
	"time"

	"github.com/sirupsen/logrus"

	"windsim/internal/csvlog"
	"windsim/internal/run"
)

// brakeStopOmega is the rotor speed below which an engaged brake pins the
// rotor to a stop.
const brakeStopOmega = 0.5

// Config wires the loop to its surroundings. Logger and Observer are
// optional.
type Config struct {
	Stages   Stages
	Logger   *csvlog.Logger
	Observer func(rc *run.Context)
	// SingleRun keeps a first-run invocation in the loop instead of handing
	// off to batch workers.
	SingleRun bool
}

// Loop is one simulation run from Beginning through Ending.
type Loop struct {
	rc  *run.Context
	sv  *run.StateVector
	cfg Config

	dtSec     *float64
	durSec    *float64
	controlDt *float64
	timeSec   *float64
	omega     *float64
	brake     *int
	status    *int
	firstRun  *int
	loopCount *int

	logEnabled  *int
	realTime    bool
	accumulated float64
}

func New(rc *run.Context, sv *run.StateVector, cfg Config) (*Loop, error) {
	l := &Loop{rc: rc, sv: sv, cfg: cfg}

	var err error
	if l.dtSec, err = rc.Fixed.BindDouble("dt_sec"); err != nil {
		return nil, err
	}
	if l.durSec, err = rc.Fixed.BindDouble("dur_sec"); err != nil {
		return nil, err
	}
	if l.controlDt, err = rc.Fixed.BindDouble("control_dt_sec"); err != nil {
		return nil, err
	}
	if l.firstRun, err = rc.Fixed.BindInt("data_processing_first_run"); err != nil {
		return nil, err
	}
	if l.timeSec, err = rc.Dynamic.BindDouble("time_sec"); err != nil {
		return nil, err
	}
	if l.omega, err = rc.Dynamic.BindDouble("omega"); err != nil {
		return nil, err
	}
	if l.brake, err = rc.Dynamic.BindInt("enable_brake_signal"); err != nil {
		return nil, err
	}
	if l.status, err = rc.Dynamic.BindInt("data_processing_status"); err != nil {
		return nil, err
	}
	if l.loopCount, err = rc.Dynamic.BindInt("total_loop_count"); err != nil {
		return nil, err
	}
	if p, err := rc.Fixed.Get("dynamic_val_logging"); err == nil {
		l.logEnabled = &p.I
	}
	if p, err := rc.Fixed.Get("real_time_pacing"); err == nil {
		l.realTime = p.I > 0
	}
	return l, nil
}

// Run executes the loop until the duration elapses, shutdown trips, or a
// non-single first run hands off to its workers. The data-processing stage is
// called once in Beginning, once per tick in Looping, and once in Ending
// regardless of how the loop exits.
func (l *Loop) Run() {
	rc := l.rc
	started := time.Now()

	*l.status = int(Beginning)
	// The flow stage runs once up front so the series is resident before any
	// worker handoff decisions.
	l.cfg.Stages.Flow(rc)
	l.cfg.Stages.DataProcessing(rc)
	*l.status = int(Looping)

	for *l.timeSec < *l.durSec && !rc.Shutdown.Tripped() &&
		(*l.firstRun == 0 || l.cfg.SingleRun) {
		tickStart := time.Now()

		l.cfg.Stages.Flow(rc)
		l.cfg.Stages.Integrate(rc, l.sv, *l.timeSec, *l.dtSec)

		if *l.brake != 0 && *l.omega < brakeStopOmega {
			*l.omega = 0
		}

		*l.timeSec += *l.dtSec
		*l.loopCount++
		rc.Dynamic.RecordHistories()

		// The control runs on its own cadence. The accumulator keeps the
		// remainder, so cadence drift does not build up over long runs.
		l.accumulated += *l.dtSec
		if l.accumulated >= *l.controlDt {
			l.cfg.Stages.TurbineControl(rc)
			l.accumulated -= *l.controlDt
		}

		l.logTick()
		l.cfg.Stages.DataProcessing(rc)
		if l.cfg.Observer != nil {
			l.cfg.Observer(rc)
		}

		if l.realTime {
			if pause := time.Duration(*l.dtSec*float64(time.Second)) - time.Since(tickStart); pause > 0 {
				time.Sleep(pause)
			}
		}
	}

	*l.status = int(Ending)
	l.cfg.Stages.DataProcessing(rc)

	logrus.Infof("run finished: sim time %.3f s, %d loops, wall %.3f s",
		*l.timeSec, *l.loopCount, time.Since(started).Seconds())
}

func (l *Loop) logTick() {
	if l.cfg.Logger == nil || l.logEnabled == nil || *l.logEnabled <= 0 {
		return
	}
	if err := l.cfg.Logger.Append(l.rc.Dynamic.Row()); err != nil {
		logrus.Errorf("continuous log: %v", err)
	}
}
