// Package bladed adapts the simulation kernel to the Bladed/DISCON external
// controller convention: a flat float32 swap array carries measurements in
// and demands out, indexed by fixed record numbers. Only the records the
// kernel actually touches are named here.
package bladed

import (
	"windsim/internal/run"
	"windsim/internal/sim"
)

// Swap record indices, per the Bladed controller interface.
const (
	RecStatus                  = 0  // simulation status flag
	RecCurrentTime             = 1  // current time (s)
	RecCommunicationInterval   = 2  // communication interval (s)
	RecMeasuredRotorSpeed      = 20 // measured rotor speed (rad/s)
	RecHubWindSpeed            = 26 // hub wind speed (m/s)
	RecShaftBrakeStatus        = 35 // 0 = off, 1 = brake 1 on
	RecDemandedGeneratorTorque = 46 // demanded generator torque (Nm)
)

// SwapSize is the smallest array that covers the records above.
const SwapSize = 64

// Swap is the shared float32 buffer. Values cross the boundary as float32;
// the kernel works in float64 internally.
type Swap []float32

func NewSwap() Swap { return make(Swap, SwapSize) }

func (s Swap) Get(rec int) float64 { return float64(s[rec]) }

func (s Swap) Set(rec int, v float64) { s[rec] = float32(v) }

// Adapter runs the control side of the kernel against an external simulator's
// clock. The host calls Step once per communication interval; the adapter
// mirrors the measurements into the dynamic store, runs the turbine control
// on its configured cadence, always runs the drivetrain, and reports the
// demanded generator torque back.
type Adapter struct {
	control    sim.StageFunc
	drivetrain sim.StageFunc

	omega      *float64
	tauExtract *float64
	timeSec    *float64
	dtSec      *float64
	controlDt  *float64

	accumulated float64
	synced      bool
}

func NewAdapter(control, drivetrain sim.StageFunc) *Adapter {
	return &Adapter{control: control, drivetrain: drivetrain}
}

func (a *Adapter) Bind(rc *run.Context) error {
	var err error
	if a.omega, err = rc.Dynamic.BindDouble("omega"); err != nil {
		return err
	}
	if a.tauExtract, err = rc.Dynamic.BindDouble("tau_flow_extract"); err != nil {
		return err
	}
	if a.timeSec, err = rc.Dynamic.BindDouble("time_sec"); err != nil {
		return err
	}
	if a.dtSec, err = rc.Fixed.BindDouble("dt_sec"); err != nil {
		return err
	}
	if a.controlDt, err = rc.Fixed.BindDouble("control_dt_sec"); err != nil {
		return err
	}
	return nil
}

// Step processes one communication interval. It reports false once shutdown
// has tripped, telling the host to stop calling.
func (a *Adapter) Step(rc *run.Context, swap Swap) bool {
	if !a.synced {
		// The host's communication interval overrides the configured step so
		// the cadence accumulator counts real exchanges.
		*a.dtSec = swap.Get(RecCommunicationInterval)
		a.synced = true
	}

	*a.timeSec = swap.Get(RecCurrentTime)
	*a.omega = swap.Get(RecMeasuredRotorSpeed)
	rc.Dynamic.RecordHistories()

	a.accumulated += *a.dtSec
	if a.accumulated >= *a.controlDt {
		a.control(rc)
		a.accumulated -= *a.controlDt
	}

	a.drivetrain(rc)
	swap.Set(RecDemandedGeneratorTorque, *a.tauExtract)

	return !rc.Shutdown.Tripped()
}
