package turbine

import (
	"fmt"

	"windsim/internal/run"
)

// EOM is the rotor equation of motion: θ' = ω and ω' = (τ_flow − τ_extract −
// drag)/I. Each derivative evaluation refreshes the aero torque and the
// drivetrain drag first, so the torque balance always reflects the trial
// state the integrator staged.
type EOM struct {
	aero  *AeroModel
	drive *Drivetrain

	inertia    *float64
	tauFlow    *float64
	tauExtract *float64
	drag       *float64

	iTheta, iOmega int
}

func NewEOM(aero *AeroModel, drive *Drivetrain) *EOM {
	return &EOM{aero: aero, drive: drive}
}

func stateIndices(sv *run.StateVector) (iTheta, iOmega int, err error) {
	iTheta = sv.Index("theta")
	iOmega = sv.Index("omega")
	if iTheta < 0 || iOmega < 0 {
		return 0, 0, fmt.Errorf("turbine: state variables theta and omega required, have %v", sv.Names)
	}
	return iTheta, iOmega, nil
}

func (e *EOM) Bind(rc *run.Context, sv *run.StateVector) error {
	var err error
	if e.inertia, err = rc.Dynamic.BindDouble("moment_of_inertia"); err != nil {
		return err
	}
	if e.tauFlow, err = rc.Dynamic.BindDouble("tau_flow"); err != nil {
		return err
	}
	if e.tauExtract, err = rc.Dynamic.BindDouble("tau_flow_extract"); err != nil {
		return err
	}
	if e.drag, err = rc.Dynamic.BindDouble("drivetrain_drag"); err != nil {
		return err
	}
	if e.iTheta, e.iOmega, err = stateIndices(sv); err != nil {
		return err
	}
	return nil
}

// Derive is the integrator's right-hand side.
func (e *EOM) Derive(rc *run.Context, t float64, state, dx []float64) {
	e.aero.Step(rc)
	e.drive.Step(rc)

	dx[e.iTheta] = state[e.iOmega]
	dx[e.iOmega] = (*e.tauFlow - *e.tauExtract - *e.drag) / *e.inertia
}
