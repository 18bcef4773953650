package turbine

import "windsim/internal/run"

// Drivetrain applies the brake state to the drivetrain drag term. With the
// brake released the drag resets to zero every step; braking leaves whatever
// drag the configuration (or an external controller) set in place.
type Drivetrain struct {
	vfdTorque  *float64
	tauExtract *float64
	omega      *float64
	drag       *float64
	brake      *int
}

func NewDrivetrain() *Drivetrain { return &Drivetrain{} }

func (d *Drivetrain) Bind(rc *run.Context) error {
	var err error
	if d.vfdTorque, err = rc.Dynamic.BindDouble("vfd_torque_command"); err != nil {
		return err
	}
	if d.tauExtract, err = rc.Dynamic.BindDouble("tau_flow_extract"); err != nil {
		return err
	}
	if d.omega, err = rc.Dynamic.BindDouble("omega"); err != nil {
		return err
	}
	if d.drag, err = rc.Dynamic.BindDouble("drivetrain_drag"); err != nil {
		return err
	}
	if d.brake, err = rc.Dynamic.BindInt("enable_brake_signal"); err != nil {
		return err
	}
	return nil
}

func (d *Drivetrain) Step(rc *run.Context) {
	if *d.brake == 0 {
		*d.drag = 0
	}
}

// DemandedTorque is what the drivetrain asks the generator for; the external
// controller adapter reports it back over the swap interface.
func (d *Drivetrain) DemandedTorque() float64 { return *d.tauExtract }
