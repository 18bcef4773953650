package turbine

import "windsim/internal/run"

// Ballistic is the trivial check problem: a ball thrown straight up, reusing
// the theta/omega state slots for height and vertical speed. Useful for
// validating integrator wiring against a closed-form answer.
type Ballistic struct {
	gravity        *float64
	iTheta, iOmega int
}

func NewBallistic() *Ballistic { return &Ballistic{} }

func (b *Ballistic) Bind(rc *run.Context, sv *run.StateVector) error {
	var err error
	if b.gravity, err = rc.Fixed.BindDouble("gravity_acc_g"); err != nil {
		return err
	}
	if b.iTheta, b.iOmega, err = stateIndices(sv); err != nil {
		return err
	}
	return nil
}

func (b *Ballistic) Derive(rc *run.Context, t float64, state, dx []float64) {
	dx[b.iTheta] = state[b.iOmega]
	dx[b.iOmega] = -*b.gravity
}
