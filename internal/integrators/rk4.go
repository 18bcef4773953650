package integrators

import "windsim/internal/run"

// RK4 is the classical fourth-order Runge-Kutta method. Four derivative
// evaluations per step.
type RK4 struct {
	x, k1, k2, k3, k4 scratchVec
	trial             scratchVec
}

func NewRK4() *RK4 { return &RK4{} }

func (r *RK4) Name() string { return "runge_kutta_4" }

func (r *RK4) Step(rc *run.Context, sv *run.StateVector, f Derivative, t, dt float64) {
	n := sv.Len()
	r.x.ensure(n)
	r.k1.ensure(n)
	r.k2.ensure(n)
	r.k3.ensure(n)
	r.k4.ensure(n)
	r.trial.ensure(n)

	gather(sv, r.x)

	f(rc, t, r.x, r.k1)

	// Each trial state is rebuilt from x_n and written through the bindings,
	// so stages that read state from the store see the trial values.
	for i := 0; i < n; i++ {
		r.trial[i] = r.x[i] + dt*0.5*r.k1[i]
	}
	scatter(sv, r.trial)
	f(rc, t+dt*0.5, r.trial, r.k2)

	for i := 0; i < n; i++ {
		r.trial[i] = r.x[i] + dt*0.5*r.k2[i]
	}
	scatter(sv, r.trial)
	f(rc, t+dt*0.5, r.trial, r.k3)

	for i := 0; i < n; i++ {
		r.trial[i] = r.x[i] + dt*r.k3[i]
	}
	scatter(sv, r.trial)
	f(rc, t+dt, r.trial, r.k4)

	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		r.x[i] += dt6 * (r.k1[i] + 2*r.k2[i] + 2*r.k3[i] + r.k4[i])
	}
	scatter(sv, r.x)
}
