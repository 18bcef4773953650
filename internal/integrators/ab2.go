package integrators

import "windsim/internal/run"

// AB2 is the two-step Adams-Bashforth method. It carries the previous step's
// derivative between calls, so a single instance must serve one run from start
// to finish; the first step, which has no predecessor, is taken with Heun's
// method and primes the carried derivative.
type AB2 struct {
	x, k, prev scratchVec
	trial      scratchVec
	primed     bool
}

func NewAB2() *AB2 { return &AB2{} }

func (a *AB2) Name() string { return "adams_bashforth_2" }

func (a *AB2) Step(rc *run.Context, sv *run.StateVector, f Derivative, t, dt float64) {
	n := sv.Len()
	if len(a.prev) != n {
		a.primed = false
	}
	a.x.ensure(n)
	a.k.ensure(n)
	a.prev.ensure(n)
	a.trial.ensure(n)

	gather(sv, a.x)
	f(rc, t, a.x, a.k)

	if !a.primed {
		// Heun warm-up: predict with Euler, correct with the trapezoid rule.
		// The predictor-point derivative seeds the carried slot. The predictor
		// state stays off the bindings; only the corrected state is published.
		for i := 0; i < n; i++ {
			a.trial[i] = a.x[i] + dt*a.k[i]
		}
		f(rc, t+dt, a.trial, a.prev)
		for i := 0; i < n; i++ {
			a.x[i] += dt * 0.5 * (a.k[i] + a.prev[i])
		}
		a.primed = true
		scatter(sv, a.x)
		return
	}

	for i := 0; i < n; i++ {
		a.x[i] += dt * 0.5 * (3.0*a.k[i] - a.prev[i])
	}
	copy(a.prev, a.k)
	scatter(sv, a.x)
}
