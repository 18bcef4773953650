// Package integrators advances the bound state variables of a run by one time
// step. Each integrator owns its scratch storage and reuses it across steps;
// a mid-run change of state dimension reallocates the scratch.
package integrators

import "windsim/internal/run"

// Derivative evaluates the equations of motion: given the trial state values
// it fills deriv with d(state)/dt at time t. Implementations read everything
// except the integrated variables straight from the run context's stores.
type Derivative func(rc *run.Context, t float64, state, deriv []float64)

// Integrator advances the state vector in place through its bindings.
type Integrator interface {
	Name() string
	Step(rc *run.Context, sv *run.StateVector, f Derivative, t, dt float64)
}

func gather(sv *run.StateVector, dst []float64) {
	for i, p := range sv.Vars {
		dst[i] = *p
	}
}

func scatter(sv *run.StateVector, src []float64) {
	for i, p := range sv.Vars {
		*p = src[i]
	}
}

// Euler is the first-order forward method. One derivative evaluation per step.
type Euler struct {
	x, k scratchVec
}

func NewEuler() *Euler { return &Euler{} }

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Step(rc *run.Context, sv *run.StateVector, f Derivative, t, dt float64) {
	n := sv.Len()
	e.x.ensure(n)
	e.k.ensure(n)

	gather(sv, e.x)
	f(rc, t, e.x, e.k)
	for i := 0; i < n; i++ {
		e.x[i] += dt * e.k[i]
	}
	scatter(sv, e.x)
}

type scratchVec []float64

func (s *scratchVec) ensure(n int) {
	if len(*s) != n {
		*s = make([]float64, n)
	}
}
