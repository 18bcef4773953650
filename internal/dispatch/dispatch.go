// Package dispatch resolves the configured selector for every pluggable role
// and binds the chosen implementations into a runnable kernel. Resolution is
// all-or-nothing: any unknown selector or failed binding trips shutdown, and
// the affected stage is left as a tripping fallback so it can never run
// silently.
package dispatch

import (
	"fmt"

	"windsim/internal/flow"
	"windsim/internal/integrators"
	"windsim/internal/run"
	"windsim/internal/sim"
	"windsim/internal/stage"
	"windsim/internal/turbine"
)

// factory binds one implementation and returns its callable form.
type factory[F any] func() (F, error)

// Kernel is the fully resolved stage set plus the resources that need
// explicit teardown.
type Kernel struct {
	Stages    sim.Stages
	flowCache *flow.Cache
}

// Close releases the flow cache; the producer side also destroys the shared
// table.
func (k *Kernel) Close() error {
	if k.flowCache == nil {
		return nil
	}
	return k.flowCache.Close()
}

// resolve reads the selector parameter, dispatches it against the role's
// table, and runs the winning factory. Any failure trips shutdown.
func resolve[F any](rc *run.Context, b *stage.Binding[factory[F]], selectorParam string) (F, bool) {
	var zero F
	sel, err := rc.Fixed.BindString(selectorParam)
	if err != nil {
		rc.Shutdown.Trip(fmt.Sprintf("dispatch: %s: %v", selectorParam, err))
		return zero, false
	}
	if !b.Dispatch(rc, *sel) {
		rc.Shutdown.Trip(fmt.Sprintf("dispatch: no %s implementation %q", b.Role(), *sel))
		return zero, false
	}
	impl, err := b.Fn()()
	if err != nil {
		rc.Shutdown.Trip(fmt.Sprintf("dispatch: bind %s %q: %v", b.Role(), *sel, err))
		return zero, false
	}
	return impl, true
}

func entry[F any](name string, fn factory[F]) stage.Entry[factory[F]] {
	return stage.Entry[factory[F]]{Name: name, Fn: fn}
}

func failedFactory[F any](role string) factory[F] {
	var zero F
	return func() (F, error) {
		return zero, fmt.Errorf("%s never resolved", role)
	}
}

// trippingStage is installed for any role whose resolution failed.
func trippingStage(role string) sim.StageFunc {
	return func(rc *run.Context) {
		rc.Shutdown.Trip(role + " stage invoked without an implementation")
	}
}

// Build resolves all seven selectors against the fixed store. persist is
// handed to the flow producer so flow_total_time reaches worker processes.
// The returned ok is false if anything failed; the kernel is still safe to
// run and tear down, every unresolved stage trips shutdown on entry.
func Build(rc *run.Context, sv *run.StateVector, persist func(name string, value float64) error) (*Kernel, bool) {
	k := &Kernel{Stages: sim.Stages{
		Flow:           trippingStage("flow"),
		TurbineControl: trippingStage("turbine control"),
		DataProcessing: trippingStage("data processing"),
		Integrate: func(rc *run.Context, sv *run.StateVector, t, dt float64) {
			rc.Shutdown.Trip("integrator stage invoked without an implementation")
		},
	}}

	aero := turbine.NewAeroModel()
	drive := turbine.NewDrivetrain()

	aeroB := stage.New("flow_sim_model", failedFactory[sim.StageFunc]("flow_sim_model"),
		entry("example_flow_sim_model", func() (sim.StageFunc, error) {
			if err := aero.Bind(rc); err != nil {
				return nil, err
			}
			return aero.Step, nil
		}),
	)
	if _, ok := resolve(rc, aeroB, "flow_sim_model_function_call"); !ok {
		return k, false
	}

	driveB := stage.New("drivetrain", failedFactory[sim.StageFunc]("drivetrain"),
		entry("example_drivetrain", func() (sim.StageFunc, error) {
			if err := drive.Bind(rc); err != nil {
				return nil, err
			}
			return drive.Step, nil
		}),
	)
	if _, ok := resolve(rc, driveB, "drivetrain_function_call"); !ok {
		return k, false
	}

	eomB := stage.New("eom", failedFactory[integrators.Derivative]("eom"),
		entry("example_turbine_eom", func() (integrators.Derivative, error) {
			e := turbine.NewEOM(aero, drive)
			if err := e.Bind(rc, sv); err != nil {
				return nil, err
			}
			return e.Derive, nil
		}),
		entry("eom_simple_ball_thrown_in_air", func() (integrators.Derivative, error) {
			b := turbine.NewBallistic()
			if err := b.Bind(rc, sv); err != nil {
				return nil, err
			}
			return b.Derive, nil
		}),
	)
	derive, ok := resolve(rc, eomB, "eom_function_call")
	if !ok {
		return k, false
	}

	igEntry := func(name string, ig integrators.Integrator) stage.Entry[factory[sim.IntegrateFunc]] {
		return entry(name, func() (sim.IntegrateFunc, error) {
			if sv.Len() == 0 {
				return nil, fmt.Errorf("no state variables bound")
			}
			return func(rc *run.Context, sv *run.StateVector, t, dt float64) {
				ig.Step(rc, sv, derive, t, dt)
			}, nil
		})
	}
	igB := stage.New("numerical_integrator", failedFactory[sim.IntegrateFunc]("numerical_integrator"),
		igEntry("euler_numerical_integrator", integrators.NewEuler()),
		igEntry("rk4_numerical_integrator", integrators.NewRK4()),
		igEntry("ab2_numerical_integrator", integrators.NewAB2()),
	)
	integrate, ok := resolve(rc, igB, "numerical_integrator_function_call")
	if !ok {
		return k, false
	}
	k.Stages.Integrate = integrate

	flowEntry := func(name string, src flow.Source) stage.Entry[factory[sim.StageFunc]] {
		return entry(name, func() (sim.StageFunc, error) {
			c := flow.NewCache(src)
			if err := c.Bind(rc, persist); err != nil {
				return nil, err
			}
			k.flowCache = c
			return c.Step, nil
		})
	}
	flowB := stage.New("flow_gen", failedFactory[sim.StageFunc]("flow_gen"),
		flowEntry("csv_fixed_interp_flow_gen", flow.CSVSource),
		flowEntry("bts_fixed_interp_flow_gen", flow.BTSSource),
	)
	flowStep, ok := resolve(rc, flowB, "flow_function_call")
	if !ok {
		return k, false
	}
	k.Stages.Flow = flowStep

	ctlB := stage.New("turbine_control", failedFactory[sim.StageFunc]("turbine_control"),
		entry("example_turbine_control", func() (sim.StageFunc, error) {
			c := turbine.NewController()
			if err := c.Bind(rc); err != nil {
				return nil, err
			}
			return c.Step, nil
		}),
		entry("kw2_turbine_control", func() (sim.StageFunc, error) {
			c := turbine.NewDirectController()
			if err := c.Bind(rc); err != nil {
				return nil, err
			}
			return c.Step, nil
		}),
	)
	control, ok := resolve(rc, ctlB, "turbine_control_function_call")
	if !ok {
		return k, false
	}
	k.Stages.TurbineControl = control

	dpB := stage.New("data_processing", failedFactory[sim.StageFunc]("data_processing"),
		entry("example_data_processing", func() (sim.StageFunc, error) {
			var p turbine.NoopProcessor
			if err := p.Bind(rc); err != nil {
				return nil, err
			}
			return p.Step, nil
		}),
		entry("batch_results_data_processing", func() (sim.StageFunc, error) {
			r := turbine.NewRecorder()
			if err := r.Bind(rc); err != nil {
				return nil, err
			}
			return r.Step, nil
		}),
	)
	dp, ok := resolve(rc, dpB, "data_processing_function_call")
	if !ok {
		return k, false
	}
	k.Stages.DataProcessing = dp

	return k, true
}
