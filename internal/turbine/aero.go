// Package turbine holds the example plant: a simplified vertical-axis rotor
// with a quadratic Cp curve, a brake-aware drivetrain, the equations of
// motion, a kω² torque controller, and the batch data-processing stages.
package turbine

import (
	"math"

	"windsim/internal/run"
)

// rotorData is the fixed geometry the aero model caches at bind time.
type rotorData struct {
	radius float64
	area   float64
	slowCq float64
	rho    float64
}

// aeroTorque computes the aerodynamic torque on the rotor. The Cp curve is an
// inverted parabola peaking at tip-speed ratio 3; at standstill or reverse
// rotation the slow-Cq floor supplies the starting torque.
func aeroTorque(omega, u float64, rd rotorData) float64 {
	if u <= 0 {
		return 0
	}
	dynamicPressure := 0.5 * rd.rho * u * u * rd.area * rd.radius
	if omega <= 0 {
		return rd.slowCq * dynamicPressure
	}

	tsr := omega * rd.radius / u
	if tsr < 0 {
		tsr = 0
	}
	cp := -0.1*(tsr-3)*(tsr-3) + 0.5
	cq := cp / tsr
	if math.Abs(cq) < rd.slowCq {
		cq = rd.slowCq
	}
	return cq * dynamicPressure
}

// AeroModel turns the current flow speed and rotor speed into tau_flow.
type AeroModel struct {
	omega     *float64
	flowSpeed *float64
	tauFlow   *float64
	rd        rotorData
}

func NewAeroModel() *AeroModel { return &AeroModel{} }

// Bind resolves the dynamic bindings and caches the rotor geometry; geometry
// changes after bind are not picked up.
func (m *AeroModel) Bind(rc *run.Context) error {
	var err error
	if m.omega, err = rc.Dynamic.BindDouble("omega"); err != nil {
		return err
	}
	if m.flowSpeed, err = rc.Dynamic.BindDouble("flow_speed"); err != nil {
		return err
	}
	if m.tauFlow, err = rc.Dynamic.BindDouble("tau_flow"); err != nil {
		return err
	}

	fixed := []struct {
		name string
		dst  *float64
	}{
		{"R", &m.rd.radius},
		{"A", &m.rd.area},
		{"slowCQ", &m.rd.slowCq},
		{"rho", &m.rd.rho},
	}
	for _, f := range fixed {
		p, err := rc.Fixed.BindDouble(f.name)
		if err != nil {
			return err
		}
		*f.dst = *p
	}
	return nil
}

func (m *AeroModel) Step(rc *run.Context) {
	*m.tauFlow = aeroTorque(*m.omega, *m.flowSpeed, m.rd)
}
