package turbine

import (
	"math"
	"testing"

	"windsim/internal/params"
	"windsim/internal/run"
)

func newPlantContext(t *testing.T) *run.Context {
	t.Helper()
	dyn := params.NewStore(16)
	dyn.SetDouble("omega", 0)
	dyn.SetDouble("theta", 0)
	dyn.SetDouble("flow_speed", 0)
	dyn.SetDouble("tau_flow", 0)
	dyn.SetDouble("tau_flow_extract", 0)
	dyn.SetDouble("drivetrain_drag", 0)
	dyn.SetDouble("vfd_torque_command", 0)
	dyn.SetDouble("moment_of_inertia", 100)
	dyn.SetDouble("time_sec", 0)
	dyn.SetDouble("k", 2.0)
	dyn.SetInt("enable_brake_signal", 0)
	dyn.SetInt("total_loop_count", 0)

	fixed := params.NewStore(8)
	fixed.SetDouble("R", 2.0)
	fixed.SetDouble("A", 10.0)
	fixed.SetDouble("slowCQ", 0.02)
	fixed.SetDouble("rho", 1.25)
	fixed.SetDouble("gravity_acc_g", 9.81)
	fixed.SetString("state_variable_names", "theta,omega")
	return run.NewContext(dyn, fixed)
}

func plantStateVector(t *testing.T, rc *run.Context) *run.StateVector {
	t.Helper()
	sv, err := run.BuildStateVector(rc)
	if err != nil {
		t.Fatalf("state vector: %v", err)
	}
	return sv
}

func TestAeroTorqueEdgeCases(t *testing.T) {
	rd := rotorData{radius: 2.0, area: 10.0, slowCq: 0.02, rho: 1.25}

	if got := aeroTorque(5, 0, rd); got != 0 {
		t.Errorf("no wind must mean no torque, got %f", got)
	}
	if got := aeroTorque(5, -1, rd); got != 0 {
		t.Errorf("negative wind must mean no torque, got %f", got)
	}

	// Standstill: slow-Cq floor times dynamic pressure.
	q := 0.5 * 1.25 * 8 * 8 * 10.0 * 2.0
	if got, want := aeroTorque(0, 8, rd), 0.02*q; math.Abs(got-want) > 1e-9 {
		t.Errorf("standstill torque = %f, want %f", got, want)
	}
	if got, want := aeroTorque(-3, 8, rd), 0.02*q; math.Abs(got-want) > 1e-9 {
		t.Errorf("reverse rotation torque = %f, want %f", got, want)
	}
}

func TestAeroTorqueCpCurve(t *testing.T) {
	rd := rotorData{radius: 2.0, area: 10.0, slowCq: 0.02, rho: 1.25}

	// omega=12, u=8 puts the rotor at TSR 3, the Cp peak.
	q := 0.5 * 1.25 * 8 * 8 * 10.0 * 2.0
	want := (0.5 / 3.0) * q
	if got := aeroTorque(12, 8, rd); math.Abs(got-want) > 1e-9 {
		t.Errorf("peak-TSR torque = %f, want %f", got, want)
	}

	// Far above the peak Cp goes negative; |Cq| is above the floor, so the
	// raw braking torque comes through.
	got := aeroTorque(48, 8, rd) // TSR 12: cq ≈ -0.63
	cq := (-0.1*(12-3)*(12-3) + 0.5) / 12.0
	if math.Abs(got-cq*q) > 1e-9 {
		t.Errorf("high-TSR torque = %f, want %f", got, cq*q)
	}
}

func TestAeroModelStep(t *testing.T) {
	rc := newPlantContext(t)
	m := NewAeroModel()
	if err := m.Bind(rc); err != nil {
		t.Fatalf("bind: %v", err)
	}

	omega, _ := rc.Dynamic.BindDouble("omega")
	wind, _ := rc.Dynamic.BindDouble("flow_speed")
	tau, _ := rc.Dynamic.BindDouble("tau_flow")

	*omega = 12
	*wind = 8
	m.Step(rc)
	want := (0.5 / 3.0) * 0.5 * 1.25 * 64 * 10.0 * 2.0
	if math.Abs(*tau-want) > 1e-9 {
		t.Errorf("tau_flow = %f, want %f", *tau, want)
	}
}

func TestDrivetrainClearsDragWhenBrakeOff(t *testing.T) {
	rc := newPlantContext(t)
	d := NewDrivetrain()
	if err := d.Bind(rc); err != nil {
		t.Fatalf("bind: %v", err)
	}

	drag, _ := rc.Dynamic.BindDouble("drivetrain_drag")
	brake, _ := rc.Dynamic.BindInt("enable_brake_signal")

	*drag = 450
	*brake = 1
	d.Step(rc)
	if *drag != 450 {
		t.Errorf("braking must leave drag alone, got %f", *drag)
	}

	*brake = 0
	d.Step(rc)
	if *drag != 0 {
		t.Errorf("brake release must clear drag, got %f", *drag)
	}
}

func TestEOMTorqueBalance(t *testing.T) {
	rc := newPlantContext(t)
	sv := plantStateVector(t, rc)

	aero := NewAeroModel()
	if err := aero.Bind(rc); err != nil {
		t.Fatalf("aero: %v", err)
	}
	drive := NewDrivetrain()
	if err := drive.Bind(rc); err != nil {
		t.Fatalf("drivetrain: %v", err)
	}
	e := NewEOM(aero, drive)
	if err := e.Bind(rc, sv); err != nil {
		t.Fatalf("eom: %v", err)
	}

	wind, _ := rc.Dynamic.BindDouble("flow_speed")
	extract, _ := rc.Dynamic.BindDouble("tau_flow_extract")
	omega, _ := rc.Dynamic.BindDouble("omega")
	*wind = 8
	*extract = 50
	*omega = 12

	state := []float64{0.5, 12} // theta, omega
	dx := make([]float64, 2)
	e.Derive(rc, 0, state, dx)

	if dx[0] != 12 {
		t.Errorf("theta' = %f, want omega 12", dx[0])
	}
	tauFlow := (0.5 / 3.0) * 0.5 * 1.25 * 64 * 10.0 * 2.0
	want := (tauFlow - 50 - 0) / 100.0
	if math.Abs(dx[1]-want) > 1e-9 {
		t.Errorf("omega' = %f, want %f", dx[1], want)
	}
}

func TestEOMRequiresStateNames(t *testing.T) {
	rc := newPlantContext(t)
	rc.Fixed.SetString("state_variable_names", "height,speed")
	rc.Dynamic.SetDouble("height", 0)
	rc.Dynamic.SetDouble("speed", 0)
	sv := plantStateVector(t, rc)

	e := NewEOM(NewAeroModel(), NewDrivetrain())
	if err := e.Bind(rc, sv); err == nil {
		t.Error("bind succeeded without theta/omega state variables")
	}
}

func TestBallisticDerive(t *testing.T) {
	rc := newPlantContext(t)
	sv := plantStateVector(t, rc)

	b := NewBallistic()
	if err := b.Bind(rc, sv); err != nil {
		t.Fatalf("bind: %v", err)
	}

	dx := make([]float64, 2)
	b.Derive(rc, 0, []float64{100, 5}, dx)
	if dx[0] != 5 {
		t.Errorf("height' = %f, want 5", dx[0])
	}
	if dx[1] != -9.81 {
		t.Errorf("speed' = %f, want -9.81", dx[1])
	}
}

func TestControllerUsesOmegaHistory(t *testing.T) {
	rc := newPlantContext(t)
	for _, name := range []string{"omega", "time_sec", "total_loop_count"} {
		if err := rc.Dynamic.AttachHistory(name, 10); err != nil {
			t.Fatalf("attach %s: %v", name, err)
		}
	}

	c := NewController()
	if err := c.Bind(rc); err != nil {
		t.Fatalf("bind: %v", err)
	}

	extract, _ := rc.Dynamic.BindDouble("tau_flow_extract")
	omega, _ := rc.Dynamic.BindDouble("omega")

	// No recorded history yet: the controller must leave the torque alone.
	*extract = 7
	c.Step(rc)
	if *extract != 7 {
		t.Errorf("controller acted on empty history: %f", *extract)
	}

	*omega = 3
	rc.Dynamic.RecordHistories()
	// A later live change must not leak in; the law uses the recorded value.
	*omega = 100
	c.Step(rc)
	if *extract != 2.0*3*3 {
		t.Errorf("tau_flow_extract = %f, want 18", *extract)
	}
}

func TestDirectController(t *testing.T) {
	rc := newPlantContext(t)
	c := NewDirectController()
	if err := c.Bind(rc); err != nil {
		t.Fatalf("bind: %v", err)
	}

	omega, _ := rc.Dynamic.BindDouble("omega")
	extract, _ := rc.Dynamic.BindDouble("tau_flow_extract")
	*omega = 4
	c.Step(rc)
	if *extract != 2.0*16 {
		t.Errorf("tau_flow_extract = %f, want 32", *extract)
	}
}
