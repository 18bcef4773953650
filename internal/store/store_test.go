package store

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"windsim/internal/params"
	"windsim/internal/run"
)

func newArchiveContext(t *testing.T) *run.Context {
	t.Helper()
	fixed := params.NewStore(8)
	fixed.SetString("eom_function_call", "example_turbine_eom")
	fixed.SetString("numerical_integrator_function_call", "ab2_numerical_integrator")
	fixed.SetString("turbine_control_function_call", "example_turbine_control")
	fixed.SetString("flow_function_call", "csv_fixed_interp_flow_gen")
	fixed.SetDouble("dt_sec", 0.01)
	fixed.SetDouble("dur_sec", 30)

	dyn := params.NewStore(8)
	dyn.SetDouble("time_sec", 30.0)
	dyn.SetDouble("omega", 12.5)
	dyn.SetInt("total_loop_count", 3000)
	return run.NewContext(dyn, fixed)
}

func writeStatesFile(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "continuous.csv")
	content := strings.Join([]string{
		"epoch_time,time_sec,omega,theta",
		"1000.5,0.01,6.0,0.06",
		"1000.6,0.02,6.1,0.12",
		"1000.7,0.03,6.2,0.18",
	}, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write states: %v", err)
	}
	return path
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	rc := newArchiveContext(t)
	states := writeStatesFile(t, t.TempDir())

	runID, err := st.Save(rc, states)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(runID, "example_turbine_eom_") {
		t.Errorf("run id %q not derived from the eom selector", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if meta.Integrator != "ab2_numerical_integrator" {
		t.Errorf("integrator = %q", meta.Integrator)
	}
	if meta.Dt != 0.01 || meta.Duration != 30 {
		t.Errorf("timing = %f/%f", meta.Dt, meta.Duration)
	}
	if meta.Metrics["omega"] != 12.5 {
		t.Errorf("omega metric = %f", meta.Metrics["omega"])
	}
	if meta.Metrics["total_loop_count"] != 3000 {
		t.Errorf("loop count metric = %f", meta.Metrics["total_loop_count"])
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	if _, err := st.Save(newArchiveContext(t), ""); err != nil {
		t.Fatalf("save: %v", err)
	}
	runs, err = st.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}

func TestLoadSeries(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	runID, err := st.Save(newArchiveContext(t), writeStatesFile(t, t.TempDir()))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	times, omegas, err := st.LoadSeries(runID, "omega")
	if err != nil {
		t.Fatalf("load series: %v", err)
	}
	if len(times) != 3 || len(omegas) != 3 {
		t.Fatalf("got %d/%d samples", len(times), len(omegas))
	}
	if times[0] != 0.01 || omegas[2] != 6.2 {
		t.Errorf("series = %v %v", times, omegas)
	}

	if _, _, err := st.LoadSeries(runID, "no_such_column"); err == nil {
		t.Error("missing column did not fail")
	}
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	runID, err := st.Save(newArchiveContext(t), writeStatesFile(t, t.TempDir()))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	var buf bytes.Buffer
	if err := ExportJSON(&buf, st, runID); err != nil {
		t.Fatalf("export: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if data.Steps != 3 {
		t.Errorf("steps = %d", data.Steps)
	}
	if len(data.Columns) != 4 || data.Columns[1] != "time_sec" {
		t.Errorf("columns = %v", data.Columns)
	}
	if data.Rows[1][2] != 6.1 {
		t.Errorf("rows = %v", data.Rows)
	}
	if data.Meta.EOM != "example_turbine_eom" {
		t.Errorf("meta eom = %q", data.Meta.EOM)
	}
}
