package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"windsim/internal/params"
)

const sampleConfig = `name,store,type,value,history
dt_sec,fixed,double,0.01,
state_variable_names,fixed,string,"theta,omega",
enable_brake_signal,dynamic,int,0,
omega,dynamic,double,0.25,10
time_sec,dynamic,double,0,5
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "system_config.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSplitsStoresAndKinds(t *testing.T) {
	s, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	dt, err := s.Fixed.BindDouble("dt_sec")
	require.NoError(t, err)
	assert.Equal(t, 0.01, *dt)

	names, err := s.Fixed.BindString("state_variable_names")
	require.NoError(t, err)
	assert.Equal(t, "theta,omega", *names)

	brake, err := s.Dynamic.BindInt("enable_brake_signal")
	require.NoError(t, err)
	assert.Equal(t, 0, *brake)

	// Fixed params never land in the dynamic store and vice versa.
	_, err = s.Dynamic.Get("dt_sec")
	assert.ErrorIs(t, err, params.ErrNotFound)
	_, err = s.Fixed.Get("omega")
	assert.ErrorIs(t, err, params.ErrNotFound)
}

func TestLoadAttachesHistories(t *testing.T) {
	s, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	acc, err := s.Dynamic.History("omega")
	require.NoError(t, err)
	assert.Equal(t, 10, acc.Cap())

	// No history column means no ring.
	_, err = s.Dynamic.History("enable_brake_signal")
	assert.ErrorIs(t, err, params.ErrNoHistory)
}

func TestLoadRejectsHistoryOnFixed(t *testing.T) {
	_, err := Load(writeConfig(t, "name,store,type,value,history\ndt_sec,fixed,double,0.01,5\n"))
	assert.Error(t, err)
}

func TestLoadRejectsBadValue(t *testing.T) {
	_, err := Load(writeConfig(t, "name,store,type,value,history\ndt_sec,fixed,double,abc,\n"))
	assert.Error(t, err)
}

func TestUpdateValueRoundTrips(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	require.NoError(t, UpdateDouble(path, "omega", 1.875))

	s, err := Load(path)
	require.NoError(t, err)
	omega, err := s.Dynamic.BindDouble("omega")
	require.NoError(t, err)
	assert.Equal(t, 1.875, *omega)

	// History declarations survive the rewrite.
	acc, err := s.Dynamic.History("omega")
	require.NoError(t, err)
	assert.Equal(t, 10, acc.Cap())
}

func TestUpdateValueUnknownName(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	assert.Error(t, UpdateValue(path, "missing", "1"))
}

func TestDefaultsLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system_config.csv")
	require.NoError(t, WriteDefault(path))

	s, err := Load(path)
	require.NoError(t, err)

	sel, err := s.Fixed.BindString("numerical_integrator_function_call")
	require.NoError(t, err)
	assert.Equal(t, "ab2_numerical_integrator", *sel)

	acc, err := s.Dynamic.History("omega")
	require.NoError(t, err)
	assert.Equal(t, 10, acc.Cap())
}

func TestScenarioOverlay(t *testing.T) {
	s, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	dir := t.TempDir()
	scPath := filepath.Join(dir, "gusty.yaml")
	require.NoError(t, os.WriteFile(scPath, []byte(
		"name: gusty\noverrides:\n  - name: omega\n    value: 0.5\n  - name: dt_sec\n    value: 0.02\n"), 0o644))

	sc, err := LoadScenario(scPath)
	require.NoError(t, err)
	assert.Equal(t, "gusty", sc.Name)
	require.NoError(t, sc.Apply(s))

	omega, _ := s.Dynamic.BindDouble("omega")
	dt, _ := s.Fixed.BindDouble("dt_sec")
	assert.Equal(t, 0.5, *omega)
	assert.Equal(t, 0.02, *dt)
}

func TestScenarioKindMismatch(t *testing.T) {
	s, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	sc := &Scenario{Overrides: []Override{{Name: "enable_brake_signal", Value: "on"}}}
	assert.Error(t, sc.Apply(s))
}

func TestScenarioUnknownName(t *testing.T) {
	s, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	sc := &Scenario{Overrides: []Override{{Name: "nope", Value: 1}}}
	assert.Error(t, sc.Apply(s))
}
