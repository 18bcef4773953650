package config

import (
	"encoding/csv"
	"fmt"
	"os"
)

// Row is one parameter declaration in the system config CSV.
type Row struct {
	Name, Store, Type, Value, History string
}

// Defaults is the example turbine configuration: a 2.5 m rotor on the kω²
// controller, integrated with AB2 at 10 ms steps against a CSV wind file.
var Defaults = []Row{
	// Simulation timing.
	{"dt_sec", "fixed", "double", "0.01", ""},
	{"dur_sec", "fixed", "double", "30", ""},
	{"control_dt_sec", "fixed", "double", "0.1", ""},
	{"real_time_pacing", "fixed", "int", "0", ""},

	// Stage selectors.
	{"flow_function_call", "fixed", "string", "csv_fixed_interp_flow_gen", ""},
	{"numerical_integrator_function_call", "fixed", "string", "ab2_numerical_integrator", ""},
	{"turbine_control_function_call", "fixed", "string", "example_turbine_control", ""},
	{"eom_function_call", "fixed", "string", "example_turbine_eom", ""},
	{"drivetrain_function_call", "fixed", "string", "example_drivetrain", ""},
	{"flow_sim_model_function_call", "fixed", "string", "example_flow_sim_model", ""},
	{"data_processing_function_call", "fixed", "string", "example_data_processing", ""},

	// Flow source.
	{"flow_gen_file_location_and_or_name", "fixed", "string", "wind.csv", ""},
	{"flow_time_step_dt", "fixed", "double", "0.05", ""},
	{"flow_run_after_end", "fixed", "int", "0", ""},

	// Batch processing and logging.
	{"data_processing_first_run", "fixed", "int", "0", ""},
	{"data_processing_single_run_only", "fixed", "int", "1", ""},
	{"data_processing_results_file", "fixed", "string", "results.csv", ""},
	{"dynamic_val_logging", "fixed", "int", "1", ""},
	{"dynamic_val_log_file", "fixed", "string", "dynamic_vals.csv", ""},
	{"scada_server_command", "fixed", "string", "", ""},
	{"program_name", "fixed", "string", "windsim", ""},

	// Rotor geometry and environment.
	{"R", "fixed", "double", "2.5", ""},
	{"A", "fixed", "double", "10.0", ""},
	{"slowCQ", "fixed", "double", "0.02", ""},
	{"rho", "fixed", "double", "1.225", ""},
	{"gravity_acc_g", "fixed", "double", "9.81", ""},
	{"state_variable_names", "fixed", "string", "theta,omega", ""},

	// Dynamic state.
	{"time_sec", "dynamic", "double", "0", "10"},
	{"theta", "dynamic", "double", "0", ""},
	{"omega", "dynamic", "double", "0.1", "10"},
	{"flow_speed", "dynamic", "double", "0", ""},
	{"flow_total_time", "dynamic", "double", "0", ""},
	{"tau_flow", "dynamic", "double", "0", ""},
	{"tau_flow_extract", "dynamic", "double", "0", ""},
	{"drivetrain_drag", "dynamic", "double", "0", ""},
	{"vfd_torque_command", "dynamic", "double", "0", ""},
	{"moment_of_inertia", "dynamic", "double", "550", ""},
	{"k", "dynamic", "double", "8.0", ""},
	{"enable_brake_signal", "dynamic", "int", "0", ""},
	{"data_processing_status", "dynamic", "int", "0", ""},
	{"total_loop_count", "dynamic", "int", "0", "10"},
	{"parent_pid", "dynamic", "int", "0", ""},
}

// WriteDefault writes the default configuration CSV to path.
func WriteDefault(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: create %q: %w", path, err)
	}
	w := csv.NewWriter(f)
	records := [][]string{{"name", "store", "type", "value", "history"}}
	for _, r := range Defaults {
		records = append(records, []string{r.Name, r.Store, r.Type, r.Value, r.History})
	}
	if err := w.WriteAll(records); err != nil {
		f.Close()
		return fmt.Errorf("config: write %q: %w", path, err)
	}
	return f.Close()
}
