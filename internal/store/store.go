// Package store archives finished runs. Each run gets a directory under the
// base dir holding metadata.json (selectors, timing, summary metrics) and
// states.csv (the continuous per-tick log). List, Load and LoadSeries serve
// the plot and export commands.
package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"windsim/internal/run"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0o755)
}

type RunMetadata struct {
	ID             string             `json:"id"`
	Timestamp      time.Time          `json:"timestamp"`
	EOM            string             `json:"eom"`
	Integrator     string             `json:"integrator"`
	TurbineControl string             `json:"turbine_control"`
	FlowGen        string             `json:"flow_gen"`
	Dt             float64            `json:"dt"`
	Duration       float64            `json:"duration"`
	Metrics        map[string]float64 `json:"metrics"`
}

// summaryParams are the dynamic parameters copied into the metadata metrics
// map when present.
var summaryParams = []string{
	"time_sec", "omega", "theta", "flow_speed", "flow_total_time",
	"tau_flow_extract", "total_loop_count",
}

// Save archives the finished run described by rc. statesPath is the run's
// continuous log; it is copied into the run directory as states.csv. An empty
// statesPath archives metadata only.
func (s *Store) Save(rc *run.Context, statesPath string) (string, error) {
	meta := RunMetadata{
		Timestamp: time.Now(),
		Metrics:   map[string]float64{},
	}

	selectors := []struct {
		param string
		dst   *string
	}{
		{"eom_function_call", &meta.EOM},
		{"numerical_integrator_function_call", &meta.Integrator},
		{"turbine_control_function_call", &meta.TurbineControl},
		{"flow_function_call", &meta.FlowGen},
	}
	for _, sel := range selectors {
		p, err := rc.Fixed.BindString(sel.param)
		if err != nil {
			return "", fmt.Errorf("store: %w", err)
		}
		*sel.dst = *p
	}
	if p, err := rc.Fixed.BindDouble("dt_sec"); err == nil {
		meta.Dt = *p
	}
	if p, err := rc.Fixed.BindDouble("dur_sec"); err == nil {
		meta.Duration = *p
	}
	for _, name := range summaryParams {
		p, err := rc.Dynamic.Get(name)
		if err != nil {
			continue
		}
		meta.Metrics[name] = p.AsFloat()
	}

	meta.ID = fmt.Sprintf("%s_%d", meta.EOM, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()
	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if statesPath != "" {
		if err := copyFile(statesPath, filepath.Join(runDir, "states.csv")); err != nil {
			return "", fmt.Errorf("store: archive states: %w", err)
		}
	}
	return meta.ID, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadTable reads a run's states.csv: the column names and the numeric rows.
// A cell that does not parse fails the whole load.
func (s *Store) LoadTable(runID string) ([]string, [][]float64, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "states.csv"))
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("store: %s: empty states file", runID)
	}

	header := records[0]
	rows := make([][]float64, 0, len(records)-1)
	for i, record := range records[1:] {
		row := make([]float64, len(record))
		for j, cell := range record {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("store: %s: row %d col %q: %w",
					runID, i+1, header[j], err)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

// LoadSeries pulls one named column out of a run's states.csv, paired with
// the simulation time column.
func (s *Store) LoadSeries(runID, column string) (times, values []float64, err error) {
	header, rows, err := s.LoadTable(runID)
	if err != nil {
		return nil, nil, err
	}

	ti, vi := -1, -1
	for i, name := range header {
		switch name {
		case "time_sec":
			ti = i
		case column:
			vi = i
		}
	}
	if ti < 0 {
		return nil, nil, fmt.Errorf("store: %s: no time_sec column", runID)
	}
	if vi < 0 {
		return nil, nil, fmt.Errorf("store: %s: no column %q (have %v)", runID, column, header)
	}

	times = make([]float64, len(rows))
	values = make([]float64, len(rows))
	for i, row := range rows {
		times[i] = row[ti]
		values[i] = row[vi]
	}
	return times, values, nil
}
