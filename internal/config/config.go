// Package config loads the system configuration CSV into the two parameter
// stores and writes single values back so they survive into worker processes.
// Each row is name,store,type,value,history: store picks the dynamic or fixed
// store, type is int/double/string, and a nonzero history attaches a ring of
// that capacity to a dynamic parameter.
package config

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"windsim/internal/params"
)

// Stores is the loaded configuration.
type Stores struct {
	Dynamic *params.Store
	Fixed   *params.Store
}

func parseKind(s string) (params.Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "int":
		return params.Int, nil
	case "double":
		return params.Double, nil
	case "string":
		return params.String, nil
	}
	return 0, fmt.Errorf("config: unknown type %q", s)
}

// Load reads the system config CSV at path and populates fresh stores.
func Load(path string) (*Stores, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 5
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("config: %q holds no parameter rows", path)
	}

	s := &Stores{
		Dynamic: params.NewStore(len(rows)),
		Fixed:   params.NewStore(len(rows)),
	}
	for i, row := range rows[1:] {
		line := i + 2
		name := strings.TrimSpace(row[0])
		if name == "" {
			return nil, fmt.Errorf("config: %q line %d: empty name", path, line)
		}

		var store *params.Store
		switch strings.ToLower(strings.TrimSpace(row[1])) {
		case "dynamic":
			store = s.Dynamic
		case "fixed":
			store = s.Fixed
		default:
			return nil, fmt.Errorf("config: %q line %d: unknown store %q", path, line, row[1])
		}

		kind, err := parseKind(row[2])
		if err != nil {
			return nil, fmt.Errorf("config: %q line %d: %w", path, line, err)
		}
		if err := setTyped(store, name, kind, strings.TrimSpace(row[3])); err != nil {
			return nil, fmt.Errorf("config: %q line %d: %w", path, line, err)
		}

		if hist := strings.TrimSpace(row[4]); hist != "" && hist != "0" {
			capacity, err := strconv.Atoi(hist)
			if err != nil {
				return nil, fmt.Errorf("config: %q line %d: bad history %q", path, line, hist)
			}
			if store != s.Dynamic {
				return nil, fmt.Errorf("config: %q line %d: history on fixed parameter %q", path, line, name)
			}
			if err := s.Dynamic.AttachHistory(name, capacity); err != nil {
				return nil, fmt.Errorf("config: %q line %d: %w", path, line, err)
			}
		}
	}
	return s, nil
}

func setTyped(store *params.Store, name string, kind params.Kind, value string) error {
	switch kind {
	case params.Int:
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parameter %q: %w", name, err)
		}
		store.SetInt(name, v)
	case params.Double:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("parameter %q: %w", name, err)
		}
		store.SetDouble(name, v)
	case params.String:
		store.SetString(name, value)
	}
	return nil
}

// UpdateValue rewrites one parameter's value cell in the config CSV so later
// processes loading the same file observe it. The write goes through a temp
// file and rename.
func UpdateValue(path, name, value string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: open %q: %w", path, err)
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = 5
	rows, err := r.ReadAll()
	f.Close()
	if err != nil {
		return fmt.Errorf("config: parse %q: %w", path, err)
	}

	found := false
	for _, row := range rows[1:] {
		if strings.TrimSpace(row[0]) == name {
			row[3] = value
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("config: %q has no parameter %q", path, name)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*")
	if err != nil {
		return fmt.Errorf("config: temp for %q: %w", path, err)
	}
	w := csv.NewWriter(tmp)
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("config: write %q: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("config: close temp for %q: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("config: replace %q: %w", path, err)
	}
	return nil
}

// UpdateDouble is UpdateValue for float parameters, formatted to round-trip.
func UpdateDouble(path, name string, v float64) error {
	return UpdateValue(path, name, strconv.FormatFloat(v, 'g', 17, 64))
}

// UpdateInt is UpdateValue for int parameters.
func UpdateInt(path, name string, v int) error {
	return UpdateValue(path, name, strconv.Itoa(v))
}
