package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"windsim/internal/params"
)

// Scenario is an optional YAML overlay applied on top of the loaded config:
// a flat list of parameter overrides, useful for sweeping a handful of values
// without editing the system CSV.
type Scenario struct {
	Name      string     `yaml:"name"`
	Overrides []Override `yaml:"overrides"`
}

// Override replaces one parameter's value. The YAML value's type must agree
// with the parameter's declared kind.
type Override struct {
	Name  string `yaml:"name"`
	Value any    `yaml:"value"`
}

// LoadScenario parses the overlay file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: scenario %q: %w", path, err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("config: scenario %q: %w", path, err)
	}
	return &sc, nil
}

// Apply writes every override into whichever store declares the parameter
// (dynamic wins when both do). Unknown names and kind mismatches are errors.
func (sc *Scenario) Apply(s *Stores) error {
	for _, o := range sc.Overrides {
		store := s.Dynamic
		p, err := store.Get(o.Name)
		if err != nil {
			store = s.Fixed
			if p, err = store.Get(o.Name); err != nil {
				return fmt.Errorf("config: scenario override %q: %w", o.Name, err)
			}
		}
		if err := applyOverride(store, p, o); err != nil {
			return err
		}
	}
	return nil
}

func applyOverride(store *params.Store, p *params.Param, o Override) error {
	switch p.Kind {
	case params.Int:
		switch v := o.Value.(type) {
		case int:
			store.SetInt(o.Name, v)
		default:
			return fmt.Errorf("config: scenario override %q: want int, got %T", o.Name, o.Value)
		}
	case params.Double:
		switch v := o.Value.(type) {
		case float64:
			store.SetDouble(o.Name, v)
		case int:
			store.SetDouble(o.Name, float64(v))
		default:
			return fmt.Errorf("config: scenario override %q: want double, got %T", o.Name, o.Value)
		}
	case params.String:
		switch v := o.Value.(type) {
		case string:
			store.SetString(o.Name, v)
		default:
			return fmt.Errorf("config: scenario override %q: want string, got %T", o.Name, o.Value)
		}
	}
	return nil
}
