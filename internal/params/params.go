package params

import "fmt"

// Kind identifies the value type carried by a Param.
type Kind int

const (
	Int Kind = iota
	Double
	String
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Double:
		return "double"
	case String:
		return "string"
	}
	return "unknown"
}

// Param is a named, typed scalar. Only the field matching Kind is meaningful.
// Params are allocated individually so their addresses stay stable for the
// lifetime of the owning Store; collaborators bind a pointer once and keep it.
type Param struct {
	Name string
	Kind Kind
	I    int
	D    float64
	S    string
}

// AsFloat widens the numeric value to float64. Strings yield 0.
func (p *Param) AsFloat() float64 {
	switch p.Kind {
	case Int:
		return float64(p.I)
	case Double:
		return p.D
	}
	return 0
}

// Store is a name-keyed parameter table. Two instances exist per run: the
// dynamic store (simulation state, mutated every tick) and the fixed store
// (configuration, populated once at startup). Names are unique per store and
// lookup by name is the only addressing mechanism.
type Store struct {
	params []*Param
	index  map[string]*Param
	rings  []*ring
}

func NewStore(capacityHint int) *Store {
	return &Store{
		params: make([]*Param, 0, capacityHint),
		index:  make(map[string]*Param, capacityHint),
	}
}

// Get resolves a parameter by name. Callers are expected to resolve once and
// keep the returned pointer; repeated lookups on the hot path defeat the
// design.
func (s *Store) Get(name string) (*Param, error) {
	p, ok := s.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return p, nil
}

func (s *Store) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

func (s *Store) Len() int { return len(s.params) }

// Names returns parameter names in insertion order.
func (s *Store) Names() []string {
	names := make([]string, len(s.params))
	for i, p := range s.params {
		names[i] = p.Name
	}
	return names
}

func (s *Store) upsert(name string, kind Kind) *Param {
	if p, ok := s.index[name]; ok {
		p.Kind = kind
		return p
	}
	p := &Param{Name: name, Kind: kind}
	s.params = append(s.params, p)
	s.index[name] = p
	return p
}

func (s *Store) SetInt(name string, v int) {
	s.upsert(name, Int).I = v
}

func (s *Store) SetDouble(name string, v float64) {
	s.upsert(name, Double).D = v
}

func (s *Store) SetString(name, v string) {
	s.upsert(name, String).S = v
}

// BindDouble returns a pointer to the stored float64 value. The pointer stays
// valid for the Store's lifetime, so stages resolve it once at activation and
// dereference it on every tick thereafter.
func (s *Store) BindDouble(name string) (*float64, error) {
	p, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	if p.Kind != Double {
		return nil, fmt.Errorf("%w: %q is %s, want double", ErrKindMismatch, name, p.Kind)
	}
	return &p.D, nil
}

func (s *Store) BindInt(name string) (*int, error) {
	p, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	if p.Kind != Int {
		return nil, fmt.Errorf("%w: %q is %s, want int", ErrKindMismatch, name, p.Kind)
	}
	return &p.I, nil
}

func (s *Store) BindString(name string) (*string, error) {
	p, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	if p.Kind != String {
		return nil, fmt.Errorf("%w: %q is %s, want string", ErrKindMismatch, name, p.Kind)
	}
	return &p.S, nil
}

// Columns returns the CSV header cells for a snapshot row, in insertion order.
func (s *Store) Columns() []string { return s.Names() }

// Row formats the current parameter values for one CSV data row.
func (s *Store) Row() []string {
	row := make([]string, len(s.params))
	for i, p := range s.params {
		switch p.Kind {
		case Int:
			row[i] = fmt.Sprintf("%d", p.I)
		case Double:
			row[i] = fmt.Sprintf("%.10f", p.D)
		case String:
			row[i] = p.S
		}
	}
	return row
}
