package run

import (
	"strings"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"windsim/internal/params"
)

// Shutdown is the single cancellation signal for a run. It is monotonic: once
// tripped it never clears, and only the first trip's reason and exit code are
// kept. Every stage checks it at entry and the control loop checks it after
// every stage call.
type Shutdown struct {
	tripped atomic.Bool
	code    atomic.Int32
	reason  atomic.Value
}

// Trip sets the shutdown signal with a nonzero process exit code.
func (s *Shutdown) Trip(reason string) {
	if s.tripped.CompareAndSwap(false, true) {
		s.code.Store(1)
		s.reason.Store(reason)
		logrus.Errorf("shutdown: %s", reason)
	}
}

func (s *Shutdown) Tripped() bool { return s.tripped.Load() }

// ExitCode is 0 unless the run was tripped.
func (s *Shutdown) ExitCode() int { return int(s.code.Load()) }

func (s *Shutdown) Reason() string {
	if r, ok := s.reason.Load().(string); ok {
		return r
	}
	return ""
}

// Args carries the invoking program's identity through to the data-processing
// stage, which may fork sibling workers with the same arguments.
type Args struct {
	Program string
	Argv    []string
}

// Context is the run-scoped state threaded through every stage: the two
// parameter stores, the shutdown token, and program arguments.
type Context struct {
	Dynamic  *params.Store
	Fixed    *params.Store
	Shutdown *Shutdown
	Args     Args
}

func NewContext(dynamic, fixed *params.Store) *Context {
	return &Context{
		Dynamic:  dynamic,
		Fixed:    fixed,
		Shutdown: &Shutdown{},
	}
}

// StateVector is the set of integrated state variables: direct bindings into
// the dynamic store plus parallel names for diagnostics. Built once before the
// loop starts; integrators mutate the bound values in place.
type StateVector struct {
	Vars  []*float64
	Names []string
}

// BuildStateVector binds the comma-separated names listed in the fixed
// parameter state_variable_names against the dynamic store.
func BuildStateVector(rc *Context) (*StateVector, error) {
	list, err := rc.Fixed.BindString("state_variable_names")
	if err != nil {
		return nil, err
	}
	sv := &StateVector{}
	for _, name := range strings.Split(*list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		ptr, err := rc.Dynamic.BindDouble(name)
		if err != nil {
			return nil, err
		}
		sv.Vars = append(sv.Vars, ptr)
		sv.Names = append(sv.Names, name)
	}
	return sv, nil
}

func (sv *StateVector) Len() int { return len(sv.Vars) }

// Index returns the position of a named state variable, or -1.
func (sv *StateVector) Index(name string) int {
	for i, n := range sv.Names {
		if n == name {
			return i
		}
	}
	return -1
}
