// Package stage binds runtime-selected implementations to pluggable algorithm
// roles. Each role owns one Binding; exactly one implementation is active at a
// time, resolved once from a configuration selector before the control loop
// starts. A role whose selector never resolved runs a fallback that trips the
// shutdown token, so the simulation can never silently run an unconfigured
// algorithm.
package stage

import (
	"strings"

	"github.com/sirupsen/logrus"

	"windsim/internal/run"
)

// Entry pairs a selector name with an implementation.
type Entry[F any] struct {
	Name string
	Fn   F
}

// Binding is the per-role registry. F is the role's call signature.
type Binding[F any] struct {
	role     string
	table    []Entry[F]
	active   F
	fallback F
	bound    bool
}

// New creates a role binding. fallback is installed as the active
// implementation until a Dispatch succeeds; by convention it trips shutdown.
func New[F any](role string, fallback F, entries ...Entry[F]) *Binding[F] {
	return &Binding[F]{
		role:     role,
		table:    entries,
		active:   fallback,
		fallback: fallback,
	}
}

// Dispatch resolves selector against the entry table by exact name (linear
// search, matching configuration order). On failure it leaves the fallback
// active, logs every valid selector once, and reports false; the caller is
// expected to trip shutdown.
func (b *Binding[F]) Dispatch(rc *run.Context, selector string) bool {
	for _, e := range b.table {
		if e.Name == selector {
			b.active = e.Fn
			b.bound = true
			return true
		}
	}
	logrus.Errorf("unknown %s selector %q", b.role, selector)
	logrus.Errorf("valid %s selectors: %s", b.role, strings.Join(b.Names(), ", "))
	return false
}

// Fn returns the active implementation. Before a successful Dispatch this is
// the fallback.
func (b *Binding[F]) Fn() F { return b.active }

func (b *Binding[F]) Bound() bool { return b.bound }

func (b *Binding[F]) Role() string { return b.role }

func (b *Binding[F]) Names() []string {
	names := make([]string, len(b.table))
	for i, e := range b.table {
		names[i] = e.Name
	}
	return names
}
