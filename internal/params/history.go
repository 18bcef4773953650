package params

import "fmt"

// ring is a bounded record of the most recent values of one parameter. The
// Store owns ring storage; accessors are non-owning views.
type ring struct {
	param *Param
	buf   []Param
	next  int
	count int
}

func (r *ring) capacity() int { return len(r.buf) }

func (r *ring) append() {
	r.buf[r.next] = *r.param
	r.next = (r.next + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

// AttachHistory creates a history ring of the given capacity for a dynamic
// parameter. At most one ring per name; attaching again replaces the ring.
func (s *Store) AttachHistory(name string, capacity int) error {
	p, err := s.Get(name)
	if err != nil {
		return err
	}
	if capacity <= 0 {
		return fmt.Errorf("params: history capacity for %q must be positive, got %d", name, capacity)
	}
	for i, r := range s.rings {
		if r.param == p {
			s.rings[i] = &ring{param: p, buf: make([]Param, capacity)}
			return nil
		}
	}
	s.rings = append(s.rings, &ring{param: p, buf: make([]Param, capacity)})
	return nil
}

// RecordHistories appends the current value of every ringed parameter. Called
// by the control loop's bookkeeping once per tick; nothing else appends.
func (s *Store) RecordHistories() {
	for _, r := range s.rings {
		r.append()
	}
}

// History returns a new accessor bound to the ring attached to name. The
// accessor's local view is empty until the first Refresh.
func (s *Store) History(name string) (*HistoryAccessor, error) {
	p, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	for _, r := range s.rings {
		if r.param == p {
			return &HistoryAccessor{ring: r, local: make([]Param, r.capacity())}, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNoHistory, name)
}

// HistoryAccessor is a non-owning view over one history ring. Refresh copies
// the ring's current contents into the local view most-recent-first; it does
// not itself append samples.
type HistoryAccessor struct {
	ring  *ring
	local []Param
	valid int
}

func (a *HistoryAccessor) Refresh() {
	r := a.ring
	a.valid = r.count
	for i := 0; i < r.count; i++ {
		idx := (r.next - 1 - i + len(r.buf)) % len(r.buf)
		a.local[i] = r.buf[idx]
	}
}

// Valid reports how many slots of the local view hold captured values. Less
// than Cap until the ring has wrapped once; consumers must handle the short
// prefix explicitly.
func (a *HistoryAccessor) Valid() int { return a.valid }

func (a *HistoryAccessor) Cap() int { return a.ring.capacity() }

// Double returns the i-th most recent captured value (0 = newest).
func (a *HistoryAccessor) Double(i int) float64 { return a.local[i].D }

func (a *HistoryAccessor) Int(i int) int { return a.local[i].I }

func (a *HistoryAccessor) String(i int) string { return a.local[i].S }
