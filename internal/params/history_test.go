package params

import (
	"errors"
	"testing"
)

func TestHistoryPartialFill(t *testing.T) {
	s := NewStore(1)
	s.SetDouble("omega", 0)
	if err := s.AttachHistory("omega", 5); err != nil {
		t.Fatalf("attach failed: %v", err)
	}

	acc, err := s.History("omega")
	if err != nil {
		t.Fatalf("accessor failed: %v", err)
	}

	omega, _ := s.BindDouble("omega")
	for k := 1; k <= 3; k++ {
		*omega = float64(k)
		s.RecordHistories()
	}

	acc.Refresh()
	if acc.Valid() != 3 {
		t.Fatalf("expected valid count 3, got %d", acc.Valid())
	}
	if acc.Cap() != 5 {
		t.Errorf("expected capacity 5, got %d", acc.Cap())
	}
	for i, want := range []float64{3, 2, 1} {
		if got := acc.Double(i); got != want {
			t.Errorf("slot %d: got %f, want %f", i, got, want)
		}
	}
}

func TestHistoryEviction(t *testing.T) {
	s := NewStore(1)
	s.SetDouble("omega", 0)
	if err := s.AttachHistory("omega", 3); err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	acc, _ := s.History("omega")
	omega, _ := s.BindDouble("omega")

	for k := 1; k <= 7; k++ {
		*omega = float64(k)
		s.RecordHistories()
	}

	acc.Refresh()
	if acc.Valid() != 3 {
		t.Fatalf("expected saturated valid count 3, got %d", acc.Valid())
	}
	for i, want := range []float64{7, 6, 5} {
		if got := acc.Double(i); got != want {
			t.Errorf("slot %d: got %f, want %f", i, got, want)
		}
	}
}

func TestRefreshIsExplicit(t *testing.T) {
	s := NewStore(1)
	s.SetDouble("omega", 0)
	_ = s.AttachHistory("omega", 2)
	acc, _ := s.History("omega")
	omega, _ := s.BindDouble("omega")

	*omega = 1
	s.RecordHistories()
	acc.Refresh()
	if acc.Valid() != 1 || acc.Double(0) != 1 {
		t.Fatalf("first refresh wrong: valid=%d", acc.Valid())
	}

	// Appends after a refresh stay invisible until the next refresh.
	*omega = 2
	s.RecordHistories()
	if acc.Valid() != 1 || acc.Double(0) != 1 {
		t.Error("accessor view changed without Refresh")
	}
	acc.Refresh()
	if acc.Valid() != 2 || acc.Double(0) != 2 || acc.Double(1) != 1 {
		t.Error("second refresh did not pick up the new sample")
	}
}

func TestHistoryIntAndStringKinds(t *testing.T) {
	s := NewStore(2)
	s.SetInt("loop_count", 0)
	s.SetString("label", "")
	_ = s.AttachHistory("loop_count", 2)
	_ = s.AttachHistory("label", 2)

	loops, _ := s.BindInt("loop_count")
	label, _ := s.BindString("label")
	*loops = 41
	*label = "a"
	s.RecordHistories()
	*loops = 42
	*label = "b"
	s.RecordHistories()

	la, _ := s.History("loop_count")
	sa, _ := s.History("label")
	la.Refresh()
	sa.Refresh()
	if la.Int(0) != 42 || la.Int(1) != 41 {
		t.Errorf("int history wrong: %d, %d", la.Int(0), la.Int(1))
	}
	if sa.String(0) != "b" || sa.String(1) != "a" {
		t.Errorf("string history wrong: %q, %q", sa.String(0), sa.String(1))
	}
}

func TestHistoryMissingRing(t *testing.T) {
	s := NewStore(1)
	s.SetDouble("omega", 0)
	if _, err := s.History("omega"); !errors.Is(err, ErrNoHistory) {
		t.Errorf("expected ErrNoHistory, got %v", err)
	}
}
