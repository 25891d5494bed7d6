package context

import "testing"

func TestEstimatorHeuristicCount(t *testing.T) {
	e := &Estimator{}

	if got := e.Count(""); got != 0 {
		t.Errorf("expected 0 tokens for empty text, got %d", got)
	}
	if got := e.Count("abcd"); got != 1 {
		t.Errorf("expected 1 token for 4 bytes, got %d", got)
	}
	if got := e.Count("abcde"); got != 2 {
		t.Errorf("expected rounding up, got %d", got)
	}
}

func TestClampBudget(t *testing.T) {
	e := &Estimator{}

	// Configured max fits.
	if got := e.ClampBudget(1000, 8192, 1024); got != 1024 {
		t.Errorf("expected 1024, got %d", got)
	}
	// Window nearly exhausted.
	if got := e.ClampBudget(8000, 8192, 1024); got != 192 {
		t.Errorf("expected 192, got %d", got)
	}
	// Prompt exceeds window entirely: the budget floors at a small positive
	// value so the inference request always carries an explicit limit.
	if got := e.ClampBudget(9000, 8192, 1024); got != minBudget {
		t.Errorf("expected floor of %d, got %d", minBudget, got)
	}
	// Window exactly full: same floor applies.
	if got := e.ClampBudget(8192, 8192, 1024); got != minBudget {
		t.Errorf("expected floor of %d, got %d", minBudget, got)
	}
	// No window configured.
	if got := e.ClampBudget(9000, 0, 1024); got != 1024 {
		t.Errorf("expected configured max with no window, got %d", got)
	}
}
