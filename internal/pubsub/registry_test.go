package pubsub

import "testing"

func TestRegistryOrder(t *testing.T) {
	r := NewRegistry()
	r.Add("a/#", nil)
	r.Add("b/+", nil)
	r.Add("a/#", nil) // duplicates allowed

	if r.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", r.Len())
	}

	want := []string{"a/#", "b/+", "a/#"}
	got := r.Patterns()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Patterns()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRegistryAcceptsInvalidWildcardPlacement(t *testing.T) {
	r := NewRegistry()
	// A non-final `#` is not rejected at registration; it simply never
	// matches at dispatch time.
	r.Add("a/#/b", nil)
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}
