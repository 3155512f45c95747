package utilities

import "testing"

func TestContains(t *testing.T) {
	if !Contains([]int{1, 2, 3}, 2) {
		t.Fatal("expected 2 to be found")
	}
	if Contains([]int{1, 2, 3}, 4) {
		t.Fatal("expected 4 to be absent")
	}
	if Contains([]int{}, 1) {
		t.Fatal("expected empty slice to contain nothing")
	}
}

func TestToPtr(t *testing.T) {
	p := ToPtr(42)
	if p == nil || *p != 42 {
		t.Fatal("expected pointer to 42")
	}

	s := "guild"
	sp := ToPtr(s)
	if sp == &s {
		t.Fatal("expected ToPtr to return a pointer to a copy, not the original variable")
	}
	if *sp != s {
		t.Fatal("expected dereferenced copy to equal original value")
	}
}
