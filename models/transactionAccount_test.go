package models

import "testing"

// in-memory parent lookup for the chain walk
func mapLookup(parents map[int]int) func(id int) (int, error) {
	return func(id int) (int, error) {
		return parents[id], nil
	}
}

func TestParentChainContains(t *testing.T) {
	// 1 <- 2 <- 3 <- 4, 5 is a separate root
	parents := map[int]int{2: 1, 3: 2, 4: 3}

	cases := []struct {
		start  int
		target int
		want   bool
	}{
		{4, 1, true},
		{4, 3, true},
		{4, 4, true},
		{3, 4, false},
		{1, 2, false},
		{5, 1, false},
	}
	for _, tc := range cases {
		got, err := parentChainContains(mapLookup(parents), tc.start, tc.target, len(parents)+2)
		if err != nil {
			t.Fatalf("parentChainContains(%d, %d) error: %v", tc.start, tc.target, err)
		}
		if got != tc.want {
			t.Errorf("parentChainContains(%d, %d) = %v, want %v", tc.start, tc.target, got, tc.want)
		}
	}
}

func TestParentChainContains_BoundedOnCorruptLoop(t *testing.T) {
	// stored data already loops: 1 <-> 2
	parents := map[int]int{1: 2, 2: 1}
	got, err := parentChainContains(mapLookup(parents), 1, 99, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got {
		t.Fatal("target 99 is not on the chain")
	}
}
