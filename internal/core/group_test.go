package core

import "testing"

func intPtr(i int) *int { return &i }

func TestWouldCycle(t *testing.T) {
	// Tree: 1 -> (2 -> (4), 3)   [id -> parent]
	parents := map[int]*int{
		1: nil,
		2: intPtr(1),
		3: intPtr(1),
		4: intPtr(2),
	}

	tests := []struct {
		name      string
		groupID   int
		newParent int
		want      bool
	}{
		{"reparent under sibling", 2, 3, false},
		{"reparent under root", 4, 1, false},
		{"direct child as parent", 1, 2, true},
		{"grandchild as parent", 1, 4, true},
		{"child under its own child", 2, 4, true},
		{"unrelated leaf", 3, 4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wouldCycle(parents, tt.groupID, tt.newParent); got != tt.want {
				t.Errorf("wouldCycle(%d under %d) = %v, want %v", tt.groupID, tt.newParent, got, tt.want)
			}
		})
	}
}

// A corrupt tree with an existing cycle must not hang the walk.
func TestWouldCycle_CorruptTreeTerminates(t *testing.T) {
	parents := map[int]*int{
		1: intPtr(2),
		2: intPtr(1),
	}
	// Group 3 is not part of the cycle; the walk must stop at the depth guard.
	if wouldCycle(parents, 3, 1) {
		t.Error("expected no cycle detected for group outside the corrupt loop")
	}
}
