package session

import (
	"testing"

	"github.com/coopermor/hive/internal/proto"
)

func TestClassifyWindow(t *testing.T) {
	cases := []struct {
		name        string
		windowID    proto.WindowID
		hint        string
		dynamic     any
		slots       int
		wantForeign bool
	}{
		{"canonical inventory size", 0, "", nil, 36, false},
		{"36 slots beats a chest hint", 7, "chest", nil, 36, false},
		{"36 slots beats a dynamic id", 7, "", float64(912), 36, false},
		{"chest hint", 4, "chest", nil, 27, true},
		{"dispenser hint", 4, "dispenser", nil, 9, true},
		{"inventory alias is not foreign by hint", 0, "inventory", nil, 0, false},
		{"hotbar alias", 0, "hotbar", nil, 0, false},
		{"hotbar_and_inventory alias", 0, "hotbar_and_inventory", nil, 0, false},
		{"offhand alias", 119, "offhand", nil, 1, true}, // rule 4 still fires on the odd size
		{"dynamic id present", 9, "", float64(31), 0, true},
		{"dynamic id as int", 9, "", 31, 0, true},
		{"small chest size", 5, "", nil, 9, true},
		{"double chest size", 5, "", nil, 54, true},
		{"hopper size", 5, "", nil, 45, true},
		{"no signal at all", 5, "", nil, 0, false},
		{"non-numeric dynamic hint carries no signal", 5, "", "abc", 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifyWindow(tc.windowID, tc.hint, tc.dynamic, tc.slots)
			if got.ForeignUI != tc.wantForeign {
				t.Errorf("ClassifyWindow(%d, %q, %v, %d).ForeignUI = %v (rule %q), want %v",
					tc.windowID, tc.hint, tc.dynamic, tc.slots, got.ForeignUI, got.Rule, tc.wantForeign)
			}
		})
	}
}

// The 36-slot rule is an invariant, not a heuristic default: no combination
// of other hints may override it.
func TestClassifyCanonicalSizeInvariant(t *testing.T) {
	hints := []string{"", "chest", "furnace", "inventory"}
	dynamics := []any{nil, float64(1), 42}
	for _, hint := range hints {
		for _, dyn := range dynamics {
			if got := ClassifyWindow(3, hint, dyn, 36); got.ForeignUI {
				t.Errorf("36-slot snapshot classified foreign with hint=%q dynamic=%v", hint, dyn)
			}
		}
	}
}
