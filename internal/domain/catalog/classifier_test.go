package catalog

import (
	"testing"
)

func TestGroupOf(t *testing.T) {
	tests := []struct {
		code string
		want Group
	}{
		{"01", GroupFood},
		{"02", GroupFood},
		{"03", GroupFood},
		{"04", GroupPerishable},
		{"05", GroupPerishable},
		{"10", GroupAlcohol},
		{"11", GroupAlcohol},
		{"20", GroupTobacco},
		{"99", GroupGeneral},
		{"", GroupGeneral},
		{"unknown", GroupGeneral},
	}

	for _, tt := range tests {
		if got := GroupOf(tt.code); got != tt.want {
			t.Errorf("GroupOf(%q) = %s, want %s", tt.code, got, tt.want)
		}
	}
}

func TestGroupOf_TotalFunction(t *testing.T) {
	// Every code resolves to a valid group, never an empty value
	codes := []string{"00", "01", "50", "ZZ", "123", ""}
	for _, code := range codes {
		if g := GroupOf(code); !g.Valid() {
			t.Errorf("GroupOf(%q) returned invalid group %q", code, g)
		}
	}
}

func TestGroup_Index(t *testing.T) {
	for i, g := range Groups {
		if g.Index() != i {
			t.Errorf("Group %s index = %d, want %d", g, g.Index(), i)
		}
	}

	// Unknown groups share the general slot
	if Group("bogus").Index() != GroupGeneral.Index() {
		t.Errorf("unknown group should map to the general index")
	}
}
