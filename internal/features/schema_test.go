package features

import (
	"testing"
)

func TestSchemaHash_Stable(t *testing.T) {
	if SchemaHash() != SchemaHash() {
		t.Error("schema hash must be deterministic")
	}
	if len(SchemaHash()) != 16 {
		t.Errorf("schema hash should be a 16-char hex fingerprint, got %q", SchemaHash())
	}
}

func TestSchemaHash_ChangesWithFeatureList(t *testing.T) {
	base := hashNames([]string{"a", "b", "c"})

	if hashNames([]string{"a", "b", "c"}) != base {
		t.Error("same name list must hash identically")
	}
	if hashNames([]string{"a", "b"}) == base {
		t.Error("removing a feature must change the hash")
	}
	if hashNames([]string{"a", "b", "c", "d"}) == base {
		t.Error("adding a feature must change the hash")
	}
	if hashNames([]string{"a", "c", "b"}) == base {
		t.Error("reordering features must change the hash")
	}
}

func TestNames_NoDuplicates(t *testing.T) {
	seen := make(map[string]struct{}, len(Names))
	for _, name := range Names {
		if _, ok := seen[name]; ok {
			t.Errorf("duplicate feature name %q", name)
		}
		seen[name] = struct{}{}
	}
}
