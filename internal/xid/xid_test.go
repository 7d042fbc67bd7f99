package xid

import (
	"strings"
	"testing"
)

func TestNewKeepsPrefixAndIsUnique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := New(PrefixSale)
		if !strings.HasPrefix(id, "sale-") {
			t.Fatalf("expected sale- prefix, got %s", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id generated: %s", id)
		}
		seen[id] = struct{}{}
	}
}
