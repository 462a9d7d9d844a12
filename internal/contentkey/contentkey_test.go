package contentkey

import (
	"strings"
	"testing"
)

func baseKey() string {
	return Make("tpl-1", "m_abc", "Jane@Example.com", map[string]string{
		"address": "12 Main St",
		"city":    "Springfield",
		"price":   "250000",
	})
}

func TestMake_Deterministic(t *testing.T) {
	a := baseKey()
	for i := 0; i < 50; i++ {
		if b := baseKey(); b != a {
			t.Fatalf("key changed between calls: %q vs %q", a, b)
		}
	}
}

func TestMake_Format(t *testing.T) {
	k := baseKey()
	if !strings.HasPrefix(k, "k_") {
		t.Fatalf("key %q missing prefix", k)
	}
	if len(k) != 2+22 {
		t.Fatalf("key %q has length %d, want 24", k, len(k))
	}
}

func TestMake_EmailNormalized(t *testing.T) {
	a := Make("t", "m", "  JANE@EXAMPLE.COM ", map[string]string{"x": "1"})
	b := Make("t", "m", "jane@example.com", map[string]string{"x": "1"})
	if a != b {
		t.Fatalf("email normalization broken: %q vs %q", a, b)
	}
}

func TestMake_ValueTrimmed(t *testing.T) {
	a := Make("t", "m", "a@b.co", map[string]string{"x": " 1 "})
	b := Make("t", "m", "a@b.co", map[string]string{"x": "1"})
	if a != b {
		t.Fatalf("value trimming broken: %q vs %q", a, b)
	}
}

func TestMake_Sensitivity(t *testing.T) {
	base := baseKey()
	mut := []string{
		Make("tpl-2", "m_abc", "jane@example.com", map[string]string{"address": "12 Main St", "city": "Springfield", "price": "250000"}),
		Make("tpl-1", "m_xyz", "jane@example.com", map[string]string{"address": "12 Main St", "city": "Springfield", "price": "250000"}),
		Make("tpl-1", "m_abc", "john@example.com", map[string]string{"address": "12 Main St", "city": "Springfield", "price": "250000"}),
		Make("tpl-1", "m_abc", "jane@example.com", map[string]string{"address": "13 Main St", "city": "Springfield", "price": "250000"}),
		Make("tpl-1", "m_abc", "jane@example.com", map[string]string{"address": "12 Main St", "city": "Shelbyville", "price": "250000"}),
		Make("tpl-1", "m_abc", "jane@example.com", map[string]string{"address": "12 Main St", "city": "Springfield", "price": "250001"}),
		Make("tpl-1", "m_abc", "jane@example.com", map[string]string{"address": "12 Main St", "city": "Springfield"}),
	}
	seen := map[string]bool{base: true}
	for i, k := range mut {
		if seen[k] {
			t.Fatalf("mutation %d did not change the key (%q)", i, k)
		}
		seen[k] = true
	}
}

func TestMake_OrderIndependent(t *testing.T) {
	// Maps iterate in random order; many runs catch order dependence.
	want := baseKey()
	for i := 0; i < 100; i++ {
		if got := baseKey(); got != want {
			t.Fatalf("iteration-order dependence detected")
		}
	}
}

func TestMappingVersion(t *testing.T) {
	a := MappingVersion(map[string]string{"address": "A", "city": "B"})
	b := MappingVersion(map[string]string{"city": "b", "address": "a"})
	if a != b {
		t.Fatalf("mapping version should ignore order and letter case: %q vs %q", a, b)
	}
	c := MappingVersion(map[string]string{"address": "A", "city": "C"})
	if c == a {
		t.Fatalf("mapping version should change when a column changes")
	}
	if !strings.HasPrefix(a, "m_") {
		t.Fatalf("mapping version %q missing prefix", a)
	}
}
