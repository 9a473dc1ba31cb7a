package categorization

import "testing"

func TestInterningIdempotence(t *testing.T) {
	r := NewRegistry()
	a := r.Property("plural")
	b := r.Property("plural")
	if a != b {
		t.Fatal("equal strings must intern to the identical property")
	}
	if a.sym != b.sym {
		t.Fatal("interned properties must share one symbol")
	}
	n1 := r.Name("NP")
	n2 := r.Name("NP")
	if n1 != n2 {
		t.Fatal("equal strings must intern to the identical name")
	}
}

func TestKindSeparation(t *testing.T) {
	r := NewRegistry()
	name := r.Name("plural")
	prop := r.Property("plural")
	// Same spelling, different canonicalizers: distinct symbols.
	if name.sym == prop.sym {
		t.Fatal("name and property canonicalizers must not share symbols")
	}
}

func TestRegistryIsolation(t *testing.T) {
	r1 := NewRegistry()
	r2 := NewRegistry()
	if r1.Property("plural") == r2.Property("plural") {
		t.Fatal("symbols from different registries must not be identity-equal")
	}
	// Ordering still falls back to the string, then the canonical id.
	a := r1.Property("plural")
	b := r2.Property("plural")
	if a.Less(b) || b.Less(a) {
		t.Fatal("same spelling and same id should compare equal across registries")
	}
}

func TestSymbolOrdering(t *testing.T) {
	r := NewRegistry()
	// Interned out of lexicographic order on purpose.
	verb := r.Name("VP")
	noun := r.Name("NP")
	if !noun.Less(verb) {
		t.Error("NP should sort before VP regardless of intern order")
	}
	if noun.Less(noun) || verb.Less(verb) {
		t.Error("Less must be irreflexive")
	}
	if noun.Compare(noun) != 0 {
		t.Error("Compare of a symbol with itself must be 0")
	}
}

func TestWildcardReserved(t *testing.T) {
	r := NewRegistry()
	if !r.Wildcard().IsWildcard() {
		t.Fatal("the registry wildcard must identify as wildcard")
	}
	if r.Name("_") != r.Wildcard() {
		t.Fatal("interning \"_\" must return the reserved wildcard name")
	}
	if r.Name("NP").IsWildcard() {
		t.Fatal("ordinary names must not identify as wildcard")
	}
}

func TestConcurrentIntern(t *testing.T) {
	r := NewRegistry()
	const goroutines = 16
	results := make(chan Property, goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			results <- r.Property("singular")
		}()
	}
	first := <-results
	for i := 1; i < goroutines; i++ {
		if got := <-results; got != first {
			t.Fatal("concurrent interns of one string returned distinct symbols")
		}
	}
	if r.PropertyCount() != 1 {
		t.Fatalf("expected 1 interned property, got %d", r.PropertyCount())
	}
}
