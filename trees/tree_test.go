package trees

import (
	"testing"
	"time"

	"github.com/hosford42/pyramids/categorization"
	"github.com/hosford42/pyramids/tokenization"
)

// leafTree wraps a single leaf node as a complete parse tree.
func leafTree(t *testing.T, tokens tokenization.TokenSequence, rule Rule,
	index int, category categorization.Category) *ParseTree {
	t.Helper()
	return NewParseTree(tokens, NewNodeSet(NewLeafNode(tokens, rule, index, category)))
}

func TestParseTreeRestrict(t *testing.T) {
	registry := categorization.NewRegistry()
	tokens := makeTokens(t, "the", "dogs")
	det := mustCategory(t, registry, "DET", nil, nil)
	noun := mustCategory(t, registry, "N", []string{"plural"}, nil)
	phrase := mustCategory(t, registry, "NP", []string{"plural"}, nil)
	rule := newStubRule("np rule")

	detSet := NewNodeSet(NewLeafNode(tokens, rule, 0, det))
	nounSet := NewNodeSet(NewLeafNode(tokens, rule, 1, noun))
	branch, err := NewBranchNode(tokens, rule, 1, phrase,
		[]*NodeSet{detSet, nounSet})
	if err != nil {
		t.Fatal(err)
	}
	tree := NewParseTree(tokens, NewNodeSet(branch))

	// A pattern matching the root stops the descent there.
	pattern := mustCategory(t, registry, "NP", nil, nil)
	matches := tree.Restrict([]categorization.Category{pattern})
	if len(matches) != 1 || !matches[0].Category().Equal(phrase) {
		t.Fatalf("expected the whole tree back, got %d matches", len(matches))
	}

	// A pattern matching only an inner node picks out the subtree.
	matches = tree.Restrict([]categorization.Category{noun})
	if len(matches) != 1 || matches[0].Start() != 1 || matches[0].End() != 2 {
		t.Fatalf("expected just the noun subtree, got %v", matches)
	}

	// The wildcard pattern matches anything.
	wildcard := mustCategory(t, registry, "_", nil, nil)
	matches = tree.Restrict([]categorization.Category{wildcard})
	if len(matches) != 1 || matches[0].Root() != tree.Root() {
		t.Fatal("the wildcard pattern must match at the root")
	}
}

func TestParseTreeOverlap(t *testing.T) {
	registry := categorization.NewRegistry()
	tokens := makeTokens(t, "a", "b", "c")
	category := mustCategory(t, registry, "X", nil, nil)
	rule := newStubRule("leaf")

	a := leafTree(t, tokens, rule, 0, category)
	b := leafTree(t, tokens, rule, 1, category)
	if a.OverlapsWith(b) || b.OverlapsWith(a) {
		t.Error("adjacent trees do not overlap")
	}
	if !a.OverlapsWith(a) {
		t.Error("a tree overlaps itself")
	}
}

func TestForestGaps(t *testing.T) {
	registry := categorization.NewRegistry()
	tokens := makeTokens(t, "a", "b", "c", "d")
	category := mustCategory(t, registry, "X", nil, nil)
	rule := newStubRule("leaf")

	forest := NewForest(tokens, []*ParseTree{
		leafTree(t, tokens, rule, 0, category),
		leafTree(t, tokens, rule, 3, category),
	})
	gaps := forest.Gaps()
	if len(gaps) != 1 || gaps[0].Start != 1 || gaps[0].End != 3 {
		t.Fatalf("expected one gap (1, 3), got %v", gaps)
	}
	if forest.TotalGapSize() != 2 {
		t.Errorf("expected gap size 2, got %d", forest.TotalGapSize())
	}
	if !forest.HasGaps() {
		t.Error("forest with uncovered tokens must report gaps")
	}
}

func TestForestAmbiguityAndDisambiguation(t *testing.T) {
	registry := categorization.NewRegistry()
	tokens := makeTokens(t, "a", "b")
	category := mustCategory(t, registry, "X", nil, nil)
	rule := newStubRule("leaf")

	first := leafTree(t, tokens, rule, 0, category)
	second := leafTree(t, tokens, rule, 1, category)
	duplicate := leafTree(t, tokens, rule, 0, category)

	forest := NewForest(tokens, []*ParseTree{first, second, duplicate})
	if !forest.IsAmbiguous() {
		t.Fatal("overlapping trees make the forest ambiguous")
	}
	resolved := forest.Disambiguate()
	if resolved.IsAmbiguous() {
		t.Fatal("disambiguation must remove overlaps")
	}
	if len(resolved.Trees()) != 2 {
		t.Fatalf("expected 2 surviving trees, got %d", len(resolved.Trees()))
	}
	if resolved.HasGaps() {
		t.Error("disambiguation must not introduce gaps here")
	}
}

func TestForestDisambiguationsCompleteCover(t *testing.T) {
	registry := categorization.NewRegistry()
	tokens := makeTokens(t, "a", "b")
	category := mustCategory(t, registry, "X", nil, nil)
	rule := newStubRule("leaf")

	first := leafTree(t, tokens, rule, 0, category)
	second := leafTree(t, tokens, rule, 1, category)
	duplicate := leafTree(t, tokens, rule, 0, category)
	forest := NewForest(tokens, []*ParseTree{first, second, duplicate})

	results := forest.Disambiguations(time.Time{})
	if len(results) != 2 {
		t.Fatalf("expected 2 complete selections, got %d", len(results))
	}
	for _, result := range results {
		if result.HasGaps() {
			t.Error("complete selections must cover every token")
		}
		if result.IsAmbiguous() {
			t.Error("selections must be non-overlapping")
		}
		if len(result.Trees()) != 2 {
			t.Errorf("expected 2 trees per selection, got %d", len(result.Trees()))
		}
	}
}

func TestForestDisambiguationsDeadline(t *testing.T) {
	registry := categorization.NewRegistry()
	tokens := makeTokens(t, "a", "b")
	category := mustCategory(t, registry, "X", nil, nil)
	rule := newStubRule("leaf")
	forest := NewForest(tokens, []*ParseTree{
		leafTree(t, tokens, rule, 0, category),
		leafTree(t, tokens, rule, 1, category),
	})
	// An already-expired deadline yields nothing rather than hanging.
	if results := forest.Disambiguations(time.Now().Add(-time.Second)); len(results) != 0 {
		t.Errorf("expected no results past the deadline, got %d", len(results))
	}
}

func TestRankOrdering(t *testing.T) {
	base := Rank{GapSize: 1, TreeCount: 2, Score: 0.5, Weight: 1.0}
	cases := []struct {
		name   string
		better Rank
	}{
		{"smaller gap wins", Rank{GapSize: 0, TreeCount: 5, Score: 0.1, Weight: 0.1}},
		{"fewer trees wins", Rank{GapSize: 1, TreeCount: 1, Score: 0.1, Weight: 0.1}},
		{"higher score wins", Rank{GapSize: 1, TreeCount: 2, Score: 0.9, Weight: 0.1}},
		{"higher weight wins", Rank{GapSize: 1, TreeCount: 2, Score: 0.5, Weight: 2.0}},
	}
	for _, c := range cases {
		if !c.better.Less(base) {
			t.Errorf("%s: %+v must rank above %+v", c.name, c.better, base)
		}
		if base.Less(c.better) {
			t.Errorf("%s: ordering must be asymmetric", c.name)
		}
	}
}
