package rules

import (
	"sort"
	"strings"
	"testing"

	"github.com/hosford42/pyramids/categorization"
)

func mustCategory(t *testing.T, registry *categorization.Registry,
	name string, positive, negative []string) categorization.Category {
	t.Helper()
	category, err := registry.Category(name, positive, negative)
	if err != nil {
		t.Fatal(err)
	}
	return category
}

func TestCaseNames(t *testing.T) {
	cases := []struct {
		token    string
		positive []string
	}{
		{"123", []string{CaseFreeProperty}},
		{"...", []string{CaseFreeProperty}},
		{"dog", []string{LowerCaseProperty}},
		{"DOG", []string{UpperCaseProperty}},
		{"Dog", []string{TitleCaseProperty, MixedCaseProperty}},
		{"dOg", []string{MixedCaseProperty}},
		{"A", []string{UpperCaseProperty, TitleCaseProperty, MixedCaseProperty}},
	}
	for _, c := range cases {
		positive, negative := CaseNames(c.token)
		sort.Strings(positive)
		want := append([]string(nil), c.positive...)
		sort.Strings(want)
		if strings.Join(positive, " ") != strings.Join(want, " ") {
			t.Errorf("%q: expected %v, got %v", c.token, want, positive)
		}
		if len(positive)+len(negative) != len(allCaseProperties) {
			t.Errorf("%q: positive and negative must partition the case properties",
				c.token)
		}
		for _, name := range negative {
			for _, p := range positive {
				if p == name {
					t.Errorf("%q: %s is both exhibited and ruled out", c.token, name)
				}
			}
		}
	}
}

func TestCaseProperties(t *testing.T) {
	registry := categorization.NewRegistry()
	positive, negative := CaseProperties(registry, "Dog")
	if !positive.Contains(registry.Property(TitleCaseProperty)) {
		t.Error("title_case must be asserted for a capitalized token")
	}
	if !negative.Contains(registry.Property(LowerCaseProperty)) {
		t.Error("lower_case must be denied for a capitalized token")
	}
	if positive.Intersects(negative) {
		t.Error("case property sets must be disjoint")
	}
}

func TestSuffixRuleMatching(t *testing.T) {
	registry := categorization.NewRegistry()
	verb := mustCategory(t, registry, "V", []string{"past"}, nil)
	rule := NewSuffixRule(verb, []string{"ed"}, true)

	if !rule.Match("walked") {
		t.Error("expected a match for a token with the suffix")
	}
	if !rule.Match("WALKED") {
		t.Error("suffix matching must ignore case")
	}
	if rule.Match("red") {
		t.Error("the token must extend past the suffix by more than one character")
	}
	if rule.Match("walk") {
		t.Error("expected no match without the suffix")
	}

	negated := NewSuffixRule(verb, []string{"ed"}, false)
	if negated.Match("walked") || !negated.Match("walk") {
		t.Error("a negative suffix rule matches exactly when the positive one does not")
	}

	if got := rule.String(); got != "V(past): + ed" {
		t.Errorf("unexpected rendering: %q", got)
	}
}

func TestSetRuleMatching(t *testing.T) {
	registry := categorization.NewRegistry()
	determiner := mustCategory(t, registry, "DET", nil, nil)
	rule := NewSetRule(determiner, []string{"the", "A", "an"}, "")

	for _, token := range []string{"the", "The", "a", "AN"} {
		if !rule.Match(token) {
			t.Errorf("expected a match for %q", token)
		}
	}
	if rule.Match("dog") {
		t.Error("expected no match for a token outside the set")
	}
	if got := strings.Join(rule.Tokens(), " "); got != "a an the" {
		t.Errorf("tokens must be lowercased and sorted, got %q", got)
	}
	if got := rule.String(); got != "DET.ctg" {
		t.Errorf("unexpected rendering: %q", got)
	}
}

func TestCaseRuleMatching(t *testing.T) {
	registry := categorization.NewRegistry()
	proper := mustCategory(t, registry, "N", []string{"proper"}, nil)
	rule, err := NewCaseRule(proper, TitleCaseProperty)
	if err != nil {
		t.Fatal(err)
	}
	if !rule.Match("London") {
		t.Error("expected a match for a title-case token")
	}
	if rule.Match("london") {
		t.Error("expected no match for a lowercase token")
	}
	if _, err := NewCaseRule(proper, "sideways_case"); err == nil {
		t.Error("expected an error for an unknown case property")
	}
}

type fixedPromotions struct {
	anyPromoted, allPromoted categorization.PropertySet
}

func (p fixedPromotions) AnyPromotedProperties() categorization.PropertySet {
	return p.anyPromoted
}

func (p fixedPromotions) AllPromotedProperties() categorization.PropertySet {
	return p.allPromoted
}

func TestSequenceRuleGetCategory(t *testing.T) {
	registry := categorization.NewRegistry()
	sentence := mustCategory(t, registry, "S", nil, nil)
	nounPhrase := mustCategory(t, registry, "NP", nil, nil)
	verbPhrase := mustCategory(t, registry, "VP", nil, nil)
	rule, err := NewSequenceRule(sentence,
		[][]categorization.Category{{nounPhrase}, {verbPhrase}}, 1, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	promotions := fixedPromotions{
		anyPromoted: registry.PropertySet("question"),
		allPromoted: registry.PropertySet("plural"),
	}

	// An any-promoted property asserted by one component carries up.
	subtrees := []categorization.Category{
		mustCategory(t, registry, "NP", []string{"question", "plural"}, nil),
		mustCategory(t, registry, "VP", []string{"plural"}, nil),
	}
	result := rule.GetCategory(promotions, subtrees)
	if result.Name().String() != "S" {
		t.Errorf("expected category name S, got %s", result.Name())
	}
	if !result.HasProperties(registry.Property("question")) {
		t.Error("an any-promoted property asserted by a component must carry up")
	}
	// An all-promoted property asserted by every component carries up.
	if !result.HasProperties(registry.Property("plural")) {
		t.Error("an all-promoted property asserted by every component must carry up")
	}

	// An all-promoted property denied by one component is denied upward.
	subtrees = []categorization.Category{
		mustCategory(t, registry, "NP", nil, []string{"plural"}),
		mustCategory(t, registry, "VP", []string{"plural"}, nil),
	}
	result = rule.GetCategory(promotions, subtrees)
	if !result.LacksProperties(registry.Property("plural")) {
		t.Error("an all-promoted property denied by a component must be denied upward")
	}
	// question is not asserted by any component here and not denied by
	// every component, so it must be neither asserted nor denied.
	if result.HasProperties(registry.Property("question")) ||
		result.LacksProperties(registry.Property("question")) {
		t.Error("question must be left uncommitted here")
	}
}

func TestSequenceRuleWildcardHead(t *testing.T) {
	registry := categorization.NewRegistry()
	wildcard := mustCategory(t, registry, "_", []string{"modified"}, nil)
	modifier := mustCategory(t, registry, "ADJ", nil, nil)
	anything := mustCategory(t, registry, "_", nil, nil)
	rule, err := NewSequenceRule(wildcard,
		[][]categorization.Category{{modifier}, {anything}}, 1, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	subtrees := []categorization.Category{
		modifier,
		mustCategory(t, registry, "N", []string{"plural"}, nil),
	}
	result := rule.GetCategory(fixedPromotions{}, subtrees)
	if result.Name().String() != "N" {
		t.Errorf("a wildcard rule takes its head's name, got %s", result.Name())
	}
	if !result.HasProperties(registry.Property("modified")) {
		t.Error("the rule's own properties must be kept")
	}
	if !result.HasProperties(registry.Property("plural")) {
		t.Error("the head's properties must carry over")
	}
}

func TestSequenceRuleNonRecursive(t *testing.T) {
	registry := categorization.NewRegistry()
	noun := mustCategory(t, registry, "N", nil, nil)
	rule, err := NewSequenceRule(noun,
		[][]categorization.Category{{noun}}, 0, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	head := mustCategory(t, registry, "N", []string{"plural"}, nil)
	if rule.IsNonRecursive(head, head) {
		t.Error("reproducing the head category exactly is recursive")
	}
	extended := mustCategory(t, registry, "N", []string{"plural", "definite"}, nil)
	if !rule.IsNonRecursive(extended, head) {
		t.Error("asserting a new property makes progress")
	}

	twoTerm, err := NewSequenceRule(noun,
		[][]categorization.Category{{noun}, {noun}}, 0, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !twoTerm.IsNonRecursive(head, head) {
		t.Error("multi-position rules always make progress")
	}
}

func TestSequenceRuleContribution(t *testing.T) {
	registry := categorization.NewRegistry()
	sentence := mustCategory(t, registry, "S", nil, nil)
	nounPhrase := mustCategory(t, registry, "NP", nil, nil)
	pluralNP := mustCategory(t, registry, "NP", []string{"plural"}, nil)
	verbPhrase := mustCategory(t, registry, "VP", nil, nil)
	rule, err := NewSequenceRule(sentence,
		[][]categorization.Category{{pluralNP}, {verbPhrase}}, 1, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !rule.CouldContribute(nounPhrase) {
		t.Error("a category referenced by name could contribute")
	}
	if rule.CouldContribute(mustCategory(t, registry, "ADJ", nil, nil)) {
		t.Error("an unreferenced category cannot contribute")
	}
	if positions := rule.PositionsFor(nounPhrase); len(positions) != 0 {
		t.Error("a bare NP does not satisfy the plural NP pattern")
	}
	if positions := rule.PositionsFor(pluralNP); len(positions) != 1 || positions[0] != 0 {
		t.Errorf("expected position 0 for a plural NP, got %v", positions)
	}
}

func TestSequenceRuleMatchFilters(t *testing.T) {
	registry := categorization.NewRegistry()
	sentence := mustCategory(t, registry, "S", nil, nil)
	nounPhrase := mustCategory(t, registry, "NP", nil, nil)
	verbPhrase := mustCategory(t, registry, "VP", nil, nil)

	headMatch, err := NewSubtreeMatchRule("head",
		registry.PropertySet("finite"), categorization.EmptyPropertySet)
	if err != nil {
		t.Fatal(err)
	}
	rule, err := NewSequenceRule(sentence,
		[][]categorization.Category{{nounPhrase}, {verbPhrase}}, 1, nil,
		[][]SubtreeMatchRule{{headMatch}}, nil)
	if err != nil {
		t.Fatal(err)
	}

	finite := []categorization.Category{
		nounPhrase,
		mustCategory(t, registry, "VP", []string{"finite"}, nil),
	}
	if !rule.MatchesSubtrees(finite) {
		t.Error("a finite head must pass the head filter")
	}
	nonFinite := []categorization.Category{nounPhrase, verbPhrase}
	if rule.MatchesSubtrees(nonFinite) {
		t.Error("a non-finite head must fail the head filter")
	}
}

func TestSequenceRulePropertyRules(t *testing.T) {
	registry := categorization.NewRegistry()
	sentence := mustCategory(t, registry, "S", nil, nil)
	nounPhrase := mustCategory(t, registry, "NP", nil, nil)
	verbPhrase := mustCategory(t, registry, "VP", nil, nil)

	anyTerm, err := NewSubtreeMatchRule("any_term",
		registry.PropertySet("plural"), categorization.EmptyPropertySet)
	if err != nil {
		t.Fatal(err)
	}
	propertyRule := PropertyRule{
		Additions:  []SignedProperty{{Property: registry.Property("agreement"), Positive: true}},
		Conditions: []SubtreeMatchRule{anyTerm},
	}
	rule, err := NewSequenceRule(sentence,
		[][]categorization.Category{{nounPhrase}, {verbPhrase}}, 1, nil, nil,
		[]PropertyRule{propertyRule})
	if err != nil {
		t.Fatal(err)
	}

	subtrees := []categorization.Category{
		mustCategory(t, registry, "NP", []string{"plural"}, nil),
		verbPhrase,
	}
	result := rule.GetCategory(fixedPromotions{}, subtrees)
	if !result.HasProperties(registry.Property("agreement")) {
		t.Error("a passing property rule must contribute its additions")
	}

	result = rule.GetCategory(fixedPromotions{},
		[]categorization.Category{nounPhrase, verbPhrase})
	if result.HasProperties(registry.Property("agreement")) {
		t.Error("a failing property rule must contribute nothing")
	}
}

func TestSubtreeMatchRuleKinds(t *testing.T) {
	registry := categorization.NewRegistry()
	plural := registry.PropertySet("plural")
	none := categorization.EmptyPropertySet

	pluralNoun := mustCategory(t, registry, "N", []string{"plural"}, nil)
	singularNoun := mustCategory(t, registry, "N", nil, nil)
	categories := []categorization.Category{pluralNoun, singularNoun, pluralNoun}
	headIndex := 1

	cases := []struct {
		kind string
		want bool
	}{
		{"head", false},      // the head is singular
		{"any_term", true},   // both non-head terms are plural
		{"all_terms", true},  // every non-head term is plural
		{"one_term", false},  // two non-head terms match, not one
		{"last_term", true},  // the final term is plural
		{"compound", true},   // only index 0 is checked, and it is plural
	}
	for _, c := range cases {
		rule, err := NewSubtreeMatchRule(c.kind, plural, none)
		if err != nil {
			t.Fatal(err)
		}
		if got := rule.Matches(categories, headIndex); got != c.want {
			t.Errorf("%s: expected %v, got %v", c.kind, c.want, got)
		}
	}

	if _, err := NewSubtreeMatchRule("sideways", plural, none); err == nil {
		t.Error("expected an error for an unknown match rule type")
	}

	// Negative properties block the match.
	negated, err := NewSubtreeMatchRule("head", none, plural)
	if err != nil {
		t.Fatal(err)
	}
	if negated.Matches([]categorization.Category{pluralNoun}, 0) {
		t.Error("a denied property asserted by the head must block the match")
	}
	if got := negated.String(); got != "head(-plural)" {
		t.Errorf("unexpected rendering: %q", got)
	}
}

func TestInheritanceRule(t *testing.T) {
	registry := categorization.NewRegistry()
	pattern := mustCategory(t, registry, "N", []string{"plural"}, nil)
	rule := NewInheritanceRule(pattern,
		registry.PropertySet("countable"), registry.PropertySet("mass"))

	name := registry.Name("N")
	positive := registry.PropertySet("plural", "definite")
	negative := categorization.EmptyPropertySet

	positiveAdds, negativeAdds, ok := rule.Apply(name, positive, negative)
	if !ok {
		t.Fatal("expected the rule to apply")
	}
	if !positiveAdds.Contains(registry.Property("countable")) ||
		!negativeAdds.Contains(registry.Property("mass")) {
		t.Error("wrong additions")
	}

	if _, _, ok := rule.Apply(registry.Name("V"), positive, negative); ok {
		t.Error("a different name must not match a non-wildcard pattern")
	}
	if _, _, ok := rule.Apply(name, registry.PropertySet("definite"), negative); ok {
		t.Error("missing pattern properties must not match")
	}

	wildcardPattern := mustCategory(t, registry, "_", nil, nil)
	anyRule := NewInheritanceRule(wildcardPattern,
		registry.PropertySet("known"), categorization.EmptyPropertySet)
	if _, _, ok := anyRule.Apply(registry.Name("V"),
		categorization.EmptyPropertySet, categorization.EmptyPropertySet); !ok {
		t.Error("a wildcard pattern matches any name")
	}

	if got := rule.String(); got != "N(plural): countable -mass" {
		t.Errorf("unexpected rendering: %q", got)
	}
}

func TestSequenceRuleString(t *testing.T) {
	registry := categorization.NewRegistry()
	sentence := mustCategory(t, registry, "S", nil, nil)
	nounPhrase := mustCategory(t, registry, "NP", nil, nil)
	verbPhrase := mustCategory(t, registry, "VP", nil, nil)
	links := [][]Link{{{Label: registry.LinkLabel("agent"), Left: true}}}
	rule, err := NewSequenceRule(sentence,
		[][]categorization.Category{{nounPhrase}, {verbPhrase}}, 1, links, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := rule.String(); got != "S: NP <agent *VP" {
		t.Errorf("unexpected rendering: %q", got)
	}
	if labels := rule.AllLinkLabels(); len(labels) != 1 ||
		labels[0].String() != "agent" {
		t.Errorf("unexpected link labels: %v", labels)
	}
}
