package grammar

import (
	"strings"
	"testing"

	"github.com/hosford42/pyramids/categorization"
)

func TestParseCategory(t *testing.T) {
	parser := NewParser(categorization.NewRegistry())

	category, err := parser.ParseCategory("NP(plural,-proper)")
	if err != nil {
		t.Fatal(err)
	}
	if category.Name().String() != "NP" {
		t.Errorf("wrong name: %s", category.Name())
	}
	if !category.PositiveProperties().Contains(parser.Registry().Property("plural")) {
		t.Error("plural must be asserted")
	}
	if !category.NegativeProperties().Contains(parser.Registry().Property("proper")) {
		t.Error("proper must be denied")
	}

	bare, err := parser.ParseCategory("  V  ")
	if err != nil {
		t.Fatal(err)
	}
	if bare.Name().String() != "V" || !bare.PositiveProperties().IsEmpty() {
		t.Error("a bare name parses to a property-free category")
	}
}

func TestParseCategoryErrors(t *testing.T) {
	parser := NewParser(categorization.NewRegistry())
	bad := []string{
		"",
		"NP(plural",
		"NP(plural))",
		"NP((plural)",
		"NP,V",
		"NP V",
		"NP()",
		"NP(plural,,definite)",
		"NP(--plural)",
		"NP(plural,-plural)",
	}
	for _, definition := range bad {
		if _, err := parser.ParseCategory(definition); err == nil {
			t.Errorf("expected a syntax error for %q", definition)
		} else if _, ok := err.(*SyntaxError); !ok {
			t.Errorf("expected a *SyntaxError for %q, got %T", definition, err)
		}
	}
}

func TestParseSequenceRule(t *testing.T) {
	parser := NewParser(categorization.NewRegistry())
	sentence, err := parser.ParseCategory("S")
	if err != nil {
		t.Fatal(err)
	}
	rule, err := parser.ParseSequenceRule(sentence, "NP|PRON <agent *VP(finite)", 1, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if rule.HeadIndex() != 1 {
		t.Errorf("wrong head index: %d", rule.HeadIndex())
	}
	sets := rule.SubcategorySets()
	if len(sets) != 2 || len(sets[0]) != 2 || len(sets[1]) != 1 {
		t.Fatalf("wrong subcategory sets: %v", sets)
	}
	links := rule.LinkTypes(0)
	if len(links) != 1 || links[0].Label.String() != "agent" || !links[0].Left || links[0].Right {
		t.Fatalf("wrong link types: %v", links)
	}
	if got := rule.String(); got != "S: NP|PRON <agent *VP(finite)" {
		t.Errorf("unexpected rendering: %q", got)
	}
}

func TestParseSequenceRuleErrors(t *testing.T) {
	parser := NewParser(categorization.NewRegistry())
	sentence, err := parser.ParseCategory("S")
	if err != nil {
		t.Fatal(err)
	}
	bad := []string{
		"",
		"*NP *VP",          // two heads
		"<agent NP *VP",    // link before any category
		"NP agent> *VP",    // right link before the head
		"NP *VP <agent",    // left link after the head
		"NP *VP modifies>", // trailing link
		"NP VP",            // no head with multiple positions
	}
	for _, definition := range bad {
		if _, err := parser.ParseSequenceRule(sentence, definition, 1, nil, nil); err == nil {
			t.Errorf("expected a syntax error for %q", definition)
		}
	}

	// A single position needs no head marker.
	if _, err := parser.ParseSequenceRule(sentence, "NP", 1, nil, nil); err != nil {
		t.Errorf("a lone position is implicitly the head: %v", err)
	}
}

func TestParseMatchRule(t *testing.T) {
	parser := NewParser(categorization.NewRegistry())
	group, err := parser.ParseMatchRule("[head(plural) last_term(-proper)]", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(group) != 2 {
		t.Fatalf("expected 2 predicates, got %d", len(group))
	}
	if got := group[0].String(); got != "head(plural)" {
		t.Errorf("unexpected rendering: %q", got)
	}

	for _, definition := range []string{"head(plural)]", "[head(plural)", "[]",
		"[sideways(plural)]"} {
		if _, err := parser.ParseMatchRule(definition, 1); err == nil {
			t.Errorf("expected a syntax error for %q", definition)
		}
	}
}

func TestParseGrammarDefinition(t *testing.T) {
	text := `# Core sentence structure.
S:
    NP|PRON <agent *VP(finite)

NP(compound):
    [last_term(noun)]
    compound [head(noun)]
    *N N
NP: *N  # trailing comment
`
	parser := NewParser(categorization.NewRegistry())
	sequenceRules, err := parser.ParseGrammarDefinition(strings.NewReader(text), "test.gmr")
	if err != nil {
		t.Fatal(err)
	}
	if len(sequenceRules) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(sequenceRules))
	}
	if got := sequenceRules[0].Category().Name().String(); got != "S" {
		t.Errorf("wrong first category: %s", got)
	}
	if got := sequenceRules[1].Category().String(); got != "NP(compound)" {
		t.Errorf("wrong second category: %s", got)
	}
	// The match and property rules above the sequence line attach to it.
	noun := parser.Registry().MustCategory("N", []string{"noun"}, nil)
	bare := parser.Registry().MustCategory("N", nil, nil)
	if !sequenceRules[1].MatchesSubtrees([]categorization.Category{noun, noun}) {
		t.Error("noun components must pass the match filter")
	}
	if sequenceRules[1].MatchesSubtrees([]categorization.Category{bare, bare}) {
		t.Error("bare components must fail the match filter")
	}
}

func TestParseGrammarDefinitionErrors(t *testing.T) {
	parser := NewParser(categorization.NewRegistry())
	bad := []string{
		"    *N N\n",          // sequence before any header
		"S:\nNP:\n",           // header without a sequence
		"S\n",                 // missing colon
		"S: *N : N\n",         // second colon
		"S:\n    *N N\n    [head(noun)]\n", // match rule after a sequence
	}
	for _, text := range bad {
		if _, err := parser.ParseGrammarDefinition(strings.NewReader(text), "bad.gmr"); err == nil {
			t.Errorf("expected an error for %q", text)
		}
	}

	_, err := parser.ParseGrammarDefinition(strings.NewReader("S:\n    NP(*\n"), "bad.gmr")
	if err == nil {
		t.Fatal("expected a syntax error")
	}
	syntaxErr, ok := err.(*SyntaxError)
	if !ok {
		t.Fatalf("expected a *SyntaxError, got %T", err)
	}
	if syntaxErr.Filename != "bad.gmr" || syntaxErr.Line != 2 {
		t.Errorf("wrong error position: %s:%d", syntaxErr.Filename, syntaxErr.Line)
	}
}

func TestParseSuffixFile(t *testing.T) {
	text := `V(past): + ed
N(plural): + s es
X: -
`
	parser := NewParser(categorization.NewRegistry())
	suffixRules, err := parser.ParseSuffixFile(strings.NewReader(text), "test.sfx")
	if err != nil {
		t.Fatal(err)
	}
	if len(suffixRules) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(suffixRules))
	}
	if !suffixRules[0].Positive() || !suffixRules[0].Match("walked") {
		t.Error("the past tense rule must match walked")
	}
	if got := strings.Join(suffixRules[1].Suffixes(), " "); got != "es s" {
		t.Errorf("wrong suffixes: %q", got)
	}
	// A bare sign keeps an empty suffix, matching every longer token.
	if !suffixRules[2].Match("anything") == suffixRules[2].Positive() {
		t.Error("wrong empty-suffix behavior")
	}

	if _, err := parser.ParseSuffixFile(strings.NewReader("V(past): ed\n"), "bad.sfx"); err == nil {
		t.Error("a missing sign must be rejected")
	}
}

func TestParseSpecialWordsFile(t *testing.T) {
	text := `DET: the a an
PRON(subject): I we they
`
	parser := NewParser(categorization.NewRegistry())
	setRules, err := parser.ParseSpecialWordsFile(strings.NewReader(text), "test.wrd")
	if err != nil {
		t.Fatal(err)
	}
	if len(setRules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(setRules))
	}
	if !setRules[0].Match("The") {
		t.Error("the determiner set must match ignoring case")
	}
	if setRules[1].Category().String() != "PRON(subject)" {
		t.Errorf("wrong category: %s", setRules[1].Category())
	}
}

func TestParsePropertyInheritanceFile(t *testing.T) {
	text := `N(plural): countable -mass
_: known
`
	parser := NewParser(categorization.NewRegistry())
	inheritanceRules, err := parser.ParsePropertyInheritanceFile(
		strings.NewReader(text), "test.prp")
	if err != nil {
		t.Fatal(err)
	}
	if len(inheritanceRules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(inheritanceRules))
	}
	registry := parser.Registry()
	positiveAdds, negativeAdds, ok := inheritanceRules[0].Apply(registry.Name("N"),
		registry.PropertySet("plural"), categorization.EmptyPropertySet)
	if !ok {
		t.Fatal("expected the first rule to apply")
	}
	if !positiveAdds.Contains(registry.Property("countable")) ||
		!negativeAdds.Contains(registry.Property("mass")) {
		t.Error("wrong additions")
	}
	if !inheritanceRules[1].Category().IsWildcard() {
		t.Error("the second pattern must be the wildcard")
	}

	for _, text := range []string{"N(plural):\n", "N: --x\n", "N: x -x\n"} {
		if _, err := parser.ParsePropertyInheritanceFile(
			strings.NewReader(text), "bad.prp"); err == nil {
			t.Errorf("expected an error for %q", text)
		}
	}
}
