package rules

import (
	"sort"
	"strings"
	"unicode"

	"github.com/pkg/errors"

	"github.com/hosford42/pyramids/categorization"
	"github.com/hosford42/pyramids/scoring"
	"github.com/hosford42/pyramids/trees"
)

// Case property names, asserted on every leaf according to the token's
// capitalization.
const (
	CaseFreeProperty  = "case_free"
	LowerCaseProperty = "lower_case"
	UpperCaseProperty = "upper_case"
	TitleCaseProperty = "title_case"
	MixedCaseProperty = "mixed_case"
)

var allCaseProperties = []string{
	CaseFreeProperty,
	LowerCaseProperty,
	UpperCaseProperty,
	TitleCaseProperty,
	MixedCaseProperty,
}

// titleCase uppercases the first letter of every letter run and lowercases
// the rest.
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToTitle(r))
			}
			prevLetter = true
		} else {
			b.WriteRune(r)
			prevLetter = false
		}
	}
	return b.String()
}

// CaseNames classifies the token's capitalization, returning the names of
// the case properties it exhibits and the names of those it rules out.
func CaseNames(token string) (positive, negative []string) {
	upper := strings.ToUpper(token)
	lower := strings.ToLower(token)
	switch {
	case upper == lower:
		positive = append(positive, CaseFreeProperty)
	case token == lower:
		positive = append(positive, LowerCaseProperty)
	default:
		if token == upper {
			positive = append(positive, UpperCaseProperty)
		}
		if token == titleCase(token) {
			positive = append(positive, TitleCaseProperty, MixedCaseProperty)
		}
	}
	if len(positive) == 0 {
		positive = append(positive, MixedCaseProperty)
	}
	for _, name := range allCaseProperties {
		exhibited := false
		for _, p := range positive {
			if p == name {
				exhibited = true
				break
			}
		}
		if !exhibited {
			negative = append(negative, name)
		}
	}
	return positive, negative
}

// CaseProperties interns the token's case classification in the registry.
func CaseProperties(registry *categorization.Registry,
	token string) (positive, negative categorization.PropertySet) {
	positiveNames, negativeNames := CaseNames(token)
	return registry.PropertySet(positiveNames...), registry.PropertySet(negativeNames...)
}

// SuffixRule matches tokens by their endings. A positive rule matches
// tokens carrying one of the suffixes; a negative rule matches tokens
// carrying none of them.
type SuffixRule struct {
	Scored
	category categorization.Category
	suffixes []string // lowercased, sorted
	positive bool
}

// NewSuffixRule creates a suffix rule. Suffix comparison ignores case.
func NewSuffixRule(category categorization.Category, suffixes []string,
	positive bool) *SuffixRule {
	unique := map[string]bool{}
	for _, suffix := range suffixes {
		unique[strings.ToLower(suffix)] = true
	}
	lowered := make([]string, 0, len(unique))
	for suffix := range unique {
		lowered = append(lowered, suffix)
	}
	sort.Strings(lowered)
	return &SuffixRule{
		Scored:   NewScored(),
		category: category,
		suffixes: lowered,
		positive: positive,
	}
}

// Category returns the category assigned to matched tokens.
func (r *SuffixRule) Category() categorization.Category { return r.category }

// Suffixes returns the rule's suffixes, lowercased and sorted.
func (r *SuffixRule) Suffixes() []string { return r.suffixes }

// Positive reports whether the rule matches on suffix presence rather than
// absence.
func (r *SuffixRule) Positive() bool { return r.positive }

// Match reports whether the rule applies to the token. A suffix only
// counts when the token extends past it by more than one character, so the
// suffix itself never matches.
func (r *SuffixRule) Match(token string) bool {
	lowered := strings.ToLower(token)
	for _, suffix := range r.suffixes {
		if len(lowered) > len(suffix)+1 && strings.HasSuffix(lowered, suffix) {
			return r.positive
		}
	}
	return !r.positive
}

// Features enumerates the node's scoring features.
func (r *SuffixRule) Features(node *trees.Node) []scoring.Feature {
	return headFeatures(node)
}

func (r *SuffixRule) String() string {
	sign := "-"
	if r.positive {
		sign = "+"
	}
	return r.category.String() + ": " + sign + " " + strings.Join(r.suffixes, " ")
}

// SetRule matches tokens belonging to a fixed word set.
type SetRule struct {
	Scored
	category categorization.Category
	members  map[string]bool
	path     string // word set file origin, empty when built in memory
}

// NewSetRule creates a set rule over the given tokens, compared ignoring
// case. The path records the word set file the tokens came from, if any.
func NewSetRule(category categorization.Category, tokens []string,
	path string) *SetRule {
	members := make(map[string]bool, len(tokens))
	for _, token := range tokens {
		members[strings.ToLower(token)] = true
	}
	return &SetRule{
		Scored:   NewScored(),
		category: category,
		members:  members,
		path:     path,
	}
}

// Category returns the category assigned to matched tokens.
func (r *SetRule) Category() categorization.Category { return r.category }

// Tokens returns the member tokens, sorted.
func (r *SetRule) Tokens() []string {
	tokens := make([]string, 0, len(r.members))
	for token := range r.members {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}

// Path returns the word set file the rule was loaded from, or "".
func (r *SetRule) Path() string { return r.path }

// Match reports whether the token belongs to the word set.
func (r *SetRule) Match(token string) bool {
	return r.members[strings.ToLower(token)]
}

// Features enumerates the node's scoring features.
func (r *SetRule) Features(node *trees.Node) []scoring.Feature {
	return headFeatures(node)
}

func (r *SetRule) String() string {
	return r.category.String() + ".ctg"
}

// CaseRule matches tokens exhibiting a particular case property.
type CaseRule struct {
	Scored
	category categorization.Category
	caseName string
}

// NewCaseRule creates a case rule. The case name must be one of the case
// property names.
func NewCaseRule(category categorization.Category, caseName string) (*CaseRule, error) {
	known := false
	for _, name := range allCaseProperties {
		if name == caseName {
			known = true
			break
		}
	}
	if !known {
		return nil, errors.Errorf("unknown case property: %q", caseName)
	}
	return &CaseRule{Scored: NewScored(), category: category, caseName: caseName}, nil
}

// Category returns the category assigned to matched tokens.
func (r *CaseRule) Category() categorization.Category { return r.category }

// Case returns the case property name the rule matches on.
func (r *CaseRule) Case() string { return r.caseName }

// Match reports whether the token exhibits the rule's case property.
func (r *CaseRule) Match(token string) bool {
	positive, _ := CaseNames(token)
	for _, name := range positive {
		if name == r.caseName {
			return true
		}
	}
	return false
}

// Features enumerates the node's scoring features.
func (r *CaseRule) Features(node *trees.Node) []scoring.Feature {
	return headFeatures(node)
}

func (r *CaseRule) String() string {
	return r.caseName + "->" + r.category.String()
}
