package rules

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/hosford42/pyramids/categorization"
)

// SubtreeMatchRule is a predicate over the component categories of a
// candidate branch, used to filter sequence rule applications.
type SubtreeMatchRule interface {
	fmt.Stringer

	// Matches reports whether the predicate holds for the component
	// categories, given the index of the head component.
	Matches(categories []categorization.Category, headIndex int) bool
}

// NewSubtreeMatchRule creates the match rule named by kind: "head",
// "any_term", "all_terms", "one_term", "last_term" or "compound".
func NewSubtreeMatchRule(kind string, positive,
	negative categorization.PropertySet) (SubtreeMatchRule, error) {
	properties := matchProperties{kind: kind, positive: positive, negative: negative}
	switch kind {
	case "head":
		return HeadMatchRule{properties}, nil
	case "any_term":
		return AnyTermMatchRule{properties}, nil
	case "all_terms":
		return AllTermsMatchRule{properties}, nil
	case "one_term":
		return OneTermMatchRule{properties}, nil
	case "last_term":
		return LastTermMatchRule{properties}, nil
	case "compound":
		return CompoundMatchRule{properties}, nil
	default:
		return nil, errors.Errorf("unknown match rule type: %q", kind)
	}
}

// matchProperties is the property test shared by all match rule kinds: the
// positive properties must all be asserted and none of the negative
// properties may be asserted.
type matchProperties struct {
	kind               string
	positive, negative categorization.PropertySet
}

func (m matchProperties) matches(category categorization.Category) bool {
	return m.positive.IsSubsetOf(category.PositiveProperties()) &&
		!m.negative.Intersects(category.PositiveProperties())
}

func (m matchProperties) String() string {
	var parts []string
	for _, prop := range m.positive.Properties() {
		parts = append(parts, prop.String())
	}
	for _, prop := range m.negative.Properties() {
		parts = append(parts, "-"+prop.String())
	}
	if len(parts) == 0 {
		return m.kind
	}
	return m.kind + "(" + strings.Join(parts, ",") + ")"
}

// HeadMatchRule tests the head component.
type HeadMatchRule struct{ matchProperties }

// Matches reports whether the head component passes the property test.
func (r HeadMatchRule) Matches(categories []categorization.Category, headIndex int) bool {
	return r.matches(categories[headIndex])
}

// AnyTermMatchRule tests whether some non-head component passes.
type AnyTermMatchRule struct{ matchProperties }

// Matches reports whether at least one non-head component passes the
// property test.
func (r AnyTermMatchRule) Matches(categories []categorization.Category, headIndex int) bool {
	for index, category := range categories {
		if index == headIndex {
			continue
		}
		if r.matches(category) {
			return true
		}
	}
	return false
}

// AllTermsMatchRule tests whether every non-head component passes.
type AllTermsMatchRule struct{ matchProperties }

// Matches reports whether every non-head component passes the property
// test.
func (r AllTermsMatchRule) Matches(categories []categorization.Category, headIndex int) bool {
	for index, category := range categories {
		if index == headIndex {
			continue
		}
		if !r.matches(category) {
			return false
		}
	}
	return true
}

// OneTermMatchRule tests whether exactly one non-head component passes.
type OneTermMatchRule struct{ matchProperties }

// Matches reports whether exactly one non-head component passes the
// property test.
func (r OneTermMatchRule) Matches(categories []categorization.Category, headIndex int) bool {
	found := false
	for index, category := range categories {
		if index == headIndex {
			continue
		}
		if r.matches(category) {
			if found {
				return false
			}
			found = true
		}
	}
	return found
}

// LastTermMatchRule tests the final component.
type LastTermMatchRule struct{ matchProperties }

// Matches reports whether the final component passes the property test.
func (r LastTermMatchRule) Matches(categories []categorization.Category, headIndex int) bool {
	return r.matches(categories[len(categories)-1])
}

// CompoundMatchRule tests the components before the one immediately
// preceding the head.
type CompoundMatchRule struct{ matchProperties }

// Matches reports whether every component up to, but not including, the
// one immediately preceding the head passes the property test.
func (r CompoundMatchRule) Matches(categories []categorization.Category, headIndex int) bool {
	for index := 0; index < headIndex-1; index++ {
		if !r.matches(categories[index]) {
			return false
		}
	}
	return true
}
