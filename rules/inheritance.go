package rules

import (
	"strings"

	"github.com/hosford42/pyramids/categorization"
)

// InheritanceRule adds implied properties to any category matching its
// pattern. A compiled model applies its inheritance rules repeatedly until
// no rule has anything left to add.
type InheritanceRule struct {
	category          categorization.Category
	positiveAdditions categorization.PropertySet
	negativeAdditions categorization.PropertySet
}

// NewInheritanceRule creates an inheritance rule. The category is the
// pattern: a wildcard name matches any category, and the pattern's
// positive and negative properties must both be present for the rule to
// apply.
func NewInheritanceRule(category categorization.Category,
	positiveAdditions, negativeAdditions categorization.PropertySet) *InheritanceRule {
	return &InheritanceRule{
		category:          category,
		positiveAdditions: positiveAdditions,
		negativeAdditions: negativeAdditions,
	}
}

// Category returns the pattern the rule matches against.
func (r *InheritanceRule) Category() categorization.Category { return r.category }

// PositiveAdditions returns the properties the rule asserts.
func (r *InheritanceRule) PositiveAdditions() categorization.PropertySet {
	return r.positiveAdditions
}

// NegativeAdditions returns the properties the rule denies.
func (r *InheritanceRule) NegativeAdditions() categorization.PropertySet {
	return r.negativeAdditions
}

// Apply checks the rule's pattern against a category given as its parts
// and, when it matches, returns the property additions.
func (r *InheritanceRule) Apply(name categorization.Name,
	positive, negative categorization.PropertySet) (positiveAdditions,
	negativeAdditions categorization.PropertySet, ok bool) {
	if !r.category.IsWildcard() && r.category.Name() != name {
		return categorization.EmptyPropertySet, categorization.EmptyPropertySet, false
	}
	if !r.category.PositiveProperties().IsSubsetOf(positive) ||
		!r.category.NegativeProperties().IsSubsetOf(negative) {
		return categorization.EmptyPropertySet, categorization.EmptyPropertySet, false
	}
	return r.positiveAdditions, r.negativeAdditions, true
}

func (r *InheritanceRule) String() string {
	var b strings.Builder
	b.WriteString(r.category.String())
	b.WriteByte(':')
	for _, prop := range r.positiveAdditions.Properties() {
		b.WriteString(" " + prop.String())
	}
	for _, prop := range r.negativeAdditions.Properties() {
		b.WriteString(" -" + prop.String())
	}
	return b.String()
}
