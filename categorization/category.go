package categorization

import (
	"strings"
)

// InvalidCategoryError reports an attempt to construct a category that
// simultaneously asserts and denies one or more properties. It is a fatal
// grammar or programming defect, not a recoverable condition.
type InvalidCategoryError struct {
	Name        Name
	Conflicting []Property
}

func (e *InvalidCategoryError) Error() string {
	labels := make([]string, len(e.Conflicting))
	for i, p := range e.Conflicting {
		labels[i] = p.String()
	}
	return "category " + e.Name.String() +
		" asserts and denies the same properties: " + strings.Join(labels, ", ")
}

// Category is an immutable classification value: an interned name plus
// disjoint sets of asserted (positive) and denied (negative) properties.
// Categories themselves are not interned; only their name and property
// symbols are. The hash is computed once at construction.
type Category struct {
	name     Name
	positive PropertySet
	negative PropertySet
	hash     uint64
}

// NewCategory constructs a category, failing with *InvalidCategoryError if
// the positive and negative sets intersect. The error reports every
// offending property.
func NewCategory(name Name, positive, negative PropertySet) (Category, error) {
	if conflicting := positive.Intersection(negative); len(conflicting) > 0 {
		return Category{}, &InvalidCategoryError{Name: name, Conflicting: conflicting}
	}
	return newCategoryUnchecked(name, positive, negative), nil
}

// newCategoryUnchecked skips the disjointness check. Callers must guarantee
// the sets do not intersect.
func newCategoryUnchecked(name Name, positive, negative PropertySet) Category {
	c := Category{name: name, positive: positive, negative: negative}
	h := name.hash()
	for _, p := range positive.Properties() {
		h ^= p.hash() << 1
	}
	for _, p := range negative.Properties() {
		h ^= uint64(-int64(p.hash())) << 2
	}
	c.hash = h
	return c
}

// Category constructs a category from raw strings, normalizing the name and
// property labels through this registry.
func (r *Registry) Category(name string, positive, negative []string) (Category, error) {
	return NewCategory(r.Name(name), r.PropertySet(positive...), r.PropertySet(negative...))
}

// MustCategory is like Category but panics on a positive/negative conflict.
// Intended for fixed categories known valid at compile time, and for tests.
func (r *Registry) MustCategory(name string, positive, negative []string) Category {
	c, err := r.Category(name, positive, negative)
	if err != nil {
		panic(err)
	}
	return c
}

// Name returns the category's interned name.
func (c Category) Name() Name { return c.name }

// PositiveProperties returns the set of properties the category asserts.
func (c Category) PositiveProperties() PropertySet { return c.positive }

// NegativeProperties returns the set of properties the category denies.
func (c Category) NegativeProperties() PropertySet { return c.negative }

// IsZero reports whether c is the invalid zero value.
func (c Category) IsZero() bool { return c.name.IsZero() }

// IsWildcard reports whether the category's name is the reserved wildcard,
// which subsumes any name during containment checks.
func (c Category) IsWildcard() bool { return c.name.IsWildcard() }

// Hash returns the hash computed at construction. Equal categories always
// have equal hashes.
func (c Category) Hash() uint64 { return c.hash }

// HasProperties reports whether every given property is asserted by the
// category.
func (c Category) HasProperties(props ...Property) bool {
	for _, p := range props {
		if !c.positive.Contains(p) {
			return false
		}
	}
	return true
}

// LacksProperties reports whether none of the given properties is asserted
// by the category. This is not the logical negation of HasProperties: a
// property absent from both the positive and negative sets passes both
// predicates. Unlisted properties are treated as unknown, not false.
func (c Category) LacksProperties(props ...Property) bool {
	for _, p := range props {
		if c.positive.Contains(p) {
			return false
		}
	}
	return true
}

// Contains reports whether c, treated as a requirement pattern, is satisfied
// by the concrete candidate. The candidate matches when its name is the same
// symbol (or the pattern is wildcard-named), it asserts at least every
// property the pattern requires, and it asserts none the pattern forbids.
// Properties the candidate denies but the pattern never mentions are
// irrelevant. This relation is asymmetric; it is not equality.
func (c Category) Contains(candidate Category) bool {
	if c.name != candidate.name && !c.IsWildcard() {
		return false
	}
	if !c.positive.IsSubsetOf(candidate.positive) {
		return false
	}
	return !c.negative.Intersects(candidate.positive)
}

// PromoteProperties derives a new category by merging additional property
// assertions and denials into c. An existing denial blocks a conflicting new
// assertion, and an existing assertion blocks a conflicting new denial, so
// the result is disjoint by construction and needs no re-validation. c is
// untouched.
func (c Category) PromoteProperties(extraPositive, extraNegative PropertySet) Category {
	positive := c.positive.Union(extraPositive.Difference(c.negative))
	negative := c.negative.Union(extraNegative.Difference(c.positive))
	return newCategoryUnchecked(c.name, positive, negative)
}

// WithName returns a copy of the category under a different name. The
// property sets are shared, so disjointness is preserved.
func (c Category) WithName(name Name) Category {
	return newCategoryUnchecked(name, c.positive, c.negative)
}

// Equal reports whether the two categories have the same name symbol and
// equal positive and negative property sets.
func (c Category) Equal(other Category) bool {
	return c.name == other.name &&
		c.hash == other.hash &&
		c.positive.Equal(other.positive) &&
		c.negative.Equal(other.negative)
}

// Compare defines a total order over categories: by name, then by positive
// property count, then negative property count, and finally the sorted
// positive and negative property lists. Both counts are consulted before
// either list. The trailing list comparisons are strict, so Compare returns
// 0 exactly when Equal returns true.
func (c Category) Compare(other Category) int {
	if cmp := c.name.Compare(other.name); cmp != 0 {
		return cmp
	}
	if c.positive.Len() != other.positive.Len() {
		if c.positive.Len() < other.positive.Len() {
			return -1
		}
		return 1
	}
	if c.negative.Len() != other.negative.Len() {
		if c.negative.Len() < other.negative.Len() {
			return -1
		}
		return 1
	}
	if cmp := c.positive.Compare(other.positive); cmp != 0 {
		return cmp
	}
	return c.negative.Compare(other.negative)
}

// Less reports whether c sorts before other.
func (c Category) Less(other Category) bool { return c.Compare(other) < 0 }

// Key is a comparable stand-in for a category, usable as a map key. Distinct
// categories rarely share a key, but the chance is not zero: index buckets
// keyed on Key must confirm matches with Equal.
type Key struct {
	Name Name
	Hash uint64
}

// Key returns the category's comparable index key.
func (c Category) Key() Key {
	return Key{Name: c.name, Hash: c.hash}
}

// ToString renders the category as "name" or "name(p1,p2,...)" with the
// positive properties sorted. When simplify is false, denied properties are
// appended to the list prefixed with '-', also sorted. The output is
// deterministic and independent of construction order.
func (c Category) ToString(simplify bool) string {
	if c.positive.IsEmpty() && (simplify || c.negative.IsEmpty()) {
		return c.name.String()
	}
	var b strings.Builder
	b.WriteString(c.name.String())
	b.WriteByte('(')
	first := true
	for _, p := range c.positive.Properties() {
		if !first {
			b.WriteByte(',')
		}
		b.WriteString(p.String())
		first = false
	}
	if !simplify {
		for _, p := range c.negative.Properties() {
			if !first {
				b.WriteByte(',')
			}
			b.WriteByte('-')
			b.WriteString(p.String())
			first = false
		}
	}
	b.WriteByte(')')
	return b.String()
}

func (c Category) String() string {
	return c.ToString(true)
}
