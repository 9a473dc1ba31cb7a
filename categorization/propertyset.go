package categorization

import "sort"

// PropertySet is an immutable set of properties. Membership tests go through
// a hash table keyed on canonical Property identities; iteration order is
// deterministic (sorted). The zero value is the empty set.
type PropertySet struct {
	members map[Property]struct{}
	sorted  []Property
}

// EmptyPropertySet is the shared empty set. MakePropertySet returns it for
// empty input rather than allocating.
var EmptyPropertySet = PropertySet{}

// MakePropertySet builds a canonical immutable set from the given properties,
// dropping duplicates.
func MakePropertySet(props ...Property) PropertySet {
	if len(props) == 0 {
		return EmptyPropertySet
	}
	members := make(map[Property]struct{}, len(props))
	for _, p := range props {
		members[p] = struct{}{}
	}
	return propertySetFromMap(members)
}

// PropertySet builds a canonical set from raw labels, normalizing every label
// through this registry's property canonicalizer.
func (r *Registry) PropertySet(labels ...string) PropertySet {
	if len(labels) == 0 {
		return EmptyPropertySet
	}
	props := make([]Property, len(labels))
	for i, label := range labels {
		props[i] = r.Property(label)
	}
	return MakePropertySet(props...)
}

func propertySetFromMap(members map[Property]struct{}) PropertySet {
	if len(members) == 0 {
		return EmptyPropertySet
	}
	sorted := make([]Property, 0, len(members))
	for p := range members {
		sorted = append(sorted, p)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })
	return PropertySet{members: members, sorted: sorted}
}

// Len returns the number of properties in the set.
func (s PropertySet) Len() int { return len(s.members) }

// IsEmpty reports whether the set has no members.
func (s PropertySet) IsEmpty() bool { return len(s.members) == 0 }

// Contains reports whether p is a member of the set.
func (s PropertySet) Contains(p Property) bool {
	_, ok := s.members[p]
	return ok
}

// Properties returns the members in sorted order. The returned slice is
// shared; callers must not modify it.
func (s PropertySet) Properties() []Property {
	return s.sorted
}

// IsSubsetOf reports whether every member of s is also a member of other.
func (s PropertySet) IsSubsetOf(other PropertySet) bool {
	if len(s.members) > len(other.members) {
		return false
	}
	for p := range s.members {
		if !other.Contains(p) {
			return false
		}
	}
	return true
}

// Intersects reports whether s and other share at least one member.
func (s PropertySet) Intersects(other PropertySet) bool {
	small, large := s, other
	if len(small.members) > len(large.members) {
		small, large = large, small
	}
	for p := range small.members {
		if large.Contains(p) {
			return true
		}
	}
	return false
}

// Intersection returns the members present in both sets, sorted.
func (s PropertySet) Intersection(other PropertySet) []Property {
	small, large := s, other
	if len(small.members) > len(large.members) {
		small, large = large, small
	}
	var shared []Property
	for _, p := range small.sorted {
		if large.Contains(p) {
			shared = append(shared, p)
		}
	}
	return shared
}

// Union returns the set of members present in either set.
func (s PropertySet) Union(other PropertySet) PropertySet {
	if other.IsEmpty() {
		return s
	}
	if s.IsEmpty() {
		return other
	}
	members := make(map[Property]struct{}, len(s.members)+len(other.members))
	for p := range s.members {
		members[p] = struct{}{}
	}
	for p := range other.members {
		members[p] = struct{}{}
	}
	return propertySetFromMap(members)
}

// Difference returns the members of s that are not members of other.
func (s PropertySet) Difference(other PropertySet) PropertySet {
	if s.IsEmpty() || other.IsEmpty() {
		return s
	}
	members := make(map[Property]struct{}, len(s.members))
	for p := range s.members {
		if !other.Contains(p) {
			members[p] = struct{}{}
		}
	}
	if len(members) == len(s.members) {
		return s
	}
	return propertySetFromMap(members)
}

// Equal reports whether s and other have exactly the same members.
func (s PropertySet) Equal(other PropertySet) bool {
	if len(s.members) != len(other.members) {
		return false
	}
	for p := range s.members {
		if !other.Contains(p) {
			return false
		}
	}
	return true
}

// Compare orders sets by size first, then lexicographically over the sorted
// member lists. The order is total: Compare returns 0 only for equal sets.
func (s PropertySet) Compare(other PropertySet) int {
	if len(s.sorted) != len(other.sorted) {
		if len(s.sorted) < len(other.sorted) {
			return -1
		}
		return 1
	}
	for i := range s.sorted {
		if c := s.sorted[i].Compare(other.sorted[i]); c != 0 {
			return c
		}
	}
	return 0
}
