// Package parsing runs the chart search that turns token sequences into
// parse forests: a category map over token spans, a score-ordered node
// insertion queue, and the sequence rule matching that grows new phrases
// around each recognized one.
package parsing

import (
	"sort"

	"github.com/hosford42/pyramids/categorization"
	"github.com/hosford42/pyramids/trees"
)

// spanEntry holds the node sets of one category over the spans sharing one
// endpoint. The other endpoint of each span is the map key.
type spanEntry struct {
	category categorization.Category
	nodeSets map[int]*trees.NodeSet
}

// endpointIndex buckets span entries first by endpoint position, then by
// category name. Entries with hash-colliding categories share a bucket and
// are told apart by Equal.
type endpointIndex map[int]map[categorization.Name][]*spanEntry

func (idx endpointIndex) find(position int,
	category categorization.Category) *spanEntry {
	for _, entry := range idx[position][category.Name()] {
		if entry.category.Equal(category) {
			return entry
		}
	}
	return nil
}

func (idx endpointIndex) ensure(position int,
	category categorization.Category) *spanEntry {
	if entry := idx.find(position, category); entry != nil {
		return entry
	}
	byName := idx[position]
	if byName == nil {
		byName = map[categorization.Name][]*spanEntry{}
		idx[position] = byName
	}
	entry := &spanEntry{category: category, nodeSets: map[int]*trees.NodeSet{}}
	byName[category.Name()] = append(byName[category.Name()], entry)
	return entry
}

// CategoryMap indexes the node sets discovered so far by token span and
// category, from both endpoints, so sequence rule matching can extend a
// phrase in either direction without scanning.
type CategoryMap struct {
	forward  endpointIndex // keyed by span start
	backward endpointIndex // keyed by span end
	ranges   map[[2]int]bool
	maxEnd   int
	size     int
}

// NewCategoryMap creates an empty category map.
func NewCategoryMap() *CategoryMap {
	return &CategoryMap{
		forward:  endpointIndex{},
		backward: endpointIndex{},
		ranges:   map[[2]int]bool{},
	}
}

// MaxEnd returns the largest span end seen so far.
func (m *CategoryMap) MaxEnd() int { return m.maxEnd }

// Size returns the number of distinct (span, category) combinations.
func (m *CategoryMap) Size() int { return m.size }

// HasStart reports whether any span starts at the position.
func (m *CategoryMap) HasStart(start int) bool { return len(m.forward[start]) > 0 }

// HasEnd reports whether any span ends at the position.
func (m *CategoryMap) HasEnd(end int) bool { return len(m.backward[end]) > 0 }

// HasRange reports whether any recognized phrase covers exactly the span.
func (m *CategoryMap) HasRange(start, end int) bool {
	return m.ranges[[2]int{start, end}]
}

// Add records a parse node, reporting whether its span and category
// combination is new. A node whose combination already exists joins the
// existing node set as an alternative instead.
func (m *CategoryMap) Add(node *trees.Node) (bool, error) {
	category := node.Category()
	start, end := node.Start(), node.End()

	entry := m.forward.ensure(start, category)
	if set := entry.nodeSets[end]; set != nil {
		added, err := set.Add(node)
		if err != nil {
			return false, err
		}
		if added {
			node.PropagateScore()
		}
		return false, nil
	}
	set := trees.NewNodeSet(node)
	entry.nodeSets[end] = set
	m.backward.ensure(end, category).nodeSets[start] = set

	if end > m.maxEnd {
		m.maxEnd = end
	}
	m.size++
	m.ranges[[2]int{start, end}] = true
	return true, nil
}

// Match is one hit from a directional category query: the recognized
// category and the far endpoint of its span.
type Match struct {
	Category categorization.Category
	Position int
}

// ForwardMatches finds the categories recognized over spans starting at
// start that fall under one of the pattern categories. In emergency mode
// the property constraints are ignored and only names filter. Results are
// ordered deterministically.
func (m *CategoryMap) ForwardMatches(start int,
	patterns []categorization.Category, emergency bool) []Match {
	return m.forward.matches(start, patterns, emergency)
}

// BackwardMatches is ForwardMatches mirrored: spans ending at end, with
// each match reporting the span's start.
func (m *CategoryMap) BackwardMatches(end int,
	patterns []categorization.Category, emergency bool) []Match {
	return m.backward.matches(end, patterns, emergency)
}

func (idx endpointIndex) matches(position int,
	patterns []categorization.Category, emergency bool) []Match {
	byName := idx[position]
	if len(byName) == 0 {
		return nil
	}
	var results []Match
	seen := map[*spanEntry]bool{}
	collect := func(entry *spanEntry, pattern categorization.Category) {
		if seen[entry] {
			return
		}
		if !emergency && !pattern.Contains(entry.category) {
			return
		}
		seen[entry] = true
		positions := make([]int, 0, len(entry.nodeSets))
		for other := range entry.nodeSets {
			positions = append(positions, other)
		}
		sort.Ints(positions)
		for _, other := range positions {
			results = append(results, Match{Category: entry.category, Position: other})
		}
	}
	for _, pattern := range patterns {
		if pattern.IsWildcard() {
			var entries []*spanEntry
			for _, bucket := range byName {
				entries = append(entries, bucket...)
			}
			sort.Slice(entries, func(i, j int) bool {
				return entries[i].category.Less(entries[j].category)
			})
			for _, entry := range entries {
				collect(entry, pattern)
			}
		} else {
			for _, entry := range byName[pattern.Name()] {
				collect(entry, pattern)
			}
		}
	}
	return results
}

// NodeSets returns the node sets recognized as exactly the category over
// the span. At most one exists.
func (m *CategoryMap) NodeSets(start int, category categorization.Category,
	end int) []*trees.NodeSet {
	entry := m.forward.find(start, category)
	if entry == nil {
		return nil
	}
	set := entry.nodeSets[end]
	if set == nil {
		return nil
	}
	return []*trees.NodeSet{set}
}

// NodeSetFor returns the node set the node belongs to, or nil if the node
// was never added.
func (m *CategoryMap) NodeSetFor(node *trees.Node) *trees.NodeSet {
	entry := m.forward.find(node.Start(), node.Category())
	if entry == nil {
		return nil
	}
	return entry.nodeSets[node.End()]
}
