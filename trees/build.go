package trees

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hosford42/pyramids/categorization"
)

// BuildNode is a branch or leaf node in a tree being reconstructed during
// generation. Unlike parse-time nodes, build nodes are positioned by
// semantic graph indices rather than token spans, and coverage may be
// assembled out of order.
type BuildNode struct {
	rule         Rule
	category     categorization.Category
	headSpelling string
	headIndex    int // graph token index of the head
	components   []*BuildNode

	spellings []string // leaf spellings in component order
	indices   []int    // graph indices matching spellings
	coverage  map[int]bool
}

// NewBuildLeaf creates a leaf build node for one graph token.
func NewBuildLeaf(rule Rule, category categorization.Category,
	headSpelling string, headIndex int) *BuildNode {
	return &BuildNode{
		rule:         rule,
		category:     category,
		headSpelling: headSpelling,
		headIndex:    headIndex,
		spellings:    []string{headSpelling},
		indices:      []int{headIndex},
		coverage:     map[int]bool{headIndex: true},
	}
}

// NewBuildBranch creates a branch build node over components.
func NewBuildBranch(rule Rule, category categorization.Category,
	headSpelling string, headIndex int, components []*BuildNode) *BuildNode {
	node := &BuildNode{
		rule:         rule,
		category:     category,
		headSpelling: headSpelling,
		headIndex:    headIndex,
		components:   components,
		coverage:     map[int]bool{},
	}
	for _, component := range components {
		node.spellings = append(node.spellings, component.spellings...)
		node.indices = append(node.indices, component.indices...)
		for index := range component.coverage {
			node.coverage[index] = true
		}
	}
	return node
}

// Rule returns the grammar rule that built this node.
func (n *BuildNode) Rule() Rule { return n.rule }

// Category returns the node's category.
func (n *BuildNode) Category() categorization.Category { return n.category }

// HeadSpelling returns the spelling of the node's head token.
func (n *BuildNode) HeadSpelling() string { return n.headSpelling }

// HeadIndex returns the graph index of the node's head token.
func (n *BuildNode) HeadIndex() int { return n.headIndex }

// Components returns the child build nodes. Empty for leaves.
func (n *BuildNode) Components() []*BuildNode { return n.components }

// IsLeaf reports whether the node has no components.
func (n *BuildNode) IsLeaf() bool { return n.components == nil }

// Coverage reports which graph token indices the subtree covers.
func (n *BuildNode) Coverage() map[int]bool { return n.coverage }

// Covers reports whether the subtree covers the given graph index.
func (n *BuildNode) Covers(index int) bool { return n.coverage[index] }

// CoverageOverlaps reports whether the two subtrees cover any common index.
func (n *BuildNode) CoverageOverlaps(other *BuildNode) bool {
	small, large := n, other
	if len(small.coverage) > len(large.coverage) {
		small, large = large, small
	}
	for index := range small.coverage {
		if large.coverage[index] {
			return true
		}
	}
	return false
}

// CoversAll reports whether the subtree covers every given index.
func (n *BuildNode) CoversAll(indices map[int]bool) bool {
	for index := range indices {
		if !n.coverage[index] {
			return false
		}
	}
	return true
}

// Tokens returns the leaf spellings in generation order: sorted by graph
// index, which reflects original token order.
func (n *BuildNode) Tokens() []string {
	type leaf struct {
		index    int
		spelling string
	}
	leaves := make([]leaf, len(n.indices))
	for i := range n.indices {
		leaves[i] = leaf{index: n.indices[i], spelling: n.spellings[i]}
	}
	sort.Slice(leaves, func(i, j int) bool { return leaves[i].index < leaves[j].index })
	tokens := make([]string, len(leaves))
	for i, l := range leaves {
		tokens[i] = l.spelling
	}
	return tokens
}

// Text returns the generated surface text.
func (n *BuildNode) Text() string {
	return strings.Join(n.Tokens(), " ")
}

// Signature is a canonical description of the subtree, used to deduplicate
// candidate build trees during generation.
func (n *BuildNode) Signature() string {
	var b strings.Builder
	n.writeSignature(&b)
	return b.String()
}

func (n *BuildNode) writeSignature(b *strings.Builder) {
	b.WriteString(n.category.ToString(false))
	fmt.Fprintf(b, "@%d", n.headIndex)
	if n.IsLeaf() {
		fmt.Fprintf(b, "=%q", n.headSpelling)
		return
	}
	b.WriteByte('[')
	for i, component := range n.components {
		if i > 0 {
			b.WriteByte(' ')
		}
		component.writeSignature(b)
	}
	b.WriteByte(']')
}

// ToString renders the subtree in the same layout as parse-time trees.
func (n *BuildNode) ToString(simplify bool) string {
	var b strings.Builder
	n.writeString(&b, simplify, "")
	return b.String()
}

func (n *BuildNode) writeString(b *strings.Builder, simplify bool, indent string) {
	b.WriteString(n.category.ToString(simplify))
	b.WriteByte(':')
	switch {
	case n.IsLeaf():
		fmt.Fprintf(b, " %q", strings.Join(n.Tokens(), " "))
		if !simplify {
			fmt.Fprintf(b, " [%s]", n.rule)
		}
	case len(n.components) == 1 && simplify:
		b.WriteByte(' ')
		n.components[0].writeString(b, simplify, indent)
	default:
		if !simplify {
			fmt.Fprintf(b, " [%s]", n.rule)
		}
		for _, component := range n.components {
			b.WriteString("\n" + indent + "    ")
			component.writeString(b, simplify, indent+"    ")
		}
	}
}
