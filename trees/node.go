// Package trees implements the parse tree structure used during parsing.
//
// Trees are represented a bit unusually: the structure alternates between
// nodes and node sets. A node holds actual content and structure, and a node
// set groups alternative subtrees that cover the same token span with the
// same category, so a whole family of subtrees can be treated as a single
// entity. This keeps the combinatorics of the search in check.
package trees

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"

	"github.com/hosford42/pyramids/categorization"
	"github.com/hosford42/pyramids/scoring"
	"github.com/hosford42/pyramids/tokenization"
)

// Rule is the contract a grammar rule must satisfy for the nodes it builds.
// The concrete rule types live in the rules package; this interface keeps
// the tree structure independent of them.
type Rule interface {
	fmt.Stringer

	// Features enumerates the scoring features a node built by this rule
	// exhibits.
	Features(node *Node) []scoring.Feature

	// Tracker returns the rule's score tracker.
	Tracker() *scoring.Tracker
}

// Node is a branch or leaf node in a parse tree during parsing. Leaf nodes
// have no components; branch nodes hold the node sets of their children.
type Node struct {
	tokens       tokenization.TokenSequence
	rule         Rule
	category     categorization.Category
	headSpelling string
	headIndex    int // component index of the head; -1 for leaves
	start, end   int // token index span
	components   []*NodeSet

	parents []*NodeSet // node sets this node belongs to

	score  float64
	weight float64
	depth  float64
	raw    float64 // un-damped weighted score total
}

// NewLeafNode creates a leaf node covering the single token at tokenIndex.
func NewLeafNode(tokens tokenization.TokenSequence, rule Rule, tokenIndex int,
	category categorization.Category) *Node {
	node := &Node{
		tokens:       tokens,
		rule:         rule,
		category:     category,
		headSpelling: tokens.Token(tokenIndex),
		headIndex:    -1,
		start:        tokenIndex,
		end:          tokenIndex + 1,
	}
	node.recomputeScore()
	return node
}

// NewBranchNode creates a branch node over the given component node sets,
// which must cover contiguous token spans.
func NewBranchNode(tokens tokenization.TokenSequence, rule Rule, headIndex int,
	category categorization.Category, components []*NodeSet) (*Node, error) {
	if len(components) == 0 {
		return nil, errors.New("a branch node requires at least one component")
	}
	start := components[0].Start()
	end := start
	for _, component := range components {
		if component.Start() != end {
			return nil, errors.Errorf(
				"discontinuity in component coverage at token %d", component.Start())
		}
		end = component.End()
	}
	node := &Node{
		tokens:       tokens,
		rule:         rule,
		category:     category,
		headSpelling: components[headIndex].HeadSpelling(),
		headIndex:    headIndex,
		start:        start,
		end:          end,
		components:   components,
	}
	for _, component := range components {
		component.addParent(node)
	}
	node.recomputeScore()
	return node, nil
}

// Tokens returns the token sequence the node was built over.
func (n *Node) Tokens() tokenization.TokenSequence { return n.tokens }

// Rule returns the grammar rule that built this node.
func (n *Node) Rule() Rule { return n.rule }

// Category returns the node's category.
func (n *Node) Category() categorization.Category { return n.category }

// HeadSpelling returns the spelling of the node's head token.
func (n *Node) HeadSpelling() string { return n.headSpelling }

// HeadIndex returns the component index of the head, or -1 for a leaf.
func (n *Node) HeadIndex() int { return n.headIndex }

// Start returns the index of the first covered token.
func (n *Node) Start() int { return n.start }

// End returns the index one past the last covered token.
func (n *Node) End() int { return n.end }

// Components returns the child node sets. Empty for leaves.
func (n *Node) Components() []*NodeSet { return n.components }

// IsLeaf reports whether the node has no components.
func (n *Node) IsLeaf() bool { return n.components == nil }

// Score returns the node's damped weighted score and its weight.
func (n *Node) Score() (score, weight float64) { return n.score, n.weight }

// Coverage computes the number of distinct tree variations rooted at this
// node.
func (n *Node) Coverage() int {
	if n.IsLeaf() {
		return 1
	}
	total := 1
	for _, component := range n.components {
		total *= component.Coverage()
	}
	return total
}

// HeadTokenStart returns the token index of the head token of the phrase.
func (n *Node) HeadTokenStart() int {
	if n.IsLeaf() {
		return n.start
	}
	return n.components[n.headIndex].BestNode().HeadTokenStart()
}

// sameStructure reports whether other is a duplicate of n: the same rule
// applied to the same component sets with an equal category. Component sets
// are shared, so identity comparison suffices there.
func (n *Node) sameStructure(other *Node) bool {
	if n == other {
		return true
	}
	if n.rule != other.rule || n.headIndex != other.headIndex ||
		n.start != other.start || n.end != other.end ||
		len(n.components) != len(other.components) {
		return false
	}
	if !n.category.Equal(other.category) {
		return false
	}
	for i, component := range n.components {
		if other.components[i] != component {
			return false
		}
	}
	return true
}

// recomputeScore recalculates the node's weighted score from its rule's
// feature measures and its components' scores. The aggregate is damped by
// the subtree depth so that deep derivations don't win on accumulation
// alone. Reports whether the score may have changed.
func (n *Node) recomputeScore() bool {
	totalScore, totalWeight := n.rule.Tracker().WeightedScore(n.rule.Features(n))
	var depth float64
	if n.IsLeaf() {
		depth = 1.0
	} else {
		depth = totalWeight
		for _, component := range n.components {
			best := component.BestNode()
			totalScore += best.raw
			totalWeight += best.weight
			depth += best.depth * best.weight
		}
		depth /= totalWeight
	}
	n.raw = totalScore
	n.depth = depth
	n.weight = totalWeight
	n.score = totalScore / (math.Log2(1 + depth))
	return true
}

// PropagateScore recomputes this node's score and pushes the change upward
// through every tree that contains it.
func (n *Node) PropagateScore() {
	if n.recomputeScore() {
		for _, parent := range n.parents {
			parent.propagateScore(n)
		}
	}
}

// AdjustScore applies feedback to the rule measures of this node and its
// whole subtree.
func (n *Node) AdjustScore(target float64) error {
	if err := n.rule.Tracker().Adjust(n.rule.Features(n), target); err != nil {
		return err
	}
	for _, component := range n.components {
		if err := component.BestNode().AdjustScore(target); err != nil {
			return err
		}
	}
	return nil
}

// ToString renders the subtree rooted at this node. When simplify is true,
// single-component chains are collapsed and rule details are omitted.
func (n *Node) ToString(simplify bool) string {
	var b strings.Builder
	n.writeString(&b, simplify, "")
	return b.String()
}

func (n *Node) writeString(b *strings.Builder, simplify bool, indent string) {
	b.WriteString(n.category.ToString(simplify))
	b.WriteByte(':')
	switch {
	case n.IsLeaf():
		covered := strings.Join(n.tokens.Tokens()[n.start:n.end], " ")
		fmt.Fprintf(b, " %q (%d, %d)", covered, n.start, n.end)
		if !simplify {
			fmt.Fprintf(b, " [%s]", n.rule)
		}
	case len(n.components) == 1 && simplify:
		b.WriteByte(' ')
		n.components[0].BestNode().writeString(b, simplify, indent)
	default:
		if !simplify {
			fmt.Fprintf(b, " [%s]", n.rule)
		}
		for _, component := range n.components {
			b.WriteString("\n" + indent + "    ")
			component.BestNode().writeString(b, simplify, indent+"    ")
		}
	}
}

// NodeSet groups alternative parse nodes that cover the same token span with
// the same category, tracking the best-scoring member.
type NodeSet struct {
	nodes   []*Node
	best    *Node
	parents []*Node // branch nodes that include this set as a component
}

// NewNodeSet creates a set seeded with one node.
func NewNodeSet(node *Node) *NodeSet {
	set := &NodeSet{}
	set.add(node)
	return set
}

// Add inserts a node into the set, reporting whether it was new. The node
// must cover the same span with an equal category as the existing members.
func (s *NodeSet) Add(node *Node) (bool, error) {
	if s.best != nil &&
		(node.start != s.best.start || node.end != s.best.end ||
			!node.category.Equal(s.best.category)) {
		return false, errors.Errorf(
			"node %s is not compatible with set %s",
			node.category, s.best.category)
	}
	for _, member := range s.nodes {
		if member.sameStructure(node) {
			return false, nil
		}
	}
	s.add(node)
	return true, nil
}

func (s *NodeSet) add(node *Node) {
	s.nodes = append(s.nodes, node)
	node.parents = append(node.parents, s)
	if s.best == nil || better(node, s.best) {
		s.best = node
	}
}

func (s *NodeSet) addParent(parent *Node) {
	s.parents = append(s.parents, parent)
}

func better(a, b *Node) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	return a.weight > b.weight
}

// Nodes returns the members of the set.
func (s *NodeSet) Nodes() []*Node { return s.nodes }

// Len returns the number of member nodes.
func (s *NodeSet) Len() int { return len(s.nodes) }

// BestNode returns the member with the highest score.
func (s *NodeSet) BestNode() *Node { return s.best }

// Category returns the category shared by all members.
func (s *NodeSet) Category() categorization.Category { return s.best.category }

// HeadSpelling returns the head spelling of the best member.
func (s *NodeSet) HeadSpelling() string { return s.best.headSpelling }

// Start returns the index of the first covered token.
func (s *NodeSet) Start() int { return s.best.start }

// End returns the index one past the last covered token.
func (s *NodeSet) End() int { return s.best.end }

// IsLeaf reports whether the best member is a leaf.
func (s *NodeSet) IsLeaf() bool { return s.best.IsLeaf() }

// Coverage computes the number of distinct tree variations rooted at this
// set.
func (s *NodeSet) Coverage() int {
	total := 0
	for _, node := range s.nodes {
		total += node.Coverage()
	}
	return total
}

// Score returns the best member's score and weight.
func (s *NodeSet) Score() (score, weight float64) { return s.best.Score() }

// HasParents reports whether any branch node includes this set.
func (s *NodeSet) HasParents() bool { return len(s.parents) > 0 }

// propagateScore re-selects the best member after a child score change and
// pushes the change upward when the selection shifts.
func (s *NodeSet) propagateScore(affected *Node) {
	changed := false
	if affected == s.best {
		best := s.nodes[0]
		for _, node := range s.nodes[1:] {
			if better(node, best) {
				best = node
			}
		}
		s.best = best
		changed = true
	} else if better(affected, s.best) {
		s.best = affected
		changed = true
	}
	if changed {
		for _, parent := range s.parents {
			parent.PropagateScore()
		}
	}
}
