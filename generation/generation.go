// Package generation reconstructs token sequences from semantic graphs:
// the reverse of parsing. Starting from each graph token's leaf rules, it
// grows build trees outward with the model's branch rules, guided by the
// graph's links, until the root token's tree covers its whole graph
// neighborhood.
package generation

import (
	"sort"
	"strings"
	"unicode"

	"github.com/hosford42/pyramids/categorization"
	"github.com/hosford42/pyramids/graphs"
	"github.com/hosford42/pyramids/model"
	"github.com/hosford42/pyramids/rules"
	"github.com/hosford42/pyramids/trees"
)

// Generate builds every tree the model can produce for the graph, rooted
// at the graph's root token, ordered deterministically. Trees whose
// category falls under the graph's root category are preferred; trees that
// fail the category or coverage requirements are only returned when
// nothing better exists.
func Generate(m *model.Model, graph *graphs.Graph) []*trees.BuildNode {
	results := generate(m, graph, graph.RootIndex())
	ordered := make([]*trees.BuildNode, 0, len(results))
	for _, tree := range results {
		ordered = append(ordered, tree)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ti, tj := ordered[i].Text(), ordered[j].Text(); ti != tj {
			return ti < tj
		}
		return ordered[i].Signature() < ordered[j].Signature()
	})
	return ordered
}

// generate builds the trees headed by the graph token at head, recursively
// generating its link targets first. Results come in three tiers: trees
// covering every subnode with an acceptable category, trees covering every
// subnode under an unacceptable root category, and finally any partial
// tree at all.
func generate(m *model.Model, graph *graphs.Graph,
	head int) map[string]*trees.BuildNode {
	token := graph.Token(head)
	subnodes := graph.Sinks(head)
	subnodeSet := map[int]bool{}
	subtrees := map[int]map[string]*trees.BuildNode{}
	for _, sink := range subnodes {
		subnodeSet[sink] = true
		subtrees[sink] = generate(m, graph, sink)
	}

	headLeaves := leafCandidates(m, token, head)

	results := map[string]*trees.BuildNode{}
	backup := map[string]*trees.BuildNode{}
	emergency := map[string]*trees.BuildNode{}

	// With no links to cover, the leaves themselves are results.
	if len(subnodes) == 0 {
		for signature, tree := range headLeaves {
			if head == graph.RootIndex() &&
				!graph.RootCategory().Contains(tree.Category()) {
				backup[signature] = tree
			} else {
				results[signature] = tree
			}
		}
	}

	queue := make([]*trees.BuildNode, 0, len(headLeaves))
	for _, tree := range headLeaves {
		queue = append(queue, tree)
	}
	for len(queue) > 0 {
		headTree := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		for _, rule := range m.BranchRules() {
			fits := false
			for _, subcategory := range rule.HeadCategorySet() {
				if subcategory.Contains(headTree.Category()) {
					fits = true
					break
				}
			}
			if !fits {
				continue
			}
			possible, ok := possibleComponents(m, graph, rule, head, subnodes, subtrees)
			if !ok {
				continue
			}
			// Splice the head tree in at its sequence position.
			withHead := make([][]*trees.BuildNode, 0, len(possible)+1)
			withHead = append(withHead, possible[:rule.HeadIndex()]...)
			withHead = append(withHead, []*trees.BuildNode{headTree})
			withHead = append(withHead, possible[rule.HeadIndex():]...)

			eachCombination(withHead, func(combination []*trees.BuildNode) {
				if coverageOverlaps(combination) {
					return
				}
				categories := make([]categorization.Category, len(combination))
				for i, component := range combination {
					categories[i] = component.Category()
				}
				category := rule.GetCategory(m, categories)
				if !rule.IsNonRecursive(category, headTree.Category()) {
					return
				}
				components := make([]*trees.BuildNode, len(combination))
				copy(components, combination)
				tree := trees.NewBuildBranch(rule, category, headTree.HeadSpelling(),
					headTree.HeadIndex(), components)
				signature := tree.Signature()
				if _, known := results[signature]; known {
					return
				}
				if tree.CoversAll(subnodeSet) {
					if tree.HeadIndex() != graph.RootIndex() ||
						graph.RootCategory().Contains(category) {
						results[signature] = tree
					} else {
						backup[signature] = tree
					}
				}
				if _, known := emergency[signature]; !known {
					emergency[signature] = tree
					queue = append(queue, tree)
				}
			})
		}
	}

	if len(results) > 0 {
		return results
	}
	if len(backup) > 0 {
		return backup
	}
	return emergency
}

// leafCandidates builds the leaf trees the model's leaf rules allow for
// one graph token, constrained by the category the graph recorded for it.
// Secondary leaf rules apply only when no primary rule produced a leaf.
func leafCandidates(m *model.Model, token graphs.Token,
	head int) map[string]*trees.BuildNode {
	leaves := map[string]*trees.BuildNode{}
	positive, negative := rules.CaseProperties(m.Registry(), token.Spelling)
	consider := func(rule rules.LeafRule) {
		if !rule.Match(token.Spelling) {
			return
		}
		category := rule.Category().PromoteProperties(positive, negative)
		category = m.ExtendProperties(category)
		if !token.Category.Contains(category) {
			return
		}
		leaf := trees.NewBuildLeaf(rule, category, token.Spelling, head)
		leaves[leaf.Signature()] = leaf
	}
	for _, rule := range m.PrimaryLeafRules() {
		consider(rule)
	}
	if len(leaves) == 0 {
		for _, rule := range m.SecondaryLeafRules() {
			consider(rule)
		}
	}
	return leaves
}

// possibleComponents finds, for every non-head position of the rule, the
// candidate subtrees whose graph links satisfy the position's link types.
// Reports false when any position has no candidates.
func possibleComponents(m *model.Model, graph *graphs.Graph,
	rule *rules.SequenceRule, head int, subnodes []int,
	subtrees map[int]map[string]*trees.BuildNode) ([][]*trees.BuildNode, bool) {
	var possible [][]*trees.BuildNode
	for index := 0; index < len(rule.SubcategorySets())-1; index++ {
		links := rule.LinkTypes(index)
		incoming := map[categorization.LinkLabel]bool{}
		outgoing := map[categorization.LinkLabel]bool{}
		for _, link := range links {
			if (link.Right && index < rule.HeadIndex()) ||
				(link.Left && index >= rule.HeadIndex()) {
				incoming[link.Label] = true
			}
			if (link.Left && index < rule.HeadIndex()) ||
				(link.Right && index >= rule.HeadIndex()) {
				outgoing[link.Label] = true
			}
		}
		candidates := componentCandidates(m, graph, rule, head, index, subnodes,
			subtrees, incoming, outgoing)
		if len(candidates) == 0 {
			return nil, false
		}
		possible = append(possible, candidates)
	}
	return possible, true
}

func componentCandidates(m *model.Model, graph *graphs.Graph,
	rule *rules.SequenceRule, head, index int, subnodes []int,
	subtrees map[int]map[string]*trees.BuildNode,
	incoming, outgoing map[categorization.LinkLabel]bool) []*trees.BuildNode {
	positions := map[int]bool{}
	for _, subnode := range subnodes {
		positions[subnode] = true
	}
	for label := range incoming {
		// Labels no rule emits carry no positional information.
		if len(m.SequenceRulesByLink(label)) == 0 {
			continue
		}
		keep := map[int]bool{}
		for _, source := range graph.Sources(head) {
			if positions[source] && hasLabel(graph.Labels(source, head), label) {
				keep[source] = true
			}
		}
		positions = keep
		if len(positions) == 0 {
			return nil
		}
	}
	for label := range outgoing {
		if len(m.SequenceRulesByLink(label)) == 0 {
			continue
		}
		keep := map[int]bool{}
		for _, sink := range graph.Sinks(head) {
			if positions[sink] && hasLabel(graph.Labels(head, sink), label) {
				keep[sink] = true
			}
		}
		positions = keep
		if len(positions) == 0 {
			return nil
		}
	}

	sequenceIndex := index
	if index >= rule.HeadIndex() {
		sequenceIndex = index + 1
	}
	patterns := rule.SubcategorySets()[sequenceIndex]
	names := map[categorization.Name]bool{}
	wildcard := false
	for _, pattern := range patterns {
		names[pattern.Name()] = true
		if pattern.IsWildcard() {
			wildcard = true
		}
	}

	ordered := make([]int, 0, len(positions))
	for position := range positions {
		ordered = append(ordered, position)
	}
	sort.Ints(ordered)

	var candidates []*trees.BuildNode
	for _, position := range ordered {
		signatures := make([]string, 0, len(subtrees[position]))
		for signature := range subtrees[position] {
			signatures = append(signatures, signature)
		}
		sort.Strings(signatures)
		for _, signature := range signatures {
			subtree := subtrees[position][signature]
			if !wildcard && !names[subtree.Category().Name()] {
				continue
			}
			for _, pattern := range patterns {
				if pattern.Contains(subtree.Category()) {
					candidates = append(candidates, subtree)
					break
				}
			}
		}
	}
	return candidates
}

func hasLabel(labels []categorization.LinkLabel,
	label categorization.LinkLabel) bool {
	for _, candidate := range labels {
		if candidate == label {
			return true
		}
	}
	return false
}

func coverageOverlaps(combination []*trees.BuildNode) bool {
	for i, component := range combination {
		for _, other := range combination[i+1:] {
			if component.CoverageOverlaps(other) {
				return true
			}
		}
	}
	return false
}

// eachCombination calls visit with every selection of one element per
// group.
func eachCombination(groups [][]*trees.BuildNode,
	visit func([]*trees.BuildNode)) {
	selection := make([]*trees.BuildNode, len(groups))
	var recurse func(index int)
	recurse = func(index int) {
		if index == len(groups) {
			visit(selection)
			return
		}
		for _, candidate := range groups[index] {
			selection[index] = candidate
			recurse(index + 1)
		}
	}
	recurse(0)
}

// FormatText renders a generated tree's text as a presentable sentence:
// leading capital, punctuation attached to its neighbor.
func FormatText(text string) string {
	if text == "" {
		return text
	}
	runes := []rune(text)
	runes[0] = unicode.ToUpper(runes[0])
	text = string(runes)
	for _, punctuation := range []string{",", ".", "?", "!", ":", ";", ")", "]", "}"} {
		text = strings.ReplaceAll(text, " "+punctuation, punctuation)
	}
	for _, punctuation := range []string{"(", "[", "{"} {
		text = strings.ReplaceAll(text, punctuation+" ", punctuation)
	}
	return text
}
