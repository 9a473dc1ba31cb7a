package graphs

import (
	"sort"
	"strings"

	"github.com/hosford42/pyramids/rules"
	"github.com/hosford42/pyramids/trees"
)

// linker is satisfied by branch rules that emit labeled links between
// their components.
type linker interface {
	LinkTypes(index int) []rules.Link
}

// needSources maps a needed property name to the token positions that can
// supply it. A token asserting needs_X or takes_X offers itself as the
// endpoint for X links made higher in the tree.
type needSources map[string]map[int]bool

func (n needSources) add(name string, position int) {
	if n[name] == nil {
		n[name] = map[int]bool{}
	}
	n[name][position] = true
}

func (n needSources) merge(other needSources) {
	for name, positions := range other {
		for position := range positions {
			n.add(name, position)
		}
	}
}

func (n needSources) sorted(name string) []int {
	positions := make([]int, 0, len(n[name]))
	for position := range n[name] {
		positions = append(positions, position)
	}
	sort.Ints(positions)
	return positions
}

// TraverseForest streams every tree of the forest through the handler,
// best trees first within each starting position.
func TraverseForest(forest *trees.Forest, handler ContentHandler) error {
	ordered := make([]*trees.ParseTree, len(forest.Trees()))
	copy(ordered, forest.Trees())
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Start() != ordered[j].Start() {
			return ordered[i].Start() < ordered[j].Start()
		}
		if ordered[i].End() != ordered[j].End() {
			return ordered[i].End() > ordered[j].End()
		}
		si, wi := ordered[i].Score()
		sj, wj := ordered[j].Score()
		if si != sj {
			return si > sj
		}
		return wi > wj
	})
	for _, tree := range ordered {
		if err := TraverseTree(tree, handler); err != nil {
			return err
		}
		if err := handler.HandleTreeEnd(); err != nil {
			return err
		}
	}
	return nil
}

// TraverseTree streams one tree through the handler, following the best
// node of every node set.
func TraverseTree(tree *trees.ParseTree, handler ContentHandler) error {
	_, err := traverseNode(tree.Root().BestNode(), handler, true)
	return err
}

func traverseNode(node *trees.Node, handler ContentHandler,
	isRoot bool) (needSources, error) {
	if node.IsLeaf() {
		if isRoot {
			if err := handler.HandleRoot(); err != nil {
				return nil, err
			}
		}
		position := node.Start()
		if _, err := handler.HandleToken(node.Tokens().Token(position),
			node.Category(), node.HeadTokenStart(),
			node.Tokens().Span(position)); err != nil {
			return nil, err
		}
		needs := needSources{}
		for _, prop := range node.Category().PositiveProperties().Properties() {
			name := prop.String()
			if strings.HasPrefix(name, "needs_") || strings.HasPrefix(name, "takes_") {
				needs.add(name[6:], node.HeadTokenStart())
			}
		}
		return needs, nil
	}

	headStart := node.HeadTokenStart()
	if err := handler.HandlePhraseStart(node.Category(), headStart); err != nil {
		return nil, err
	}

	// Visit each component, remembering which positions are to receive
	// which potential links.
	componentHeads := make([]int, 0, len(node.Components()))
	needs := needSources{}
	headNeeds := needSources{}
	for index, component := range node.Components() {
		best := component.BestNode()
		componentNeeds, err := traverseNode(best, handler,
			isRoot && index == node.HeadIndex())
		if err != nil {
			return nil, err
		}
		componentHeads = append(componentHeads, best.HeadTokenStart())
		needs.merge(componentNeeds)
		if index == node.HeadIndex() {
			headNeeds = componentNeeds
		}
	}

	rule, _ := node.Rule().(linker)
	for index := 0; index < len(node.Components())-1; index++ {
		if rule == nil {
			break
		}
		var leftSide, rightSide int
		if index < node.HeadIndex() {
			leftSide, rightSide = componentHeads[index], headStart
		} else {
			leftSide, rightSide = headStart, componentHeads[index+1]
		}
		for _, link := range rule.LinkTypes(index) {
			if link.Left {
				if err := emitLink(handler, link, needs, headNeeds,
					rightSide, leftSide); err != nil {
					return nil, err
				}
			}
			if link.Right {
				if err := emitLink(handler, link, needs, headNeeds,
					leftSide, rightSide); err != nil {
					return nil, err
				}
			}
		}
	}

	if err := handler.HandlePhraseEnd(); err != nil {
		return nil, err
	}

	// Decide which positions should receive links from outside this
	// subtree.
	parentNeeds := needSources{}
	for _, prop := range node.Category().PositiveProperties().Properties() {
		name := prop.String()
		if !strings.HasPrefix(name, "needs_") && !strings.HasPrefix(name, "takes_") {
			continue
		}
		needed := name[6:]
		if positions, ok := needs[needed]; ok {
			for position := range positions {
				parentNeeds.add(needed, position)
			}
		} else {
			parentNeeds.add(needed, headStart)
		}
	}
	return parentNeeds, nil
}

// emitLink sends one labeled edge from source to sink, redirecting it when
// the head's subtree declared a pending need matching the label. A label
// X attaches the satisfying positions as sources; a label X_of reverses
// that and attaches them as sinks.
func emitLink(handler ContentHandler, link rules.Link, needs,
	headNeeds needSources, source, sink int) error {
	lower := strings.ToLower(link.Label.String())
	if _, ok := headNeeds[lower]; ok {
		for _, position := range needs.sorted(lower) {
			if err := handler.HandleLink(position, sink, link.Label); err != nil {
				return err
			}
		}
		return nil
	}
	if base, found := strings.CutSuffix(lower, "_of"); found {
		if _, ok := headNeeds[base]; ok {
			for _, position := range needs.sorted(base) {
				if err := handler.HandleLink(sink, position, link.Label); err != nil {
					return err
				}
			}
			return nil
		}
	}
	return handler.HandleLink(source, sink, link.Label)
}
