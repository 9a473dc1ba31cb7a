package trees

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/hosford42/pyramids/categorization"
	"github.com/hosford42/pyramids/tokenization"
)

// ParseTree is a complete parse tree: a root node set over a token sequence.
type ParseTree struct {
	tokens tokenization.TokenSequence
	root   *NodeSet
}

// NewParseTree wraps a root node set as a complete tree.
func NewParseTree(tokens tokenization.TokenSequence, root *NodeSet) *ParseTree {
	return &ParseTree{tokens: tokens, root: root}
}

// Tokens returns the token sequence the tree covers part of.
func (t *ParseTree) Tokens() tokenization.TokenSequence { return t.tokens }

// Root returns the tree's root node set.
func (t *ParseTree) Root() *NodeSet { return t.root }

// Category returns the root category.
func (t *ParseTree) Category() categorization.Category { return t.root.Category() }

// Start returns the index of the first covered token.
func (t *ParseTree) Start() int { return t.root.Start() }

// End returns the index one past the last covered token.
func (t *ParseTree) End() int { return t.root.End() }

// Coverage computes the number of distinct tree variations this tree groups.
func (t *ParseTree) Coverage() int { return t.root.Coverage() }

// Score returns the root's weighted score and weight.
func (t *ParseTree) Score() (score, weight float64) { return t.root.Score() }

// ToString renders the tree.
func (t *ParseTree) ToString(simplify bool) string {
	return t.root.BestNode().ToString(simplify)
}

func (t *ParseTree) String() string { return t.ToString(true) }

// Restrict returns the subtrees whose categories satisfy any of the given
// restriction patterns, searching top-down and stopping at the first match
// on each path.
func (t *ParseTree) Restrict(patterns []categorization.Category) []*ParseTree {
	var results []*ParseTree
	var walk func(set *NodeSet)
	walk = func(set *NodeSet) {
		for _, pattern := range patterns {
			if pattern.Contains(set.Category()) {
				results = append(results, NewParseTree(t.tokens, set))
				return
			}
		}
		for _, component := range set.BestNode().Components() {
			walk(component)
		}
	}
	walk(t.root)
	return results
}

// OverlapsWith reports whether the two trees cover intersecting token
// spans.
func (t *ParseTree) OverlapsWith(other *ParseTree) bool {
	return (t.Start() <= other.Start() && other.Start() < t.End()) ||
		(other.Start() <= t.Start() && t.Start() < other.End())
}

// AdjustScore applies feedback to every rule application in the tree and
// then rebuilds the scores bottom-up.
func (t *ParseTree) AdjustScore(target float64) error {
	if err := t.root.BestNode().AdjustScore(target); err != nil {
		return err
	}
	// Recompute from the leaves upward so every cached score reflects the
	// adjusted measures.
	var leaves []*Node
	var collect func(node *Node)
	collect = func(node *Node) {
		if node.IsLeaf() {
			leaves = append(leaves, node)
			return
		}
		for _, component := range node.Components() {
			for _, member := range component.Nodes() {
				collect(member)
			}
		}
	}
	collect(t.root.BestNode())
	seen := map[*Node]bool{}
	queue := leaves
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		if seen[node] {
			continue
		}
		seen[node] = true
		node.recomputeScore()
		for _, set := range node.parents {
			set.propagateScore(node)
			queue = append(queue, set.parents...)
		}
	}
	return nil
}

// Forest is a finished parse: the collection of parse trees that apply to
// the input, which may overlap when the input is ambiguous or may leave
// gaps when no complete parse was found.
type Forest struct {
	tokens tokenization.TokenSequence
	trees  []*ParseTree
	score  float64
	weight float64
}

// NewForest builds a forest and computes its aggregate score.
func NewForest(tokens tokenization.TokenSequence, parseTrees []*ParseTree) *Forest {
	f := &Forest{tokens: tokens, trees: parseTrees}
	f.updateScore()
	return f
}

func (f *Forest) updateScore() {
	var totalScore, totalWeight float64
	for _, tree := range f.trees {
		score, weight := tree.Score()
		totalScore += score
		totalWeight += weight
	}
	if totalWeight > 0 {
		f.score = totalScore / totalWeight
	} else {
		f.score = 0
	}
	f.weight = totalWeight
}

// Tokens returns the token sequence the forest was parsed from.
func (f *Forest) Tokens() tokenization.TokenSequence { return f.tokens }

// Trees returns the parse trees in the forest.
func (f *Forest) Trees() []*ParseTree { return f.trees }

// Score returns the forest's aggregate score and weight.
func (f *Forest) Score() (score, weight float64) { return f.score, f.weight }

// Coverage computes the number of distinct tree variation combinations.
func (f *Forest) Coverage() int {
	total := 1
	for _, tree := range f.trees {
		total *= tree.Coverage()
	}
	return total
}

// ToString renders every tree in the forest.
func (f *Forest) ToString(simplify bool) string {
	rendered := make([]string, len(f.trees))
	for i, tree := range f.trees {
		rendered[i] = tree.ToString(simplify)
	}
	return strings.Join(rendered, "\n")
}

func (f *Forest) String() string { return f.ToString(true) }

// AdjustScore applies feedback to every tree in the forest.
func (f *Forest) AdjustScore(target float64) error {
	for _, tree := range f.trees {
		if err := tree.AdjustScore(target); err != nil {
			return err
		}
	}
	f.updateScore()
	return nil
}

// Restrict filters the forest to subtrees matching any of the given
// restriction patterns.
func (f *Forest) Restrict(patterns []categorization.Category) *Forest {
	var restricted []*ParseTree
	for _, tree := range f.trees {
		restricted = append(restricted, tree.Restrict(patterns)...)
	}
	return NewForest(f.tokens, restricted)
}

// Rank orders competing disambiguations: fewer uncovered tokens first, then
// fewer trees, then higher score, then higher weight.
type Rank struct {
	GapSize   int
	TreeCount int
	Score     float64
	Weight    float64
}

// Less reports whether r ranks strictly better than other.
func (r Rank) Less(other Rank) bool {
	if r.GapSize != other.GapSize {
		return r.GapSize < other.GapSize
	}
	if r.TreeCount != other.TreeCount {
		return r.TreeCount < other.TreeCount
	}
	if r.Score != other.Score {
		return r.Score > other.Score
	}
	return r.Weight > other.Weight
}

// GetRank computes the forest's rank.
func (f *Forest) GetRank() Rank {
	return Rank{
		GapSize:   f.TotalGapSize(),
		TreeCount: len(f.trees),
		Score:     f.score,
		Weight:    f.weight,
	}
}

// Gap is a maximal run of tokens not covered by any tree in the forest.
type Gap struct {
	Start int
	End   int
}

// Gaps returns the uncovered token ranges in order.
func (f *Forest) Gaps() []Gap {
	var gaps []Gap
	gapStart := -1
	for index := 0; index < f.tokens.Len(); index++ {
		covered := false
		for _, tree := range f.trees {
			if tree.Start() <= index && index < tree.End() {
				covered = true
				break
			}
		}
		if covered {
			if gapStart >= 0 {
				gaps = append(gaps, Gap{Start: gapStart, End: index})
				gapStart = -1
			}
		} else if gapStart < 0 {
			gapStart = index
		}
	}
	if gapStart >= 0 {
		gaps = append(gaps, Gap{Start: gapStart, End: f.tokens.Len()})
	}
	return gaps
}

// HasGaps reports whether any token is uncovered.
func (f *Forest) HasGaps() bool { return len(f.Gaps()) > 0 }

// TotalGapSize returns the number of uncovered tokens.
func (f *Forest) TotalGapSize() int {
	size := 0
	for _, gap := range f.Gaps() {
		size += gap.End - gap.Start
	}
	return size
}

// IsAmbiguous reports whether any two trees in the forest overlap.
func (f *Forest) IsAmbiguous() bool {
	for i, tree := range f.trees {
		for _, other := range f.trees[i+1:] {
			if tree.OverlapsWith(other) {
				return true
			}
		}
	}
	return false
}

// Disambiguate greedily selects a non-overlapping subset of trees, best
// scores first.
func (f *Forest) Disambiguate() *Forest {
	if len(f.trees) <= 1 {
		return f
	}
	ordered := make([]*ParseTree, len(f.trees))
	copy(ordered, f.trees)
	sort.SliceStable(ordered, func(i, j int) bool {
		si, wi := ordered[i].Score()
		sj, wj := ordered[j].Score()
		if si != sj {
			return si > sj
		}
		return wi > wj
	})
	var chosen []*ParseTree
	for _, tree := range ordered {
		overlaps := false
		for _, kept := range chosen {
			if tree.OverlapsWith(kept) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			chosen = append(chosen, tree)
		}
	}
	return NewForest(f.tokens, chosen)
}

func (f *Forest) maxTreeWidth() int {
	maxWidth := 0
	for _, tree := range f.trees {
		if width := tree.End() - tree.Start(); width > maxWidth {
			maxWidth = width
		}
	}
	return maxWidth
}

func (f *Forest) minDisambiguationSize() int {
	maxWidth := f.maxTreeWidth()
	if maxWidth == 0 {
		return 0
	}
	return int(math.Floor(float64(f.tokens.Len()) / float64(maxWidth)))
}

// Disambiguations enumerates complete, non-overlapping selections of trees,
// searching the smallest numbers of gaps and pieces first. The search stops
// at the first (gaps, pieces) combination that yields results, or when the
// deadline passes. A zero deadline means no limit.
func (f *Forest) Disambiguations(deadline time.Time) []*Forest {
	var results []*Forest
	minGaps := f.TotalGapSize()
	minPieces := f.minDisambiguationSize()
	for gaps := minGaps; gaps <= f.tokens.Len(); gaps++ {
		for pieces := minPieces; pieces <= f.tokens.Len(); pieces++ {
			expired := f.disambiguationTails(0, f.tokens.Len(), gaps, pieces, deadline,
				nil, func(selection []*ParseTree) {
					chosen := make([]*ParseTree, len(selection))
					copy(chosen, selection)
					results = append(results, NewForest(f.tokens, chosen))
				})
			if len(results) > 0 || expired {
				return results
			}
		}
	}
	return results
}

// disambiguationTails extends a partial selection from token position index,
// allowing the given remaining gaps and pieces. Reports whether the deadline
// expired.
func (f *Forest) disambiguationTails(index, maxIndex, gaps, pieces int,
	deadline time.Time, selection []*ParseTree, emit func([]*ParseTree)) bool {
	if !deadline.IsZero() && time.Now().After(deadline) {
		return true
	}
	if index >= f.tokens.Len() {
		if gaps == 0 && pieces == 0 {
			emit(selection)
		}
		return false
	}
	if index >= maxIndex || pieces <= 0 {
		return false
	}
	nearestEnd := -1
	for _, tree := range f.trees {
		if tree.Start() != index {
			continue
		}
		if nearestEnd < 0 || tree.End() < nearestEnd {
			nearestEnd = tree.End()
		}
		if f.disambiguationTails(tree.End(), maxIndex, gaps, pieces-1, deadline,
			append(selection, tree), emit) {
			return true
		}
	}
	if nearestEnd < 0 {
		if gaps > 0 {
			return f.disambiguationTails(index+1, maxIndex, gaps-1, pieces, deadline,
				selection, emit)
		}
		return false
	}
	for overlap := index + 1; overlap < nearestEnd; overlap++ {
		if f.disambiguationTails(overlap, nearestEnd, gaps, pieces, deadline,
			selection, emit) {
			return true
		}
	}
	return false
}

// RankedDisambiguations returns the disambiguations sorted best-first.
func (f *Forest) RankedDisambiguations(deadline time.Time) []*Forest {
	disambiguations := f.Disambiguations(deadline)
	sort.SliceStable(disambiguations, func(i, j int) bool {
		return disambiguations[i].GetRank().Less(disambiguations[j].GetRank())
	})
	return disambiguations
}
