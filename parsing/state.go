package parsing

import (
	"container/heap"
	"log/slog"
	"sort"
	"time"

	"github.com/hosford42/pyramids/categorization"
	"github.com/hosford42/pyramids/model"
	"github.com/hosford42/pyramids/rules"
	"github.com/hosford42/pyramids/tokenization"
	"github.com/hosford42/pyramids/trees"
)

// queueItem is one pending node with the priority captured when it was
// queued. Sequence counters keep equal priorities first-in first-out.
type queueItem struct {
	node   *trees.Node
	score  float64
	weight float64
	seq    int
}

// insertionQueue pops the highest-scoring pending node first.
type insertionQueue []*queueItem

func (q insertionQueue) Len() int { return len(q) }

func (q insertionQueue) Less(i, j int) bool {
	if q[i].score != q[j].score {
		return q[i].score > q[j].score
	}
	if q[i].weight != q[j].weight {
		return q[i].weight > q[j].weight
	}
	return q[i].seq < q[j].seq
}

func (q insertionQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *insertionQueue) Push(x any) { *q = append(*q, x.(*queueItem)) }

func (q *insertionQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// State is the working state of one parse: the accumulated tokens, the
// category map of recognized phrases, the queue of nodes waiting to be
// processed, and the current root node sets. States support incremental
// parsing; feed more tokens in and keep processing.
type State struct {
	model         *model.Model
	logger        *slog.Logger
	pool          *tokenization.Pool
	tokens        []tokenization.Token
	sequence      tokenization.TokenSequence
	sequenceValid bool
	categoryMap   *CategoryMap
	queue         insertionQueue
	nextSeq       int
	knownSets     map[*trees.NodeSet]bool
	roots         map[*trees.NodeSet]bool
}

// NewState creates an empty parser state for the model.
func NewState(m *model.Model) *State {
	return &State{
		model:       m,
		logger:      slog.Default(),
		pool:        tokenization.NewPool(),
		categoryMap: NewCategoryMap(),
		knownSets:   map[*trees.NodeSet]bool{},
		roots:       map[*trees.NodeSet]bool{},
	}
}

// SetLogger replaces the state's logger. The default is slog.Default().
func (s *State) SetLogger(logger *slog.Logger) { s.logger = logger }

// Model returns the model the state parses with.
func (s *State) Model() *model.Model { return s.model }

// CategoryMap returns the state's category map.
func (s *State) CategoryMap() *CategoryMap { return s.categoryMap }

// Tokens returns the tokens accumulated so far as a sequence.
func (s *State) Tokens() tokenization.TokenSequence {
	if !s.sequenceValid {
		s.sequence = tokenization.NewTokenSequence(s.tokens, s.pool)
		s.sequenceValid = true
	}
	return s.sequence
}

// HasPendingNodes reports whether any nodes are waiting to be processed.
func (s *State) HasPendingNodes() bool { return len(s.queue) > 0 }

// AddNode queues a parse tree node for processing.
func (s *State) AddNode(node *trees.Node) {
	score, weight := node.Score()
	heap.Push(&s.queue, &queueItem{node: node, score: score, weight: weight,
		seq: s.nextSeq})
	s.nextSeq++
}

// IsCovered reports whether a single recognized phrase spans the entire
// input.
func (s *State) IsCovered() bool {
	for set := range s.roots {
		if set.End()-set.Start() >= len(s.tokens) {
			return true
		}
	}
	return false
}

// AddToken appends a token to the input and queues a leaf node for every
// leaf rule that recognizes it. Secondary leaf rules only apply when no
// primary rule does.
func (s *State) AddToken(token tokenization.Token) {
	s.tokens = append(s.tokens, token)
	s.sequenceValid = false
	index := len(s.tokens) - 1
	spelling := s.Tokens().Token(index)
	covered := false
	for _, rule := range s.model.PrimaryLeafRules() {
		if s.applyLeafRule(rule, spelling, index) {
			covered = true
		}
	}
	if !covered {
		for _, rule := range s.model.SecondaryLeafRules() {
			s.applyLeafRule(rule, spelling, index)
		}
	}
}

// applyLeafRule queues a leaf node when the rule recognizes the token. The
// token's case classification is promoted onto the rule's category, and the
// model's property inheritance is applied.
func (s *State) applyLeafRule(rule rules.LeafRule, spelling string, index int) bool {
	if !rule.Match(spelling) {
		return false
	}
	positive, negative := rules.CaseProperties(s.model.Registry(), spelling)
	category := rule.Category().PromoteProperties(positive, negative)
	category = s.model.ExtendProperties(category)
	s.AddNode(trees.NewLeafNode(s.Tokens(), rule, index, category))
	return true
}

func expired(deadline time.Time) bool {
	return !deadline.IsZero() && time.Now().After(deadline)
}

// ProcessNode pops pending nodes until one makes an original contribution,
// records it, and tries every branch rule against its node set. Reports
// whether more nodes remain. A zero deadline means no limit.
func (s *State) ProcessNode(deadline time.Time, emergency bool) bool {
	for len(s.queue) > 0 && !expired(deadline) {
		node := heap.Pop(&s.queue).(*queueItem).node
		isNew, err := s.categoryMap.Add(node)
		if err != nil {
			// Only an index entry holding a mismatched node set can get
			// here; dropping the node is safe, but the mismatch itself is
			// a defect worth surfacing.
			s.logger.Error("dropping node rejected by the category index",
				"category", node.Category().String(),
				"start", node.Start(),
				"end", node.End(),
				"error", err)
			continue
		}
		if !isNew {
			continue
		}
		for _, component := range node.Components() {
			delete(s.roots, component)
		}
		set := s.categoryMap.NodeSetFor(node)
		if !s.knownSets[set] {
			s.knownSets[set] = true
			s.roots[set] = true
		}
		for _, rule := range s.model.BranchRules() {
			s.applySequenceRule(rule, set, emergency)
		}
		break
	}
	return len(s.queue) > 0
}

// ProcessNecessaryNodes processes pending nodes until the input is covered
// by a single phrase, the queue drains, or the deadline passes.
func (s *State) ProcessNecessaryNodes(deadline time.Time, emergency bool) {
	for !s.IsCovered() && s.ProcessNode(deadline, emergency) && !expired(deadline) {
	}
}

// ProcessAllNodes processes every pending node, or stops at the deadline.
func (s *State) ProcessAllNodes(deadline time.Time, emergency bool) {
	for s.ProcessNode(deadline, emergency) && !expired(deadline) {
	}
}

// Forest assembles the current roots into a parse forest: one tree for
// each recognized phrase that is not a component of a larger one.
func (s *State) Forest() *trees.Forest {
	roots := make([]*trees.NodeSet, 0, len(s.roots))
	for set := range s.roots {
		roots = append(roots, set)
	}
	sort.Slice(roots, func(i, j int) bool {
		if roots[i].Start() != roots[j].Start() {
			return roots[i].Start() < roots[j].Start()
		}
		if roots[i].End() != roots[j].End() {
			return roots[i].End() < roots[j].End()
		}
		return roots[i].Category().Less(roots[j].Category())
	})
	parseTrees := make([]*trees.ParseTree, len(roots))
	for i, set := range roots {
		parseTrees[i] = trees.NewParseTree(s.Tokens(), set)
	}
	return trees.NewForest(s.Tokens(), parseTrees)
}

// applySequenceRule tries to build new phrases that include the node set
// at each sequence position that admits its category.
func (s *State) applySequenceRule(rule *rules.SequenceRule, set *trees.NodeSet,
	emergency bool) {
	if !rule.CouldContribute(set.Category()) {
		return
	}
	for _, index := range rule.PositionsFor(set.Category()) {
		s.findMatches(rule, index, set, emergency)
	}
}

// findMatches extends the node set at the given sequence position with
// every combination of already-recognized neighbors that completes the
// sequence, and queues the resulting branch nodes. Forward halves are
// collected first; if there are none, the backward search is skipped.
func (s *State) findMatches(rule *rules.SequenceRule, index int,
	set *trees.NodeSet, emergency bool) {
	forwardHalves := s.forwardHalves(rule, index+1, set.End(), emergency)
	if len(forwardHalves) == 0 {
		return
	}
	headIndex := rule.HeadIndex()
	for _, backward := range s.backwardHalves(rule, index-1, set.Start(), emergency) {
		for _, forward := range forwardHalves {
			subtrees := make([]*trees.NodeSet, 0, len(backward)+1+len(forward))
			subtrees = append(subtrees, backward...)
			subtrees = append(subtrees, set)
			subtrees = append(subtrees, forward...)
			categories := make([]categorization.Category, len(subtrees))
			for i, subtree := range subtrees {
				categories[i] = subtree.Category()
			}
			if !rule.MatchesSubtrees(categories) {
				continue
			}
			category := rule.GetCategory(s.model, categories)
			if !rule.IsNonRecursive(category, categories[headIndex]) {
				continue
			}
			node, err := trees.NewBranchNode(s.Tokens(), rule, headIndex, category,
				subtrees)
			if err != nil {
				continue
			}
			s.AddNode(node)
		}
	}
}

// forwardHalves enumerates every way to fill the sequence positions from
// index onward with recognized phrases, starting at the given token
// position. An exhausted sequence yields a single empty half.
func (s *State) forwardHalves(rule *rules.SequenceRule, index, start int,
	emergency bool) [][]*trees.NodeSet {
	sets := rule.SubcategorySets()
	if len(sets)-index > s.categoryMap.MaxEnd()-start {
		return nil
	}
	if index >= len(sets) {
		return [][]*trees.NodeSet{nil}
	}
	var halves [][]*trees.NodeSet
	for _, match := range s.categoryMap.ForwardMatches(start, sets[index], emergency) {
		tails := s.forwardHalves(rule, index+1, match.Position, emergency)
		if len(tails) == 0 {
			continue
		}
		for _, nodeSet := range s.categoryMap.NodeSets(start, match.Category,
			match.Position) {
			for _, tail := range tails {
				half := make([]*trees.NodeSet, 0, 1+len(tail))
				half = append(half, nodeSet)
				half = append(half, tail...)
				halves = append(halves, half)
			}
		}
	}
	return halves
}

// backwardHalves mirrors forwardHalves, filling the sequence positions from
// index backward with phrases ending at the given token position.
func (s *State) backwardHalves(rule *rules.SequenceRule, index, end int,
	emergency bool) [][]*trees.NodeSet {
	// Positions index through 0 each need at least one token before end.
	if index+1 > end {
		return nil
	}
	if index < 0 {
		return [][]*trees.NodeSet{nil}
	}
	sets := rule.SubcategorySets()
	var halves [][]*trees.NodeSet
	for _, match := range s.categoryMap.BackwardMatches(end, sets[index], emergency) {
		tails := s.backwardHalves(rule, index-1, match.Position, emergency)
		if len(tails) == 0 {
			continue
		}
		for _, nodeSet := range s.categoryMap.NodeSets(match.Position, match.Category,
			end) {
			for _, tail := range tails {
				half := make([]*trees.NodeSet, 0, len(tail)+1)
				half = append(half, tail...)
				half = append(half, nodeSet)
				halves = append(halves, half)
			}
		}
	}
	return halves
}
