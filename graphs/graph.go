// Package graphs represents parsed language content as semantic graphs:
// tokens linked by labeled edges, with the phrase categories stacked over
// each head token. Graphs are what parsing ultimately produces and what
// generation starts from.
package graphs

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hosford42/pyramids/categorization"
	"github.com/hosford42/pyramids/tokenization"
)

// Token is one token of a graph: its index in the original input, its
// spelling, its character span, and its leaf category.
type Token struct {
	Index    int
	Spelling string
	Span     tokenization.Span
	Category categorization.Category
}

// Edge identifies a link between two tokens by graph position.
type Edge struct {
	Source int
	Sink   int
}

// Phrase is one phrase headed by a token: its category and the edges the
// phrase contributed.
type Phrase struct {
	Category categorization.Category
	Edges    []Edge
}

type labelSet map[categorization.LinkLabel]bool

// Graph is the semantic graph of one parse tree. Token positions index
// everything; the root position heads the whole graph.
type Graph struct {
	root     int
	tokens   []Token
	links    []map[int]labelSet // source position -> sink position -> labels
	reversed []map[int]labelSet // sink position -> source position -> labels
	phrases  [][]Phrase         // per head position, innermost first
}

// newGraph assembles a graph. The links and phrases slices are indexed by
// token position; the last phrase of each stack is the largest phrase
// headed there.
func newGraph(root int, tokens []Token, links []map[int]labelSet,
	phrases [][]Phrase) *Graph {
	reversed := make([]map[int]labelSet, len(tokens))
	for sink := range reversed {
		reversed[sink] = map[int]labelSet{}
	}
	for source, sinkMap := range links {
		for sink, labels := range sinkMap {
			reversed[sink][source] = labels
		}
	}
	return &Graph{
		root:     root,
		tokens:   tokens,
		links:    links,
		reversed: reversed,
		phrases:  phrases,
	}
}

// RootIndex returns the position of the root token.
func (g *Graph) RootIndex() int { return g.root }

// RootCategory returns the topmost phrase category of the root token.
func (g *Graph) RootCategory() categorization.Category {
	return g.PhraseCategory(g.root)
}

// Len returns the number of tokens.
func (g *Graph) Len() int { return len(g.tokens) }

// Token returns the token at the position.
func (g *Graph) Token(position int) Token { return g.tokens[position] }

// Tokens returns all tokens in position order.
func (g *Graph) Tokens() []Token { return g.tokens }

// PhraseCategory returns the category of the largest phrase headed by the
// token at the position, or the token's own category when it heads no
// phrase.
func (g *Graph) PhraseCategory(head int) categorization.Category {
	stack := g.phrases[head]
	if len(stack) == 0 {
		return g.tokens[head].Category
	}
	return stack[len(stack)-1].Category
}

// PhraseStack returns all phrases headed by the token at the position,
// innermost first.
func (g *Graph) PhraseStack(head int) []Phrase { return g.phrases[head] }

// Sinks returns the positions reachable by one edge from the source, in
// order.
func (g *Graph) Sinks(source int) []int {
	return sortedKeys(g.links[source])
}

// Sources returns the positions with an edge into the sink, in order.
func (g *Graph) Sources(sink int) []int {
	return sortedKeys(g.reversed[sink])
}

func sortedKeys(m map[int]labelSet) []int {
	keys := make([]int, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Ints(keys)
	return keys
}

// Labels returns the labels of the edges from source to sink, sorted.
func (g *Graph) Labels(source, sink int) []categorization.LinkLabel {
	labels := make([]categorization.LinkLabel, 0, len(g.links[source][sink]))
	for label := range g.links[source][sink] {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i].Less(labels[j]) })
	return labels
}

// HasEdge reports whether any edge runs from source to sink.
func (g *Graph) HasEdge(source, sink int) bool {
	return len(g.links[source][sink]) > 0
}

func (g *Graph) collectPhrase(head int, positions map[int]bool) {
	if positions[head] {
		return
	}
	positions[head] = true
	for _, sink := range g.Sinks(head) {
		g.collectPhrase(sink, positions)
	}
}

// PhraseTokens returns the tokens of the largest phrase headed at the
// position, in position order.
func (g *Graph) PhraseTokens(head int) []Token {
	positions := map[int]bool{}
	g.collectPhrase(head, positions)
	ordered := make([]int, 0, len(positions))
	for position := range positions {
		ordered = append(ordered, position)
	}
	sort.Ints(ordered)
	tokens := make([]Token, len(ordered))
	for i, position := range ordered {
		tokens[i] = g.tokens[position]
	}
	return tokens
}

// PhraseText reconstructs the text of the largest phrase headed at the
// position, using the tokens' original character spans.
func (g *Graph) PhraseText(head int) string {
	var buffer []byte
	for _, token := range g.PhraseTokens(head) {
		for len(buffer) < token.Span.End {
			buffer = append(buffer, ' ')
		}
		copy(buffer[token.Span.Start:token.Span.End], token.Spelling)
	}
	return strings.Join(strings.Fields(string(buffer)), " ")
}

// String renders the graph with one line per token and its outgoing
// labeled edges. The root token is starred.
func (g *Graph) String() string {
	var b strings.Builder
	b.WriteString(g.RootCategory().String())
	b.WriteByte(':')
	for position, token := range g.tokens {
		b.WriteString("\n  ")
		if position == g.root {
			b.WriteByte('*')
		}
		b.WriteString(token.Spelling)
		b.WriteByte(':')
		for _, sink := range g.Sinks(position) {
			labels := make([]string, 0, len(g.links[position][sink]))
			for _, label := range g.Labels(position, sink) {
				labels = append(labels, label.String())
			}
			fmt.Fprintf(&b, "\n    %s: %s", strings.Join(labels, "|"),
				g.tokens[sink].Spelling)
		}
	}
	return b.String()
}
