package graphs

import (
	"github.com/pkg/errors"

	"github.com/hosford42/pyramids/categorization"
	"github.com/hosford42/pyramids/tokenization"
)

// ContentHandler receives language content events during a tree traversal,
// in the style of a SAX content handler.
type ContentHandler interface {
	// HandleTreeEnd marks the end of one tree.
	HandleTreeEnd() error

	// HandleToken reports a token. A negative index asks the handler to
	// assign positions in arrival order. The returned position identifies
	// the token in later link events.
	HandleToken(spelling string, category categorization.Category, index int,
		span tokenization.Span) (int, error)

	// HandleRoot marks the next token as the root of the tree.
	HandleRoot() error

	// HandleLink reports a labeled edge. Both endpoints have already been
	// reported through HandleToken; the indices are the ones passed there.
	HandleLink(sourceIndex, sinkIndex int, label categorization.LinkLabel) error

	// HandlePhraseStart marks the start of a phrase headed by the token
	// with the given index.
	HandlePhraseStart(category categorization.Category, headIndex int) error

	// HandlePhraseEnd closes the innermost open phrase.
	HandlePhraseEnd() error
}

type phraseFrame struct {
	headIndex int
	category  categorization.Category
	edges     []Edge
}

// Builder is a ContentHandler that assembles semantic graphs from tree
// traversals.
type Builder struct {
	counter     int
	root        int
	tokens      []Token
	links       []map[int]labelSet
	phrases     [][]Phrase
	indexMap    map[int]int // caller token index -> graph position
	phraseStack []*phraseFrame
	graphs      []*Graph
}

// NewBuilder creates an empty graph builder.
func NewBuilder() *Builder {
	return &Builder{root: -1, indexMap: map[int]int{}}
}

// Graphs finishes any tree in progress and returns the graphs collected so
// far, resetting the builder.
func (b *Builder) Graphs() ([]*Graph, error) {
	if len(b.tokens) > 0 {
		if err := b.HandleTreeEnd(); err != nil {
			return nil, err
		}
	}
	graphs := b.graphs
	b.graphs = nil
	return graphs, nil
}

// HandleTreeEnd closes the current tree and stores its graph.
func (b *Builder) HandleTreeEnd() error {
	if b.root < 0 {
		return errors.New("tree ended without a root token")
	}
	if len(b.phraseStack) > 0 {
		return errors.Errorf("tree ended with %d open phrases", len(b.phraseStack))
	}
	b.graphs = append(b.graphs, newGraph(b.root, b.tokens, b.links, b.phrases))

	b.counter = 0
	b.root = -1
	b.tokens = nil
	b.links = nil
	b.phrases = nil
	b.indexMap = map[int]int{}
	return nil
}

// HandleToken records a token and returns its graph position.
func (b *Builder) HandleToken(spelling string, category categorization.Category,
	index int, span tokenization.Span) (int, error) {
	if index < 0 {
		index = b.counter
		b.counter++
	} else if _, claimed := b.indexMap[index]; claimed {
		return 0, errors.Errorf("token index %d reported twice", index)
	}
	position := len(b.tokens)
	b.indexMap[index] = position
	b.tokens = append(b.tokens, Token{
		Index:    index,
		Spelling: spelling,
		Span:     span,
		Category: category,
	})
	b.links = append(b.links, map[int]labelSet{})
	b.phrases = append(b.phrases, []Phrase{{Category: category}})
	return position, nil
}

// HandleRoot marks the next token as the root.
func (b *Builder) HandleRoot() error {
	if b.root >= 0 {
		return errors.New("root reported twice")
	}
	b.root = len(b.tokens)
	return nil
}

// HandleLink records a labeled edge between two reported tokens.
func (b *Builder) HandleLink(sourceIndex, sinkIndex int,
	label categorization.LinkLabel) error {
	source, ok := b.indexMap[sourceIndex]
	if !ok {
		return errors.Errorf("link source %d was never reported", sourceIndex)
	}
	sink, ok := b.indexMap[sinkIndex]
	if !ok {
		return errors.Errorf("link sink %d was never reported", sinkIndex)
	}
	if len(b.phraseStack) == 0 {
		return errors.New("link reported outside any phrase")
	}
	labels := b.links[source][sink]
	if labels == nil {
		labels = labelSet{}
		b.links[source][sink] = labels
	}
	labels[label] = true

	frame := b.phraseStack[len(b.phraseStack)-1]
	frame.edges = append(frame.edges, Edge{Source: source, Sink: sink})
	return nil
}

// HandlePhraseStart opens a phrase headed by the token with the given
// index.
func (b *Builder) HandlePhraseStart(category categorization.Category,
	headIndex int) error {
	b.phraseStack = append(b.phraseStack, &phraseFrame{
		headIndex: headIndex,
		category:  category,
	})
	return nil
}

// HandlePhraseEnd closes the innermost phrase and pushes it onto its
// head's phrase stack.
func (b *Builder) HandlePhraseEnd() error {
	if len(b.phraseStack) == 0 {
		return errors.New("phrase ended without a start")
	}
	frame := b.phraseStack[len(b.phraseStack)-1]
	b.phraseStack = b.phraseStack[:len(b.phraseStack)-1]
	head, ok := b.indexMap[frame.headIndex]
	if !ok {
		return errors.Errorf("phrase head %d was never reported", frame.headIndex)
	}
	b.phrases[head] = append(b.phrases[head], Phrase{
		Category: frame.category,
		Edges:    frame.edges,
	})
	return nil
}
