package parsing

import (
	"time"

	"github.com/hosford42/pyramids/categorization"
	"github.com/hosford42/pyramids/model"
	"github.com/hosford42/pyramids/tokenization"
	"github.com/hosford42/pyramids/trees"
)

// Options controls a single parse.
type Options struct {
	// Restriction filters the result trees by category. The zero value
	// means the model's default restriction.
	Restriction categorization.Category

	// Fast stops processing as soon as a single phrase covers the input,
	// instead of exhausting the search.
	Fast bool

	// Deadline bounds both the parse and the disambiguation search. The
	// zero value means no limit.
	Deadline time.Time

	// KeepState continues from the previous parse's state instead of
	// starting fresh, for incremental input.
	KeepState bool

	// Emergency relaxes category matching to names only, for salvaging
	// some structure from input the grammar cannot fully cover.
	Emergency bool
}

// Result is the outcome of one parse.
type Result struct {
	// Forests holds the complete disambiguations, best first. When no
	// complete disambiguation was found in time, it holds a single
	// greedy disambiguation instead.
	Forests []*trees.Forest

	// EmergencyDisambiguation reports that Forests holds the greedy
	// fallback.
	EmergencyDisambiguation bool

	// ParseTimedOut reports that the deadline passed during parsing.
	ParseTimedOut bool

	// DisambiguationTimedOut reports that the deadline passed during the
	// disambiguation search.
	DisambiguationTimedOut bool
}

// Parser parses text against a model. A parser keeps its state between
// calls when asked to, so text can be fed incrementally.
type Parser struct {
	model *model.Model
	state *State
}

// NewParser creates a parser for the model.
func NewParser(m *model.Model) *Parser {
	return &Parser{model: m}
}

// Model returns the model the parser runs with.
func (p *Parser) Model() *model.Model { return p.model }

// State returns the current parser state, or nil before the first parse.
func (p *Parser) State() *State { return p.state }

// ClearState discards any accumulated parsing state.
func (p *Parser) ClearState() {
	p.state = NewState(p.model)
}

// Parse tokenizes the text, runs the chart search, and returns the ranked
// complete disambiguations of the restricted parse forest.
func (p *Parser) Parse(text string, options Options) *Result {
	restriction := options.Restriction
	if restriction.IsZero() {
		restriction = p.model.DefaultRestriction()
	}
	if !options.KeepState || p.state == nil {
		p.ClearState()
	}

	sequence := p.model.Tokenizer().Tokenize(text)
	for i := 0; i < sequence.Len(); i++ {
		p.state.AddToken(tokenization.Token{
			Spelling: sequence.Token(i),
			Span:     sequence.Span(i),
		})
	}
	if options.Fast {
		p.state.ProcessNecessaryNodes(options.Deadline, options.Emergency)
	} else {
		p.state.ProcessAllNodes(options.Deadline, options.Emergency)
	}

	result := &Result{ParseTimedOut: expired(options.Deadline)}
	forest := p.state.Forest().Restrict([]categorization.Category{restriction})
	result.Forests = forest.RankedDisambiguations(options.Deadline)
	if len(result.Forests) == 0 {
		result.EmergencyDisambiguation = true
		result.Forests = []*trees.Forest{forest.Disambiguate()}
	}
	result.DisambiguationTimedOut = expired(options.Deadline)
	return result
}
