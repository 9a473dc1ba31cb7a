// Package tokenization provides the token sequence type consumed by the
// parser and a standard regexp-based tokenizer.
package tokenization

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Span is the start and end character offsets of a token in the input text.
type Span struct {
	Start int
	End   int
}

// Token is one token of input, with its position in the original text.
type Token struct {
	Spelling string
	Span     Span
}

// TokenSequence is an immutable sequence of tokens produced for one parse
// input. Token spellings are deduplicated through an interning pool so that
// repeated words share storage and compare cheaply.
type TokenSequence struct {
	tokens []string
	spans  []Span
}

// NewTokenSequence builds a sequence from tokens, interning every spelling
// through the given pool. A nil pool is allowed and disables interning.
func NewTokenSequence(tokens []Token, pool *Pool) TokenSequence {
	spellings := make([]string, len(tokens))
	spans := make([]Span, len(tokens))
	for i, tok := range tokens {
		if pool != nil {
			spellings[i] = pool.Intern(tok.Spelling)
		} else {
			spellings[i] = tok.Spelling
		}
		spans[i] = tok.Span
	}
	return TokenSequence{tokens: spellings, spans: spans}
}

// Len returns the number of tokens in the sequence.
func (s TokenSequence) Len() int { return len(s.tokens) }

// Token returns the spelling of the token at index.
func (s TokenSequence) Token(index int) string { return s.tokens[index] }

// Span returns the character span of the token at index.
func (s TokenSequence) Span(index int) Span { return s.spans[index] }

// Tokens returns the token spellings. The returned slice is shared; callers
// must not modify it.
func (s TokenSequence) Tokens() []string { return s.tokens }

func (s TokenSequence) String() string {
	return strings.Join(s.tokens, " ")
}

// Pool deduplicates token spellings so equal strings share one canonical
// instance. Unlike the grammar symbol registry, the pool is unsynchronized:
// each parser state owns its own pool.
type Pool struct {
	canonical map[string]string
}

// NewPool creates an empty interning pool.
func NewPool() *Pool {
	return &Pool{canonical: map[string]string{}}
}

// Intern returns the canonical instance of s, adding it on first use.
func (p *Pool) Intern(s string) string {
	if canonical, ok := p.canonical[s]; ok {
		return canonical
	}
	p.canonical[s] = s
	return s
}

// Size returns the number of distinct spellings in the pool.
func (p *Pool) Size() int { return len(p.canonical) }

// Tokenizer splits text into a token sequence.
type Tokenizer interface {
	Tokenize(text string) TokenSequence
}

// tokenPattern matches a word (with internal apostrophes or hyphens kept
// together), a number, a run of spaces, or any single other character.
var tokenPattern = regexp.MustCompile(`[A-Za-z]+(?:['-][A-Za-z]+)*|\d+(?:\.\d+)?|\s+|.`)

// StandardTokenizer is the default word/number/punctuation splitter.
type StandardTokenizer struct {
	// DiscardSpaces drops whitespace tokens from the output.
	DiscardSpaces bool

	pool *Pool
}

// NewStandardTokenizer creates a tokenizer with its own interning pool.
func NewStandardTokenizer(discardSpaces bool) *StandardTokenizer {
	return &StandardTokenizer{DiscardSpaces: discardSpaces, pool: NewPool()}
}

// Tokenize splits text into tokens, recording each token's character span.
func (t *StandardTokenizer) Tokenize(text string) TokenSequence {
	matches := tokenPattern.FindAllStringIndex(text, -1)
	tokens := make([]Token, 0, len(matches))
	for _, match := range matches {
		start, end := match[0], match[1]
		spelling := text[start:end]
		if t.DiscardSpaces && strings.TrimSpace(spelling) == "" {
			continue
		}
		tokens = append(tokens, Token{Spelling: spelling, Span: Span{Start: start, End: end}})
	}
	return NewTokenSequence(tokens, t.pool)
}

// NewTokenizer constructs a tokenizer by type name. Only the "standard"
// tokenizer is built in.
func NewTokenizer(tokenizerType string, discardSpaces bool) (Tokenizer, error) {
	switch tokenizerType {
	case "", "standard":
		return NewStandardTokenizer(discardSpaces), nil
	default:
		return nil, errors.Errorf("tokenizer type not supported: %s", tokenizerType)
	}
}
