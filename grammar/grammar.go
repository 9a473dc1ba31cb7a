// Package grammar parses the text formats a parser model is defined in:
// grammar definition files, suffix files, special words files and property
// inheritance files.
package grammar

import (
	"fmt"
	"strings"

	"github.com/hosford42/pyramids/categorization"
)

// SyntaxError is a syntax error in grammar text, positioned by file, line
// and 1-based character offset.
type SyntaxError struct {
	Msg      string
	Filename string
	Line     int
	Offset   int
	Text     string
}

func (e *SyntaxError) Error() string {
	var b strings.Builder
	if e.Filename != "" {
		fmt.Fprintf(&b, "%s:", e.Filename)
	}
	line := e.Line
	if line == 0 {
		line = 1
	}
	fmt.Fprintf(&b, "%d:%d: %s", line, e.Offset, e.Msg)
	if e.Text != "" {
		fmt.Fprintf(&b, " in %q", strings.TrimRight(e.Text, "\n"))
	}
	return b.String()
}

func syntaxError(msg string, offset int) *SyntaxError {
	return &SyntaxError{Msg: msg, Offset: offset}
}

// withInfo fills in file-level context on a syntax error after the fact.
func withInfo(err error, filename string, line int, text string) error {
	if syntaxErr, ok := err.(*SyntaxError); ok {
		if syntaxErr.Filename == "" {
			syntaxErr.Filename = filename
		}
		if syntaxErr.Line == 0 {
			syntaxErr.Line = line
		}
		if syntaxErr.Text == "" {
			syntaxErr.Text = text
		}
	}
	return err
}

// Parser parses grammar text, interning names and properties in its
// registry.
type Parser struct {
	registry *categorization.Registry
}

// NewParser creates a grammar parser over the registry.
func NewParser(registry *categorization.Registry) *Parser {
	return &Parser{registry: registry}
}

// Registry returns the registry the parser interns into.
func (p *Parser) Registry() *categorization.Registry { return p.registry }

// ParseCategory parses a category expression: a name, optionally followed
// by a parenthesized comma-separated property list where denied properties
// carry a '-' prefix. For example, "NP(plural,-proper)".
func (p *Parser) ParseCategory(definition string) (categorization.Category, error) {
	return p.parseCategoryAt(definition, 1)
}

func (p *Parser) parseCategoryAt(definition string, offset int) (categorization.Category, error) {
	var zero categorization.Category
	definition = strings.TrimSpace(definition)
	if !strings.Contains(definition, "(") {
		if i := strings.Index(definition, ")"); i >= 0 {
			return zero, syntaxError("unexpected: ')' in category definition", offset+i)
		}
		if i := strings.Index(definition, ","); i >= 0 {
			return zero, syntaxError("unexpected: ',' in category definition", offset+i)
		}
		if fields := strings.Fields(definition); len(fields) > 1 {
			return zero, syntaxError("unexpected: white space in category definition",
				offset+len(fields[0])+1)
		}
		if definition == "" {
			return zero, syntaxError("expected: category definition", offset)
		}
		category, err := p.registry.Category(definition, nil, nil)
		if err != nil {
			return zero, syntaxError(err.Error(), offset)
		}
		return category, nil
	}

	if !strings.HasSuffix(definition, ")") {
		return zero, syntaxError("expected: ')' in category definition",
			offset+len(definition))
	}
	if first := strings.Index(definition, "("); strings.Contains(definition[first+1:], "(") {
		second := first + 1 + strings.Index(definition[first+1:], "(")
		return zero, syntaxError("unexpected: '(' in category definition", offset+second)
	}
	if first := strings.Index(definition, ")"); first < len(definition)-1 {
		return zero, syntaxError("unexpected: ')' in category definition", offset+first)
	}
	open := strings.Index(definition, "(")
	name := definition[:open]
	propertyList := definition[open+1 : len(definition)-1]
	if i := strings.Index(name, ","); i >= 0 {
		return zero, syntaxError("unexpected: ',' in category definition", offset+i)
	}
	if fields := strings.Fields(name); len(fields) > 1 {
		return zero, syntaxError("unexpected: white space in category definition",
			offset+len(name)+1)
	}

	var positive, negative []string
	for _, raw := range strings.Split(propertyList, ",") {
		prop := strings.TrimSpace(raw)
		if prop == "" {
			return zero, syntaxError("expected: property name", offset+open)
		}
		if strings.HasPrefix(prop, "-") {
			prop = prop[1:]
			if strings.HasPrefix(prop, "-") {
				return zero, syntaxError("unexpected: '-'",
					offset+strings.Index(definition, "--"))
			}
			negative = append(negative, prop)
		} else {
			positive = append(positive, prop)
		}
	}
	for _, prop := range negative {
		for _, other := range positive {
			if prop == other {
				return zero, syntaxError("property is both asserted and denied: "+prop,
					offset+strings.Index(definition, prop))
			}
		}
	}
	category, err := p.registry.Category(name, positive, negative)
	if err != nil {
		return zero, syntaxError(err.Error(), offset)
	}
	return category, nil
}
