package grammar

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/hosford42/pyramids/categorization"
	"github.com/hosford42/pyramids/rules"
)

// stripComment removes a trailing '#' comment and trailing whitespace.
func stripComment(raw string) string {
	line := raw
	if i := strings.Index(line, "#"); i >= 0 {
		line = line[:i]
	}
	return strings.TrimRight(line, " \t\r\n")
}

func isIndented(line string) bool {
	return line != "" && (line[0] == ' ' || line[0] == '\t')
}

// ParseGrammarDefinition parses a grammar definition file: category header
// lines ("CAT:" or "CAT: sequence"), followed by indented lines holding
// optional match rule groups, optional conditional property rules, and the
// sequence definitions they apply to.
func (p *Parser) ParseGrammarDefinition(reader io.Reader,
	filename string) ([]*rules.SequenceRule, error) {
	var sequenceRules []*rules.SequenceRule
	var category categorization.Category
	var matchRules [][]rules.SubtreeMatchRule
	var propertyRules []rules.PropertyRule
	matchClosed := false
	propertyClosed := false
	sequenceFound := false

	scanner := bufio.NewScanner(reader)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		raw := scanner.Text()
		line := stripComment(raw)
		if line == "" {
			continue
		}
		if isIndented(line) {
			if i := strings.Index(line, ":"); i >= 0 {
				return nil, withInfo(syntaxError("unexpected: ':'", 1+i),
					filename, lineNumber, raw)
			}
			if category.IsZero() {
				return nil, withInfo(syntaxError("expected: category header", 1),
					filename, lineNumber, raw)
			}
			trimmed := strings.TrimSpace(line)
			indent := 1 + strings.Index(line, trimmed)
			switch {
			case strings.HasPrefix(trimmed, "["):
				if matchClosed {
					return nil, withInfo(syntaxError("unexpected: match rule", indent),
						filename, lineNumber, raw)
				}
				group, err := p.ParseMatchRule(trimmed, indent)
				if err != nil {
					return nil, withInfo(err, filename, lineNumber, raw)
				}
				matchRules = append(matchRules, group)
			case strings.Contains(trimmed, "["):
				if propertyClosed {
					return nil, withInfo(syntaxError("unexpected: property rule", indent),
						filename, lineNumber, raw)
				}
				matchClosed = true
				propertyRule, err := p.parsePropertyRule(trimmed, indent)
				if err != nil {
					return nil, withInfo(err, filename, lineNumber, raw)
				}
				propertyRules = append(propertyRules, propertyRule)
			default:
				matchClosed = true
				propertyClosed = true
				if i := strings.Index(line, "]"); i >= 0 {
					return nil, withInfo(syntaxError("unexpected: ']'", 1+i),
						filename, lineNumber, raw)
				}
				rule, err := p.ParseSequenceRule(category, trimmed, indent,
					matchRules, propertyRules)
				if err != nil {
					return nil, withInfo(err, filename, lineNumber, raw)
				}
				sequenceRules = append(sequenceRules, rule)
				sequenceFound = true
			}
		} else {
			if !category.IsZero() && !sequenceFound {
				return nil, withInfo(syntaxError("expected: category sequence", 1),
					filename, lineNumber, raw)
			}
			colon := strings.Index(line, ":")
			if colon < 0 {
				return nil, withInfo(syntaxError("expected: ':'", 1+len(line)),
					filename, lineNumber, raw)
			}
			if second := strings.Index(line[colon+1:], ":"); second >= 0 {
				return nil, withInfo(syntaxError("unexpected: ':'", 1+colon+1+second),
					filename, lineNumber, raw)
			}
			header, sequence := line[:colon], line[colon+1:]
			parsed, err := p.ParseCategory(header)
			if err != nil {
				return nil, withInfo(err, filename, lineNumber, raw)
			}
			category = parsed
			matchRules = nil
			propertyRules = nil
			matchClosed = false
			propertyClosed = false
			if strings.TrimSpace(sequence) != "" {
				trimmed := strings.TrimSpace(sequence)
				indent := 1 + colon + 1 + strings.Index(sequence, trimmed)
				rule, err := p.ParseSequenceRule(category, trimmed, indent, nil, nil)
				if err != nil {
					return nil, withInfo(err, filename, lineNumber, raw)
				}
				sequenceRules = append(sequenceRules, rule)
				sequenceFound = true
			} else {
				sequenceFound = false
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading grammar definition %s", filename)
	}
	return sequenceRules, nil
}

// ParseSuffixFile parses a suffix file: lines of the form
// "CAT: + suffix suffix ..." or "CAT: - suffix suffix ...".
func (p *Parser) ParseSuffixFile(reader io.Reader,
	filename string) ([]*rules.SuffixRule, error) {
	var leafRules []*rules.SuffixRule
	scanner := bufio.NewScanner(reader)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		raw := scanner.Text()
		line := stripComment(raw)
		if line == "" {
			continue
		}
		colon := strings.Index(line, ":")
		if colon < 0 {
			return nil, withInfo(syntaxError("expected: ':'", 1+len(line)),
				filename, lineNumber, raw)
		}
		if second := strings.Index(line[colon+1:], ":"); second >= 0 {
			return nil, withInfo(syntaxError("unexpected: ':'", 1+colon+1+second),
				filename, lineNumber, raw)
		}
		category, err := p.ParseCategory(line[:colon])
		if err != nil {
			return nil, withInfo(err, filename, lineNumber, raw)
		}
		fields := strings.Fields(line[colon+1:])
		if len(fields) == 0 || (fields[0] != "+" && fields[0] != "-") {
			return nil, withInfo(syntaxError("expected: '+' or '-'", 1+colon+1),
				filename, lineNumber, raw)
		}
		positive := fields[0] == "+"
		suffixes := fields[1:]
		if len(suffixes) == 0 {
			suffixes = []string{""}
		}
		leafRules = append(leafRules, rules.NewSuffixRule(category, suffixes, positive))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading suffix file %s", filename)
	}
	return leafRules, nil
}

// ParseSpecialWordsFile parses a special words file: lines of the form
// "CAT: word word ...".
func (p *Parser) ParseSpecialWordsFile(reader io.Reader,
	filename string) ([]*rules.SetRule, error) {
	var leafRules []*rules.SetRule
	scanner := bufio.NewScanner(reader)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		raw := scanner.Text()
		line := stripComment(raw)
		if line == "" {
			continue
		}
		colon := strings.Index(line, ":")
		if colon < 0 {
			return nil, withInfo(syntaxError("expected: ':'", 1+len(line)),
				filename, lineNumber, raw)
		}
		category, err := p.ParseCategory(line[:colon])
		if err != nil {
			return nil, withInfo(err, filename, lineNumber, raw)
		}
		leafRules = append(leafRules,
			rules.NewSetRule(category, strings.Fields(line[colon+1:]), ""))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading special words file %s", filename)
	}
	return leafRules, nil
}

// ParsePropertyInheritanceFile parses a property inheritance file: lines
// of the form "CAT(props): prop -prop ...".
func (p *Parser) ParsePropertyInheritanceFile(reader io.Reader,
	filename string) ([]*rules.InheritanceRule, error) {
	var inheritanceRules []*rules.InheritanceRule
	scanner := bufio.NewScanner(reader)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		raw := scanner.Text()
		line := stripComment(raw)
		if line == "" {
			continue
		}
		colon := strings.Index(line, ":")
		if colon < 0 {
			return nil, withInfo(syntaxError("expected: ':'", 1+len(line)),
				filename, lineNumber, raw)
		}
		if second := strings.Index(line[colon+1:], ":"); second >= 0 {
			return nil, withInfo(syntaxError("unexpected: ':'", 1+colon+1+second),
				filename, lineNumber, raw)
		}
		category, err := p.ParseCategory(line[:colon])
		if err != nil {
			return nil, withInfo(err, filename, lineNumber, raw)
		}
		additions := strings.Fields(line[colon+1:])
		if len(additions) == 0 {
			return nil, withInfo(syntaxError("expected: property", 1+colon+1),
				filename, lineNumber, raw)
		}
		var positive, negative []string
		for _, addition := range additions {
			if strings.HasPrefix(addition, "-") {
				name := addition[1:]
				if strings.HasPrefix(name, "-") {
					return nil, withInfo(syntaxError("unexpected: '-'",
						2+strings.Index(line, "--")), filename, lineNumber, raw)
				}
				negative = append(negative, name)
			} else {
				positive = append(positive, addition)
			}
		}
		for _, name := range negative {
			for _, other := range positive {
				if name == other {
					return nil, withInfo(syntaxError(
						"conflicting property signs: "+name, 1+colon+1),
						filename, lineNumber, raw)
				}
			}
		}
		inheritanceRules = append(inheritanceRules, rules.NewInheritanceRule(category,
			p.registry.PropertySet(positive...), p.registry.PropertySet(negative...)))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading property inheritance file %s", filename)
	}
	return inheritanceRules, nil
}
