package grammar

import (
	"strings"
	"unicode"

	"github.com/hosford42/pyramids/categorization"
	"github.com/hosford42/pyramids/rules"
)

// parseSequenceTerm parses one position of a sequence definition: an
// optional '*' head marker followed by '|'-separated category alternatives.
func (p *Parser) parseSequenceTerm(term string, offset int) (isHead bool,
	subcategories []categorization.Category, err error) {
	if strings.HasPrefix(term, "*") {
		term = term[1:]
		offset++
		isHead = true
		if i := strings.Index(term, "*"); i >= 0 {
			return false, nil, syntaxError("unexpected: '*'", offset+i)
		}
	}
	for _, definition := range strings.Split(term, "|") {
		subcategory, err := p.parseCategoryAt(definition, offset)
		if err != nil {
			return false, nil, err
		}
		subcategories = append(subcategories, subcategory)
		offset += len(definition) + 1
	}
	return isHead, subcategories, nil
}

// parseLinkType parses a link term: a link label wrapped in optional '<'
// and '>' arrows, as in "<agent" or "modifies>".
func (p *Parser) parseLinkType(term string, offset int) (rules.Link, error) {
	if i := strings.Index(term[1:], "<"); i >= 0 {
		return rules.Link{}, syntaxError("unexpected: '<'", offset+1+i)
	}
	if i := strings.Index(term[:len(term)-1], ">"); i >= 0 {
		return rules.Link{}, syntaxError("unexpected: '>'", offset+i)
	}
	left := strings.HasPrefix(term, "<")
	right := strings.HasSuffix(term, ">")
	if left {
		term = term[1:]
	}
	if right {
		term = term[:len(term)-1]
	}
	if term == "" {
		if left {
			offset++
		}
		return rules.Link{}, syntaxError("expected: link type", offset)
	}
	return rules.Link{Label: p.registry.LinkLabel(term), Left: left, Right: right}, nil
}

// ParseSequenceRule parses a sequence definition line producing the given
// category: whitespace-separated position terms, with '*' marking the head
// and link terms attaching to the preceding position. The match and
// property rules, parsed from the lines above the definition, filter and
// extend the rule's applications.
func (p *Parser) ParseSequenceRule(category categorization.Category, definition string,
	offset int, matchRules [][]rules.SubtreeMatchRule,
	propertyRules []rules.PropertyRule) (*rules.SequenceRule, error) {
	var subcategorySets [][]categorization.Category
	var linkTypes [][]rules.Link
	headIndex := -1
	term := ""
	termStart := 0
	var lastTermStart, lastTermLen int

	processTerm := func() error {
		if strings.ContainsAny(term, "<>") {
			if len(subcategorySets) == 0 {
				return syntaxError("unexpected: link type", offset+termStart)
			}
			link, err := p.parseLinkType(term, offset+termStart)
			if err != nil {
				return err
			}
			if headIndex < 0 {
				if link.Right {
					return syntaxError("unexpected: right link", offset+termStart)
				}
			} else if link.Left {
				return syntaxError("unexpected: left link", offset+termStart)
			}
			linkTypes[len(linkTypes)-1] = append(linkTypes[len(linkTypes)-1], link)
		} else {
			isHead, subcategories, err := p.parseSequenceTerm(term, offset+termStart)
			if err != nil {
				return err
			}
			if isHead {
				if headIndex >= 0 {
					return syntaxError("unexpected: '*'",
						offset+termStart+strings.Index(term, "*"))
				}
				headIndex = len(subcategorySets)
			}
			subcategorySets = append(subcategorySets, subcategories)
			linkTypes = append(linkTypes, nil)
		}
		lastTermStart, lastTermLen = termStart, len(term)
		term = ""
		return nil
	}

	for index, char := range definition {
		if unicode.IsSpace(char) {
			if term == "" {
				continue
			}
			if err := processTerm(); err != nil {
				return nil, err
			}
		} else {
			if term == "" {
				termStart = index
			}
			term += string(char)
		}
	}
	if term != "" {
		if err := processTerm(); err != nil {
			return nil, err
		}
	}
	if len(subcategorySets) == 0 {
		return nil, syntaxError("expected: category", offset)
	}
	if len(linkTypes[len(linkTypes)-1]) > 0 {
		return nil, syntaxError("expected: category", offset+lastTermStart+lastTermLen)
	}
	linkTypes = linkTypes[:len(linkTypes)-1]
	if headIndex < 0 {
		if len(subcategorySets) != 1 {
			return nil, syntaxError("expected: '*'", offset+lastTermStart)
		}
		headIndex = 0
	}
	rule, err := rules.NewSequenceRule(category, subcategorySets, headIndex, linkTypes,
		matchRules, propertyRules)
	if err != nil {
		return nil, syntaxError(err.Error(), offset)
	}
	return rule, nil
}

// ParseMatchRule parses a bracketed match rule group, such as
// "[head(plural) last_term(-proper)]". Every predicate in the group must
// hold for the group to match.
func (p *Parser) ParseMatchRule(definition string, offset int) ([]rules.SubtreeMatchRule, error) {
	if !strings.HasPrefix(definition, "[") {
		return nil, syntaxError("expected: '['", offset)
	}
	if !strings.HasSuffix(definition, "]") {
		return nil, syntaxError("expected: ']'", offset+len(definition)-1)
	}
	var group []rules.SubtreeMatchRule
	for _, expression := range strings.Fields(definition[1 : len(definition)-1]) {
		at := offset + strings.Index(definition, expression)
		pattern, err := p.parseCategoryAt(expression, at)
		if err != nil {
			return nil, err
		}
		rule, err := rules.NewSubtreeMatchRule(pattern.Name().String(),
			pattern.PositiveProperties(), pattern.NegativeProperties())
		if err != nil {
			return nil, syntaxError(err.Error(), at)
		}
		group = append(group, rule)
	}
	if len(group) == 0 {
		return nil, syntaxError("expected: match rule", offset)
	}
	return group, nil
}

// parsePropertyRule parses a conditional property addition line: signed
// comma-separated property names followed by a match rule group, such as
// "compound,-simple [last_term(conjunctive)]".
func (p *Parser) parsePropertyRule(line string, offset int) (rules.PropertyRule, error) {
	bracket := strings.Index(line, "[")
	if bracket < 0 {
		return rules.PropertyRule{}, syntaxError("expected: '['", offset+len(line))
	}
	var additions []rules.SignedProperty
	for _, name := range strings.Split(strings.TrimSpace(line[:bracket]), ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			return rules.PropertyRule{}, syntaxError("expected: property name", offset)
		}
		positive := true
		if strings.HasPrefix(name, "-") {
			positive = false
			name = name[1:]
		}
		additions = append(additions, rules.SignedProperty{
			Property: p.registry.Property(name),
			Positive: positive,
		})
	}
	conditions, err := p.ParseMatchRule(strings.TrimSpace(line[bracket:]), offset+bracket)
	if err != nil {
		return rules.PropertyRule{}, err
	}
	return rules.PropertyRule{Additions: additions, Conditions: conditions}, nil
}
