package model

import (
	"sort"

	"github.com/hosford42/pyramids/categorization"
	"github.com/hosford42/pyramids/rules"
	"github.com/hosford42/pyramids/tokenization"
	"github.com/hosford42/pyramids/trees"
)

// SequenceRulePosition locates one link type set within a sequence rule.
type SequenceRulePosition struct {
	Rule  *rules.SequenceRule
	Index int
}

// Settings holds everything a compiled model is built from.
type Settings struct {
	Registry           *categorization.Registry
	DefaultRestriction categorization.Category
	TopLevelProperties categorization.PropertySet
	PrimaryLeafRules   []rules.LeafRule
	SecondaryLeafRules []rules.LeafRule
	BranchRules        []*rules.SequenceRule
	Tokenizer          tokenization.Tokenizer
	AnyPromoted        categorization.PropertySet
	AllPromoted        categorization.PropertySet
	InheritanceRules   []*rules.InheritanceRule
	Config             *Config
}

// Model is a compiled parser model: the rule sets a parser runs with.
// Primary leaf rules are high confidence (word sets); secondary leaf rules
// are fallbacks (suffix and case classification).
type Model struct {
	registry            *categorization.Registry
	defaultRestriction  categorization.Category
	topLevelProperties  categorization.PropertySet
	primaryLeafRules    []rules.LeafRule
	secondaryLeafRules  []rules.LeafRule
	branchRules         []*rules.SequenceRule
	tokenizer           tokenization.Tokenizer
	anyPromoted         categorization.PropertySet
	allPromoted         categorization.PropertySet
	inheritanceRules    []*rules.InheritanceRule
	config              *Config
	sequenceRulesByLink map[categorization.LinkLabel][]SequenceRulePosition
	linkLabels          []categorization.LinkLabel
}

// New builds a compiled model from settings.
func New(settings Settings) *Model {
	m := &Model{
		registry:            settings.Registry,
		defaultRestriction:  settings.DefaultRestriction,
		topLevelProperties:  settings.TopLevelProperties,
		primaryLeafRules:    settings.PrimaryLeafRules,
		secondaryLeafRules:  settings.SecondaryLeafRules,
		branchRules:         settings.BranchRules,
		tokenizer:           settings.Tokenizer,
		anyPromoted:         settings.AnyPromoted,
		allPromoted:         settings.AllPromoted,
		inheritanceRules:    settings.InheritanceRules,
		config:              settings.Config,
		sequenceRulesByLink: map[categorization.LinkLabel][]SequenceRulePosition{},
	}
	seen := map[categorization.LinkLabel]bool{}
	for _, rule := range m.branchRules {
		for index := 0; ; index++ {
			links := rule.LinkTypes(index)
			if links == nil {
				break
			}
			for _, link := range links {
				m.sequenceRulesByLink[link.Label] = append(m.sequenceRulesByLink[link.Label],
					SequenceRulePosition{Rule: rule, Index: index})
				if !seen[link.Label] {
					seen[link.Label] = true
					m.linkLabels = append(m.linkLabels, link.Label)
				}
			}
		}
	}
	sort.Slice(m.linkLabels, func(i, j int) bool {
		return m.linkLabels[i].Less(m.linkLabels[j])
	})
	return m
}

// Registry returns the symbol registry the model's categories live in.
func (m *Model) Registry() *categorization.Registry { return m.registry }

// DefaultRestriction is the category most parsing operations restrict
// their results to.
func (m *Model) DefaultRestriction() categorization.Category {
	return m.defaultRestriction
}

// TopLevelProperties are the properties of relevance at the root of a
// parse tree.
func (m *Model) TopLevelProperties() categorization.PropertySet {
	return m.topLevelProperties
}

// PrimaryLeafRules returns the high-confidence leaf rules.
func (m *Model) PrimaryLeafRules() []rules.LeafRule { return m.primaryLeafRules }

// SecondaryLeafRules returns the fallback leaf rules, consulted only when
// no primary rule matches a token.
func (m *Model) SecondaryLeafRules() []rules.LeafRule { return m.secondaryLeafRules }

// BranchRules returns the sequence rules.
func (m *Model) BranchRules() []*rules.SequenceRule { return m.branchRules }

// Tokenizer returns the model's tokenizer.
func (m *Model) Tokenizer() tokenization.Tokenizer { return m.tokenizer }

// AnyPromotedProperties are promoted upward when any component asserts
// them.
func (m *Model) AnyPromotedProperties() categorization.PropertySet { return m.anyPromoted }

// AllPromotedProperties are promoted upward when every component asserts
// them.
func (m *Model) AllPromotedProperties() categorization.PropertySet { return m.allPromoted }

// InheritanceRules returns the property inheritance rules.
func (m *Model) InheritanceRules() []*rules.InheritanceRule { return m.inheritanceRules }

// Config returns the configuration the model was loaded from, if any.
func (m *Model) Config() *Config { return m.config }

// LinkLabels returns every link label the model's rules can emit, sorted.
func (m *Model) LinkLabels() []categorization.LinkLabel { return m.linkLabels }

// SequenceRulesByLink returns the sequence rules that emit the link label,
// with the link set positions they emit it at.
func (m *Model) SequenceRulesByLink(label categorization.LinkLabel) []SequenceRulePosition {
	return m.sequenceRulesByLink[label]
}

// AllRules returns every scored rule of the model, leaf rules first, in a
// deterministic order.
func (m *Model) AllRules() []trees.Rule {
	all := make([]trees.Rule, 0,
		len(m.primaryLeafRules)+len(m.secondaryLeafRules)+len(m.branchRules))
	for _, rule := range m.primaryLeafRules {
		all = append(all, rule)
	}
	for _, rule := range m.secondaryLeafRules {
		all = append(all, rule)
	}
	for _, rule := range m.branchRules {
		all = append(all, rule)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].String() < all[j].String()
	})
	return all
}

// ExtendProperties applies the model's inheritance rules to the category
// repeatedly until no rule has anything left to add, then resolves any
// conflicts in favor of the asserted properties.
func (m *Model) ExtendProperties(category categorization.Category) categorization.Category {
	if len(m.inheritanceRules) == 0 {
		return category
	}
	positive := map[categorization.Property]bool{}
	negative := map[categorization.Property]bool{}
	for _, prop := range category.PositiveProperties().Properties() {
		positive[prop] = true
	}
	for _, prop := range category.NegativeProperties().Properties() {
		negative[prop] = true
	}
	for more := true; more; {
		more = false
		currentPositive := propertySetFromMap(positive)
		currentNegative := propertySetFromMap(negative)
		for _, rule := range m.inheritanceRules {
			positiveAdds, negativeAdds, ok := rule.Apply(category.Name(),
				currentPositive, currentNegative)
			if !ok {
				continue
			}
			for _, prop := range positiveAdds.Properties() {
				if !positive[prop] {
					positive[prop] = true
					more = true
				}
			}
			for _, prop := range negativeAdds.Properties() {
				if !negative[prop] {
					negative[prop] = true
					more = true
				}
			}
		}
	}
	// Assertions win over denials accumulated along the way.
	for prop := range positive {
		delete(negative, prop)
	}
	extended, err := categorization.NewCategory(category.Name(),
		propertySetFromMap(positive), propertySetFromMap(negative))
	if err != nil {
		// Unreachable after the conflict resolution above.
		return category
	}
	return extended
}

func propertySetFromMap(members map[categorization.Property]bool) categorization.PropertySet {
	props := make([]categorization.Property, 0, len(members))
	for prop := range members {
		props = append(props, prop)
	}
	return categorization.MakePropertySet(props...)
}
