package rules

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/hosford42/pyramids/categorization"
	"github.com/hosford42/pyramids/scoring"
	"github.com/hosford42/pyramids/trees"
)

// Link is a semantic link emitted between the head of a sequence and the
// component following the link position. Left links point from that
// component back to the head; right links point from the head forward.
type Link struct {
	Label categorization.LinkLabel
	Left  bool
	Right bool
}

func compareLinks(a, b Link) int {
	if result := a.Label.Compare(b.Label); result != 0 {
		return result
	}
	if a.Left != b.Left {
		if a.Left {
			return -1
		}
		return 1
	}
	if a.Right != b.Right {
		if a.Right {
			return -1
		}
		return 1
	}
	return 0
}

// SignedProperty is a property addition with a polarity.
type SignedProperty struct {
	Property categorization.Property
	Positive bool
}

// PropertyRule conditionally adds properties to the category a sequence
// rule produces: when every condition holds for the component categories,
// the additions are promoted into the result.
type PropertyRule struct {
	Additions  []SignedProperty
	Conditions []SubtreeMatchRule
}

// SequenceRule recognizes a consecutive run of phrases, one drawn from
// each subcategory set, and combines them into a phrase headed by the
// component at the head index.
type SequenceRule struct {
	Scored
	category        categorization.Category
	subcategorySets [][]categorization.Category
	headIndex       int
	linkTypeSets    [][]Link
	matchRules      [][]SubtreeMatchRule
	propertyRules   []PropertyRule

	references    map[categorization.Name]bool
	hasWildcard   bool
	allLinkLabels []categorization.LinkLabel
}

// NewSequenceRule creates a sequence rule. Each subcategory set lists the
// alternative categories acceptable at its position. Link type sets sit
// between consecutive positions, so there must be fewer of them than
// subcategory sets. Match rules, when present, gate rule application: at
// least one group must hold, with every predicate in the group passing.
func NewSequenceRule(category categorization.Category,
	subcategorySets [][]categorization.Category, headIndex int,
	linkTypeSets [][]Link, matchRules [][]SubtreeMatchRule,
	propertyRules []PropertyRule) (*SequenceRule, error) {
	if len(subcategorySets) == 0 {
		return nil, errors.New("a sequence rule requires at least one subcategory set")
	}
	if headIndex < 0 || headIndex >= len(subcategorySets) {
		return nil, errors.Errorf("head index %d out of range", headIndex)
	}
	if len(linkTypeSets) >= len(subcategorySets) {
		return nil, errors.New("too many link type sets")
	}
	rule := &SequenceRule{
		Scored:          NewScored(),
		category:        category,
		subcategorySets: subcategorySets,
		headIndex:       headIndex,
		linkTypeSets:    linkTypeSets,
		matchRules:      matchRules,
		propertyRules:   propertyRules,
		references:      map[categorization.Name]bool{},
	}
	for _, set := range subcategorySets {
		for _, subcategory := range set {
			rule.references[subcategory.Name()] = true
			if subcategory.IsWildcard() {
				rule.hasWildcard = true
			}
		}
	}
	seen := map[categorization.LinkLabel]bool{}
	for _, linkSet := range linkTypeSets {
		for _, link := range linkSet {
			if !seen[link.Label] {
				seen[link.Label] = true
				rule.allLinkLabels = append(rule.allLinkLabels, link.Label)
			}
		}
	}
	sort.Slice(rule.allLinkLabels, func(i, j int) bool {
		return rule.allLinkLabels[i].Less(rule.allLinkLabels[j])
	})
	return rule, nil
}

// Category returns the category the rule produces, before head name
// substitution and property promotion.
func (r *SequenceRule) Category() categorization.Category { return r.category }

// SubcategorySets returns the alternative categories at each position.
func (r *SequenceRule) SubcategorySets() [][]categorization.Category {
	return r.subcategorySets
}

// HeadIndex returns the position of the head component.
func (r *SequenceRule) HeadIndex() int { return r.headIndex }

// HeadCategorySet returns the alternative categories at the head position.
func (r *SequenceRule) HeadCategorySet() []categorization.Category {
	return r.subcategorySets[r.headIndex]
}

// LinkTypes returns the semantic links between position index and the
// position after it.
func (r *SequenceRule) LinkTypes(index int) []Link {
	if index < 0 || index >= len(r.linkTypeSets) {
		return nil
	}
	return r.linkTypeSets[index]
}

// AllLinkLabels returns every link label the rule can emit, sorted.
func (r *SequenceRule) AllLinkLabels() []categorization.LinkLabel {
	return r.allLinkLabels
}

// CouldContribute reports whether a phrase of the given category can
// possibly appear in the sequence, by name. Used as a cheap pre-filter
// before position-by-position matching.
func (r *SequenceRule) CouldContribute(category categorization.Category) bool {
	return r.hasWildcard || r.references[category.Name()]
}

// PositionsFor returns the sequence positions whose subcategory sets admit
// the category.
func (r *SequenceRule) PositionsFor(category categorization.Category) []int {
	var positions []int
	for index, set := range r.subcategorySets {
		for _, subcategory := range set {
			if subcategory.Contains(category) {
				positions = append(positions, index)
				break
			}
		}
	}
	return positions
}

// MatchesSubtrees reports whether the component categories pass the rule's
// match rule groups. A rule with no groups accepts everything.
func (r *SequenceRule) MatchesSubtrees(categories []categorization.Category) bool {
	if len(r.matchRules) == 0 {
		return true
	}
	for _, group := range r.matchRules {
		passed := true
		for _, predicate := range group {
			if !predicate.Matches(categories, r.headIndex) {
				passed = false
				break
			}
		}
		if passed {
			return true
		}
	}
	return false
}

// GetCategory computes the category of the phrase produced from the given
// component categories. The head component's properties carry over, the
// model's promoted properties are merged across all components, and any
// property rules whose conditions hold contribute their additions.
func (r *SequenceRule) GetCategory(promotions Promotions,
	subtreeCategories []categorization.Category) categorization.Category {
	head := subtreeCategories[r.headIndex]
	category := r.category
	if category.IsWildcard() {
		category = category.WithName(head.Name())
	}

	positive := map[categorization.Property]bool{}
	negative := map[categorization.Property]bool{}
	for _, prop := range head.PositiveProperties().Properties() {
		positive[prop] = true
	}
	for _, prop := range head.NegativeProperties().Properties() {
		negative[prop] = true
	}

	for _, prop := range promotions.AnyPromotedProperties().Properties() {
		asserted := false
		for _, subtree := range subtreeCategories {
			if subtree.PositiveProperties().Contains(prop) {
				asserted = true
				break
			}
		}
		if asserted {
			positive[prop] = true
			delete(negative, prop)
			continue
		}
		if positive[prop] {
			continue
		}
		deniedByAll := true
		for _, subtree := range subtreeCategories {
			if !subtree.NegativeProperties().Contains(prop) {
				deniedByAll = false
				break
			}
		}
		if deniedByAll {
			negative[prop] = true
		}
	}
	for _, prop := range promotions.AllPromotedProperties().Properties() {
		denied := false
		for _, subtree := range subtreeCategories {
			if subtree.NegativeProperties().Contains(prop) {
				denied = true
				break
			}
		}
		if denied {
			negative[prop] = true
			delete(positive, prop)
			continue
		}
		if negative[prop] {
			continue
		}
		assertedByAll := true
		for _, subtree := range subtreeCategories {
			if !subtree.PositiveProperties().Contains(prop) {
				assertedByAll = false
				break
			}
		}
		if assertedByAll {
			positive[prop] = true
		}
	}

	for _, propertyRule := range r.propertyRules {
		holds := true
		for _, condition := range propertyRule.Conditions {
			if !condition.Matches(subtreeCategories, r.headIndex) {
				holds = false
				break
			}
		}
		if !holds {
			continue
		}
		for _, addition := range propertyRule.Additions {
			if addition.Positive {
				positive[addition.Property] = true
				delete(negative, addition.Property)
			} else {
				negative[addition.Property] = true
				delete(positive, addition.Property)
			}
		}
	}

	return category.PromoteProperties(propertySetFromMap(positive),
		propertySetFromMap(negative))
}

func propertySetFromMap(members map[categorization.Property]bool) categorization.PropertySet {
	props := make([]categorization.Property, 0, len(members))
	for prop := range members {
		props = append(props, prop)
	}
	return categorization.MakePropertySet(props...)
}

// IsNonRecursive reports whether applying the rule makes progress: a
// single-position rule must not produce a category its own head already
// subsumes without asserting or denying anything new.
func (r *SequenceRule) IsNonRecursive(result, head categorization.Category) bool {
	if len(r.subcategorySets) > 1 {
		return true
	}
	if !head.Contains(result) {
		return true
	}
	return properSuperset(result.PositiveProperties(), head.PositiveProperties()) ||
		properSuperset(result.NegativeProperties(), head.NegativeProperties())
}

func properSuperset(a, b categorization.PropertySet) bool {
	return b.IsSubsetOf(a) && a.Len() > b.Len()
}

// Features enumerates the node's scoring features.
func (r *SequenceRule) Features(node *trees.Node) []scoring.Feature {
	return branchFeatures(node)
}

func (r *SequenceRule) String() string {
	var b strings.Builder
	b.WriteString(r.category.String())
	b.WriteByte(':')
	for index, set := range r.subcategorySets {
		b.WriteByte(' ')
		if index == r.headIndex {
			b.WriteByte('*')
		}
		names := make([]string, len(set))
		for i, subcategory := range set {
			names[i] = subcategory.String()
		}
		sort.Strings(names)
		b.WriteString(strings.Join(names, "|"))
		if index < len(r.linkTypeSets) {
			links := make([]Link, len(r.linkTypeSets[index]))
			copy(links, r.linkTypeSets[index])
			sort.Slice(links, func(i, j int) bool {
				return compareLinks(links[i], links[j]) < 0
			})
			for _, link := range links {
				b.WriteByte(' ')
				if link.Left {
					b.WriteByte('<')
				}
				b.WriteString(link.Label.String())
				if link.Right {
					b.WriteByte('>')
				}
			}
		}
	}
	return b.String()
}
