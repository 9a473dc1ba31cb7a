// Package rules implements the grammar rules a parser model is compiled
// from. Leaf rules classify individual tokens and branch rules combine
// adjacent phrases; both carry score trackers so rule applications can be
// rated and trained.
package rules

import (
	"github.com/hosford42/pyramids/categorization"
	"github.com/hosford42/pyramids/scoring"
	"github.com/hosford42/pyramids/trees"
)

// Promotions supplies the property sets a compiled model promotes upward
// through branch rule applications.
type Promotions interface {
	// AnyPromotedProperties are promoted when any component asserts them.
	AnyPromotedProperties() categorization.PropertySet

	// AllPromotedProperties are promoted when every component asserts them.
	AllPromotedProperties() categorization.PropertySet
}

// Scored is the shared scoring state of a rule. Rule types embed it.
type Scored struct {
	tracker *scoring.Tracker
}

// NewScored creates scoring state with default measures.
func NewScored() Scored {
	return Scored{tracker: scoring.NewTracker()}
}

// Tracker returns the rule's score tracker.
func (s *Scored) Tracker() *scoring.Tracker { return s.tracker }

// LeafRule classifies individual tokens, producing the leaves of parse
// trees.
type LeafRule interface {
	trees.Rule

	// Category returns the category assigned to matched tokens, before
	// case promotion and property inheritance.
	Category() categorization.Category

	// Match reports whether the rule applies to the token.
	Match(token string) bool
}

// headFeatures enumerates the scoring features shared by all rules: the
// head spelling and each asserted property, keyed by the category name.
func headFeatures(node *trees.Node) []scoring.Feature {
	name := node.Category().Name().String()
	features := []scoring.Feature{
		scoring.Feature("head spelling:" + name + ":" + node.HeadSpelling()),
	}
	for _, prop := range node.Category().PositiveProperties().Properties() {
		features = append(features, scoring.Feature("head property:"+name+":"+prop.String()))
	}
	return features
}

// branchFeatures adds the component category and category ordering features
// branch rules are scored on.
func branchFeatures(node *trees.Node) []scoring.Feature {
	features := headFeatures(node)
	name := node.Category().Name().String()
	components := node.Components()
	for i, component := range components {
		componentName := component.Category().Name().String()
		features = append(features, scoring.Feature("body category:"+name+":"+componentName))
		for _, later := range components[i+1:] {
			features = append(features, scoring.Feature("body category sequence:"+
				name+":"+componentName+":"+later.Category().Name().String()))
		}
	}
	return features
}
