// Package scoring tracks per-rule score measures and their adaptation from
// user feedback. Each grammar rule owns a Tracker; parse tree nodes are
// scored by aggregating the measures of the features they exhibit, and
// feedback nudges those measures toward a target.
package scoring

import (
	"sort"

	"github.com/pkg/errors"
)

// Feature identifies a local contextual feature of a parse tree node within
// its tree, such as the head spelling under a given category. It acts as the
// key for storing and retrieving score measures. The empty feature is
// reserved for a tracker's default measure.
type Feature string

// Measure is one tracked score: the running score estimate, its accuracy
// weight, and how many feedback observations produced it.
type Measure struct {
	Score    float64
	Accuracy float64
	Count    int
}

// Tracker holds the score measures for a single rule.
type Tracker struct {
	fallback Measure
	features map[Feature]Measure
}

// Default starting values for a rule that has never received feedback.
const (
	DefaultScore    = 0.5
	DefaultAccuracy = 0.001
)

// NewTracker creates a tracker with the standard default measure.
func NewTracker() *Tracker {
	return &Tracker{
		fallback: Measure{Score: DefaultScore, Accuracy: DefaultAccuracy},
		features: map[Feature]Measure{},
	}
}

// Default returns the measure used when no specific feature applies.
func (t *Tracker) Default() Measure { return t.fallback }

// Get returns the measure for a feature. A feature that was never observed
// reports a zero measure.
func (t *Tracker) Get(feature Feature) Measure {
	if feature == "" {
		return t.fallback
	}
	return t.features[feature]
}

// Set installs a measure, validating its ranges. The empty feature sets the
// default measure. Used when loading persisted scoring data.
func (t *Tracker) Set(feature Feature, m Measure) error {
	if m.Score < 0 || m.Score > 1 {
		return errors.Errorf("score must be in [0, 1]: %f", m.Score)
	}
	if m.Accuracy < 0 || m.Accuracy > 1 {
		return errors.Errorf("accuracy must be in [0, 1]: %f", m.Accuracy)
	}
	if m.Count < 0 {
		return errors.Errorf("count must be non-negative: %d", m.Count)
	}
	if feature == "" {
		t.fallback = m
	} else {
		t.features[feature] = m
	}
	return nil
}

// Features returns the tracked features in sorted order, for deterministic
// persistence.
func (t *Tracker) Features() []Feature {
	features := make([]Feature, 0, len(t.features))
	for f := range t.features {
		features = append(features, f)
	}
	sort.Slice(features, func(i, j int) bool { return features[i] < features[j] })
	return features
}

// WeightedScore aggregates the default measure with every known measure
// among the given features, returning the accuracy-weighted score total and
// the total weight.
func (t *Tracker) WeightedScore(features []Feature) (totalScore, totalWeight float64) {
	totalScore = t.fallback.Score * t.fallback.Accuracy
	totalWeight = t.fallback.Accuracy
	for _, f := range features {
		if m, ok := t.features[f]; ok {
			totalScore += m.Score * m.Accuracy
			totalWeight += m.Accuracy
		}
	}
	return totalScore, totalWeight
}

// Adjust nudges the default measure and every given feature's measure toward
// target, which must lie in [0, 1]. Each measure keeps a running mean of the
// target and of an accuracy target derived from the squared error, so
// measures that keep predicting well gain weight.
func (t *Tracker) Adjust(features []Feature, target float64) error {
	if target < 0 || target > 1 {
		return errors.Errorf("score target must be in [0, 1]: %f", target)
	}
	t.fallback = adjusted(t.fallback, target, t.fallback.Count+1)
	for _, f := range features {
		m, ok := t.features[f]
		if ok {
			m.Count++
		} else {
			// The default is counted as one observation, plus this one.
			m = t.fallback
			m.Count = 2
		}
		t.features[f] = adjusted(m, target, m.Count)
	}
	return nil
}

func adjusted(m Measure, target float64, count int) Measure {
	err := (target - m.Score) * (target - m.Score)
	accuracyTarget := 1 - err
	m.Score += (target - m.Score) / float64(count)
	m.Accuracy += (accuracyTarget - m.Accuracy) / float64(count)
	m.Count = count
	return m
}
