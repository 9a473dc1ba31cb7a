package scoring

import (
	"math"
	"testing"
)

func TestWeightedScoreDefaultOnly(t *testing.T) {
	tr := NewTracker()
	score, weight := tr.WeightedScore(nil)
	if math.Abs(score-DefaultScore*DefaultAccuracy) > 1e-12 {
		t.Errorf("unexpected default score total: %f", score)
	}
	if math.Abs(weight-DefaultAccuracy) > 1e-12 {
		t.Errorf("unexpected default weight: %f", weight)
	}
	// Unknown features contribute nothing.
	score2, weight2 := tr.WeightedScore([]Feature{"never seen"})
	if score2 != score || weight2 != weight {
		t.Error("unknown features must not affect the aggregate")
	}
}

func TestAdjustMovesTowardTarget(t *testing.T) {
	tr := NewTracker()
	f := Feature("head spelling:NP:dog")
	for i := 0; i < 10; i++ {
		if err := tr.Adjust([]Feature{f}, 1.0); err != nil {
			t.Fatal(err)
		}
	}
	m := tr.Get(f)
	if m.Score <= DefaultScore {
		t.Errorf("repeated positive feedback must raise the score, got %f", m.Score)
	}
	if m.Accuracy <= DefaultAccuracy {
		t.Errorf("consistent feedback must raise the accuracy, got %f", m.Accuracy)
	}
	if m.Count != 11 {
		t.Errorf("expected count 11, got %d", m.Count)
	}
	if tr.Default().Count != 10 {
		t.Errorf("default measure must also adapt, count %d", tr.Default().Count)
	}

	for i := 0; i < 50; i++ {
		if err := tr.Adjust([]Feature{f}, 0.0); err != nil {
			t.Fatal(err)
		}
	}
	if got := tr.Get(f).Score; got >= m.Score {
		t.Errorf("negative feedback must lower the score, got %f", got)
	}
}

func TestAdjustRejectsOutOfRange(t *testing.T) {
	tr := NewTracker()
	if err := tr.Adjust(nil, 1.5); err == nil {
		t.Fatal("target above 1 must be rejected")
	}
	if err := tr.Adjust(nil, -0.1); err == nil {
		t.Fatal("target below 0 must be rejected")
	}
}

func TestSetValidation(t *testing.T) {
	tr := NewTracker()
	if err := tr.Set("f", Measure{Score: 2}); err == nil {
		t.Error("score above 1 must be rejected")
	}
	if err := tr.Set("f", Measure{Score: 0.5, Accuracy: -1}); err == nil {
		t.Error("negative accuracy must be rejected")
	}
	if err := tr.Set("f", Measure{Score: 0.5, Accuracy: 0.5, Count: -1}); err == nil {
		t.Error("negative count must be rejected")
	}
	if err := tr.Set("", Measure{Score: 0.9, Accuracy: 0.8, Count: 3}); err != nil {
		t.Fatal(err)
	}
	if tr.Default().Score != 0.9 {
		t.Error("empty feature must set the default measure")
	}
}

func TestFeaturesSorted(t *testing.T) {
	tr := NewTracker()
	_ = tr.Set("b", Measure{Score: 0.5, Accuracy: 0.5, Count: 1})
	_ = tr.Set("a", Measure{Score: 0.5, Accuracy: 0.5, Count: 1})
	_ = tr.Set("c", Measure{Score: 0.5, Accuracy: 0.5, Count: 1})
	features := tr.Features()
	if len(features) != 3 || features[0] != "a" || features[1] != "b" || features[2] != "c" {
		t.Fatalf("features must come back sorted, got %v", features)
	}
}
