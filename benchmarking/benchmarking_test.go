package benchmarking

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hosford42/pyramids/categorization"
	"github.com/hosford42/pyramids/grammar"
)

func TestSampleRoundTrip(t *testing.T) {
	samples := SampleSet{
		"the dogs growl": "S:\n  the:\n  *growl:\n    agent: dogs",
		"he ran":         "S:\n  *ran:\n    agent: he",
	}
	path := filepath.Join(t.TempDir(), "benchmark.txt")
	require.NoError(t, SaveSamples(samples, path))

	loaded, err := LoadSamples(path)
	require.NoError(t, err)
	assert.Equal(t, samples, loaded)
}

func TestLoadSamplesRejectsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "benchmark.txt")

	require.NoError(t, os.WriteFile(path, []byte("no tab here\n"), 0o644))
	_, err := LoadSamples(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("unquoted\tfields\n"), 0o644))
	_, err = LoadSamples(path)
	assert.Error(t, err)
}

func TestControllerRun(t *testing.T) {
	samples := SampleSet{
		"easy": "right",
		"hard": "unreachable",
	}
	attempts := map[string][]string{
		"easy": {"right", "never tried"},
		"hard": {"wrong", "still wrong"},
	}
	var feedbackScores []float64
	generate := func(input, target string,
		yield func(string, FeedbackReceiver) bool) {
		for _, attempt := range attempts[input] {
			if !yield(attempt, func(score float64) {
				feedbackScores = append(feedbackScores, score)
			}) {
				return
			}
		}
	}

	var results []Result
	var failures []Failure
	tally := NewController(nil).Run(samples, generate,
		func(r Result) { results = append(results, r) },
		func(f Failure) { failures = append(failures, f) })

	assert.Equal(t, 2, tally.SampleCount)
	assert.Equal(t, 1, tally.FailureCount)
	assert.Equal(t, 0.5, tally.SuccessRate)
	assert.Equal(t, 0.5, tally.AvgFirstAttemptScore)

	// The successful first attempt stops its generator immediately, so
	// only three attempts receive feedback.
	assert.Equal(t, []float64{1, 0, 0}, feedbackScores)

	require.Len(t, results, 2)
	assert.Equal(t, Result{Input: "easy", Attempt: "right", Target: "right",
		Score: 1}, results[0])

	require.Len(t, failures, 1)
	assert.Equal(t, Failure{Input: "hard", Target: "unreachable",
		FirstAttempt: "wrong", AttemptCount: 2}, failures[0])
}

func TestControllerEmptySampleSet(t *testing.T) {
	tally := NewController(nil).Run(SampleSet{}, nil, nil, nil)
	assert.Equal(t, Tally{}, tally)
}

func TestStructureMatch(t *testing.T) {
	parser := grammar.NewParser(categorization.NewRegistry())
	validate := StructureMatch(parser)

	target := "S:\n  *growl:\n    agent: dogs"
	assert.Equal(t, 1.0, validate(target, target),
		"identical output should validate")
	assert.Equal(t, 1.0, validate("S(past):\n  *growl:\n    agent: dogs", target),
		"extra properties on the attempt's root category are tolerated")
	assert.Equal(t, 0.0, validate("NP:\n  *growl:\n    agent: dogs", target),
		"wrong root category")
	assert.Equal(t, 0.0, validate("S:\n  *growl:\n    agent: cats", target),
		"different structure")
	assert.Equal(t, 0.0, validate("no colon anywhere", target),
		"unstructured output")
}
