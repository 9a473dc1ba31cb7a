// Package benchmarking runs batches of input/target samples against a
// parser, scoring attempts and feeding the scores back into rule
// training.
package benchmarking

import (
	"bufio"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/hosford42/pyramids/grammar"
)

// SampleSet maps input texts to their expected outputs.
type SampleSet map[string]string

// Inputs returns the sample inputs in sorted order.
func (s SampleSet) Inputs() []string {
	inputs := make([]string, 0, len(s))
	for input := range s {
		inputs = append(inputs, input)
	}
	sort.Strings(inputs)
	return inputs
}

// LoadSamples reads a sample file: one sample per line, quoted input and
// quoted target separated by a tab. Blank lines are skipped.
func LoadSamples(path string) (SampleSet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening sample file")
	}
	defer file.Close()

	samples := SampleSet{}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(nil, 1<<20)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 2 {
			return nil, errors.Errorf("%s:%d: expected two tab-separated fields, got %d",
				path, lineNumber, len(fields))
		}
		input, err := strconv.Unquote(fields[0])
		if err != nil {
			return nil, errors.Wrapf(err, "%s:%d: bad sample input", path, lineNumber)
		}
		target, err := strconv.Unquote(fields[1])
		if err != nil {
			return nil, errors.Wrapf(err, "%s:%d: bad sample target", path, lineNumber)
		}
		samples[input] = target
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading sample file")
	}
	return samples, nil
}

// SaveSamples writes the sample set in the format LoadSamples reads,
// sorted by input.
func SaveSamples(samples SampleSet, path string) error {
	var b strings.Builder
	for _, input := range samples.Inputs() {
		b.WriteString(strconv.Quote(input))
		b.WriteByte('\t')
		b.WriteString(strconv.Quote(samples[input]))
		b.WriteByte('\n')
	}
	return errors.Wrap(os.WriteFile(path, []byte(b.String()), 0o644),
		"writing sample file")
}

// FeedbackReceiver accepts the score assigned to one attempt, typically
// adjusting rule scores.
type FeedbackReceiver func(score float64)

// Validator scores an attempt against the target, 0 through 1.
type Validator func(attempt, target string) float64

// AttemptGenerator produces successive attempts for one input, invoking
// yield for each. Feedback may be nil when the attempt carries no
// training hook. Generation stops when yield returns false.
type AttemptGenerator func(input, target string,
	yield func(attempt string, feedback FeedbackReceiver) bool)

// Result reports the first attempt for one sample.
type Result struct {
	Input   string
	Attempt string
	Target  string
	Score   float64
}

// Failure reports a sample no attempt satisfied.
type Failure struct {
	Input        string
	Target       string
	FirstAttempt string
	AttemptCount int
}

// Tally summarizes a batch run.
type Tally struct {
	SampleCount          int
	FailureCount         int
	AvgFirstAttemptScore float64
	SuccessRate          float64
}

// ExactMatch scores an attempt 1 when it equals the target, else 0.
func ExactMatch(attempt, target string) float64 {
	if attempt == target {
		return 1
	}
	return 0
}

// StructureMatch builds a validator that accepts an attempt whose root
// category is contained by the target's root category and whose structure
// after the first colon matches the target's exactly. This tolerates
// attempts carrying extra properties the target never mentions.
func StructureMatch(parser *grammar.Parser) Validator {
	return func(attempt, target string) float64 {
		attemptSplit := strings.Index(attempt, ":")
		targetSplit := strings.Index(target, ":")
		if attemptSplit < 0 || targetSplit < 0 {
			return 0
		}
		if attempt[attemptSplit:] != target[targetSplit:] {
			return 0
		}
		attemptCategory, err := parser.ParseCategory(attempt[:attemptSplit])
		if err != nil {
			return 0
		}
		targetCategory, err := parser.ParseCategory(target[:targetSplit])
		if err != nil {
			return 0
		}
		if targetCategory.Contains(attemptCategory) {
			return 1
		}
		return 0
	}
}

// Controller runs sample batches, validating attempts and tallying the
// outcome.
type Controller struct {
	validate  Validator
	threshold float64
}

// NewController builds a controller. A nil validator means exact match;
// an attempt scoring at or above the threshold (default 1) counts as a
// success and stops further attempts for its sample.
func NewController(validator Validator) *Controller {
	if validator == nil {
		validator = ExactMatch
	}
	return &Controller{validate: validator, threshold: 1}
}

// SetThreshold overrides the success threshold.
func (c *Controller) SetThreshold(threshold float64) { c.threshold = threshold }

// Run evaluates every sample. For each, attempts are scored and fed back
// until one succeeds or the generator is exhausted; the first attempt's
// score enters the tally. Callbacks may be nil. Samples run in sorted
// input order.
func (c *Controller) Run(samples SampleSet, generate AttemptGenerator,
	onResult func(Result), onFailure func(Failure)) Tally {
	if len(samples) == 0 {
		return Tally{}
	}
	total := 0.0
	successes := 0
	for _, input := range samples.Inputs() {
		target := samples[input]
		first := ""
		firstScore := 0.0
		attemptCount := 0
		success := false
		generate(input, target, func(attempt string, feedback FeedbackReceiver) bool {
			attemptCount++
			score := c.validate(attempt, target)
			if feedback != nil {
				feedback(score)
			}
			if attemptCount == 1 {
				first = attempt
				firstScore = score
			}
			if score >= c.threshold {
				success = true
				successes++
				return false
			}
			return true
		})
		total += firstScore
		if onResult != nil {
			onResult(Result{Input: input, Attempt: first, Target: target, Score: firstScore})
		}
		if !success && onFailure != nil {
			onFailure(Failure{Input: input, Target: target, FirstAttempt: first,
				AttemptCount: attemptCount})
		}
	}
	count := len(samples)
	return Tally{
		SampleCount:          count,
		FailureCount:         count - successes,
		AvgFirstAttemptScore: total / float64(count),
		SuccessRate:          float64(successes) / float64(count),
	}
}
