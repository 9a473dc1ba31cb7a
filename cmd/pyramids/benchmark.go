package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hosford42/pyramids/benchmarking"
	"github.com/hosford42/pyramids/categorization"
	"github.com/hosford42/pyramids/model"
	"github.com/hosford42/pyramids/parsing"
)

// batchStats accumulates parse statistics across one benchmark or
// training batch.
type batchStats struct {
	emergencies            int
	parseTimeouts          int
	disambiguationTimeouts int
	elapsed                time.Duration
}

func (s *batchStats) record(result *parsing.Result, elapsed time.Duration) {
	if result.EmergencyDisambiguation {
		s.emergencies++
	}
	if result.ParseTimedOut {
		s.parseTimeouts++
	}
	if result.DisambiguationTimedOut {
		s.disambiguationTimeouts++
	}
	s.elapsed += elapsed
}

func (s *batchStats) report(out io.Writer, tally benchmarking.Tally,
	failures []benchmarking.Failure) {
	if len(failures) > 0 {
		fmt.Fprintln(out, "Failures:")
		for _, failure := range failures {
			fmt.Fprintln(out, failure.Input)
			fmt.Fprintln(out, failure.FirstAttempt)
			fmt.Fprintln(out, failure.Target)
			fmt.Fprintln(out)
		}
	}
	count := tally.SampleCount
	fmt.Fprintf(out, "Score: %.1f%%\n", 100*tally.AvgFirstAttemptScore)
	fmt.Fprintf(out, "Average parse time: %.1f seconds\n",
		s.elapsed.Seconds()/float64(count))
	fmt.Fprintf(out, "Samples evaluated: %d\n", count)
	fmt.Fprintf(out, "Emergency disambiguations: %d (%.1f%%)\n",
		s.emergencies, 100*float64(s.emergencies)/float64(count))
	fmt.Fprintf(out, "Parse timeouts: %d (%.1f%%)\n",
		s.parseTimeouts, 100*float64(s.parseTimeouts)/float64(count))
	fmt.Fprintf(out, "Disambiguation timeouts: %d (%.1f%%)\n",
		s.disambiguationTimeouts, 100*float64(s.disambiguationTimeouts)/float64(count))
}

func loadSampleSet(samplePath, configured string) (benchmarking.SampleSet, error) {
	path := samplePath
	if path == "" {
		path = configured
	}
	if path == "" {
		return nil, errors.New("no benchmark file configured")
	}
	samples, err := benchmarking.LoadSamples(path)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, errors.Errorf("no samples in %s", path)
	}
	return samples, nil
}

func newBenchmarkCommand() *cobra.Command {
	var (
		timeout    time.Duration
		samplePath string
	)
	cmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Parse every benchmark sample and report batch statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, m, err := loadModel()
			if err != nil {
				return err
			}
			samples, err := loadSampleSet(samplePath,
				m.Config().Benchmarking.BenchmarkFile)
			if err != nil {
				return err
			}

			parser := parsing.NewParser(m)
			stats := &batchStats{}
			generate := func(input, target string,
				yield func(string, benchmarking.FeedbackReceiver) bool) {
				options := parsing.Options{}
				if timeout > 0 {
					options.Deadline = time.Now().Add(timeout)
				}
				started := time.Now()
				result := parser.Parse(input, options)
				stats.record(result, time.Since(started))
				output := ""
				if len(result.Forests) > 0 {
					rendered, err := benchmarkOutput(result.Forests[0])
					if err != nil {
						logger.Warn("rendering parse output",
							"input", input, "error", err)
					} else {
						output = rendered
					}
				}
				yield(output, nil)
			}

			var failures []benchmarking.Failure
			controller := benchmarking.NewController(
				benchmarking.StructureMatch(loader.Parser()))
			tally := controller.Run(samples, generate, nil,
				func(f benchmarking.Failure) { failures = append(failures, f) })
			stats.report(cmd.OutOrStdout(), tally, failures)
			return nil
		},
	}
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 0,
		"time limit per parse (0 means none)")
	cmd.Flags().StringVarP(&samplePath, "samples", "f", "",
		"sample file overriding the model's benchmark file")
	return cmd
}

func newTrainCommand() *cobra.Command {
	var (
		timeout    time.Duration
		samplePath string
		iterations int
	)
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Adjust rule scores to improve benchmark performance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, m, err := loadModel()
			if err != nil {
				return err
			}
			samples, err := loadSampleSet(samplePath,
				m.Config().Benchmarking.BenchmarkFile)
			if err != nil {
				return err
			}

			parser := parsing.NewParser(m)
			controller := benchmarking.NewController(
				benchmarking.StructureMatch(loader.Parser()))
			out := cmd.OutOrStdout()
			for iteration := 1; iteration <= iterations; iteration++ {
				if iterations > 1 {
					fmt.Fprintf(out, "Iteration %d:\n", iteration)
				}
				stats := &batchStats{}
				var failures []benchmarking.Failure
				tally := controller.Run(samples,
					trainingAttempts(parser, loader, timeout, stats), nil,
					func(f benchmarking.Failure) { failures = append(failures, f) })
				stats.report(out, tally, failures)
				if err := loader.SaveScoringMeasures(m,
					m.Config().Scoring.ScoreFile); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 0,
		"time limit per parse (0 means none)")
	cmd.Flags().StringVarP(&samplePath, "samples", "f", "",
		"sample file overriding the model's benchmark file")
	cmd.Flags().IntVarP(&iterations, "iterations", "n", 1,
		"number of training passes over the samples")
	return cmd
}

// trainingAttempts yields every ranked disambiguation for a sample, first
// from a parse restricted to the target's category and then from an
// unrestricted parse, each with a feedback hook adjusting rule scores.
func trainingAttempts(parser *parsing.Parser, loader *model.Loader,
	timeout time.Duration, stats *batchStats) benchmarking.AttemptGenerator {
	return func(input, target string,
		yield func(string, benchmarking.FeedbackReceiver) bool) {
		var restriction categorization.Category
		if split := strings.Index(target, ":"); split >= 0 {
			if category, err := loader.Parser().ParseCategory(target[:split]); err == nil {
				restriction = category
			}
		}
		for _, restricted := range []bool{true, false} {
			options := parsing.Options{}
			if restricted {
				if restriction.IsZero() {
					continue
				}
				options.Restriction = restriction
			}
			if timeout > 0 {
				options.Deadline = time.Now().Add(timeout)
			}
			started := time.Now()
			result := parser.Parse(input, options)
			stats.record(result, time.Since(started))
			for index, forest := range result.Forests {
				output, err := benchmarkOutput(forest)
				if err != nil {
					logger.Warn("rendering parse output",
						"input", input, "error", err)
					continue
				}
				forest := forest
				index := index
				feedback := func(score float64) {
					// Reinforcing an already confident first choice
					// skews the relative scores of everything else.
					current, _ := forest.Score()
					if score >= 1 && index == 0 && current >= 0.9 {
						return
					}
					if err := forest.AdjustScore(score); err != nil {
						logger.Warn("adjusting scores",
							"input", input, "error", err)
					}
				}
				if !yield(output, feedback) {
					return
				}
			}
		}
	}
}
