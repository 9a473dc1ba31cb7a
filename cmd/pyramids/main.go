// Command pyramids parses natural language text with a rule-based model,
// regenerates text from semantic graphs, and runs benchmark and training
// batches over sample sets.
package main

import (
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hosford42/pyramids/graphs"
	"github.com/hosford42/pyramids/model"
	"github.com/hosford42/pyramids/trees"
)

var (
	configPath string
	verbose    bool
	logger     *slog.Logger
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "pyramids",
		Short:         "Rule-based natural language parsing and generation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr,
				&slog.HandlerOptions{Level: level}))
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "model", "m", "model.yml",
		"model configuration file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")
	root.AddCommand(
		newParseCommand(),
		newGenerateCommand(),
		newBenchmarkCommand(),
		newTrainCommand(),
		newStandardizeCommand(),
	)
	return root
}

func loadModel() (*model.Loader, *model.Model, error) {
	config, err := model.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	loader := model.NewLoader(logger)
	m, err := loader.LoadModel(config)
	if err != nil {
		return nil, nil, err
	}
	return loader, m, nil
}

func forestGraphs(forest *trees.Forest) ([]*graphs.Graph, error) {
	builder := graphs.NewBuilder()
	if err := graphs.TraverseForest(forest, builder); err != nil {
		return nil, err
	}
	return builder.Graphs()
}

// benchmarkOutput renders a forest the way samples record expected
// output: the distinct graph renderings, sorted and joined by newlines.
func benchmarkOutput(forest *trees.Forest) (string, error) {
	built, err := forestGraphs(forest)
	if err != nil {
		return "", err
	}
	seen := map[string]bool{}
	var texts []string
	for _, graph := range built {
		text := graph.String()
		if !seen[text] {
			seen[text] = true
			texts = append(texts, text)
		}
	}
	sort.Strings(texts)
	return strings.Join(texts, "\n"), nil
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		slog.New(slog.NewTextHandler(os.Stderr, nil)).Error(err.Error())
		os.Exit(1)
	}
}
