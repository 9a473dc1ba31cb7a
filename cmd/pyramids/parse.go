package main

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hosford42/pyramids/parsing"
)

func newParseCommand() *cobra.Command {
	var (
		timeout     time.Duration
		simplify    bool
		showGraphs  bool
		emergency   bool
		restriction string
	)
	cmd := &cobra.Command{
		Use:   "parse [text]",
		Short: "Parse text and print the resulting trees",
		Long: "Parse text and print the resulting trees. Without arguments the\n" +
			"command reads sentences from standard input, one per line, until a\n" +
			"blank line or end of input.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, m, err := loadModel()
			if err != nil {
				return err
			}
			options := parsing.Options{Emergency: emergency}
			if restriction != "" {
				category, err := loader.Parser().ParseCategory(restriction)
				if err != nil {
					return err
				}
				options.Restriction = category
			}
			parser := parsing.NewParser(m)
			if len(args) > 0 {
				return parseAndPrint(cmd, parser, strings.Join(args, " "),
					options, timeout, simplify, showGraphs)
			}
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(cmd.OutOrStdout(), "> ")
				if !scanner.Scan() {
					fmt.Fprintln(cmd.OutOrStdout())
					break
				}
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					break
				}
				if err := parseAndPrint(cmd, parser, line, options, timeout,
					simplify, showGraphs); err != nil {
					return err
				}
			}
			return scanner.Err()
		},
	}
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 0,
		"time limit per parse (0 means none)")
	cmd.Flags().BoolVarP(&simplify, "simplify", "s", false,
		"collapse single-component phrases in tree output")
	cmd.Flags().BoolVarP(&showGraphs, "graphs", "g", false,
		"print semantic graphs alongside the trees")
	cmd.Flags().BoolVarP(&emergency, "emergency", "e", false,
		"relax category matching to names only")
	cmd.Flags().StringVarP(&restriction, "restriction", "r", "",
		"category expression overriding the model's default restriction")
	return cmd
}

func parseAndPrint(cmd *cobra.Command, parser *parsing.Parser, text string,
	options parsing.Options, timeout time.Duration, simplify,
	showGraphs bool) error {
	if timeout > 0 {
		options.Deadline = time.Now().Add(timeout)
	}
	result := parser.Parse(text, options)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d parse(s) found:\n", len(result.Forests))
	for i, forest := range result.Forests {
		score, weight := forest.Score()
		fmt.Fprintf(out, "Parse %d (score %.3f, weight %.3f):\n", i+1, score, weight)
		fmt.Fprintln(out, forest.ToString(simplify))
		if showGraphs {
			built, err := forestGraphs(forest)
			if err != nil {
				return err
			}
			for _, graph := range built {
				fmt.Fprintln(out, graph)
			}
		}
	}
	if result.EmergencyDisambiguation {
		fmt.Fprintln(out, "Emergency disambiguation applied.")
	}
	if result.ParseTimedOut {
		fmt.Fprintln(out, "Parse timed out.")
	}
	if result.DisambiguationTimedOut {
		fmt.Fprintln(out, "Disambiguation timed out.")
	}
	return nil
}
