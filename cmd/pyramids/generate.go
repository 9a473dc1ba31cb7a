package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hosford42/pyramids/generation"
	"github.com/hosford42/pyramids/parsing"
)

func newGenerateCommand() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "generate <text>",
		Short: "Parse text into semantic graphs and regenerate sentences from them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, m, err := loadModel()
			if err != nil {
				return err
			}
			options := parsing.Options{}
			if timeout > 0 {
				options.Deadline = time.Now().Add(timeout)
			}
			text := strings.Join(args, " ")
			result := parsing.NewParser(m).Parse(text, options)
			if len(result.Forests) == 0 {
				return errors.Errorf("no parse for %q", text)
			}
			built, err := forestGraphs(result.Forests[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			seen := map[string]bool{}
			for _, graph := range built {
				fmt.Fprintln(out, graph)
				for _, tree := range generation.Generate(m, graph) {
					sentence := generation.FormatText(tree.Text())
					if seen[sentence] {
						continue
					}
					seen[sentence] = true
					fmt.Fprintln(out, sentence)
				}
			}
			if len(seen) == 0 {
				return errors.New("no sentences generated")
			}
			return nil
		},
	}
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 0,
		"time limit for the parse (0 means none)")
	return cmd
}
