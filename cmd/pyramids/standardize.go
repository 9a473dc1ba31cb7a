package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStandardizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "standardize",
		Short: "Normalize word set files and rewrite the score file in canonical form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, m, err := loadModel()
			if err != nil {
				return err
			}
			if err := loader.StandardizeModel(m.Config()); err != nil {
				return err
			}
			if err := loader.SaveScoringMeasures(m,
				m.Config().Scoring.ScoreFile); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Model standardized.")
			return nil
		},
	}
}
