package main

import (
	"fmt"

	"frame-pipeline/internal/stats"

	"github.com/spf13/cobra"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var inputPath string
	var groupBy string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the frame distribution of a classified output table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			report, err := stats.Compute(firstNonEmpty(inputPath, cfg.Pipeline.Output), groupBy)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.Render())
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Classified output table (default from config)")
	cmd.Flags().StringVar(&groupBy, "by", "", "Break counts down by a column, e.g. subreddit or category")

	return cmd
}
