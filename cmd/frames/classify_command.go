package main

import (
	"fmt"
	"time"

	"frame-pipeline/internal/classifier"
	"frame-pipeline/internal/governor"
	"frame-pipeline/internal/llm"
	"frame-pipeline/internal/pipeline"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newClassifyCommand(ctx *commandContext) *cobra.Command {
	var inputPath string
	var outputPath string
	var interval time.Duration
	var progress bool

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify every prepared document into a frame, resuming from the output table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if inputPath != "" {
				cfg.Pipeline.Input = inputPath
			}
			if outputPath != "" {
				cfg.Pipeline.Output = outputPath
			}
			if cmd.Flags().Changed("interval") {
				cfg.Pipeline.Interval = interval
			}
			if cmd.Flags().Changed("progress") {
				cfg.Pipeline.Progress = progress
			}

			if err := cfg.Validate(); err != nil {
				logger.Error("Invalid configuration", zap.Error(err))
				return err
			}

			prompt, err := classifier.LoadPrompt(cfg.Classifier.PromptTemplate)
			if err != nil {
				logger.Error("Failed to load prompt template", zap.Error(err))
				return err
			}

			client, err := llm.NewClient(cfg.Providers, cfg.MaxFailuresBeforeSwitch, logger)
			if err != nil {
				logger.Error("Failed to create LLM client", zap.Error(err))
				return err
			}
			defer func() {
				if cerr := client.Close(); cerr != nil {
					logger.Warn("Failed to close LLM client", zap.Error(cerr))
				}
			}()

			c := classifier.New(client, prompt, classifier.Config{
				MinTextLength: cfg.Classifier.MinTextLength,
				StrictFrames:  cfg.Classifier.StrictFrames,
			}, logger)

			runner := pipeline.NewRunner(c, governor.New(cfg.Pipeline.Interval), pipeline.Config{
				Input:    cfg.Pipeline.Input,
				Output:   cfg.Pipeline.Output,
				Progress: cfg.Pipeline.Progress,
			}, logger)

			summary, err := runner.Run(cmd.Context())
			if err != nil {
				logger.Error("Classification stopped", zap.Error(err))
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Classified %d documents (%d errors, %d short), %d already recorded. Output: %s\n",
				summary.Classified, summary.Errors, summary.ShortCircuited, summary.Recorded, cfg.Pipeline.Output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Prepared document table (default from config)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Classified output table (default from config)")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Pause between model calls, 0 disables pacing")
	cmd.Flags().BoolVar(&progress, "progress", false, "Show a progress bar")

	return cmd
}
