package main

import (
	"frame-pipeline/internal/crawler"
	"frame-pipeline/internal/prepare"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newPrepareCommand(ctx *commandContext) *cobra.Command {
	var postsPath string
	var commentsPath string
	var outputPath string

	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Merge crawled posts and comments into the cleaned document table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			pc := prepare.Config{
				Posts:    firstNonEmpty(postsPath, cfg.Prepare.Posts),
				Comments: firstNonEmpty(commentsPath, cfg.Prepare.Comments),
				Output:   firstNonEmpty(outputPath, cfg.Prepare.Output),
			}
			if pc.Posts == "" {
				pc.Posts, pc.Comments, err = crawler.LatestFiles(cfg.Crawl.OutputDir)
				if err != nil {
					logger.Error("No posts table given and no crawl output found", zap.Error(err))
					return err
				}
				logger.Info("Using latest crawl output", zap.String("posts", pc.Posts), zap.String("comments", pc.Comments))
			}

			if _, err := prepare.Run(pc, logger); err != nil {
				logger.Error("Data preparation failed", zap.Error(err))
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&postsPath, "posts", "", "Crawled posts table (default: latest crawl output)")
	cmd.Flags().StringVar(&commentsPath, "comments", "", "Crawled comments table")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Prepared document table")

	return cmd
}
