package main

import (
	"errors"
	"time"

	"frame-pipeline/internal/crawler"
	"frame-pipeline/internal/governor"
	"frame-pipeline/internal/reddit"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCrawlCommand(ctx *commandContext) *cobra.Command {
	var outputDir string
	var baseName string

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Collect AI-related posts and comments from the configured subreddits",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if outputDir == "" {
				outputDir = cfg.Crawl.OutputDir
			}
			if baseName == "" {
				baseName = crawler.BaseName(time.Now())
			}

			client, err := reddit.NewClient(cmd.Context(), reddit.Config{
				ClientID:        cfg.Reddit.ClientID,
				ClientSecret:    cfg.Reddit.ClientSecret,
				Username:        cfg.Reddit.Username,
				Password:        cfg.Reddit.Password,
				UserAgent:       cfg.Reddit.UserAgent,
				BaseURL:         cfg.Reddit.BaseURL,
				TokenURL:        cfg.Reddit.TokenURL,
				RequestInterval: cfg.Crawl.RequestInterval,
			}, logger)
			if err != nil {
				logger.Error("Failed to create Reddit client", zap.Error(err))
				return err
			}

			c := crawler.New(client, crawler.Config{
				Keywords:      cfg.Crawl.Keywords,
				Subreddits:    cfg.Crawl.Subreddits,
				PostsLimit:    cfg.Crawl.PostsLimit,
				CommentsLimit: cfg.Crawl.CommentsLimit,
				CommentPosts:  cfg.Crawl.CommentPosts,
				TimeFilter:    cfg.Crawl.TimeFilter,
			}, governor.New(cfg.Crawl.SubredditInterval), logger)

			data, crawlErr := c.CrawlAll(cmd.Context())
			if crawlErr != nil && len(data) == 0 {
				return crawlErr
			}
			if crawlErr != nil {
				logger.Warn("Crawl interrupted, saving collected data", zap.Error(crawlErr))
			}

			files, err := crawler.SaveData(outputDir, baseName, data)
			if err != nil {
				logger.Error("Failed to save crawl data", zap.Error(err))
				return errors.Join(crawlErr, err)
			}
			logger.Info("Crawl data saved",
				zap.String("json", files.JSON),
				zap.String("posts", files.Posts),
				zap.String("comments", files.Comments))
			return crawlErr
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for the crawl output (default from config)")
	cmd.Flags().StringVar(&baseName, "base", "", "Output file name stem (default reddit_data_<timestamp>)")

	return cmd
}
