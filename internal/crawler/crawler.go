package crawler

import (
	"context"
	"errors"
	"sort"
	"strings"

	"frame-pipeline/internal/models"
	"frame-pipeline/internal/reddit"

	"go.uber.org/zap"
)

const (
	MethodRecent = "recent"
	MethodSearch = "search"
)

// Source is the subset of the Reddit API the crawler reads from.
type Source interface {
	ValidateSubreddit(ctx context.Context, name string) error
	NewPosts(ctx context.Context, subreddit string, limit int) ([]reddit.Link, error)
	Search(ctx context.Context, subreddit, query, timeFilter string, limit int) ([]reddit.Link, error)
	Comments(ctx context.Context, postID string, limit int) ([]reddit.Comment, error)
}

// Pacer waits between subreddits.
type Pacer interface {
	Pace(ctx context.Context) error
}

// Config for a crawl
type Config struct {
	Keywords      []string
	Subreddits    map[string][]string // category -> subreddit names
	PostsLimit    int
	CommentsLimit int
	CommentPosts  int // posts per subreddit whose comments are fetched
	TimeFilter    string
}

// Crawler collects AI-related posts and their comments from Reddit.
type Crawler struct {
	source Source
	cfg    Config
	pacer  Pacer
	logger *zap.Logger
}

// New creates a new Crawler instance.
func New(source Source, cfg Config, pacer Pacer, logger *zap.Logger) *Crawler {
	return &Crawler{
		source: source,
		cfg:    cfg,
		pacer:  pacer,
		logger: logger,
	}
}

// CrawlAll crawls every configured subreddit, category by category. On
// cancellation the data collected so far is returned with ctx's error.
func (c *Crawler) CrawlAll(ctx context.Context) (models.CrawlData, error) {
	data := make(models.CrawlData, len(c.cfg.Subreddits))

	categories := make([]string, 0, len(c.cfg.Subreddits))
	for category := range c.cfg.Subreddits {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		data[category] = make(map[string]*models.SubredditData)
		for _, sub := range c.cfg.Subreddits[category] {
			name := SubredditName(sub)
			sd, err := c.CrawlSubreddit(ctx, name)
			if sd != nil && (err == nil || len(sd.Posts) > 0) {
				data[category][name] = sd
			}
			if err != nil {
				return data, err
			}

			if err := c.pacer.Pace(ctx); err != nil {
				return data, err
			}
		}
	}
	return data, nil
}

// CrawlSubreddit collects matching posts of one subreddit and the comments of
// its first posts. Only cancellation is returned as an error; API failures
// are logged and skipped.
func (c *Crawler) CrawlSubreddit(ctx context.Context, name string) (*models.SubredditData, error) {
	logger := c.logger.With(zap.String("subreddit", name))
	logger.Info("Crawling subreddit")

	sd := &models.SubredditData{Subreddit: name, Posts: []models.Post{}, Comments: []models.Comment{}}

	if err := c.source.ValidateSubreddit(ctx, name); err != nil {
		if ctx.Err() != nil {
			return sd, ctx.Err()
		}
		logger.Warn("Skipping subreddit", zap.Error(err))
		return sd, nil
	}

	posts, err := c.searchPosts(ctx, name, logger)
	sd.Posts = posts
	if err != nil {
		return sd, err
	}

	for i, post := range posts {
		if i >= c.cfg.CommentPosts {
			break
		}
		comments, err := c.source.Comments(ctx, post.ID, c.cfg.CommentsLimit)
		if err != nil {
			if ctx.Err() != nil {
				return sd, ctx.Err()
			}
			logger.Warn("Failed to get post comments", zap.String("post_id", post.ID), zap.Error(err))
			continue
		}
		for _, cm := range comments {
			sd.Comments = append(sd.Comments, models.Comment{
				ID:         cm.ID,
				Body:       cm.Body,
				Author:     cm.Author,
				Score:      cm.Score,
				CreatedUTC: cm.CreatedUTC,
				PostID:     post.ID,
			})
		}
	}

	logger.Info("Subreddit crawled",
		zap.Int("posts", len(sd.Posts)),
		zap.Int("comments", len(sd.Comments)))
	return sd, nil
}

// searchPosts merges keyword-filtered recent posts with per-keyword search
// results, first occurrence of an id wins.
func (c *Crawler) searchPosts(ctx context.Context, name string, logger *zap.Logger) ([]models.Post, error) {
	posts := []models.Post{}
	seen := make(map[string]struct{})
	add := func(l reddit.Link, keyword, method string) {
		if _, ok := seen[l.ID]; ok {
			return
		}
		seen[l.ID] = struct{}{}
		posts = append(posts, toPost(l, name, keyword, method))
	}

	recent, err := c.source.NewPosts(ctx, name, c.cfg.PostsLimit/2)
	if err != nil {
		if ctx.Err() != nil {
			return posts, ctx.Err()
		}
		logger.Warn("Failed to get recent posts", zap.Error(err))
	}
	for _, l := range recent {
		if kw, ok := MatchKeyword(l.Title+" "+l.Body, c.cfg.Keywords); ok {
			add(l, kw, MethodRecent)
		}
	}

	if len(c.cfg.Keywords) == 0 {
		return posts, nil
	}
	perKeyword := max(1, c.cfg.PostsLimit/len(c.cfg.Keywords))
	for _, kw := range c.cfg.Keywords {
		found, err := c.source.Search(ctx, name, kw, c.cfg.TimeFilter, perKeyword)
		if err != nil {
			if ctx.Err() != nil {
				return posts, ctx.Err()
			}
			var statusErr *reddit.StatusError
			if errors.As(err, &statusErr) && statusErr.NotFound() {
				logger.Warn("Search redirected, stopping keyword search", zap.String("keyword", kw))
				break
			}
			logger.Warn("Failed to search keyword", zap.String("keyword", kw), zap.Error(err))
		}
		for _, l := range found {
			add(l, kw, MethodSearch)
		}
	}
	return posts, nil
}

// MatchKeyword returns the first keyword contained in text, case-insensitively.
func MatchKeyword(text string, keywords []string) (string, bool) {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return kw, true
		}
	}
	return "", false
}

// SubredditName strips an "r/" or "/r/" prefix.
func SubredditName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "/")
	return strings.TrimPrefix(s, "r/")
}

func toPost(l reddit.Link, subreddit, keyword, method string) models.Post {
	return models.Post{
		ID:          l.ID,
		Title:       l.Title,
		Body:        l.Body,
		Author:      l.Author,
		Score:       l.Score,
		UpvoteRatio: l.UpvoteRatio,
		NumComments: l.NumComments,
		CreatedUTC:  l.CreatedUTC,
		Subreddit:   subreddit,
		Keyword:     keyword,
		Method:      method,
	}
}
