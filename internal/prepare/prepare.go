// Package prepare merges crawled posts and comments into the document table
// the classify stage reads.
package prepare

import (
	"fmt"

	"frame-pipeline/internal/models"
	"frame-pipeline/internal/table"

	"go.uber.org/zap"
)

const (
	DocTypePost    = "post"
	DocTypeComment = "comment"
)

// OutputColumns is the header of the prepared table.
var OutputColumns = []string{
	models.ColumnDocID, "doc_type", "text", "created_utc", "score", "num_comments",
	"subreddit", "category", "post_id", models.ColumnTextCleaned,
}

var (
	postColumns    = []string{"id", "title", "body", "created_utc", "score", "num_comments", "subreddit", "category"}
	commentColumns = []string{"id", "body", "created_utc", "score", "subreddit", "category", "post_id"}
)

// Config for the prepare stage. Comments is optional.
type Config struct {
	Posts    string
	Comments string
	Output   string
}

// Stats describes a prepare run.
type Stats struct {
	Posts    int
	Comments int
	Dropped  int // rows whose cleaned text was empty
	Written  int
}

// Run loads the crawl tables, merges them, cleans the text and writes the
// prepared table with a byte order mark.
func Run(cfg Config, logger *zap.Logger) (*Stats, error) {
	logger.Info("Starting data preparation",
		zap.String("posts", cfg.Posts),
		zap.String("comments", cfg.Comments))

	posts, err := table.Read(cfg.Posts)
	if err != nil {
		return nil, fmt.Errorf("failed to load posts: %w", err)
	}

	comments := &table.Table{}
	if cfg.Comments != "" {
		comments, err = table.Read(cfg.Comments)
		if err != nil {
			return nil, fmt.Errorf("failed to load comments: %w", err)
		}
	}

	stats := &Stats{Posts: len(posts.Rows), Comments: len(comments.Rows)}
	logger.Info("Loaded crawl tables", zap.Int("posts", stats.Posts), zap.Int("comments", stats.Comments))

	rows, err := Merge(posts, comments)
	if err != nil {
		return nil, err
	}

	kept := rows[:0]
	for _, row := range rows {
		if row[len(row)-1] == "" {
			stats.Dropped++
			continue
		}
		kept = append(kept, row)
	}
	stats.Written = len(kept)

	if err := table.WriteFile(cfg.Output, OutputColumns, kept, table.WriteOptions{BOM: true}); err != nil {
		return nil, err
	}

	logger.Info("Data preparation finished",
		zap.String("output", cfg.Output),
		zap.Int("documents", stats.Written),
		zap.Int("dropped", stats.Dropped))
	return stats, nil
}

// Merge converts posts then comments into rows of OutputColumns, with
// text_cleaned filled by LightClean. An empty table is accepted as is.
func Merge(posts, comments *table.Table) ([][]string, error) {
	var rows [][]string

	if len(posts.Header) > 0 {
		idx, err := indexes(posts, postColumns)
		if err != nil {
			return nil, fmt.Errorf("posts table: %w", err)
		}
		for _, r := range posts.Rows {
			text := r[idx["title"]] + " " + r[idx["body"]]
			rows = append(rows, []string{
				r[idx["id"]], DocTypePost, text,
				r[idx["created_utc"]], r[idx["score"]], r[idx["num_comments"]],
				r[idx["subreddit"]], r[idx["category"]], "",
				LightClean(text),
			})
		}
	}

	if len(comments.Header) > 0 {
		idx, err := indexes(comments, commentColumns)
		if err != nil {
			return nil, fmt.Errorf("comments table: %w", err)
		}
		for _, r := range comments.Rows {
			text := r[idx["body"]]
			rows = append(rows, []string{
				r[idx["id"]], DocTypeComment, text,
				r[idx["created_utc"]], r[idx["score"]], "0",
				r[idx["subreddit"]], r[idx["category"]], r[idx["post_id"]],
				LightClean(text),
			})
		}
	}

	return rows, nil
}

func indexes(t *table.Table, columns []string) (map[string]int, error) {
	idx := make(map[string]int, len(columns))
	for _, c := range columns {
		i := t.Index(c)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", table.ErrMissingColumn, c)
		}
		idx[c] = i
	}
	return idx, nil
}
