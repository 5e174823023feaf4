package crawler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"frame-pipeline/internal/models"
	"frame-pipeline/internal/table"
)

var (
	PostColumns    = []string{"id", "title", "body", "author", "score", "upvote_ratio", "num_comments", "created_utc", "subreddit", "keyword", "method", "category"}
	CommentColumns = []string{"id", "body", "author", "score", "created_utc", "post_id", "category", "subreddit"}
)

// Files lists what SaveData wrote. Empty tables are not written.
type Files struct {
	JSON     string
	Posts    string
	Comments string
}

// BaseName returns the default file name stem for a crawl started at t.
func BaseName(t time.Time) string {
	return "reddit_data_" + t.Format("20060102_150405")
}

// SaveData writes the raw dump as <dir>/<base>.json and the flattened
// posts and comments tables as <base>_posts.csv and <base>_comments.csv.
func SaveData(dir, base string, data models.CrawlData) (*Files, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	files := &Files{JSON: filepath.Join(dir, base+".json")}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return nil, fmt.Errorf("failed to encode crawl data: %w", err)
	}
	if err := os.WriteFile(files.JSON, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", files.JSON, err)
	}

	posts, comments := Flatten(data)

	if len(posts) > 0 {
		files.Posts = filepath.Join(dir, base+"_posts.csv")
		rows := make([][]string, 0, len(posts))
		for _, p := range posts {
			rows = append(rows, postRecord(p))
		}
		if err := table.WriteFile(files.Posts, PostColumns, rows, table.WriteOptions{}); err != nil {
			return nil, err
		}
	}

	if len(comments) > 0 {
		files.Comments = filepath.Join(dir, base+"_comments.csv")
		rows := make([][]string, 0, len(comments))
		for _, c := range comments {
			rows = append(rows, commentRecord(c))
		}
		if err := table.WriteFile(files.Comments, CommentColumns, rows, table.WriteOptions{}); err != nil {
			return nil, err
		}
	}

	return files, nil
}

// Flatten lists all posts and comments annotated with their category and
// subreddit, in category then subreddit order.
func Flatten(data models.CrawlData) ([]models.Post, []models.Comment) {
	var posts []models.Post
	var comments []models.Comment

	for _, category := range sortedKeys(data) {
		subs := data[category]
		names := make([]string, 0, len(subs))
		for name := range subs {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			sd := subs[name]
			if sd == nil {
				continue
			}
			for _, p := range sd.Posts {
				p.Category = category
				posts = append(posts, p)
			}
			for _, c := range sd.Comments {
				c.Category = category
				c.Subreddit = name
				comments = append(comments, c)
			}
		}
	}
	return posts, comments
}

func sortedKeys(data models.CrawlData) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func postRecord(p models.Post) []string {
	return []string{
		p.ID,
		p.Title,
		p.Body,
		p.Author,
		strconv.Itoa(p.Score),
		formatFloat(p.UpvoteRatio),
		strconv.Itoa(p.NumComments),
		formatFloat(p.CreatedUTC),
		p.Subreddit,
		p.Keyword,
		p.Method,
		p.Category,
	}
}

func commentRecord(c models.Comment) []string {
	return []string{
		c.ID,
		c.Body,
		c.Author,
		strconv.Itoa(c.Score),
		formatFloat(c.CreatedUTC),
		c.PostID,
		c.Category,
		c.Subreddit,
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// LatestFiles finds the posts and comments tables of the most recent crawl
// in dir. Comments is empty when that crawl wrote none.
func LatestFiles(dir string) (posts, comments string, err error) {
	matches, err := filepath.Glob(filepath.Join(dir, "reddit_data_*_posts.csv"))
	if err != nil {
		return "", "", err
	}
	if len(matches) == 0 {
		return "", "", fmt.Errorf("no crawl output found in %s: %w", dir, os.ErrNotExist)
	}
	sort.Strings(matches)
	posts = matches[len(matches)-1]

	candidate := strings.TrimSuffix(posts, "_posts.csv") + "_comments.csv"
	if _, statErr := os.Stat(candidate); statErr == nil {
		comments = candidate
	}
	return posts, comments, nil
}
