package models

// Post is a Reddit submission collected by the crawler.
type Post struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Body        string  `json:"body"`
	Author      string  `json:"author"`
	Score       int     `json:"score"`
	UpvoteRatio float64 `json:"upvote_ratio"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	Subreddit   string  `json:"subreddit"`
	Keyword     string  `json:"keyword"`
	Method      string  `json:"method"` // "recent" or "search"
	Category    string  `json:"category,omitempty"`
}

// Comment is a top-sorted comment of a collected post.
type Comment struct {
	ID         string  `json:"id"`
	Body       string  `json:"body"`
	Author     string  `json:"author"`
	Score      int     `json:"score"`
	CreatedUTC float64 `json:"created_utc"`
	PostID     string  `json:"post_id"`
	Subreddit  string  `json:"subreddit,omitempty"`
	Category   string  `json:"category,omitempty"`
}

// SubredditData is everything collected from one subreddit.
type SubredditData struct {
	Subreddit string    `json:"subreddit"`
	Posts     []Post    `json:"posts"`
	Comments  []Comment `json:"comments"`
}

// CrawlData maps category -> subreddit -> collected data.
type CrawlData map[string]map[string]*SubredditData
