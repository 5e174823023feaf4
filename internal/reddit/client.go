package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"frame-pipeline/internal/governor"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	publicBaseURL = "https://www.reddit.com"
	oauthBaseURL  = "https://oauth.reddit.com"
	pageSize      = 100

	requestTimeout = 30 * time.Second
)

// ErrSubredditNotFound is returned for subreddits that do not exist or are not accessible.
var ErrSubredditNotFound = errors.New("subreddit not found")

// Config for the Reddit client
type Config struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	UserAgent    string
	BaseURL      string
	TokenURL     string
	// RequestInterval is waited after every API request.
	RequestInterval time.Duration
}

// Client encapsulates the Reddit API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	jsonSuffix bool
	userAgent  string
	pacer      *governor.Governor
	logger     *zap.Logger
}

// Reddit API response structures
type listing struct {
	Kind string `json:"kind"`
	Data struct {
		After    string  `json:"after"`
		Children []thing `json:"children"`
	} `json:"data"`
}

type thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type link struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Author      string  `json:"author"`
	Score       int     `json:"score"`
	UpvoteRatio float64 `json:"upvote_ratio"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	Subreddit   string  `json:"subreddit"`
}

type comment struct {
	ID         string          `json:"id"`
	Body       string          `json:"body"`
	Author     string          `json:"author"`
	Score      int             `json:"score"`
	CreatedUTC float64         `json:"created_utc"`
	Replies    json.RawMessage `json:"replies"` // "" or a listing
}

type subredditAbout struct {
	Kind string `json:"kind"`
	Data struct {
		ID            string `json:"id"`
		DisplayName   string `json:"display_name"`
		SubredditType string `json:"subreddit_type"`
	} `json:"data"`
}

// userAgentTransport sets the User-Agent Reddit requires on every request.
type userAgentTransport struct {
	userAgent string
	base      http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(req)
}

// NewClient creates and initializes a new Reddit API client. With a username
// and password the script-app password grant is used, with only client
// credentials an application-only token, and without credentials the public
// JSON endpoints.
func NewClient(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("reddit user agent is required")
	}

	base := &http.Client{
		Timeout:   requestTimeout,
		Transport: &userAgentTransport{userAgent: cfg.UserAgent, base: http.DefaultTransport},
	}

	c := &Client{
		httpClient: base,
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		pacer:      governor.New(cfg.RequestInterval),
		logger:     logger,
	}

	tokenCtx := context.WithValue(ctx, oauth2.HTTPClient, base)
	endpoint := oauth2.Endpoint{TokenURL: cfg.TokenURL, AuthStyle: oauth2.AuthStyleInHeader}

	switch {
	case cfg.ClientID != "" && cfg.Username != "":
		oc := &oauth2.Config{ClientID: cfg.ClientID, ClientSecret: cfg.ClientSecret, Endpoint: endpoint}
		token, err := oc.PasswordCredentialsToken(tokenCtx, cfg.Username, cfg.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to authenticate with reddit: %w", err)
		}
		c.httpClient = oc.Client(tokenCtx, token)
		c.setBase(oauthBaseURL, false)
		logger.Info("Reddit client initialized", zap.String("auth", "password"), zap.String("user", cfg.Username))
	case cfg.ClientID != "":
		cc := &clientcredentials.Config{
			ClientID:       cfg.ClientID,
			ClientSecret:   cfg.ClientSecret,
			TokenURL:       cfg.TokenURL,
			EndpointParams: url.Values{"grant_type": {"client_credentials"}},
			AuthStyle:      oauth2.AuthStyleInHeader,
		}
		c.httpClient = cc.Client(tokenCtx)
		c.setBase(oauthBaseURL, false)
		logger.Info("Reddit client initialized", zap.String("auth", "application"))
	default:
		c.setBase(publicBaseURL, true)
		logger.Warn("Reddit credentials not configured, using public endpoints")
	}

	return c, nil
}

func (c *Client) setBase(defaultURL string, jsonSuffix bool) {
	if c.baseURL == "" {
		c.baseURL = defaultURL
	}
	c.baseURL = strings.TrimRight(c.baseURL, "/")
	c.jsonSuffix = jsonSuffix
	// oauth2 clients carry no timeout of their own.
	c.httpClient.Timeout = requestTimeout
	// Reddit answers unknown subreddits with a redirect to search.
	c.httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
}

// get performs a Reddit API request and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("raw_json", "1")
	if c.jsonSuffix {
		path += ".json"
	}
	apiURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if err := c.pacer.Pace(ctx); err != nil {
		return err
	}

	switch {
	case resp.StatusCode >= 300 && resp.StatusCode < 400,
		resp.StatusCode == http.StatusNotFound,
		resp.StatusCode == http.StatusForbidden:
		return &StatusError{StatusCode: resp.StatusCode, Path: path}
	case resp.StatusCode != http.StatusOK:
		return &StatusError{StatusCode: resp.StatusCode, Path: path, Body: truncate(string(body), 200)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse reddit response: %w", err)
	}
	return nil
}

// StatusError is a non-200 answer from the API.
type StatusError struct {
	StatusCode int
	Path       string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("reddit API returned status %d for %s: %s", e.StatusCode, e.Path, e.Body)
	}
	return fmt.Sprintf("reddit API returned status %d for %s", e.StatusCode, e.Path)
}

// NotFound reports whether the status means the resource is missing or hidden.
func (e *StatusError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusForbidden ||
		(e.StatusCode >= 300 && e.StatusCode < 400)
}

// ValidateSubreddit checks that the subreddit exists and is readable.
func (c *Client) ValidateSubreddit(ctx context.Context, name string) error {
	var about subredditAbout
	err := c.get(ctx, "/r/"+url.PathEscape(name)+"/about", nil, &about)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.NotFound() {
		return fmt.Errorf("%w: r/%s", ErrSubredditNotFound, name)
	}
	if err != nil {
		return err
	}
	// a search listing instead of a t5 also means the name did not resolve
	if about.Kind != "t5" || about.Data.ID == "" {
		return fmt.Errorf("%w: r/%s", ErrSubredditNotFound, name)
	}
	return nil
}

// listing walks a paginated listing until limit items were collected or the
// listing ends.
func (c *Client) listing(ctx context.Context, path string, params url.Values, limit int) ([]thing, error) {
	var items []thing
	after := ""
	for len(items) < limit {
		page := url.Values{}
		for k, v := range params {
			page[k] = v
		}
		page.Set("limit", strconv.Itoa(min(pageSize, limit-len(items))))
		if after != "" {
			page.Set("after", after)
		}

		var l listing
		if err := c.get(ctx, path, page, &l); err != nil {
			return items, err
		}
		items = append(items, l.Data.Children...)

		if l.Data.After == "" || len(l.Data.Children) == 0 {
			break
		}
		after = l.Data.After
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// NewPosts returns up to limit of the newest posts of a subreddit.
func (c *Client) NewPosts(ctx context.Context, subreddit string, limit int) ([]Link, error) {
	things, err := c.listing(ctx, "/r/"+url.PathEscape(subreddit)+"/new", nil, limit)
	return decodeLinks(things), err
}

// Search returns up to limit posts of a subreddit matching query.
func (c *Client) Search(ctx context.Context, subreddit, query, timeFilter string, limit int) ([]Link, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("restrict_sr", "1")
	params.Set("sort", "relevance")
	params.Set("t", timeFilter)

	things, err := c.listing(ctx, "/r/"+url.PathEscape(subreddit)+"/search", params, limit)
	return decodeLinks(things), err
}

// Comments returns up to limit comments of a post, top sorted, flattened
// breadth-first. "load more" stubs are not expanded.
func (c *Client) Comments(ctx context.Context, postID string, limit int) ([]Comment, error) {
	params := url.Values{}
	params.Set("sort", "top")

	var listings []listing
	if err := c.get(ctx, "/comments/"+url.PathEscape(postID), params, &listings); err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}
	if len(listings) < 2 {
		return nil, nil
	}

	var out []Comment
	queue := listings[1].Data.Children
	for len(queue) > 0 && len(out) < limit {
		t := queue[0]
		queue = queue[1:]
		if t.Kind != "t1" {
			continue
		}

		var cm comment
		if err := json.Unmarshal(t.Data, &cm); err != nil {
			c.logger.Warn("Skipping undecodable comment", zap.String("post_id", postID), zap.Error(err))
			continue
		}
		out = append(out, Comment{
			ID:         cm.ID,
			Body:       cm.Body,
			Author:     cm.Author,
			Score:      cm.Score,
			CreatedUTC: cm.CreatedUTC,
		})

		if len(cm.Replies) > 0 && cm.Replies[0] == '{' {
			var replies listing
			if err := json.Unmarshal(cm.Replies, &replies); err == nil {
				queue = append(queue, replies.Data.Children...)
			}
		}
	}
	return out, nil
}

// Link is a post as returned by the API.
type Link struct {
	ID          string
	Title       string
	Body        string
	Author      string
	Score       int
	UpvoteRatio float64
	NumComments int
	CreatedUTC  float64
}

// Comment is a comment as returned by the API.
type Comment struct {
	ID         string
	Body       string
	Author     string
	Score      int
	CreatedUTC float64
}

func decodeLinks(things []thing) []Link {
	links := make([]Link, 0, len(things))
	for _, t := range things {
		if t.Kind != "t3" {
			continue
		}
		var l link
		if err := json.Unmarshal(t.Data, &l); err != nil {
			continue
		}
		links = append(links, Link{
			ID:          l.ID,
			Title:       l.Title,
			Body:        l.Selftext,
			Author:      l.Author,
			Score:       l.Score,
			UpvoteRatio: l.UpvoteRatio,
			NumComments: l.NumComments,
			CreatedUTC:  l.CreatedUTC,
		})
	}
	return links
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
