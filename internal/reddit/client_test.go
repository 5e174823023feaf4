package reddit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(context.Background(), Config{
		UserAgent: "test-agent/1.0",
		BaseURL:   srv.URL,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return c
}

func linkJSON(id, title string) string {
	return fmt.Sprintf(`{"kind":"t3","data":{"id":%q,"title":%q,"selftext":"body of %s","author":"someone","score":5,"upvote_ratio":0.9,"num_comments":2,"created_utc":1700000000.0}}`, id, title, id)
}

func TestNewClient_RequiresUserAgent(t *testing.T) {
	_, err := NewClient(context.Background(), Config{}, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestValidateSubreddit(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent/1.0", r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/r/golang/about.json":
			fmt.Fprint(w, `{"kind":"t5","data":{"id":"2rc7j","display_name":"golang"}}`)
		case "/r/missing/about.json":
			http.Redirect(w, r, "/subreddits/search.json?q=missing", http.StatusFound)
		case "/r/private/about.json":
			w.WriteHeader(http.StatusForbidden)
		case "/r/searchy/about.json":
			fmt.Fprint(w, `{"kind":"Listing","data":{"children":[]}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	ctx := context.Background()
	assert.NoError(t, c.ValidateSubreddit(ctx, "golang"))
	for _, name := range []string{"missing", "private", "searchy", "gone"} {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, c.ValidateSubreddit(ctx, name), ErrSubredditNotFound)
		})
	}
}

func TestNewPosts_Paginates(t *testing.T) {
	var afters []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/r/brdev/new.json", r.URL.Path)
		after := r.URL.Query().Get("after")
		afters = append(afters, after)
		switch after {
		case "":
			fmt.Fprintf(w, `{"kind":"Listing","data":{"after":"t3_b","children":[%s,%s]}}`, linkJSON("a", "A"), linkJSON("b", "B"))
		case "t3_b":
			fmt.Fprintf(w, `{"kind":"Listing","data":{"after":null,"children":[%s]}}`, linkJSON("c", "C"))
		}
	}))

	posts, err := c.NewPosts(context.Background(), "brdev", 10)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, []string{"", "t3_b"}, afters)
	assert.Equal(t, "a", posts[0].ID)
	assert.Equal(t, "body of a", posts[0].Body)
	assert.Equal(t, 0.9, posts[0].UpvoteRatio)
	assert.Equal(t, float64(1700000000), posts[0].CreatedUTC)
}

func TestNewPosts_StopsAtLimit(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		fmt.Fprintf(w, `{"kind":"Listing","data":{"after":"t3_b","children":[%s,%s]}}`, linkJSON("a", "A"), linkJSON("b", "B"))
	}))

	posts, err := c.NewPosts(context.Background(), "brdev", 2)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
}

func TestSearch_Params(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/r/brasil/search.json", r.URL.Path)
		assert.Equal(t, "chatgpt", q.Get("q"))
		assert.Equal(t, "1", q.Get("restrict_sr"))
		assert.Equal(t, "relevance", q.Get("sort"))
		assert.Equal(t, "year", q.Get("t"))
		fmt.Fprintf(w, `{"kind":"Listing","data":{"children":[%s]}}`, linkJSON("x", "ChatGPT talk"))
	}))

	posts, err := c.Search(context.Background(), "brasil", "chatgpt", "year", 5)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "ChatGPT talk", posts[0].Title)
}

func TestComments_FlattensAndDropsMore(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/comments/p1.json", r.URL.Path)
		assert.Equal(t, "top", r.URL.Query().Get("sort"))
		fmt.Fprint(w, `[
			{"kind":"Listing","data":{"children":[`+linkJSON("p1", "post")+`]}},
			{"kind":"Listing","data":{"children":[
				{"kind":"t1","data":{"id":"c1","body":"first","author":"u1","score":3,"created_utc":1.0,
					"replies":{"kind":"Listing","data":{"children":[
						{"kind":"t1","data":{"id":"c3","body":"nested","author":"u3","score":1,"created_utc":3.0,"replies":""}}
					]}}}},
				{"kind":"t1","data":{"id":"c2","body":"second","author":"u2","score":2,"created_utc":2.0,"replies":""}},
				{"kind":"more","data":{"count":10,"children":["c9"]}}
			]}}
		]`)
	}))

	comments, err := c.Comments(context.Background(), "p1", 20)
	require.NoError(t, err)

	ids := make([]string, 0, len(comments))
	for _, cm := range comments {
		ids = append(ids, cm.ID)
	}
	assert.Equal(t, []string{"c1", "c2", "c3"}, ids)

	limited, err := c.Comments(context.Background(), "p1", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestClient_ServerError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "boom")
	}))

	_, err := c.NewPosts(context.Background(), "brdev", 5)
	require.Error(t, err)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.False(t, statusErr.NotFound())
}

func TestNewClient_PasswordGrant(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "id", user)
		assert.Equal(t, "secret", pass)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "password", r.PostForm.Get("grant_type"))
		assert.Equal(t, "bot", r.PostForm.Get("username"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"tok","token_type":"bearer","expires_in":3600}`)
	})
	mux.HandleFunc("/r/golang/about", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.True(t, strings.HasPrefix(r.Header.Get("User-Agent"), "test-agent"))
		fmt.Fprint(w, `{"kind":"t5","data":{"id":"2rc7j"}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := NewClient(context.Background(), Config{
		ClientID:     "id",
		ClientSecret: "secret",
		Username:     "bot",
		Password:     "pw",
		UserAgent:    "test-agent/1.0",
		BaseURL:      srv.URL,
		TokenURL:     srv.URL + "/api/v1/access_token",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, requestTimeout, c.httpClient.Timeout)
	assert.NoError(t, c.ValidateSubreddit(context.Background(), "golang"))
}

func TestNewClient_ApplicationOnlyTimeout(t *testing.T) {
	c, err := NewClient(context.Background(), Config{
		ClientID:     "id",
		ClientSecret: "secret",
		UserAgent:    "test-agent/1.0",
		TokenURL:     "http://127.0.0.1:0/api/v1/access_token",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, requestTimeout, c.httpClient.Timeout)
	assert.Equal(t, oauthBaseURL, c.baseURL)
}
