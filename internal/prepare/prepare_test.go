package prepare

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"frame-pipeline/internal/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestLightClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"url", "veja https://openai.com/blog e www.site.com.br agora", "veja e agora"},
		{"markers", "[removido] texto [ Deleted ] fim", "texto fim"},
		{"quote", "> citação\n> outra\nresposta", "citação outra resposta"},
		{"whitespace", "  muitos \t espaços\n\n aqui ok ", "muitos espaços aqui ok"},
		{"nfc", "cafe\u0301 quente", "caf\u00e9 quente"},
		{"only noise", "[deleted]", ""},
		{"nested marker", "[remo[removed]ved]", ""},
		{"plain", "O ChatGPT ajuda no trabalho.", "O ChatGPT ajuda no trabalho."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LightClean(tt.in))
		})
	}
}

func TestLightClean_Idempotent(t *testing.T) {
	inputs := []string{
		"> > quote inside quote",
		"http://a.b [removido] >x",
		"texto  normal\ncom  quebras",
		"[ [deletado] removed]",
		"e\u0301 [removed]\u0301",
	}
	for _, in := range inputs {
		once := LightClean(in)
		assert.Equal(t, once, LightClean(once), "input %q", in)
	}
}

func writeCSV(t *testing.T, path string, header []string, rows [][]string) {
	t.Helper()
	require.NoError(t, table.WriteFile(path, header, rows, table.WriteOptions{}))
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		Posts:    filepath.Join(dir, "posts.csv"),
		Comments: filepath.Join(dir, "comments.csv"),
		Output:   filepath.Join(dir, "out", "prepared.csv"),
	}

	writeCSV(t, cfg.Posts,
		[]string{"id", "title", "body", "author", "score", "upvote_ratio", "num_comments", "created_utc", "subreddit", "keyword", "method", "category"},
		[][]string{
			{"p1", "IA no trabalho", "uso todo dia https://x.y", "u", "10", "0.9", "3", "1700000000", "brdev", "IA", "recent", "tecnologia"},
			{"p2", "", "[removed]", "u", "1", "1", "0", "1700000001", "brasil", "AI", "search", "geral"},
		})
	writeCSV(t, cfg.Comments,
		[]string{"id", "body", "author", "score", "created_utc", "post_id", "category", "subreddit"},
		[][]string{
			{"c1", "> quote\nconcordo", "v", "2", "1700000002", "p1", "tecnologia", "brdev"},
		})

	stats, err := Run(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Posts)
	assert.Equal(t, 1, stats.Comments)
	assert.Equal(t, 1, stats.Dropped)
	assert.Equal(t, 2, stats.Written)

	raw, err := os.ReadFile(cfg.Output)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "\ufeff"), "prepared table starts with a BOM")

	header, docs, err := table.ReadDocuments(cfg.Output)
	require.NoError(t, err)
	assert.Equal(t, OutputColumns, header)
	require.Len(t, docs, 2)

	assert.Equal(t, "p1", docs[0].DocID)
	assert.Equal(t, "IA no trabalho uso todo dia", docs[0].TextCleaned)
	assert.Equal(t, DocTypePost, docs[0].Value("doc_type"))
	assert.Equal(t, "", docs[0].Value("post_id"))

	assert.Equal(t, "c1", docs[1].DocID)
	assert.Equal(t, "quote concordo", docs[1].TextCleaned)
	assert.Equal(t, DocTypeComment, docs[1].Value("doc_type"))
	assert.Equal(t, "0", docs[1].Value("num_comments"))
	assert.Equal(t, "p1", docs[1].Value("post_id"))
	assert.Equal(t, "brdev", docs[1].Value("subreddit"))
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing posts", func(t *testing.T) {
		_, err := Run(Config{Posts: filepath.Join(dir, "none.csv"), Output: filepath.Join(dir, "o.csv")}, zaptest.NewLogger(t))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("missing column", func(t *testing.T) {
		posts := filepath.Join(dir, "bad.csv")
		writeCSV(t, posts, []string{"id", "title"}, [][]string{{"1", "x"}})
		_, err := Run(Config{Posts: posts, Output: filepath.Join(dir, "o.csv")}, zaptest.NewLogger(t))
		assert.ErrorIs(t, err, table.ErrMissingColumn)
	})
}
