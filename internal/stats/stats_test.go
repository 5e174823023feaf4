package stats

import (
	"path/filepath"
	"strings"
	"testing"

	"frame-pipeline/internal/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeOutput(t *testing.T, rows [][]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "frames.csv")
	require.NoError(t, table.WriteFile(path,
		[]string{"doc_id", "subreddit", "text_cleaned", "frame", "justificativa_llm"},
		rows, table.WriteOptions{BOM: true}))
	return path
}

func TestCompute(t *testing.T) {
	path := writeOutput(t, [][]string{
		{"1", "brdev", "a", "Labor Market", "j"},
		{"2", "brdev", "b", "Tool/Productivity", "j"},
		{"3", "brasil", "c", "Tool/Productivity", "j"},
		{"4", "brasil", "d", "ERROR", "transport: boom"},
		{"5", "brasil", "e", "Sarcasm", "j"},
	})

	r, err := Compute(path, "subreddit")
	require.NoError(t, err)
	assert.Equal(t, 5, r.Total)

	labels := make([]string, 0, len(r.Frames))
	for _, fc := range r.Frames {
		labels = append(labels, fc.Frame)
	}
	assert.Equal(t, []string{"Tool/Productivity", "Labor Market", "Sarcasm", "ERROR"}, labels)
	assert.Equal(t, 2, r.Frames[0].Count)
	assert.InDelta(t, 0.4, r.Frames[0].Share, 1e-9)

	assert.Equal(t, 1, r.Groups["brdev"]["Tool/Productivity"])
	assert.Equal(t, 1, r.Groups["brasil"]["ERROR"])

	out := r.Render()
	assert.Contains(t, out, "Tool/Productivity")
	assert.Contains(t, out, "40.0%")
	assert.Contains(t, out, "brasil")
	assert.True(t, strings.Contains(out, "╭"), "rounded style")
}

func TestCompute_Errors(t *testing.T) {
	path := writeOutput(t, [][]string{{"1", "s", "t", "Culture/News", "j"}})

	_, err := Compute(path, "category")
	assert.ErrorIs(t, err, table.ErrMissingColumn)

	_, err = Compute(filepath.Join(t.TempDir(), "missing.csv"), "")
	assert.Error(t, err)
}

func TestCompute_EmptyOutput(t *testing.T) {
	path := writeOutput(t, nil)

	r, err := Compute(path, "")
	require.NoError(t, err)
	assert.Zero(t, r.Total)
	assert.Empty(t, r.Frames)
	assert.NotEmpty(t, r.Render())
}
