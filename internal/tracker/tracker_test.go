package tracker

import (
	"os"
	"path/filepath"
	"testing"

	"frame-pipeline/internal/models"
	"frame-pipeline/internal/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docs(ids ...string) []models.Document {
	out := make([]models.Document, len(ids))
	for i, id := range ids {
		out[i] = models.Document{DocID: id}
	}
	return out
}

func ids(plan Plan) []string {
	out := make([]string, len(plan.Pending))
	for i, d := range plan.Pending {
		out[i] = d.DocID
	}
	return out
}

func TestNormalizeID(t *testing.T) {
	assert.Equal(t, "42", NormalizeID("42"))
	assert.Equal(t, "42", NormalizeID(" 42 "))
	assert.Equal(t, "42", NormalizeID("42.0"))
	assert.Equal(t, "42.5", NormalizeID("42.5"))
	assert.Equal(t, "1e5", NormalizeID("1e5"))
	assert.Equal(t, "t3_abc", NormalizeID("t3_abc"))
}

func TestPending_PreservesOrderAndSkipsRecorded(t *testing.T) {
	recorded := IDSet{}
	recorded.Add("b")
	recorded.Add("7.0")

	plan := Pending(docs("a", "b", "c", "7", "d"), recorded)

	assert.Equal(t, []string{"a", "c", "d"}, ids(plan))
	assert.Equal(t, 2, plan.Recorded)
	assert.Zero(t, plan.Duplicates)
}

func TestPending_InputDuplicatesKeptOnce(t *testing.T) {
	plan := Pending(docs("x", "y", "x", "x.0"), IDSet{})

	assert.Equal(t, []string{"x", "y", "x.0"}, ids(plan))
	assert.Equal(t, 1, plan.Duplicates)
}

func TestPending_EverythingRecorded(t *testing.T) {
	recorded := IDSet{}
	for _, id := range []string{"1", "2"} {
		recorded.Add(id)
	}
	plan := Pending(docs("1", "2"), recorded)

	assert.Empty(t, plan.Pending)
	assert.Equal(t, 2, plan.Recorded)
}

func TestRecordedIDs(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing output is empty", func(t *testing.T) {
		got, err := RecordedIDs(filepath.Join(dir, "nope.csv"))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("empty file is empty", func(t *testing.T) {
		path := filepath.Join(dir, "empty.csv")
		require.NoError(t, os.WriteFile(path, nil, 0o644))
		got, err := RecordedIDs(path)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("numeric ids match string ids", func(t *testing.T) {
		path := filepath.Join(dir, "out.csv")
		require.NoError(t, table.WriteFile(path,
			[]string{"doc_id", "frame", "justificativa_llm"},
			[][]string{{"1.0", "Culture/News", "x"}, {"abc", "ERROR", "y"}},
			table.WriteOptions{}))

		got, err := RecordedIDs(path)
		require.NoError(t, err)
		assert.True(t, got.Has("1"))
		assert.True(t, got.Has("abc"))
		assert.False(t, got.Has("2"))
	})

	t.Run("missing doc_id column is fatal", func(t *testing.T) {
		path := filepath.Join(dir, "bad.csv")
		require.NoError(t, os.WriteFile(path, []byte("id,frame\n1,x\n"), 0o644))
		_, err := RecordedIDs(path)
		assert.ErrorIs(t, err, table.ErrMissingColumn)
	})

	t.Run("malformed csv is fatal", func(t *testing.T) {
		path := filepath.Join(dir, "broken.csv")
		require.NoError(t, os.WriteFile(path, []byte("doc_id,frame\n1,\"unterminated\n"), 0o644))
		_, err := RecordedIDs(path)
		assert.Error(t, err)
	})
}
