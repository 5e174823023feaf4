package classifier

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"frame-pipeline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubGenerator struct {
	response string
	err      error
	prompts  []string
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.response, s.err
}

func newTestClassifier(t *testing.T, gen Generator, cfg Config) *Classifier {
	t.Helper()
	prompt, err := NewPrompt(DefaultPromptTemplate)
	require.NoError(t, err)
	return New(gen, prompt, cfg, zaptest.NewLogger(t))
}

func TestClassify_ShortTextNeverCallsModel(t *testing.T) {
	for _, text := range []string{"", "   ", "hello", "  hi there ", "ãéíõú"} {
		t.Run(text, func(t *testing.T) {
			gen := &stubGenerator{response: `{"frame":"Risks/Ethics","justificativa":"x"}`}
			c := newTestClassifier(t, gen, Config{})

			result := c.Classify(context.Background(), text)

			assert.Empty(t, gen.prompts)
			assert.True(t, result.OK())
			assert.True(t, result.ShortCircuited)
			frame, justification := result.Row()
			assert.Equal(t, string(models.FrameOtherUnrelated), frame)
			assert.Equal(t, ShortTextJustification, justification)
		})
	}
}

func TestClassify_Success(t *testing.T) {
	gen := &stubGenerator{response: `{"frame": "Tool/Productivity", "justificativa": "Uses ChatGPT for coding."}`}
	c := newTestClassifier(t, gen, Config{})

	text := "I use ChatGPT daily for coding tasks and it saves me hours."
	result := c.Classify(context.Background(), text)

	require.True(t, result.OK())
	assert.False(t, result.ShortCircuited)
	assert.Equal(t, "Tool/Productivity", result.Classification.Frame)
	assert.Equal(t, "Uses ChatGPT for coding.", result.Classification.Justification)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], `"`+text+`"`)
	for _, f := range models.Frames {
		assert.Contains(t, gen.prompts[0], string(f.Label))
	}
}

func TestClassify_FencedResponseMatchesPlain(t *testing.T) {
	plain := `{"frame": "Labor Market", "justificativa": "Talks about jobs."}`
	fenced := "```json\n" + plain + "\n```"

	text := "Will AI take all programming jobs in the next decade?"
	a := newTestClassifier(t, &stubGenerator{response: plain}, Config{}).Classify(context.Background(), text)
	b := newTestClassifier(t, &stubGenerator{response: fenced}, Config{}).Classify(context.Background(), text)

	require.True(t, a.OK())
	assert.Equal(t, a, b)
}

func TestClassify_Failures(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
		kind     ErrorKind
	}{
		{name: "transport", err: errors.New("dial tcp: connection refused"), kind: KindTransport},
		{name: "empty", response: "  ", kind: KindEmptyResponse},
		{name: "not json", response: "I think this is about jobs.", kind: KindMalformedJSON},
		{name: "missing frame", response: `{"justificativa": "no frame here"}`, kind: KindMissingKeys},
		{name: "missing justification", response: `{"frame": "Culture/News"}`, kind: KindMissingKeys},
		{name: "frame not a string", response: `{"frame": 3, "justificativa": "x"}`, kind: KindMissingKeys},
		{name: "two objects", response: `{"frame":"a","justificativa":"b"} {"frame":"c"}`, kind: KindMalformedJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &stubGenerator{response: tt.response, err: tt.err}
			c := newTestClassifier(t, gen, Config{})

			result := c.Classify(context.Background(), "This text is definitely long enough to classify.")

			assert.False(t, result.OK())
			assert.Equal(t, tt.kind, result.Kind)
			frame, justification := result.Row()
			assert.Equal(t, string(models.FrameError), frame)
			assert.NotEmpty(t, justification)
		})
	}
}

func TestClassify_UnknownFrame(t *testing.T) {
	response := `{"frame": "Sports", "justificativa": "About football."}`
	text := "Did you watch the match with the AI referee yesterday?"

	permissive := newTestClassifier(t, &stubGenerator{response: response}, Config{}).Classify(context.Background(), text)
	require.True(t, permissive.OK())
	assert.Equal(t, "Sports", permissive.Classification.Frame)

	strict := newTestClassifier(t, &stubGenerator{response: response}, Config{StrictFrames: true}).Classify(context.Background(), text)
	assert.Equal(t, KindUnknownFrame, strict.Kind)
}

func TestStripCodeFence(t *testing.T) {
	want := `{"frame":"x","justificativa":"y"}`
	for _, in := range []string{
		want,
		"  " + want + "\n",
		"```json\n" + want + "\n```",
		"```JSON\n" + want + "```",
		"```\n" + want + "\n```",
		"```json " + want + "```",
		"Here is my answer:\n" + want + "\nHope it helps.",
	} {
		assert.Equal(t, want, StripCodeFence(in), "input %q", in)
	}
}

func TestLoadPrompt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.tmpl")
	require.NoError(t, os.WriteFile(path, []byte(`{{ len .Frames }}|{{ .Text }}`), 0o644))

	p, err := LoadPrompt(path)
	require.NoError(t, err)
	out, err := p.Render("abc")
	require.NoError(t, err)
	assert.Equal(t, "6|abc", out)

	_, err = NewPrompt("{{ .Text ")
	assert.Error(t, err)

	_, err = LoadPrompt(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestLoadPrompt_ShippedTemplateMatchesDefault(t *testing.T) {
	shipped, err := LoadPrompt(filepath.Join("..", "..", "configs", "prompt.tmpl"))
	require.NoError(t, err)
	builtin, err := NewPrompt(DefaultPromptTemplate)
	require.NoError(t, err)

	a, err := shipped.Render("some text")
	require.NoError(t, err)
	b, err := builtin.Render("some text")
	require.NoError(t, err)
	assert.Equal(t, b, a)
}
