package classifier

import (
	"fmt"
	"os"
	"strings"
	"text/template"

	"frame-pipeline/internal/models"
)

// DefaultPromptTemplate asks for exactly one JSON object with frame and justificativa.
const DefaultPromptTemplate = `You are a research assistant specialised in discourse analysis and social studies. Your task is to classify the following text, taken from an online Reddit discussion, into ONE of the predefined categories (frames) below.

Read the text carefully and choose the category that best represents the main framing of the discussion.

**Categories (Frames):**
{{- range .Frames }}
- **{{ .Label }}:** {{ .Definition }}
{{- end }}

Answer ONLY with a JSON object containing two keys: "frame" with the chosen category and "justificativa" with a short explanation (one sentence) of your choice.

**Text to classify:**
"{{ .Text }}"

**Your answer in JSON:**
`

// PromptData is what a prompt template is rendered with.
type PromptData struct {
	Text   string
	Frames []models.FrameDefinition
}

// Prompt renders classification prompts.
type Prompt struct {
	tmpl   *template.Template
	frames []models.FrameDefinition
}

// NewPrompt parses a prompt template.
func NewPrompt(text string) (*Prompt, error) {
	tmpl, err := template.New("prompt").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt template: %w", err)
	}
	return &Prompt{tmpl: tmpl, frames: models.Frames}, nil
}

// LoadPrompt reads a template file, or returns the default template when path is empty.
func LoadPrompt(path string) (*Prompt, error) {
	if path == "" {
		return NewPrompt(DefaultPromptTemplate)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt template: %w", err)
	}
	return NewPrompt(string(data))
}

// Render embeds text and the category list into the template.
func (p *Prompt) Render(text string) (string, error) {
	var sb strings.Builder
	if err := p.tmpl.Execute(&sb, PromptData{Text: text, Frames: p.frames}); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return sb.String(), nil
}
