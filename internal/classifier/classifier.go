package classifier

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"frame-pipeline/internal/models"

	"go.uber.org/zap"
)

// ShortTextJustification is recorded for texts too short to classify.
const ShortTextJustification = "Text too short or invalid."

// Generator is the prompt-in / text-out model endpoint.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config for the classifier
type Config struct {
	MinTextLength int  // runes after trimming, default 10
	StrictFrames  bool // reject labels outside the closed set
}

// Classifier turns one document text into a frame label.
type Classifier struct {
	generator Generator
	prompt    *Prompt
	cfg       Config
	logger    *zap.Logger
}

// New creates a classifier.
func New(generator Generator, prompt *Prompt, cfg Config, logger *zap.Logger) *Classifier {
	if cfg.MinTextLength <= 0 {
		cfg.MinTextLength = 10
	}
	return &Classifier{
		generator: generator,
		prompt:    prompt,
		cfg:       cfg,
		logger:    logger,
	}
}

// Classify never returns an error: failures come back as the error variant of Result.
func (c *Classifier) Classify(ctx context.Context, text string) Result {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < c.cfg.MinTextLength {
		return Result{
			Classification: models.ClassificationResult{
				Frame:         string(models.FrameOtherUnrelated),
				Justification: ShortTextJustification,
			},
			ShortCircuited: true,
		}
	}

	prompt, err := c.prompt.Render(text)
	if err != nil {
		return Failure(KindPrompt, err)
	}

	raw, err := c.generator.Generate(ctx, prompt)
	if err != nil {
		return Failure(KindTransport, err)
	}

	result := ParseResponse(raw)
	if !result.OK() {
		c.logger.Debug("Unparseable model response",
			zap.String("kind", string(result.Kind)),
			zap.String("response", raw))
		return result
	}

	if !models.IsKnown(result.Classification.Frame) {
		if c.cfg.StrictFrames {
			return Failure(KindUnknownFrame, fmt.Errorf("frame %q is not in the category set", result.Classification.Frame))
		}
		c.logger.Warn("Model returned a frame outside the category set",
			zap.String("frame", result.Classification.Frame))
	}

	return result
}
