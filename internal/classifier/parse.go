package classifier

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"frame-pipeline/internal/models"
)

var (
	errEmptyResponse = errors.New("empty response")
	errTrailingData  = errors.New("unexpected data after JSON object")
)

// StripCodeFence removes a surrounding markdown code fence (with or without a
// language tag) and any prose around the JSON object.
func StripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// drop the language tag, e.g. ```json
		if nl := strings.IndexByte(text, '\n'); nl >= 0 {
			if tag := strings.TrimSpace(text[:nl]); !strings.ContainsAny(tag, "{}") {
				text = text[nl+1:]
			}
		} else {
			text = strings.TrimPrefix(strings.TrimPrefix(text, "json"), "JSON")
		}
		text = strings.TrimSpace(text)
		text = strings.TrimSuffix(text, "```")
		text = strings.TrimSpace(text)
	}

	if !strings.HasPrefix(text, "{") {
		start := strings.IndexByte(text, '{')
		end := strings.LastIndexByte(text, '}')
		if start >= 0 && end > start {
			text = text[start : end+1]
		}
	}

	return text
}

// ParseResponse turns raw model output into a Result.
func ParseResponse(raw string) Result {
	text := StripCodeFence(raw)
	if text == "" {
		return Failure(KindEmptyResponse, errEmptyResponse)
	}

	dec := json.NewDecoder(strings.NewReader(text))
	var fields map[string]json.RawMessage
	if err := dec.Decode(&fields); err != nil {
		return Failure(KindMalformedJSON, fmt.Errorf("failed to parse model response: %w", err))
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Failure(KindMalformedJSON, errTrailingData)
	}

	frame, err := stringField(fields, "frame")
	if err != nil {
		return Failure(KindMissingKeys, err)
	}
	justification, err := stringField(fields, "justificativa")
	if err != nil {
		return Failure(KindMissingKeys, err)
	}

	return Success(models.ClassificationResult{Frame: frame, Justification: justification})
}

func stringField(fields map[string]json.RawMessage, key string) (string, error) {
	raw, ok := fields[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return "", fmt.Errorf("missing key %q in model response", key)
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", fmt.Errorf("key %q is not a string: %w", key, err)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("key %q is empty in model response", key)
	}
	return value, nil
}
