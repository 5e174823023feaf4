package classifier

import (
	"fmt"

	"frame-pipeline/internal/models"
)

// ErrorKind says why a classification failed.
type ErrorKind string

const (
	KindNone          ErrorKind = ""
	KindTransport     ErrorKind = "transport"
	KindEmptyResponse ErrorKind = "empty_response"
	KindMalformedJSON ErrorKind = "malformed_json"
	KindMissingKeys   ErrorKind = "missing_keys"
	KindUnknownFrame  ErrorKind = "unknown_frame"
	KindPrompt        ErrorKind = "prompt"
)

// Result is either a classification or a classification failure, never both.
type Result struct {
	Classification models.ClassificationResult
	Kind           ErrorKind
	Message        string

	// ShortCircuited is set when the text was too short to send to the model.
	ShortCircuited bool
}

// Success wraps a parsed classification.
func Success(c models.ClassificationResult) Result {
	return Result{Classification: c}
}

// Failure builds the error variant.
func Failure(kind ErrorKind, err error) Result {
	msg := string(kind)
	if err != nil {
		msg = err.Error()
	}
	return Result{Kind: kind, Message: msg}
}

// OK reports whether the classification succeeded.
func (r Result) OK() bool {
	return r.Kind == KindNone
}

// Row returns the frame and justification written to the output table.
// Failures become the ERROR sentinel with a non-empty justification.
func (r Result) Row() (frame, justification string) {
	if r.OK() {
		return r.Classification.Frame, r.Classification.Justification
	}
	return string(models.FrameError), fmt.Sprintf("%s: %s", r.Kind, r.Message)
}
