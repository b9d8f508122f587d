package prompt

import (
	"errors"
	"fmt"
	"strings"
)

// PromptType identifies the task a prompt is built for.
type PromptType string

const (
	// TypeSummarize asks for an overview of the cluster report.
	// It is the default for `logsift explain`.
	TypeSummarize PromptType = "summarize"

	// TypeRootCause asks the model to diagnose the most likely root cause,
	// citing clusters as evidence.
	TypeRootCause PromptType = "root_cause"

	// TypeQuestion answers a specific user question about the report.
	// Selected automatically when a question is given.
	TypeQuestion PromptType = "question"
)

// BuildOptions holds the context a prompt is built from.
type BuildOptions struct {
	// Summary is the rendered cluster report. Required for all types.
	Summary string

	// Question is the user's question. Required for [TypeQuestion].
	Question string

	// Source names the analysed file. Optional.
	Source string

	// NoiseHidden tells the model INFO and DEBUG lines were dropped before clustering.
	NoiseHidden bool

	// Partial tells the model the run stopped before the end of the input.
	Partial bool
}

// ErrMissingField is returned by [Build] when a required field for the
// requested [PromptType] is absent from [BuildOptions].
var ErrMissingField = errors.New("prompt: missing required field")

// ErrUnknownType is returned by [ParseType] for names it does not know.
var ErrUnknownType = errors.New("prompt: unknown prompt type")

// missingField wraps [ErrMissingField] with the specific field name.
func missingField(field string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, field)
}

// ParseType converts a mode name into a PromptType. "root-cause" is accepted
// as a spelling of root_cause.
func ParseType(s string) (PromptType, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_") {
	case "", string(TypeSummarize):
		return TypeSummarize, nil
	case string(TypeRootCause):
		return TypeRootCause, nil
	case string(TypeQuestion):
		return TypeQuestion, nil
	default:
		return "", fmt.Errorf("%w: %q (supported: summarize, root_cause, question)", ErrUnknownType, s)
	}
}
