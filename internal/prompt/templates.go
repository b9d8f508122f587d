package prompt

import (
	"fmt"
	"strings"

	"github.com/bimmerbailey/logsift/internal/llm"
)

// Build constructs a []llm.Message slice ready to be sent to any llm.Provider.
//
// The slice always holds a system message chosen by pt followed by a single
// user message carrying the report. Summary is required for every type and
// Question for [TypeQuestion]; a missing field returns ErrMissingField.
func Build(pt PromptType, opts BuildOptions) ([]llm.Message, error) {
	if opts.Summary == "" {
		return nil, missingField("Summary")
	}

	var sb strings.Builder

	switch pt {
	case TypeQuestion:
		if opts.Question == "" {
			return nil, missingField("Question")
		}
		sb.WriteString("Question: ")
		sb.WriteString(opts.Question)
		sb.WriteString("\n\n")
		sb.WriteString("Pattern report:\n")
	case TypeRootCause:
		sb.WriteString("Find the root cause of the failures in the following pattern report:\n\n")
	default:
		sb.WriteString("Analyze the following pattern report:\n\n")
	}

	appendReport(&sb, opts)
	appendNotes(&sb, opts)

	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt(pt)},
		{Role: llm.RoleUser, Content: sb.String()},
	}, nil
}

// appendReport writes the optional source line and the report itself.
func appendReport(sb *strings.Builder, opts BuildOptions) {
	if opts.Source != "" {
		sb.WriteString(fmt.Sprintf("Source file: %s\n\n", opts.Source))
	}

	sb.WriteString(strings.TrimRight(opts.Summary, "\n"))
	sb.WriteString("\n\n")
}

// appendNotes tells the model what the report does not contain.
func appendNotes(sb *strings.Builder, opts BuildOptions) {
	var notes []string

	if opts.NoiseHidden {
		notes = append(notes, "lines containing INFO or DEBUG were excluded before clustering")
	}
	if opts.Partial {
		notes = append(notes, "processing stopped early, so counts cover only the beginning of the file")
	}

	if len(notes) > 0 {
		sb.WriteString("Note: ")
		sb.WriteString(strings.Join(notes, "; "))
		sb.WriteString(".\n")
	}
}
