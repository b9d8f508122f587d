// Package output renders cluster reports. It supports text and JSON formats.
package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/bimmerbailey/logsift/internal/parser"
	"github.com/bimmerbailey/logsift/internal/preprocess"
)

// Format represents an output format type.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// NoiseNote is printed after the report when INFO/DEBUG lines were skipped.
const NoiseNote = "(Note: INFO and DEBUG logs were hidden. Use --all to see them.)"

// ParseFormat converts a string to a Format, defaulting to text.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	default:
		return FormatText
	}
}

// Writer handles writing formatted output.
type Writer struct {
	w      io.Writer
	format Format
	color  ColorMode
}

// New creates a new output Writer. Colors are off until SetColor is called.
func New(w io.Writer, format Format) *Writer {
	return &Writer{w: w, format: format, color: ColorNever}
}

// SetColor selects when cluster lines are colored.
func (wr *Writer) SetColor(mode ColorMode) *Writer {
	wr.color = mode
	return wr
}

// WriteReport outputs a report in the configured format.
func (wr *Writer) WriteReport(rep *preprocess.Report) error {
	switch wr.format {
	case FormatJSON:
		return wr.WriteJSON(rep)
	default:
		return wr.writeText(rep)
	}
}

// WriteJSON outputs any value as indented JSON.
func (wr *Writer) WriteJSON(v interface{}) error {
	enc := json.NewEncoder(wr.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeText produces:
//
//	=== Log Analysis Summary: <file> ===
//
//	Total Unique Patterns: <N>
//	------------------------------------------------------------
//	[<count>x] <sample>
//	------------------------------------------------------------
//	(Note: INFO and DEBUG logs were hidden. Use --all to see them.)
func (wr *Writer) writeText(rep *preprocess.Report) error {
	colorize := shouldColorize(wr.color, wr.w)
	width := rep.SeparatorWidth
	if width <= 0 {
		width = 60
	}
	separator := strings.Repeat("-", width)

	bw := bufio.NewWriter(wr.w)
	fmt.Fprintf(bw, "=== Log Analysis Summary: %s ===\n\n", rep.Source)
	fmt.Fprintf(bw, "Total Unique Patterns: %d\n", rep.TotalPatterns)
	fmt.Fprintln(bw, separator)

	for _, e := range rep.Entries {
		line := FormatEntry(e)
		if colorize {
			line = ColorizeLine(parser.DetectLevel(e.Sample), line)
		}
		fmt.Fprintln(bw, line)
	}

	fmt.Fprintln(bw, separator)
	if rep.NoiseHidden {
		fmt.Fprintln(bw, NoiseNote)
	}

	return bw.Flush()
}

// FormatEntry renders one cluster line as "[<count>x] <sample>".
func FormatEntry(e preprocess.ReportEntry) string {
	return fmt.Sprintf("[%dx] %s", e.Count, e.Sample)
}

// RenderText returns the plain text report, without colors.
func RenderText(rep *preprocess.Report) (string, error) {
	var sb strings.Builder
	if err := New(&sb, FormatText).WriteReport(rep); err != nil {
		return "", err
	}
	return sb.String(), nil
}
