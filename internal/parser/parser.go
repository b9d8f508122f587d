// Package parser reads raw log input line by line.
//
// Lines are decoded as UTF-8 with invalid byte sequences dropped, stripped of
// surrounding whitespace and handed to a callback. No structured format is
// recognised; a line is just text.
package parser

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"

	"github.com/bimmerbailey/logsift/internal/config"
)

// LineFunc is called for every line read. Returning an error stops the read.
type LineFunc func(line string) error

// Stats describes what a read pass saw.
type Stats struct {
	Lines int   // lines read, including blank ones
	Bytes int64 // raw bytes consumed
}

// readChunk is the size of a single read from the source.
const readChunk = 64 * 1024

// Reader reads lines from a source and stops between lines when its context ends.
type Reader struct {
	ctx context.Context
	r   io.Reader
}

// NewReader wraps r. A nil ctx behaves like context.Background().
func NewReader(ctx context.Context, r io.Reader) *Reader {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Reader{ctx: ctx, r: r}
}

// Each reads every line and calls fn with its cleaned text. "\n", "\r\n" and
// a lone "\r" all end a line. Blank lines are passed through as empty strings
// so callers can count them.
//
// When the context is done Each returns the context error; lines already
// handed to fn stay handed.
func (rd *Reader) Each(fn LineFunc) (Stats, error) {
	var (
		stats Stats
		sp    Splitter
	)
	emit := func(line []byte) error {
		if err := rd.ctx.Err(); err != nil {
			return err
		}
		stats.Lines++
		return fn(CleanLine(line))
	}

	buf := make([]byte, readChunk)
	for {
		if err := rd.ctx.Err(); err != nil {
			return stats, err
		}

		n, err := rd.r.Read(buf)
		if n > 0 {
			stats.Bytes += int64(n)
			if werr := sp.Write(buf[:n], emit); werr != nil {
				return stats, werr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return stats, sp.Flush(emit)
			}
			return stats, err
		}
	}
}

// CleanLine decodes raw bytes as UTF-8, dropping invalid sequences, and trims
// surrounding whitespace.
func CleanLine(raw []byte) string {
	return strings.TrimSpace(strings.ToValidUTF8(string(raw), ""))
}

// levelPattern matches common log level strings.
var levelPattern = regexp.MustCompile(`\b(DEBUG|INFO|WARN(?:ING)?|ERROR|FATAL|CRITICAL)\b`)

// DetectLevel sniffs the first severity word in a line. It is only used for
// presentation and never influences clustering.
func DetectLevel(line string) config.LogLevel {
	match := levelPattern.FindString(line)
	if match == "" {
		return config.LevelUnknown
	}
	return config.ParseLevel(match)
}
