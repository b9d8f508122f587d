// Package tail follows a growing log file and hands every new line to a callback.
//
// It implements "tail -f" like functionality on top of fsnotify, with optional
// ingestion of the existing content and log rotation detection.
package tail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/bimmerbailey/logsift/internal/parser"
	"github.com/fsnotify/fsnotify"
)

// ErrRotated is returned when the file is moved away and FollowRotate is off.
var ErrRotated = errors.New("file rotated")

// rotateTimeout bounds the wait for a rotated file to reappear.
const rotateTimeout = 10 * time.Second

// Options configures the tailer behavior.
type Options struct {
	FilePath     string          // Path to the log file
	FromStart    bool            // Feed the existing content before following
	FollowRotate bool            // Whether to follow through log rotations
	OnLine       parser.LineFunc // Called for each complete line, blank ones included
	Logger       *slog.Logger    // Optional; rotation notices are logged here
}

// Tailer follows a single log file.
type Tailer struct {
	opts    Options
	file    *os.File
	offset  int64
	split   parser.Splitter // holds a line still being written
	watcher *fsnotify.Watcher
	logger  *slog.Logger
}

// New creates a new Tailer with the given options.
func New(opts Options) *Tailer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Tailer{opts: opts, logger: logger}
}

// Run starts following. It blocks until ctx is done, which is not an error,
// or until the callback, the watcher or a rotation fails.
func (t *Tailer) Run(ctx context.Context) error {
	if t.opts.OnLine == nil {
		return errors.New("tail: no line callback")
	}

	if err := t.openFile(); err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer t.close()

	if t.opts.FromStart {
		if err := t.readNewContent(); err != nil {
			return fmt.Errorf("failed to read existing content: %w", err)
		}
	}

	if err := t.setupWatcher(); err != nil {
		return fmt.Errorf("failed to setup watcher: %w", err)
	}

	err := t.watch(ctx)
	if err == nil && t.file != nil {
		// Pick up writes whose events had not arrived yet.
		err = t.readNewContent()
	}
	if err == nil || errors.Is(err, ErrRotated) {
		// The source is finished, so an unterminated last line is complete.
		if ferr := t.split.Flush(t.emit); ferr != nil {
			return ferr
		}
	}
	return err
}

// openFile opens the log file and positions the offset at its end.
func (t *Tailer) openFile() error {
	f, err := os.Open(t.opts.FilePath)
	if err != nil {
		return err
	}
	t.file = f

	stat, err := f.Stat()
	if err != nil {
		return err
	}
	t.offset = stat.Size()
	if t.opts.FromStart {
		t.offset = 0
	}

	return nil
}

// setupWatcher initializes the fsnotify watcher.
func (t *Tailer) setupWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	t.watcher = watcher

	return watcher.Add(t.opts.FilePath)
}

// watch monitors the file for changes and feeds new lines.
func (t *Tailer) watch(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-t.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher closed unexpectedly")
			}

			if err := t.handleEvent(ctx, event); err != nil {
				return err
			}

		case err, ok := <-t.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

// handleEvent processes a file system event.
func (t *Tailer) handleEvent(ctx context.Context, event fsnotify.Event) error {
	switch {
	case event.Has(fsnotify.Write):
		return t.readNewContent()

	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		return t.handleRotation(ctx)
	}

	// Chmod and Create on the watched path carry no new data.
	return nil
}

// readNewContent feeds every complete line written since the last read.
// A truncated file is read again from the start.
func (t *Tailer) readNewContent() error {
	stat, err := t.file.Stat()
	if err != nil {
		return err
	}
	if stat.Size() < t.offset {
		t.logger.Info("file truncated, reading from start", "path", t.opts.FilePath)
		t.offset = 0
		t.split.Reset()
	}

	if _, err := t.file.Seek(t.offset, io.SeekStart); err != nil {
		return err
	}

	buf := make([]byte, 32*1024)
	for {
		n, err := t.file.Read(buf)
		if n > 0 {
			t.offset += int64(n)
			if werr := t.split.Write(buf[:n], t.emit); werr != nil {
				return werr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func (t *Tailer) emit(line []byte) error {
	return t.opts.OnLine(parser.CleanLine(line))
}

// handleRotation waits for the path to reappear and reopens it.
func (t *Tailer) handleRotation(ctx context.Context) error {
	// Lines already written to the old file are still readable from the open
	// handle, and its last line is complete even without a newline.
	if err := t.readNewContent(); err != nil {
		return err
	}

	if !t.opts.FollowRotate {
		t.logger.Warn("file rotated, stopping; use --follow-rotate to follow through rotations",
			"path", t.opts.FilePath)
		return ErrRotated
	}

	if err := t.split.Flush(t.emit); err != nil {
		return err
	}

	if t.file != nil {
		t.file.Close()
		t.file = nil
	}

	timeout := time.After(rotateTimeout)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timeout:
			return fmt.Errorf("timeout waiting for rotated file to reappear")
		case <-ticker.C:
			f, err := os.Open(t.opts.FilePath)
			if err != nil {
				continue
			}
			t.file = f
			t.offset = 0
			t.split.Reset()

			_ = t.watcher.Remove(t.opts.FilePath)
			if err := t.watcher.Add(t.opts.FilePath); err != nil {
				return fmt.Errorf("failed to watch rotated file: %w", err)
			}

			t.logger.Info("file rotated, following new file", "path", t.opts.FilePath)
			return t.readNewContent()
		}
	}
}

// close closes all resources.
func (t *Tailer) close() {
	if t.file != nil {
		t.file.Close()
	}
	if t.watcher != nil {
		t.watcher.Close()
	}
}
