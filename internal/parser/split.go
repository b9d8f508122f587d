package parser

import "bytes"

// Splitter cuts a byte stream into lines. "\n", "\r\n" and a lone "\r" all
// end a line, and a "\r\n" split across two writes ends only one.
//
// The slice handed to emit is only valid for the duration of the call.
type Splitter struct {
	buf    []byte
	skipLF bool
}

// Write feeds p and calls emit with every line it completes, terminator
// excluded. Bytes after the last terminator are kept for the next Write.
// An error from emit stops the write and is returned.
func (s *Splitter) Write(p []byte, emit func(line []byte) error) error {
	for len(p) > 0 {
		if s.skipLF {
			s.skipLF = false
			if p[0] == '\n' {
				p = p[1:]
				continue
			}
		}

		i := bytes.IndexAny(p, "\r\n")
		if i < 0 {
			s.buf = append(s.buf, p...)
			return nil
		}

		line := p[:i]
		if len(s.buf) > 0 {
			s.buf = append(s.buf, line...)
			line = s.buf
		}
		s.skipLF = p[i] == '\r'
		p = p[i+1:]

		err := emit(line)
		s.buf = s.buf[:0]
		if err != nil {
			return err
		}
	}
	return nil
}

// Pending reports whether an unterminated line is buffered.
func (s *Splitter) Pending() bool {
	return len(s.buf) > 0
}

// Flush emits the buffered unterminated line, if any. It is called once the
// source has ended, since the last line of a file need not end in a newline.
func (s *Splitter) Flush(emit func(line []byte) error) error {
	if len(s.buf) == 0 {
		return nil
	}
	err := emit(s.buf)
	s.buf = s.buf[:0]
	return err
}

// Reset drops the buffered line and any pending "\r".
func (s *Splitter) Reset() {
	s.buf = s.buf[:0]
	s.skipLF = false
}
