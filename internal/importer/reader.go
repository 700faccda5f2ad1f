package importer

// reader.go prepares CSV input exported from desktop spreadsheets: a UTF-8
// byte order mark is dropped and invalid UTF-8 bytes are replaced with '?'
// so a stray Latin-1 byte does not abort the import.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// newCleanReader strips a leading BOM and sanitizes invalid UTF-8.
func newCleanReader(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return &utf8Sanitizer{r: br}
}

// utf8Sanitizer replaces invalid bytes in place. A multi-byte rune split
// across two reads is carried over to the next one.
type utf8Sanitizer struct {
	r       io.Reader
	pending []byte
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	n := copy(p, s.pending)
	s.pending = s.pending[:0]
	m, err := s.r.Read(p[n:])
	n += m
	if n == 0 {
		return 0, err
	}

	atEOF := err == io.EOF
	w := 0
	for i := 0; i < n; {
		c := p[i]
		if c < utf8.RuneSelf {
			p[w] = c
			w++
			i++
			continue
		}
		if !atEOF && !utf8.FullRune(p[i:n]) {
			s.pending = append(s.pending, p[i:n]...)
			break
		}
		r, size := utf8.DecodeRune(p[i:n])
		if r == utf8.RuneError && size == 1 {
			p[w] = '?'
			w++
			i++
			continue
		}
		copy(p[w:], p[i:i+size])
		w += size
		i += size
	}

	if w == 0 && len(s.pending) > 0 && err == nil {
		// Only a partial rune was read; fetch more before returning.
		return s.Read(p)
	}
	return w, err
}
