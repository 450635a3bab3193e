package records

// streaming.go holds the reader chain every CSV input passes through before
// the csv.Reader sees it:
//
//   - bomReader drops a leading UTF-8 byte order mark (Excel exports)
//   - utf8Sanitizer replaces invalid UTF-8 bytes with '?'
//   - CountingReader records how many bytes were consumed
//
// Scraper output arrives from several tools and encodings, so the chain is
// applied unconditionally.

import (
	"io"
	"unicode/utf8"
)

// utf8Sanitizer rewrites invalid UTF-8 in place while streaming. Bytes that
// may begin a multi-byte rune split across two reads are held back until the
// next call.
type utf8Sanitizer struct {
	r       io.Reader
	pending []byte
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{r: r, pending: make([]byte, 0, utf8.UTFMax)}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	offset := 0
	if len(s.pending) > 0 {
		offset = copy(p, s.pending)
		s.pending = s.pending[:0]
	}

	n, err := s.r.Read(p[offset:])
	n += offset
	if n == 0 {
		return 0, err
	}

	if isASCII(p[:n]) {
		return n, err
	}
	return s.sanitize(p[:n], err == io.EOF), err
}

func isASCII(data []byte) bool {
	for _, b := range data {
		if b >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// sanitize returns the number of bytes of data that are ready to hand out.
// Invalid bytes become '?' so the output never grows.
func (s *utf8Sanitizer) sanitize(data []byte, atEOF bool) int {
	if utf8.Valid(data) {
		if !atEOF {
			if tail := trailingPartial(data); tail > 0 {
				s.pending = append(s.pending, data[len(data)-tail:]...)
				return len(data) - tail
			}
		}
		return len(data)
	}

	w := 0
	for r := 0; r < len(data); {
		ru, size := utf8.DecodeRune(data[r:])
		if !atEOF && r+size >= len(data) && partialRune(data[r:]) {
			s.pending = append(s.pending, data[r:]...)
			return w
		}
		if ru == utf8.RuneError && size == 1 {
			data[w] = '?'
			w++
			r++
			continue
		}
		copy(data[w:], data[r:r+size])
		w += size
		r += size
	}
	return w
}

// trailingPartial reports how many bytes at the end of data start a rune
// that is not complete yet.
func trailingPartial(data []byte) int {
	for i := 1; i <= 3 && i <= len(data); i++ {
		b := data[len(data)-i]
		if b >= 0xC0 {
			if i < expectedRuneLen(b) {
				return i
			}
			return 0
		}
		if b&0xC0 != 0x80 {
			return 0
		}
	}
	return 0
}

func expectedRuneLen(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b < 0xC0:
		return 0
	case b < 0xE0:
		return 2
	case b < 0xF0:
		return 3
	default:
		return 4
	}
}

func partialRune(data []byte) bool {
	return len(data) > 0 && expectedRuneLen(data[0]) > len(data)
}

// bomReader skips a UTF-8 byte order mark at the start of the stream.
type bomReader struct {
	r       io.Reader
	checked bool
	head    []byte
}

func newBOMReader(r io.Reader) *bomReader {
	return &bomReader{r: r}
}

func (b *bomReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true

		buf := make([]byte, 3)
		n, err := io.ReadFull(b.r, buf)
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		if err != nil && err != io.EOF {
			return 0, err
		}
		if n == 3 && buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF {
			n = 0
		}
		b.head = buf[:n]
		if len(b.head) == 0 && err == io.EOF {
			return 0, io.EOF
		}
	}

	if len(b.head) > 0 {
		n := copy(p, b.head)
		b.head = b.head[n:]
		return n, nil
	}
	return b.r.Read(p)
}

// CountingReader tracks the number of bytes read through it.
type CountingReader struct {
	r         io.Reader
	BytesRead int64
}

// Read implements io.Reader.
func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.BytesRead += int64(n)
	return n, err
}

// WrapInput applies BOM stripping, UTF-8 sanitization and byte counting, in
// that order.
func WrapInput(r io.Reader) *CountingReader {
	return &CountingReader{r: newUTF8Sanitizer(newBOMReader(r))}
}
