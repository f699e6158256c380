package iostream

import (
	"io"

	apperrors "github.com/sail-img/sail/errors"
)

// MemoryReader is a non-owning Stream over a caller-supplied byte span.
// Per DESIGN.md's resolution of spec §9's open question, MemoryReader never
// takes responsibility for freeing the underlying slice; the caller that
// constructed it retains ownership for as long as the MemoryReader is used.
type MemoryReader struct {
	data []byte
	pos  int64
	eof  bool
}

// NewMemoryReader wraps data as a read-only Stream. data is borrowed: the
// caller must not mutate it while the stream is in use, and remains
// responsible for its lifetime.
func NewMemoryReader(data []byte) *MemoryReader {
	return &MemoryReader{data: data}
}

func (m *MemoryReader) Tell() (int64, error) { return m.pos, nil }

func (m *MemoryReader) Seek(offset int64, whence Whence) (int64, error) {
	var base int64
	switch whence {
	case Absolute:
		base = 0
	case Relative:
		base = m.pos
	case FromEnd:
		base = int64(len(m.data))
	}
	newPos := base + offset
	if newPos < 0 || newPos > int64(len(m.data)) {
		return 0, apperrors.New(apperrors.OutOfRange, "iostream.memoryreader.seek", nil)
	}
	m.pos = newPos
	m.eof = false
	return m.pos, nil
}

func (m *MemoryReader) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.data)) {
		m.eof = true
		return 0, nil
	}
	n := copy(p, m.data[m.pos:])
	m.pos += int64(n)
	if m.pos >= int64(len(m.data)) {
		m.eof = true
	}
	return n, nil
}

func (m *MemoryReader) Write([]byte) (int, error) {
	return 0, apperrors.New(apperrors.InvalidIo, "iostream.memoryreader.write",
		apperrors.ErrEmptyInput)
}

func (m *MemoryReader) Flush() error { return nil }

func (m *MemoryReader) EOF() bool { return m.eof }

func (m *MemoryReader) Close() error { return nil }

// MemoryWriter is an owning Stream backed by a growable or fixed-size
// buffer. When Max > 0 the buffer never grows past Max bytes; writes past
// that point fail with ShortWrite / OutOfRange and the buffer is left
// unmutated beyond the bytes already accepted (spec §8 scenario S6).
type MemoryWriter struct {
	buf []byte
	pos int64
	max int64 // 0 = unbounded (growable)
	eof bool
}

// NewMemoryWriter returns a growable, owning write Stream.
func NewMemoryWriter() *MemoryWriter {
	return &MemoryWriter{}
}

// NewFixedMemoryWriter returns an owning write Stream bounded to max bytes.
func NewFixedMemoryWriter(max int64) *MemoryWriter {
	return &MemoryWriter{max: max}
}

func (m *MemoryWriter) Tell() (int64, error) { return m.pos, nil }

func (m *MemoryWriter) Seek(offset int64, whence Whence) (int64, error) {
	var base int64
	switch whence {
	case Absolute:
		base = 0
	case Relative:
		base = m.pos
	case FromEnd:
		base = int64(len(m.buf))
	}
	newPos := base + offset
	if newPos < 0 {
		return 0, apperrors.New(apperrors.OutOfRange, "iostream.memorywriter.seek", nil)
	}
	if newPos > int64(len(m.buf)) {
		if !m.grow(newPos) {
			return 0, apperrors.New(apperrors.OutOfRange, "iostream.memorywriter.seek", nil)
		}
	}
	m.pos = newPos
	m.eof = false
	return m.pos, nil
}

func (m *MemoryWriter) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.buf)) {
		m.eof = true
		return 0, nil
	}
	n := copy(p, m.buf[m.pos:])
	m.pos += int64(n)
	if m.pos >= int64(len(m.buf)) {
		m.eof = true
	}
	return n, nil
}

// Write appends p at the current position, growing the buffer up to Max
// (if bounded). A write that would exceed a bounded Max is truncated to
// the remaining capacity and reported via ShortWrite; bytes that fit are
// still written (spec §8 S6: "the buffer is not mutated beyond the written
// count").
func (m *MemoryWriter) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	truncated := false
	if m.max > 0 && end > m.max {
		end = m.max
		truncated = true
	}
	n := int(end - m.pos)
	if n < 0 {
		n = 0
	}
	if !m.grow(end) {
		return 0, apperrors.New(apperrors.OutOfRange, "iostream.memorywriter.write", nil)
	}
	copy(m.buf[m.pos:end], p[:n])
	m.pos = end
	if truncated {
		return n, apperrors.New(apperrors.ShortWrite, "iostream.memorywriter.write", nil)
	}
	return n, nil
}

// grow ensures len(m.buf) >= size, respecting a bounded Max. Returns false
// if size exceeds Max.
func (m *MemoryWriter) grow(size int64) bool {
	if m.max > 0 && size > m.max {
		return false
	}
	if int64(len(m.buf)) >= size {
		return true
	}
	grown := make([]byte, size)
	copy(grown, m.buf)
	m.buf = grown
	return true
}

func (m *MemoryWriter) Flush() error { return nil }

func (m *MemoryWriter) EOF() bool { return m.eof }

func (m *MemoryWriter) Close() error { return nil }

// Bytes returns the bytes written so far. The returned slice aliases the
// writer's internal buffer and must not be retained past further writes.
func (m *MemoryWriter) Bytes() []byte { return m.buf }

// Len returns the cumulative number of bytes currently held.
func (m *MemoryWriter) Len() int64 { return int64(len(m.buf)) }

var (
	_ Stream    = (*MemoryReader)(nil)
	_ Stream    = (*MemoryWriter)(nil)
	_ io.Writer = (*MemoryWriter)(nil)
)
