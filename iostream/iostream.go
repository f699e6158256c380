// Package iostream provides SAIL's uniform random-access byte sink/source
// abstraction (spec §4.2) over files, memory buffers, and caller-provided
// streams. It is grounded on the teacher's utils/streaming.go pooled
// reader helpers and riannucci-sarchive's open/seek/read/write contract.
package iostream

import (
	"io"
	"os"

	apperrors "github.com/sail-img/sail/errors"
)

// Whence selects the reference point for Seek, mirroring io.Seek* but
// named per spec §4.2's capability set (tell, seek(absolute|relative|from-end)).
type Whence int

const (
	Absolute Whence = iota // io.SeekStart
	Relative                // io.SeekCurrent
	FromEnd                 // io.SeekEnd
)

func (w Whence) toStd() int {
	switch w {
	case Relative:
		return io.SeekCurrent
	case FromEnd:
		return io.SeekEnd
	default:
		return io.SeekStart
	}
}

// Stream is the polymorphic handle every SAIL codec plugin reads from and
// writes to. Implementations: file-backed, memory-backed-read (borrowed),
// memory-backed-write (owning, growable or fixed-size).
type Stream interface {
	Tell() (int64, error)
	Seek(offset int64, whence Whence) (int64, error)
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Flush() error
	EOF() bool
	Close() error
}

// Validate reports InvalidIo if s is nil; every concrete Stream
// implementation in this package satisfies the full interface by
// construction, so there is nothing else to check once the interface is
// non-nil (the required-operation check spec §4.2 calls for is enforced by
// the Go compiler at the interface boundary instead of at runtime).
func Validate(s Stream) error {
	if s == nil {
		return apperrors.New(apperrors.InvalidIo, "iostream.validate", apperrors.ErrEmptyInput)
	}
	return nil
}

// DrainPrefix reads up to n bytes from s without permanently consuming
// them: it reads, then seeks back to the position it started from. Used
// by registry magic-byte lookup and Probe (spec §4.4, §4.7: "the stream is
// rewound before returning").
func DrainPrefix(s Stream, n int) ([]byte, error) {
	start, err := s.Tell()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.InvalidIo, "iostream.drainprefix.tell", err)
	}
	buf := make([]byte, n)
	read := 0
	for read < n {
		m, rerr := s.Read(buf[read:])
		read += m
		if rerr == io.EOF || s.EOF() {
			break
		}
		if rerr != nil {
			_, _ = s.Seek(start, Absolute)
			return nil, apperrors.Wrap(apperrors.InvalidIo, "iostream.drainprefix.read", rerr)
		}
		if m == 0 {
			break
		}
	}
	if _, err := s.Seek(start, Absolute); err != nil {
		return nil, apperrors.Wrap(apperrors.InvalidIo, "iostream.drainprefix.rewind", err)
	}
	return buf[:read], nil
}

// File opens path with the OS and exposes it as a Stream.
type File struct {
	f   *os.File
	eof bool
}

// OpenFile opens path for reading.
func OpenFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.FileOpenError, "iostream.openfile", err)
	}
	return &File{f: f}, nil
}

// CreateFile creates (or truncates) path for writing.
func CreateFile(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.FileOpenError, "iostream.createfile", err)
	}
	return &File{f: f}, nil
}

func (s *File) Tell() (int64, error) {
	off, err := s.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.InvalidIo, "iostream.file.tell", err)
	}
	return off, nil
}

func (s *File) Seek(offset int64, whence Whence) (int64, error) {
	off, err := s.f.Seek(offset, whence.toStd())
	if err != nil {
		return 0, apperrors.Wrap(apperrors.OutOfRange, "iostream.file.seek", err)
	}
	s.eof = false
	return off, nil
}

func (s *File) Read(p []byte) (int, error) {
	n, err := s.f.Read(p)
	if err == io.EOF {
		s.eof = true
		return n, nil
	}
	if err != nil {
		return n, apperrors.Wrap(apperrors.InvalidIo, "iostream.file.read", err)
	}
	return n, nil
}

func (s *File) Write(p []byte) (int, error) {
	n, err := s.f.Write(p)
	if err != nil {
		return n, apperrors.Wrap(apperrors.ShortWrite, "iostream.file.write", err)
	}
	return n, nil
}

func (s *File) Flush() error {
	if err := s.f.Sync(); err != nil {
		return apperrors.Wrap(apperrors.InvalidIo, "iostream.file.flush", err)
	}
	return nil
}

func (s *File) EOF() bool { return s.eof }

func (s *File) Close() error {
	if err := s.f.Close(); err != nil {
		return apperrors.Wrap(apperrors.FileCloseError, "iostream.file.close", err)
	}
	return nil
}

var (
	_ Stream = (*File)(nil)
)
