// Package errors defines SAIL's closed error taxonomy (spec §7): every
// failure a public operation can return is one of a fixed set of Kinds,
// each with a stable name and numeric code.
package errors

import (
	"errors"
	"fmt"
)

// Kind is a member of SAIL's closed error taxonomy.
type Kind string

const (
	// Argument / validation.
	InvalidArgument          Kind = "InvalidArgument"
	InvalidIo                Kind = "InvalidIo"
	UnsupportedPixelFormat   Kind = "UnsupportedPixelFormat"
	UnsupportedCompression   Kind = "UnsupportedCompression"
	IncorrectImageDimensions Kind = "IncorrectImageDimensions"

	// Resource.
	MemoryAllocationFailed   Kind = "MemoryAllocationFailed"
	FileOpenError            Kind = "FileOpenError"
	FileCloseError           Kind = "FileCloseError"
	FileParseError           Kind = "FileParseError"
	PluginNotFound           Kind = "PluginNotFound"
	PluginLoadError          Kind = "PluginLoadError"
	PluginSymbolResolveError Kind = "PluginSymbolResolveError"
	UnsupportedPluginLayout  Kind = "UnsupportedPluginLayout"

	// State machine.
	ConflictingOperation Kind = "ConflictingOperation"
	StateNull            Kind = "StateNull"
	NotYetImplemented    Kind = "NotYetImplemented"

	// Stream.
	EndOfFile     Kind = "EndOfFile"
	NoMoreFrames  Kind = "NoMoreFrames"
	InterruptedIo Kind = "InterruptedIo"
	ShortRead     Kind = "ShortRead"
	ShortWrite    Kind = "ShortWrite"

	// Resource / stream (range and lookup failures).
	OutOfRange Kind = "OutOfRange"
	NotFound   Kind = "NotFound"

	// Decode/encode.
	CorruptedImage     Kind = "CorruptedImage"
	TruncatedImage     Kind = "TruncatedImage"
	UnsupportedFeature Kind = "UnsupportedFeature"
)

// codes assigns each Kind a stable numeric code. Codes are append-only:
// never renumber an existing entry across a major version.
var codes = map[Kind]int{
	InvalidArgument:          1,
	InvalidIo:                2,
	UnsupportedPixelFormat:   3,
	UnsupportedCompression:   4,
	IncorrectImageDimensions: 5,

	MemoryAllocationFailed:   10,
	FileOpenError:            11,
	FileCloseError:           12,
	FileParseError:           13,
	PluginNotFound:           14,
	PluginLoadError:          15,
	PluginSymbolResolveError: 16,
	UnsupportedPluginLayout:  17,

	ConflictingOperation: 20,
	StateNull:            21,
	NotYetImplemented:    22,

	EndOfFile:     30,
	NoMoreFrames:  31,
	InterruptedIo: 32,
	ShortRead:     33,
	ShortWrite:    34,

	OutOfRange: 40,
	NotFound:   41,

	CorruptedImage:     50,
	TruncatedImage:     51,
	UnsupportedFeature: 52,
}

// Code returns k's stable numeric code, or 0 if k is not a recognized Kind.
func (k Kind) Code() int { return codes[k] }

// String returns k's stable name, used in log output.
func (k Kind) String() string { return string(k) }

// Error is the structured error type used throughout SAIL.
type Error struct {
	Kind      Kind
	Op        string // operation name, e.g. "session.start", "metadata.parse"
	Err       error
	Retryable bool
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sail: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("sail: %s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a non-retryable Error of the given kind.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Transient creates a retryable Error, used for InterruptedIo and similar
// conditions a caller may reasonably retry.
func Transient(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err, Retryable: true}
}

// Wrap wraps err with op context, returning nil if err is nil. If err is
// already a SAIL *Error, its Kind is preserved; otherwise kind is used.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Kind: existing.Kind, Op: op, Err: err, Retryable: existing.Retryable}
	}
	return New(kind, op, err)
}

// IsRetryable reports whether err represents a transient SAIL failure.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// IsKind reports whether err is a SAIL *Error of the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind of err, or "" if err is not a SAIL *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Sentinel errors for conditions that don't need full *Error wrapping at
// the call site but still participate in errors.Is chains.
var (
	ErrEmptyInput     = errors.New("empty input")
	ErrAlreadyActive  = errors.New("session already active")
	ErrPluginRetained = errors.New("plugin retained a caller-owned buffer")
)
