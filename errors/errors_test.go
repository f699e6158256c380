package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestNewAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := New(InvalidArgument, "test.op", cause)
	if err.Unwrap() != cause {
		t.Fatalf("Unwrap() = %v, want cause", err.Unwrap())
	}
	if IsRetryable(err) {
		t.Fatal("New must not be retryable")
	}
}

func TestTransientIsRetryable(t *testing.T) {
	err := Transient(InterruptedIo, "test.op", nil)
	if !IsRetryable(err) {
		t.Fatal("Transient must be retryable")
	}
}

func TestWrapNilReturnsNil(t *testing.T) {
	if Wrap(InvalidArgument, "test.op", nil) != nil {
		t.Fatal("Wrap(nil) must return nil")
	}
}

func TestWrapPreservesExistingKindAndRetryable(t *testing.T) {
	inner := Transient(InterruptedIo, "inner.op", nil)
	wrapped := Wrap(InvalidIo, "outer.op", inner)
	if !IsKind(wrapped, InterruptedIo) {
		t.Fatalf("expected preserved InterruptedIo, got %v", KindOf(wrapped))
	}
	if !IsRetryable(wrapped) {
		t.Fatal("Wrap must preserve Retryable from the existing *Error")
	}
}

func TestWrapPlainErrorUsesGivenKind(t *testing.T) {
	wrapped := Wrap(FileOpenError, "outer.op", errors.New("disk full"))
	if !IsKind(wrapped, FileOpenError) {
		t.Fatalf("expected FileOpenError, got %v", KindOf(wrapped))
	}
}

func TestIsKindFalseForNonSailError(t *testing.T) {
	if IsKind(errors.New("plain"), InvalidArgument) {
		t.Fatal("IsKind must be false for a non-SAIL error")
	}
	if KindOf(errors.New("plain")) != "" {
		t.Fatal("KindOf must be empty for a non-SAIL error")
	}
}

func TestCodesAreStableAndNonZero(t *testing.T) {
	for k := range codes {
		if k.Code() == 0 {
			t.Errorf("Kind %q has code 0", k)
		}
	}
}

func TestCodeUnknownKindIsZero(t *testing.T) {
	if Kind("NotARealKind").Code() != 0 {
		t.Fatal("unknown Kind must report code 0")
	}
}

func TestErrorMessageIncludesOpAndKind(t *testing.T) {
	err := New(PluginNotFound, "registry.byextension", nil)
	msg := err.Error()
	if msg == "" {
		t.Fatal("Error() must not be empty")
	}
	if !strings.Contains(msg, "registry.byextension") || !strings.Contains(msg, string(PluginNotFound)) {
		t.Fatalf("Error() = %q, want it to include the op and the kind", msg)
	}
}
