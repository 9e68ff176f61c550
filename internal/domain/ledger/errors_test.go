package ledger

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := New(CodeNotFound, "no startup for founder")
	if !errors.Is(err, ErrNotFound) {
		t.Fatal("same code did not match")
	}
	if errors.Is(err, ErrAlreadyVC) {
		t.Fatal("different code matched")
	}

	wrapped := fmt.Errorf("handler: %w", err)
	if !errors.Is(wrapped, ErrNotFound) || CodeOf(wrapped) != CodeNotFound {
		t.Fatalf("wrapped error lost its code: %v", wrapped)
	}
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(CodeTransferFailed, "token transfer failed", cause)

	if !errors.Is(err, cause) {
		t.Fatal("cause not reachable")
	}
	if !errors.Is(err, ErrTransferFailed) {
		t.Fatal("code not matched")
	}
	if got, want := err.Error(), "token transfer failed: connection reset"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestCodeOf_ForeignError(t *testing.T) {
	if got := CodeOf(errors.New("boom")); got != "" {
		t.Fatalf("CodeOf = %q", got)
	}
	if got := CodeOf(nil); got != "" {
		t.Fatalf("CodeOf(nil) = %q", got)
	}
}
