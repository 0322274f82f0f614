package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      *NotFoundError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with ID",
			err:      &NotFoundError{Resource: "table", ID: "apples"},
			wantMsg:  "table not found: apples",
			wantBase: ErrNotFound,
		},
		{
			name:     "without ID",
			err:      &NotFoundError{Resource: "column"},
			wantMsg:  "column not found",
			wantBase: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}

	t.Run("with underlying error", func(t *testing.T) {
		underlyingErr := fmt.Errorf("disk error")
		err := &NotFoundError{Resource: "page", ID: "7", Err: underlyingErr}
		if got := err.Unwrap(); got != underlyingErr {
			t.Errorf("Unwrap() = %v, want %v", got, underlyingErr)
		}
	})
}

func TestTruncatedError(t *testing.T) {
	err := NewTruncated("varint", 10, 3, -2)
	if err.Have != 0 {
		t.Errorf("Have = %d, want 0 for negative input", err.Have)
	}
	want := "truncated varint at offset 10: need 3 bytes, have 0"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrTruncated) {
		t.Error("TruncatedError should unwrap to ErrTruncated")
	}
}

func TestPageKindError(t *testing.T) {
	tests := []struct {
		name    string
		err     *PageKindError
		wantMsg string
	}{
		{
			name:    "with reason",
			err:     NewPageKind(3, 0x0a, "index pages are not scanned"),
			wantMsg: "page 3: unsupported page kind 0x0a: index pages are not scanned",
		},
		{
			name:    "unknown kind",
			err:     NewPageKind(2, 0xff, ""),
			wantMsg: "page 2: unsupported page kind 0xff",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, ErrUnsupportedPageKind) {
				t.Error("PageKindError should unwrap to ErrUnsupportedPageKind")
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidation("page size", "must be a power of two")
	if got := err.Error(); got != "validation failed for page size: must be a power of two" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ValidationError should unwrap to ErrInvalidInput")
	}

	bare := &ValidationError{Message: "invalid command"}
	if got := bare.Error(); got != "validation failed: invalid command" {
		t.Errorf("Error() = %q", got)
	}
}

func TestParseError(t *testing.T) {
	err := NewParse("schema sql", "CREATE TABLE t", "missing '('")
	want := `failed to parse schema sql "CREATE TABLE t": missing '('`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ParseError should unwrap to ErrInvalidInput")
	}

	noInput := NewParse("record", "", "header longer than payload")
	if got := noInput.Error(); got != "failed to parse record: header longer than payload" {
		t.Errorf("Error() = %q", got)
	}
}

func TestUnsupportedError(t *testing.T) {
	err := NewUnsupported("operator", "<>")
	if got := err.Error(); got != "unsupported operator: <>" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, ErrUnsupported) {
		t.Error("UnsupportedError should unwrap to ErrUnsupported")
	}

	bare := &UnsupportedError{Feature: "overflow payload"}
	if got := bare.Error(); got != "unsupported overflow payload" {
		t.Errorf("Error() = %q", got)
	}
}

func TestCorruptError(t *testing.T) {
	err := NewCorrupt(4, "page visited twice (from page %d)", 2)
	if got := err.Error(); got != "database corrupt at page 4: page visited twice (from page 2)" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, ErrCorrupt) {
		t.Error("CorruptError should unwrap to ErrCorrupt")
	}
}

func TestIOError(t *testing.T) {
	underlying := fmt.Errorf("permission denied")
	err := NewIO("open", "/tmp/x.db", underlying)
	if got := err.Error(); got != "failed to open /tmp/x.db: permission denied" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, underlying) {
		t.Error("IOError should unwrap to the underlying error")
	}

	noPath := NewIO("read", "", underlying)
	if got := noPath.Error(); got != "failed to read: permission denied" {
		t.Errorf("Error() = %q", got)
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "ctx") != nil {
		t.Error("Wrap(nil) should be nil")
	}
	if Wrapf(nil, "ctx %d", 1) != nil {
		t.Error("Wrapf(nil) should be nil")
	}

	base := NewTruncated("cell pointer", 8, 2, 1)
	wrapped := Wrapf(Wrap(base, "leaf page"), "page %d", 5)
	if got := wrapped.Error(); got != "page 5: leaf page: truncated cell pointer at offset 8: need 2 bytes, have 1" {
		t.Errorf("Error() = %q", got)
	}
	if !Is(wrapped, ErrTruncated) {
		t.Error("wrapped error should still match ErrTruncated")
	}

	var te *TruncatedError
	if !As(wrapped, &te) {
		t.Fatal("As should find the TruncatedError")
	}
	if te.What != "cell pointer" {
		t.Errorf("What = %q, want %q", te.What, "cell pointer")
	}
}
