package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil error returns empty", nil, ""},
		{"invalid table", fmt.Errorf("%w: Foo", ErrInvalidTable), "TBL001"},
		{"not found", fmt.Errorf("%w: attendance a1", ErrNotFound), "NF001"},
		{"lock timeout", ErrLockTimeout, "LCK001"},
		{"invalid transition", fmt.Errorf("%w: already approved", ErrInvalidTransition), "WF001"},
		{"invalid date", fmt.Errorf("%w: invalid date \"x\"", ErrInvalidParams), "VAL002"},
		{"generic validation", fmt.Errorf("%w: storeId is required", ErrInvalidParams), "VAL001"},
		{"unknown action", errors.New("unknown action: frobnicate"), "VAL003"},
		{"cancelled", context.Canceled, "REQ001"},
		{"deadline", fmt.Errorf("wrapped: %w", context.DeadlineExceeded), "REQ002"},
		{"rate limit", errors.New("rate limit exceeded"), "RATE001"},
		{"unknown", errors.New("disk on fire"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError(%v).Code = %q, want %q", tt.err, got.Code, tt.wantCode)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(ErrLockTimeout)
	want := "The store is busy with another request (Code: LCK001). Please try again in a few moments"
	if got != want {
		t.Errorf("FormatUserError = %q, want %q", got, want)
	}
	if FormatUserError(nil) != "" {
		t.Error("FormatUserError(nil) should be empty")
	}
}

func TestIsUserFacing(t *testing.T) {
	if IsUserFacing(nil) {
		t.Error("nil is not user facing")
	}
	if !IsUserFacing(ErrNotFound) {
		t.Error("ErrNotFound should be user facing")
	}
	if IsUserFacing(errors.New("boom")) {
		t.Error("unknown errors are not user facing")
	}
}
