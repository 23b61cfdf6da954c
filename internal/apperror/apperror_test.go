package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("user", "42"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("code", "missing required fields: code"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("email is already registered"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized("invalid email or password"),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("user", "42"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "Unauthorized does NOT match ErrConflict",
			err:       Unauthorized("nope"),
			target:    ErrConflict,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.wantMatch {
				t.Errorf("errors.Is() = %v, want %v", got, tt.wantMatch)
			}
		})
	}
}

func TestErrorsIs_ThroughWrapping(t *testing.T) {
	// Services wrap repository errors with fmt.Errorf("...: %w", err) —
	// the sentinel must stay reachable through the chain.
	inner := Conflict("email is already registered")
	wrapped := fmt.Errorf("service/auth: creating user: %w", inner)

	if !errors.Is(wrapped, ErrConflict) {
		t.Error("errors.Is() should find ErrConflict through fmt.Errorf wrapping")
	}

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("errors.As() should extract *AppError through fmt.Errorf wrapping")
	}
	if appErr.Message != "email is already registered" {
		t.Errorf("Message = %q, want %q", appErr.Message, "email is already registered")
	}
}

func TestAppError_Message(t *testing.T) {
	err := NotFound("verification token", "deadbeef")
	want := "verification token not found: deadbeef"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestValidationFailed_CarriesField(t *testing.T) {
	err := ValidationFailed("deadline", "deadline must be an RFC 3339 timestamp or a YYYY-MM-DD date")
	if err.Field != "deadline" {
		t.Errorf("Field = %q, want %q", err.Field, "deadline")
	}
}
