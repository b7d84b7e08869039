package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestNewRemapError(t *testing.T) {
	cause := errors.New("underlying error")

	err := NewRemapError(StaleContent, "file changed since planning", cause)

	if err.Code != StaleContent {
		t.Errorf("Code = %v, want %v", err.Code, StaleContent)
	}
	if err.Message != "file changed since planning" {
		t.Errorf("Message = %q, want %q", err.Message, "file changed since planning")
	}
	if len(err.SuggestedFixes) != 1 {
		t.Errorf("len(SuggestedFixes) = %d, want 1", len(err.SuggestedFixes))
	}
}

func TestRemapError_Error(t *testing.T) {
	tests := []struct {
		name      string
		code      ErrorCode
		message   string
		cause     error
		wantParts []string
	}{
		{
			name:      "with cause",
			code:      IOFailure,
			message:   "cannot read manifest",
			cause:     errors.New("permission denied"),
			wantParts: []string{"IO_FAILURE", "cannot read manifest", "permission denied"},
		},
		{
			name:      "without cause",
			code:      TargetMissing,
			message:   "src/old.ts does not exist",
			cause:     nil,
			wantParts: []string{"TARGET_MISSING", "src/old.ts does not exist"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRemapError(tt.code, tt.message, tt.cause)
			got := err.Error()

			for _, part := range tt.wantParts {
				if !strings.Contains(got, part) {
					t.Errorf("Error() = %q, want to contain %q", got, part)
				}
			}
		})
	}
}

func TestRemapError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewRemapError(InternalError, "something went wrong", cause)

	unwrapped := err.Unwrap()
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	// Test nil cause
	errNoCause := NewRemapError(VerifyTimeout, "verification timed out", nil)
	if errNoCause.Unwrap() != nil {
		t.Errorf("Unwrap() on error without cause should return nil")
	}
}

func TestRemapError_WithDetails(t *testing.T) {
	err := NewRemapError(StaleContent, "3 files changed", nil)
	details := map[string]int{"conflicts": 3, "edits": 12}

	result := err.WithDetails(details)

	// Check that it returns the same error (for chaining)
	if result != err {
		t.Error("WithDetails should return the same error for chaining")
	}

	// Check details are set
	if err.Details == nil {
		t.Error("Details should be set")
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(NewRemapError(PlanNotFound, "no such plan", nil)); got != PlanNotFound {
		t.Errorf("CodeOf(RemapError) = %v, want %v", got, PlanNotFound)
	}
	if got := CodeOf(errors.New("plain")); got != InternalError {
		t.Errorf("CodeOf(plain error) = %v, want %v", got, InternalError)
	}
}

func TestGetSuggestedFixes(t *testing.T) {
	tests := []struct {
		code    ErrorCode
		wantNil bool
		wantLen int
	}{
		{StaleContent, false, 1},
		{PlanNotFound, false, 1},
		{IndexMissing, false, 1},
		{ManifestMalformed, false, 1},
		{TargetMissing, true, 0}, // No predefined fixes
		{NameCollision, true, 0}, // No predefined fixes
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			fixes := GetSuggestedFixes(tt.code)

			if tt.wantNil && fixes != nil {
				t.Errorf("GetSuggestedFixes(%v) = %v, want nil", tt.code, fixes)
			}
			if !tt.wantNil && len(fixes) != tt.wantLen {
				t.Errorf("GetSuggestedFixes(%v) len = %d, want %d", tt.code, len(fixes), tt.wantLen)
			}
		})
	}
}

func TestErrorCodes(t *testing.T) {
	// Ensure all error codes are unique
	codes := []ErrorCode{
		TargetMissing,
		NameCollision,
		ScopeInvalid,
		StaleContent,
		ParseFailure,
		AliasUnresolved,
		ManifestMalformed,
		PlanNotFound,
		PlanIncomplete,
		VerifyTimeout,
		IndexMissing,
		IOFailure,
		InternalError,
	}

	seen := make(map[ErrorCode]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %v", code)
		}
		seen[code] = true

		// Ensure each code is a non-empty string
		if string(code) == "" {
			t.Error("Error code should not be empty")
		}
	}
}

func TestErrorActionsMap(t *testing.T) {
	// Verify each entry has valid fix actions
	for code, fixes := range ErrorActions {
		if len(fixes) == 0 {
			t.Errorf("ErrorActions[%v] has no fix actions", code)
		}
		for i, fix := range fixes {
			if fix.Type == "" {
				t.Errorf("ErrorActions[%v][%d].Type is empty", code, i)
			}
		}
	}
}
