package alerr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// -----------------------------------------------------------------------------
// Constructor Tests
// -----------------------------------------------------------------------------

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    Code
		message string
	}{
		{"schema error", ErrSchemaInvalid, "schema is invalid"},
		{"type error", ErrUnknownType, "no such datatype"},
		{"write error", ErrWriteFailed, "failed to write"},
		{"config error", ErrConfigInvalid, "indentation must be >= 0"},
		{"js error", ErrJSSyntax, "unexpected token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message)
			if err.GetCode() != tt.code {
				t.Errorf("code = %v, want %v", err.GetCode(), tt.code)
			}
			if err.GetMessage() != tt.message {
				t.Errorf("message = %v, want %v", err.GetMessage(), tt.message)
			}
			if err.GetCause() != nil {
				t.Error("expected nil cause for New()")
			}
			if err.GetStack() == "" {
				t.Error("expected stack trace to be captured")
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(ErrTableDuplicate, "table %q declared %d times", "users", 2)
	if err.GetMessage() != `table "users" declared 2 times` {
		t.Errorf("message = %q", err.GetMessage())
	}
}

func TestWrap(t *testing.T) {
	t.Run("wrap existing error", func(t *testing.T) {
		cause := errors.New("disk full")
		err := Wrap(ErrWriteFailed, cause, "failed to write model file")

		if err.GetCause() != cause {
			t.Error("cause should be the wrapped error")
		}
		if !errors.Is(err, cause) {
			t.Error("errors.Is should find the cause")
		}
	})

	t.Run("wrap nil behaves like New", func(t *testing.T) {
		err := Wrap(ErrWriteFailed, nil, "nothing underneath")
		if err.GetCause() != nil {
			t.Error("expected nil cause")
		}
	})

	t.Run("wrapf formats", func(t *testing.T) {
		err := Wrapf(ErrConfigRead, errors.New("x"), "read %s", "seqgen.yaml")
		if err.GetMessage() != "read seqgen.yaml" {
			t.Errorf("message = %q", err.GetMessage())
		}
	})
}

// -----------------------------------------------------------------------------
// Formatting Tests
// -----------------------------------------------------------------------------

func TestErrorString(t *testing.T) {
	err := New(ErrWriteFailed, "failed to write model file").
		WithTable("users").
		WithFile("models/User.js", 0)

	want := "[E3001] failed to write model file\n  file: models/User.js\n  table: users"
	if got := err.Error(); got != want {
		t.Errorf("Error() =\n%s\nwant\n%s", got, want)
	}
}

func TestErrorStringWithCause(t *testing.T) {
	err := Wrap(ErrSQLExecution, errors.New("no such table"), "failed to query").WithTable("users")
	got := err.Error()
	if !strings.HasSuffix(got, "\n  cause: no such table") {
		t.Errorf("Error() = %q, want cause suffix", got)
	}
}

func TestWithHelp(t *testing.T) {
	err := New(ErrInvalidReference, "unknown table").WithHelp("one").WithHelp("two")
	helps := err.Helps()
	if len(helps) != 2 || helps[0] != "one" || helps[1] != "two" {
		t.Errorf("Helps() = %v", helps)
	}
}

func TestWithFileLine(t *testing.T) {
	err := New(ErrJSSyntax, "bad").WithFile("User.js", 12)
	ctx := err.GetContext()
	if ctx["file"] != "User.js" || ctx["line"] != 12 {
		t.Errorf("context = %v", ctx)
	}
}

// -----------------------------------------------------------------------------
// Matching Tests
// -----------------------------------------------------------------------------

func TestIs(t *testing.T) {
	err := New(ErrWriteFailed, "x")
	wrapped := fmt.Errorf("outer: %w", err)

	if !Is(wrapped, ErrWriteFailed) {
		t.Error("Is should see through fmt wrapping")
	}
	if Is(wrapped, ErrSchemaInvalid) {
		t.Error("Is matched the wrong code")
	}
	if Is(nil, ErrWriteFailed) {
		t.Error("Is(nil) should be false")
	}
	if !errors.Is(wrapped, New(ErrWriteFailed, "other message")) {
		t.Error("errors.Is should match by code")
	}
}

func TestGetErrorCode(t *testing.T) {
	if got := GetErrorCode(errors.New("plain")); got != "" {
		t.Errorf("GetErrorCode(plain) = %q", got)
	}
	if got := GetErrorCode(New(ErrDrift, "x")); got != ErrDrift {
		t.Errorf("GetErrorCode = %q", got)
	}
}

func TestWrapSQL(t *testing.T) {
	err := WrapSQL(errors.New("boom"), "introspect columns", "users")
	if err.GetCode() != ErrSQLExecution {
		t.Errorf("code = %v", err.GetCode())
	}
	if err.GetMessage() != "failed to introspect columns" {
		t.Errorf("message = %q", err.GetMessage())
	}
	if err.GetContext()["table"] != "users" {
		t.Errorf("table context = %v", err.GetContext()["table"])
	}
}

func TestUnknownTableError(t *testing.T) {
	err := NewUnknownTableError("user", []string{"users", "posts"})
	if err.GetCode() != ErrInvalidReference {
		t.Errorf("code = %v", err.GetCode())
	}
	if h := err.Helps(); len(h) != 1 || h[0] != "did you mean 'users'?" {
		t.Errorf("helps = %v", h)
	}
}
