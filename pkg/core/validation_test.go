package core

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestValidatePoolSize(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"one worker", 1, false},
		{"many workers", 64, false},
		{"zero workers", 0, true},
		{"negative workers", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePoolSize(tt.size)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePoolSize() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && ErrorCode(err) != "INVALID_POOL_SIZE" {
				t.Errorf("ValidatePoolSize() code = %q", ErrorCode(err))
			}
		})
	}
}

func TestValidateTimeout(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		wantErr bool
	}{
		{"valid timeout", 5 * time.Second, false},
		{"zero timeout", 0, true},
		{"negative timeout", -1 * time.Second, true},
		{"too large timeout", 10 * time.Minute, true},
		{"max valid timeout", 5 * time.Minute, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTimeout(tt.timeout)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTimeout() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestErrorCode(t *testing.T) {
	cause := errors.New("root cause")
	coded := NewError("POOL_CLOSED", "cannot submit", cause)
	wrapped := fmt.Errorf("serve: %w", coded)

	if got := ErrorCode(wrapped); got != "POOL_CLOSED" {
		t.Errorf("ErrorCode() = %q, want POOL_CLOSED", got)
	}
	if !errors.Is(wrapped, cause) {
		t.Error("errors.Is should reach the cause through *Error")
	}
	if got := ErrorCode(cause); got != "" {
		t.Errorf("ErrorCode() of plain error = %q, want empty", got)
	}
	if got := (&Error{Err: cause}).Error(); got != "root cause" {
		t.Errorf("Error() without message = %q", got)
	}
}

func TestFailFast(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("FailFast() should panic")
		}
	}()

	FailFast(&Error{Code: "TEST", Message: "test error"})
}

func TestFailFastNil(t *testing.T) {
	FailFast(nil)
	FailFastIf(false, "never")
}

func TestFailFastIf(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("FailFastIf(true) should panic")
		}
		err, ok := r.(error)
		if !ok || err.Error() != "fail-fast: broken" {
			t.Errorf("unexpected panic value %v", r)
		}
	}()

	FailFastIf(true, "broken")
}
