package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrCodeNotRunning, "osu client is not running")
	want := "OSU_NOT_RUNNING: osu client is not running"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	cause := fmt.Errorf("no such process")
	wrapped := Wrap(cause, ErrCodeCommandFailed, "command failed: rosu-pp")
	if wrapped.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}
	if !stderrors.Is(wrapped, cause) {
		t.Error("errors.Is should see through the wrapper")
	}
}

func TestIs(t *testing.T) {
	err := NotReady("stable", "memory layout not settled")

	if !Is(err, ErrCodeNotReady) {
		t.Error("expected Is to match the code")
	}
	if Is(err, ErrCodeNotRunning) {
		t.Error("Is matched the wrong code")
	}
	if Is(nil, ErrCodeNotReady) {
		t.Error("Is on nil should be false")
	}

	// Codes are found through wrapping layers.
	outer := fmt.Errorf("probe: %w", err)
	if !Is(outer, ErrCodeNotReady) {
		t.Error("expected Is to unwrap")
	}
	if Is(fmt.Errorf("plain"), ErrCodeNotReady) {
		t.Error("Is matched an untyped error")
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"typed", TornRead("generation changed"), ErrCodeTornRead},
		{"wrapped", fmt.Errorf("poll: %w", NotRunning("osu")), ErrCodeNotRunning},
		{"untyped", fmt.Errorf("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWithDetail(t *testing.T) {
	err := DaemonAlreadyRunning(1234)

	pid, ok := err.Details["pid"]
	if !ok {
		t.Fatal("expected pid detail")
	}
	if pid != 1234 {
		t.Errorf("pid detail = %v, want 1234", pid)
	}

	err.WithDetail("socket", "/run/nowplay/nowplayd.sock")
	if err.Details["socket"] != "/run/nowplay/nowplayd.sock" {
		t.Error("WithDetail should add to existing details")
	}
}

func TestTransportRejected(t *testing.T) {
	err := TransportRejected(429, `{"message":"rate limited"}`)

	if GetCode(err) != ErrCodeTransportRejected {
		t.Errorf("unexpected code %q", GetCode(err))
	}
	if err.Details["status"] != 429 {
		t.Errorf("status detail = %v, want 429", err.Details["status"])
	}
}
