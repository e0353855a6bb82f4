package errors

import (
	"strings"
	"testing"
)

func TestRecover_ConvertsPanicToError(t *testing.T) {
	slotGetter := func() (err error) {
		defer Recover(&err, "StandardScaler.StateSchema.mean_")
		var mean []float64
		_ = mean[3] // out-of-range access, as a buggy slot getter would do
		return nil
	}

	err := slotGetter()
	if err == nil {
		t.Fatal("Expected error from recovered panic, got nil")
	}

	var panicErr *PanicError
	if !As(err, &panicErr) {
		t.Fatalf("Expected PanicError, got %T", err)
	}
	if panicErr.Operation != "StandardScaler.StateSchema.mean_" {
		t.Errorf("Operation not preserved: %s", panicErr.Operation)
	}
	if panicErr.StackTrace == "" {
		t.Error("Expected non-empty stack trace")
	}
}

func TestRecover_NoPanic(t *testing.T) {
	fn := func() (err error) {
		defer Recover(&err, "noop")
		return nil
	}
	if err := fn(); err != nil {
		t.Fatalf("Expected nil error, got %v", err)
	}
}

func TestSafeExecute(t *testing.T) {
	err := SafeExecute("slot assignment", func() error {
		panic("setter exploded")
	})
	if err == nil {
		t.Fatal("Expected error from panicking function")
	}
	if !strings.Contains(err.Error(), "slot assignment") {
		t.Errorf("Operation missing from error: %s", err.Error())
	}

	if err := SafeExecute("ok", func() error { return nil }); err != nil {
		t.Fatalf("Expected nil error, got %v", err)
	}
}
