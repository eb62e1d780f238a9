package main

import (
	"errors"
	"testing"
	"time"

	rferrors "github.com/reflow-dev/reflow/internal/errors"
)

func TestServeRejectsBadAddress(t *testing.T) {
	cmd := serveCmd()
	cmd.SetArgs([]string{"--addr", "host:port:extra"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected an error for an unparseable address")
	}

	var rerr *rferrors.ReflowError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected a coded error, got %T: %v", err, err)
	}
	if rerr.Code != "R121" {
		t.Errorf("code = %q, want R121", rerr.Code)
	}
	if rerr.Detail == "" {
		t.Error("expected the bad address in the error detail")
	}
}

func TestNewLoggerRejectsBadLevel(t *testing.T) {
	_, err := newLogger(false, "loud")
	if err == nil {
		t.Fatal("expected an error for an unknown level")
	}

	var rerr *rferrors.ReflowError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected a coded error, got %T: %v", err, err)
	}
	if rerr.Code != "R120" {
		t.Errorf("code = %q, want R120", rerr.Code)
	}
	if rerr.Suggestion == "" {
		t.Error("expected a suggestion naming the valid levels")
	}
}

func TestNewLoggerAcceptsKnownLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		if _, err := newLogger(true, level); err != nil {
			t.Errorf("level %q rejected: %v", level, err)
		}
	}
}

func TestBenchRejectsBadFlags(t *testing.T) {
	err := runBench(0, time.Second, 5, 10)
	if err == nil {
		t.Fatal("expected an error for zero clients")
	}

	var rerr *rferrors.ReflowError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected a coded error, got %T: %v", err, err)
	}
	if rerr.Category != rferrors.CategoryCLI {
		t.Errorf("category = %q, want %q", rerr.Category, rferrors.CategoryCLI)
	}
}
