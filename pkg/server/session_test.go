package server

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSessionHooksEmitRunawayDiagnostic(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	m := NewMetrics(prometheus.NewRegistry())

	hooks := sessionHooks(logger, m)
	if hooks.OnRunaway == nil {
		t.Fatal("no runaway hook installed")
	}
	hooks.OnRunaway(7, "spin", true)

	out := buf.String()
	if !strings.Contains(out, "R001") {
		t.Errorf("diagnostic missing error code, got %q", out)
	}
	if !strings.Contains(out, "spin") {
		t.Errorf("diagnostic missing watcher label, got %q", out)
	}

	if got := testutil.ToFloat64(m.runawayTotal); got != 1 {
		t.Errorf("runaway counter = %v, want 1", got)
	}
}

func TestSessionHooksKeepFlushInstruments(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	m := NewMetrics(prometheus.NewRegistry())

	hooks := sessionHooks(logger, m)
	if hooks.OnFlushEnd == nil {
		t.Fatal("flush hook lost while layering the runaway diagnostic")
	}
	hooks.OnFlushEnd(3)

	if got := testutil.ToFloat64(m.flushesTotal); got != 1 {
		t.Errorf("flush counter = %v, want 1", got)
	}
}
