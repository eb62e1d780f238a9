package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Address != ":8080" {
		t.Errorf("Address = %q, want :8080", cfg.Address)
	}
	if cfg.ReadTimeout != 60*time.Second {
		t.Errorf("ReadTimeout = %v, want 60s", cfg.ReadTimeout)
	}
	if cfg.MaxMessageSize != 64*1024 {
		t.Errorf("MaxMessageSize = %d, want 65536", cfg.MaxMessageSize)
	}
	if cfg.MaxSessions != 0 {
		t.Errorf("MaxSessions = %d, want 0 (unlimited)", cfg.MaxSessions)
	}
	if cfg.CheckOrigin == nil {
		t.Error("CheckOrigin not set")
	}
}

func TestWithDefaultsFillsUnsetFields(t *testing.T) {
	cfg := (&Config{Address: ":3000"}).withDefaults()

	if cfg.Address != ":3000" {
		t.Errorf("Address = %q, want :3000", cfg.Address)
	}
	if cfg.ReadBufferSize != 4096 {
		t.Errorf("ReadBufferSize = %d, want 4096", cfg.ReadBufferSize)
	}
	if cfg.HeartbeatInterval != 30*time.Second {
		t.Errorf("HeartbeatInterval = %v, want 30s", cfg.HeartbeatInterval)
	}

	var nilCfg *Config
	if got := nilCfg.withDefaults(); got.Address != ":8080" {
		t.Errorf("nil config Address = %q, want :8080", got.Address)
	}
}

func TestConfigChaining(t *testing.T) {
	cfg := DefaultConfig().WithAddress("localhost:9000").WithMaxSessions(50)

	if cfg.Address != "localhost:9000" {
		t.Errorf("Address = %q", cfg.Address)
	}
	if cfg.MaxSessions != 50 {
		t.Errorf("MaxSessions = %d", cfg.MaxSessions)
	}

	clone := cfg.Clone()
	clone.MaxSessions = 1
	if cfg.MaxSessions != 50 {
		t.Error("Clone shares state with original")
	}
}

func TestSameOriginCheck(t *testing.T) {
	tests := []struct {
		name   string
		origin string
		host   string
		want   bool
	}{
		{"no origin header", "", "example.com", true},
		{"matching origin", "http://example.com", "example.com", true},
		{"matching origin with port", "http://example.com:8080", "example.com:8080", true},
		{"cross origin", "http://evil.com", "example.com", false},
		{"port mismatch", "http://example.com:9999", "example.com:8080", false},
		{"unparseable origin", "://bad", "example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/live", nil)
			r.Host = tt.host
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := SameOriginCheck(r); got != tt.want {
				t.Errorf("SameOriginCheck = %v, want %v", got, tt.want)
			}
		})
	}
}
