package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.DefaultLLM != "anthropic" {
		t.Errorf("DefaultLLM = %q, want anthropic", cfg.DefaultLLM)
	}
	if cfg.LLMMaxRetries != 3 {
		t.Errorf("LLMMaxRetries = %d, want 3", cfg.LLMMaxRetries)
	}
	if cfg.MaxIterations != 10 {
		t.Errorf("MaxIterations = %d, want 10", cfg.MaxIterations)
	}
	if cfg.NATSCatalogStream != "CATALOG" {
		t.Errorf("NATSCatalogStream = %q, want CATALOG", cfg.NATSCatalogStream)
	}
	if cfg.RateLimitWindow != time.Minute {
		t.Errorf("RateLimitWindow = %v, want 1m", cfg.RateLimitWindow)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("LLM_MAX_RETRIES", "5")
	t.Setenv("CHAT_MAX_ITERATIONS", "4")
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("SERVER_READ_TIMEOUT", "5s")

	cfg := Load()

	if cfg.ServerPort != "9999" {
		t.Errorf("ServerPort = %q, want 9999", cfg.ServerPort)
	}
	if cfg.LLMMaxRetries != 5 {
		t.Errorf("LLMMaxRetries = %d, want 5", cfg.LLMMaxRetries)
	}
	if cfg.MaxIterations != 4 {
		t.Errorf("MaxIterations = %d, want 4", cfg.MaxIterations)
	}
	if !cfg.TracingEnabled {
		t.Error("TracingEnabled = false, want true")
	}
	if cfg.ServerReadTimeout != 5*time.Second {
		t.Errorf("ServerReadTimeout = %v, want 5s", cfg.ServerReadTimeout)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("LLM_MAX_RETRIES", "many")
	t.Setenv("RATE_LIMIT_WINDOW", "soon")
	t.Setenv("TRACING_ENABLED", "definitely")

	cfg := Load()

	if cfg.LLMMaxRetries != 3 {
		t.Errorf("LLMMaxRetries = %d, want the default 3", cfg.LLMMaxRetries)
	}
	if cfg.RateLimitWindow != time.Minute {
		t.Errorf("RateLimitWindow = %v, want the default 1m", cfg.RateLimitWindow)
	}
	if cfg.TracingEnabled {
		t.Error("TracingEnabled = true, want the default false")
	}
}
