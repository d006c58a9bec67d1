package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "CHAT_BACKEND_URL", "CHAT_TIMEOUT_SECONDS", "CHAT_DEMO_MODE",
		"CORS_ALLOWED_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
		"ARK_API_KEY", "ARK_ACCESS_KEY", "ARK_SECRET_KEY", "Model",
		"ARK_TEMPERATURE", "ARK_TOP_P", "ARK_MAX_TOKENS", "AI_HISTORY_LIMIT",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected addr: %s", cfg.Server.Addr)
	}
	if cfg.Chat.Timeout != 30*time.Second {
		t.Fatalf("unexpected chat timeout: %s", cfg.Chat.Timeout)
	}
	if cfg.Chat.Remote() {
		t.Fatal("expected in-process dispatch without CHAT_BACKEND_URL")
	}
	if cfg.AI.Enabled() {
		t.Fatal("AI should be disabled without credentials")
	}
	if len(cfg.Server.AllowedOrigins) != 2 {
		t.Fatalf("unexpected default origins: %v", cfg.Server.AllowedOrigins)
	}
}

func TestLoadChatOverrides(t *testing.T) {
	t.Setenv("PORT", "127.0.0.1:9000")
	t.Setenv("CHAT_BACKEND_URL", "http://localhost:8000/")
	t.Setenv("CHAT_TIMEOUT_SECONDS", "5")
	t.Setenv("CHAT_DEMO_MODE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Fatalf("unexpected addr: %s", cfg.Server.Addr)
	}
	if cfg.Chat.BackendURL != "http://localhost:8000" {
		t.Fatalf("trailing slash not trimmed: %s", cfg.Chat.BackendURL)
	}
	if cfg.Chat.Timeout != 5*time.Second || !cfg.Chat.DemoMode {
		t.Fatalf("unexpected chat config: %+v", cfg.Chat)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"PORT":                 "80 80",
		"CHAT_TIMEOUT_SECONDS": "0",
		"CHAT_DEMO_MODE":       "maybe",
		"RATE_LIMIT_RPS":       "fast",
	}

	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", key, value)
			}
		})
	}
}

func TestAIConfigEnabled(t *testing.T) {
	if (AIConfig{Model: "m", APIKey: "k"}).Enabled() != true {
		t.Fatal("api key + model should enable AI")
	}
	if (AIConfig{Model: "m", AccessKey: "ak"}).Enabled() {
		t.Fatal("access key without secret should not enable AI")
	}
}
