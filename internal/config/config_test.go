package config

import (
	"strings"
	"testing"

	"github.com/m3rciful/todobot/internal/database"
)

func validConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{Token: "123:abc", RunMode: "longpoll"},
		Database: database.Config{Host: "localhost"},
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Database.Port != "5432" {
		t.Fatalf("db port = %q, want 5432", cfg.Database.Port)
	}
	if cfg.Database.SSLMode != "disable" {
		t.Fatalf("sslmode = %q, want disable", cfg.Database.SSLMode)
	}
	if cfg.Todos.PageSize != 5 {
		t.Fatalf("page size = %d, want 5", cfg.Todos.PageSize)
	}
	if cfg.Cache.TTLSeconds != 60 {
		t.Fatalf("cache ttl = %d, want 60", cfg.Cache.TTLSeconds)
	}
	if cfg.Health.Port != 8080 {
		t.Fatalf("health port = %d, want 8080", cfg.Health.Port)
	}
}

func TestNormalizeRequiresToken(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.Token = ""
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for missing token")
	}
}

func TestNormalizeRunModeAlias(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = "Polling"
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run mode = %q, want longpoll", cfg.Telegram.RunMode)
	}
}

func TestNormalizeWebhookValidation(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = RunModeWebhook
	err := Normalize(cfg)
	if err == nil || !strings.Contains(err.Error(), "webhook.url") {
		t.Fatalf("err = %v, want webhook.url complaint", err)
	}

	cfg.Webhook = WebhookConfig{URL: "https://bot.example.com", Listen: "0.0.0.0", Port: 8443}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
}

func TestNormalizeCacheRequiresAddr(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.Enabled = true
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for enabled cache without addr")
	}
	cfg.Cache.Addr = "localhost:6379"
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
}

func TestNormalizeRateLimitExclusions(t *testing.T) {
	cfg := validConfig()
	cfg.RateLimit.ExcludeUpdates = []string{" Callback ", "message"}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.RateLimit.ExcludeUpdates[0] != "callback" {
		t.Fatalf("exclusion = %q, want normalized callback", cfg.RateLimit.ExcludeUpdates[0])
	}

	cfg.RateLimit.ExcludeUpdates = []string{"inline_query"}
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for unsupported exclusion")
	}
}
