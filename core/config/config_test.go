package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNormalizeDefaults(t *testing.T) {
	cfg := &Config{}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if cfg.Server.Listen != "0.0.0.0" {
		t.Errorf("listen = %q, want 0.0.0.0", cfg.Server.Listen)
	}
	if cfg.Server.Port != 3978 {
		t.Errorf("port = %d, want 3978", cfg.Server.Port)
	}
	if cfg.Server.MediaDir != "media" {
		t.Errorf("media dir = %q, want media", cfg.Server.MediaDir)
	}
	if want := "http://localhost:3978/media"; cfg.Server.MediaBaseURL != want {
		t.Errorf("media base url = %q, want %q", cfg.Server.MediaBaseURL, want)
	}
	if cfg.Providers.TTSLanguage != "fr-FR" {
		t.Errorf("tts language = %q, want fr-FR", cfg.Providers.TTSLanguage)
	}
	if got := cfg.ProviderTimeout(); got != 10*time.Second {
		t.Errorf("provider timeout = %v, want 10s", got)
	}
	if got := cfg.SessionTTL(); got != 24*time.Hour {
		t.Errorf("session ttl = %v, want 24h", got)
	}
}

func TestNormalizeTelegramRequiresToken(t *testing.T) {
	cfg := &Config{}
	cfg.Telegram.Enabled = true
	if err := Normalize(cfg); err == nil {
		t.Fatal("expected error for enabled telegram without token")
	}

	cfg.Telegram.Token = "123:abc"
	if err := Normalize(cfg); err != nil {
		t.Fatalf("Normalize failed with token set: %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte(`
server:
  port: 8080
providers:
  news_url: http://news.local/digest
  timeout_seconds: 5
redis:
  ttl_hours: 2
`)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Providers.NewsURL != "http://news.local/digest" {
		t.Errorf("news url = %q", cfg.Providers.NewsURL)
	}
	if got := cfg.ProviderTimeout(); got != 5*time.Second {
		t.Errorf("provider timeout = %v, want 5s", got)
	}
	if got := cfg.SessionTTL(); got != 2*time.Hour {
		t.Errorf("session ttl = %v, want 2h", got)
	}
}
