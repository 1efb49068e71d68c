package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("API_BASE_URL", "http://backend.local")
	t.Setenv("KEYCLOAK_URL", "http://keycloak.local")
	t.Setenv("KEYCLOAK_REALM", "devices")
	t.Setenv("KEYCLOAK_CLIENT_ID", "portal")
	t.Setenv("KEYCLOAK_ADMIN_CLIENT_SECRET", "s3cret-value")
}

func TestLoadFromEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "3")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Upstream.RequestTimeout != 3*time.Second {
		t.Fatalf("expected 3s timeout, got %s", cfg.Upstream.RequestTimeout)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected lowercased log level, got %s", cfg.LogLevel)
	}
	if cfg.Keycloak.Realm != "devices" {
		t.Fatalf("unexpected realm %s", cfg.Keycloak.Realm)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("unexpected address %s", cfg.Address())
	}
}

func TestLoadMissingSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("KEYCLOAK_ADMIN_CLIENT_SECRET", "")

	if _, err := Load(""); err == nil {
		t.Fatal("expected error for missing client secret")
	}
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("KEYCLOAK_REALM", "")
	t.Setenv("PORT", "9090")

	path := filepath.Join(t.TempDir(), "portal.yaml")
	body := `
port: "7000"
keycloak:
  realm: from-file
upstream:
  request_timeout: 4s
mqtt:
  topic: custom/topic
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Keycloak.Realm != "from-file" {
		t.Fatalf("expected realm from file, got %q", cfg.Keycloak.Realm)
	}
	if cfg.Port != "9090" {
		t.Fatalf("expected env to override port, got %s", cfg.Port)
	}
	if cfg.Upstream.RequestTimeout != 4*time.Second {
		t.Fatalf("expected 4s timeout, got %s", cfg.Upstream.RequestTimeout)
	}
	if cfg.MQTT.Topic != "custom/topic" || cfg.MQTT.ClientID != defaultMQTTClientID {
		t.Fatalf("unexpected mqtt config %+v", cfg.MQTT)
	}
}

func TestLogValueRedactsSecret(t *testing.T) {
	setRequiredEnv(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if strings.Contains(cfg.LogValue().String(), "s3cret-value") {
		t.Fatal("client secret leaked into log value")
	}
}
