package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	originalEnv := os.Getenv("GYMLINK_CONFIG")
	defer os.Setenv("GYMLINK_CONFIG", originalEnv)

	os.Setenv("GYMLINK_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_MissingAdminSecret verifies startup is fatal without the shared secret.
func TestRun_MissingAdminSecret(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")

	configContent := `
auth:
  admin_secret: ""

database:
  path: "` + filepath.Join(tmpDir, "test.db") + `"

webhook:
  url: "http://127.0.0.1:19999/api/hardware-events"

logging:
  level: error
  format: text
  output: stdout
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	originalEnv := os.Getenv("GYMLINK_CONFIG")
	defer os.Setenv("GYMLINK_CONFIG", originalEnv)
	os.Setenv("GYMLINK_CONFIG", configPath)
	// Make sure the environment override does not rescue the empty secret.
	originalSecret := os.Getenv("GYMLINK_ADMIN_SECRET")
	defer os.Setenv("GYMLINK_ADMIN_SECRET", originalSecret)
	os.Unsetenv("GYMLINK_ADMIN_SECRET")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail without auth.admin_secret")
	}
}

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	originalEnv := os.Getenv("GYMLINK_CONFIG")
	defer os.Setenv("GYMLINK_CONFIG", originalEnv)

	os.Unsetenv("GYMLINK_CONFIG")

	path := getConfigPath()
	if path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	originalEnv := os.Getenv("GYMLINK_CONFIG")
	defer os.Setenv("GYMLINK_CONFIG", originalEnv)

	expected := "/custom/path/config.yaml"
	os.Setenv("GYMLINK_CONFIG", expected)

	path := getConfigPath()
	if path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

// TestRun_SuccessfulStartupAndShutdown tests full startup with optional
// integrations disabled, then a context-driven shutdown.
func TestRun_SuccessfulStartupAndShutdown(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test-config.yaml")
	dbPath := filepath.Join(tmpDir, "test.db")

	configContent := `
server:
  host: "127.0.0.1"
  port: 13001

auth:
  admin_secret: "test-secret-for-development-only"

webhook:
  url: "http://127.0.0.1:19999/api/hardware-events"
  secret: "test-webhook-secret"

database:
  path: "` + dbPath + `"
  wal_mode: true
  busy_timeout: 5

influxdb:
  enabled: false

mqtt:
  enabled: false

logging:
  level: error
  format: text
  output: stdout
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	originalEnv := os.Getenv("GYMLINK_CONFIG")
	defer os.Setenv("GYMLINK_CONFIG", originalEnv)
	os.Setenv("GYMLINK_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := run(ctx); err != nil {
		t.Errorf("run() returned error: %v", err)
	}
}
