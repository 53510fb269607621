// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML and TOML loading, env var expansion, defaults and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
server:
  url: "https://chat.example.com/"
  socket_url: "wss://socket.example.com"
  request_timeout: "5s"

session:
  token_path: "/tmp/qc-token"

chat:
  max_image_bytes: 1024
  dedupe_ttl: "1m"
  dedupe_size: 50
  refresh_on_presence: false

transport:
  reconnect_min: "500ms"
  reconnect_max: "10s"

logging:
  level: "debug"
  format: "json"
  file: "/tmp/qc.log"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.URL != "https://chat.example.com" {
		t.Errorf("Server.URL = %q, want trailing slash trimmed", cfg.Server.URL)
	}
	if cfg.Server.SocketURL != "wss://socket.example.com" {
		t.Errorf("Server.SocketURL = %q", cfg.Server.SocketURL)
	}
	if cfg.Server.RequestTimeout != 5*time.Second {
		t.Errorf("Server.RequestTimeout = %v, want 5s", cfg.Server.RequestTimeout)
	}
	if cfg.Session.TokenPath != "/tmp/qc-token" {
		t.Errorf("Session.TokenPath = %q", cfg.Session.TokenPath)
	}
	if cfg.Chat.MaxImageBytes != 1024 {
		t.Errorf("Chat.MaxImageBytes = %d, want 1024", cfg.Chat.MaxImageBytes)
	}
	if cfg.Chat.DedupeTTL != time.Minute {
		t.Errorf("Chat.DedupeTTL = %v, want 1m", cfg.Chat.DedupeTTL)
	}
	if cfg.Chat.DedupeSize != 50 {
		t.Errorf("Chat.DedupeSize = %d, want 50", cfg.Chat.DedupeSize)
	}
	if cfg.Chat.RefreshOnPresenceEnabled() {
		t.Error("Chat.RefreshOnPresenceEnabled() = true, want false")
	}
	if cfg.Transport.ReconnectMin != 500*time.Millisecond {
		t.Errorf("Transport.ReconnectMin = %v, want 500ms", cfg.Transport.ReconnectMin)
	}
	if cfg.Transport.ReconnectMax != 10*time.Second {
		t.Errorf("Transport.ReconnectMax = %v, want 10s", cfg.Transport.ReconnectMax)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" || cfg.Logging.File != "/tmp/qc.log" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoad_TOML(t *testing.T) {
	path := writeConfig(t, "config.toml", `
[server]
url = "http://10.0.0.5:5000"
request_timeout = "3s"

[chat]
dedupe_size = 10

[logging]
level = "warn"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.URL != "http://10.0.0.5:5000" {
		t.Errorf("Server.URL = %q", cfg.Server.URL)
	}
	if cfg.Server.SocketURL != cfg.Server.URL {
		t.Errorf("Server.SocketURL = %q, want it to default to url", cfg.Server.SocketURL)
	}
	if cfg.Server.RequestTimeout != 3*time.Second {
		t.Errorf("Server.RequestTimeout = %v, want 3s", cfg.Server.RequestTimeout)
	}
	if cfg.Chat.DedupeSize != 10 {
		t.Errorf("Chat.DedupeSize = %d, want 10", cfg.Chat.DedupeSize)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "config.yaml", "{}\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.URL != DefaultServerURL {
		t.Errorf("Server.URL = %q, want %q", cfg.Server.URL, DefaultServerURL)
	}
	if cfg.Server.RequestTimeout != DefaultRequestTimeout {
		t.Errorf("Server.RequestTimeout = %v", cfg.Server.RequestTimeout)
	}
	if cfg.Chat.MaxImageBytes != DefaultMaxImageBytes {
		t.Errorf("Chat.MaxImageBytes = %d", cfg.Chat.MaxImageBytes)
	}
	if cfg.Chat.DedupeTTL != DefaultDedupeTTL || cfg.Chat.DedupeSize != DefaultDedupeSize {
		t.Errorf("Chat dedupe = %v/%d", cfg.Chat.DedupeTTL, cfg.Chat.DedupeSize)
	}
	if !cfg.Chat.RefreshOnPresenceEnabled() {
		t.Error("refresh_on_presence should default to enabled")
	}
	if cfg.Transport.ReconnectMin != DefaultReconnectMin || cfg.Transport.ReconnectMax != DefaultReconnectMax {
		t.Errorf("Transport = %v/%v", cfg.Transport.ReconnectMin, cfg.Transport.ReconnectMax)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("QC_TEST_SERVER", "https://env.example.com")
	path := writeConfig(t, "config.yaml", `
server:
  url: "${QC_TEST_SERVER}"
session:
  token_path: "${QC_TEST_UNSET_VAR}"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.URL != "https://env.example.com" {
		t.Errorf("Server.URL = %q, want expanded value", cfg.Server.URL)
	}
	if cfg.Session.TokenPath != "" {
		t.Errorf("Session.TokenPath = %q, want empty for unset var", cfg.Session.TokenPath)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"bad yaml", "config.yaml", "server: [", "parsing config file"},
		{"bad toml", "config.toml", "[server\nurl=", "parsing config file"},
		{"bad duration", "config.yaml", "server:\n  request_timeout: soon\n", "server.request_timeout"},
		{"bad scheme", "config.yaml", "server:\n  url: ftp://host\n", "server.url"},
		{"no host", "config.yaml", "server:\n  url: http://\n", "has no host"},
		{"bad socket", "config.yaml", "server:\n  socket_url: gopher://x\n", "server.socket_url"},
		{"negative timeout", "config.yaml", "server:\n  request_timeout: -1s\n", "request_timeout"},
		{"reconnect order", "config.yaml", "transport:\n  reconnect_min: 1m\n  reconnect_max: 1s\n", "exceeds"},
		{"bad level", "config.yaml", "logging:\n  level: loud\n", "logging.level"},
		{"bad format", "config.yaml", "logging:\n  format: xml\n", "logging.format"},
		{"negative dedupe", "config.yaml", "chat:\n  dedupe_size: -1\n", "chat.dedupe_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("Load() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Load() error = nil, want error")
	}
}

func TestDefaultPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(PathEnvVar, "")
	t.Setenv("XDG_CONFIG_HOME", dir)

	got, err := DefaultPath()
	if err != nil {
		t.Fatalf("DefaultPath() error = %v", err)
	}
	if want := filepath.Join(dir, "quickchat", "config.yaml"); got != want {
		t.Errorf("DefaultPath() = %q, want %q", got, want)
	}

	t.Setenv(PathEnvVar, "/etc/quickchat.toml")
	got, err = DefaultPath()
	if err != nil {
		t.Fatalf("DefaultPath() error = %v", err)
	}
	if got != "/etc/quickchat.toml" {
		t.Errorf("DefaultPath() = %q, want env override", got)
	}
}

func TestLoadDefault(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv(PathEnvVar, "")

	cfg, path, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault() error = %v", err)
	}
	if path != "" {
		t.Errorf("path = %q, want empty when no file exists", path)
	}
	if cfg.Server.URL != DefaultServerURL {
		t.Errorf("Server.URL = %q", cfg.Server.URL)
	}

	t.Setenv(PathEnvVar, filepath.Join(dir, "missing.yaml"))
	if _, _, err := LoadDefault(); err == nil {
		t.Error("LoadDefault() error = nil, want error for explicit missing file")
	}

	explicit := writeConfig(t, "qc.yaml", "logging:\n  level: error\n")
	t.Setenv(PathEnvVar, explicit)
	cfg, path, err = LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault() error = %v", err)
	}
	if path != explicit || cfg.Logging.Level != "error" {
		t.Errorf("LoadDefault() = %q/%q", path, cfg.Logging.Level)
	}
}

func TestDefault_Validates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}
