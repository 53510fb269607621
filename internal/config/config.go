// ABOUTME: Configuration loading and parsing for the quickchat client
// ABOUTME: Supports YAML or TOML files with environment variable expansion and duration parsing

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// PathEnvVar overrides the config file location.
const PathEnvVar = "QUICKCHAT_CONFIG"

// Defaults applied to unset fields.
const (
	DefaultServerURL      = "http://localhost:5000"
	DefaultRequestTimeout = 10 * time.Second
	DefaultMaxImageBytes  = 5 << 20
	DefaultDedupeTTL      = 10 * time.Minute
	DefaultDedupeSize     = 1000
	DefaultReconnectMin   = time.Second
	DefaultReconnectMax   = 30 * time.Second
)

// Config represents the complete quickchat configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Session   SessionConfig   `yaml:"session" toml:"session"`
	Chat      ChatConfig      `yaml:"chat" toml:"chat"`
	Transport TransportConfig `yaml:"transport" toml:"transport"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
}

// ServerConfig holds the API and socket endpoints
type ServerConfig struct {
	URL       string `yaml:"url" toml:"url"`
	SocketURL string `yaml:"socket_url" toml:"socket_url"` // defaults to URL

	RequestTimeout    time.Duration `yaml:"-" toml:"-"`
	RequestTimeoutRaw string        `yaml:"request_timeout" toml:"request_timeout"`
}

// SessionConfig holds where the session token is kept
type SessionConfig struct {
	TokenPath string `yaml:"token_path" toml:"token_path"` // empty means the XDG default
}

// ChatConfig holds message handling settings
type ChatConfig struct {
	MaxImageBytes int `yaml:"max_image_bytes" toml:"max_image_bytes"`
	DedupeSize    int `yaml:"dedupe_size" toml:"dedupe_size"`

	// RefreshOnPresence re-fetches the roster whenever the online count
	// changes. nil means enabled.
	RefreshOnPresence *bool `yaml:"refresh_on_presence" toml:"refresh_on_presence"`

	DedupeTTL    time.Duration `yaml:"-" toml:"-"`
	DedupeTTLRaw string        `yaml:"dedupe_ttl" toml:"dedupe_ttl"`
}

// RefreshOnPresenceEnabled reports the effective refresh_on_presence value.
func (c ChatConfig) RefreshOnPresenceEnabled() bool {
	return c.RefreshOnPresence == nil || *c.RefreshOnPresence
}

// TransportConfig holds socket reconnect timing
type TransportConfig struct {
	ReconnectMin time.Duration `yaml:"-" toml:"-"`
	ReconnectMax time.Duration `yaml:"-" toml:"-"`

	// Raw string values for unmarshaling
	ReconnectMinRaw string `yaml:"reconnect_min" toml:"reconnect_min"`
	ReconnectMaxRaw string `yaml:"reconnect_max" toml:"reconnect_max"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
	File   string `yaml:"file" toml:"file"` // empty means stderr
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// DefaultPath returns the config file location: $QUICKCHAT_CONFIG, then
// $XDG_CONFIG_HOME/quickchat/config.yaml, then ~/.config/quickchat/config.yaml.
func DefaultPath() (string, error) {
	if p := os.Getenv(PathEnvVar); p != "" {
		return p, nil
	}
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("finding home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "quickchat", "config.yaml"), nil
}

// LoadDefault loads the file at DefaultPath. A missing file at the implicit
// location yields Default(); a missing file named by $QUICKCHAT_CONFIG is an
// error.
func LoadDefault() (*Config, string, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, "", err
	}
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) && os.Getenv(PathEnvVar) == "" {
		return Default(), "", nil
	}
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are parsed as TOML, everything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	var cfg Config
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expandedData, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

func applyDefaults(cfg *Config) {
	if cfg.Server.URL == "" {
		cfg.Server.URL = DefaultServerURL
	}
	cfg.Server.URL = strings.TrimRight(cfg.Server.URL, "/")
	if cfg.Server.SocketURL == "" {
		cfg.Server.SocketURL = cfg.Server.URL
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Chat.MaxImageBytes == 0 {
		cfg.Chat.MaxImageBytes = DefaultMaxImageBytes
	}
	if cfg.Chat.DedupeTTL == 0 {
		cfg.Chat.DedupeTTL = DefaultDedupeTTL
	}
	if cfg.Chat.DedupeSize == 0 {
		cfg.Chat.DedupeSize = DefaultDedupeSize
	}
	if cfg.Transport.ReconnectMin == 0 {
		cfg.Transport.ReconnectMin = DefaultReconnectMin
	}
	if cfg.Transport.ReconnectMax == 0 {
		cfg.Transport.ReconnectMax = max(DefaultReconnectMax, cfg.Transport.ReconnectMin)
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// Validate checks that all configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if err := checkURL("server.url", c.Server.URL, "http", "https"); err != nil {
		return err
	}
	if err := checkURL("server.socket_url", c.Server.SocketURL, "http", "https", "ws", "wss"); err != nil {
		return err
	}
	if c.Server.RequestTimeout < 0 {
		return fmt.Errorf("server.request_timeout must be positive")
	}

	if c.Chat.MaxImageBytes < 0 {
		return fmt.Errorf("chat.max_image_bytes must be positive")
	}
	if c.Chat.DedupeSize < 0 {
		return fmt.Errorf("chat.dedupe_size must be positive")
	}
	if c.Chat.DedupeTTL < 0 {
		return fmt.Errorf("chat.dedupe_ttl must be positive")
	}

	if c.Transport.ReconnectMin < 0 || c.Transport.ReconnectMax < 0 {
		return fmt.Errorf("transport reconnect delays must be positive")
	}
	if c.Transport.ReconnectMax != 0 && c.Transport.ReconnectMin > c.Transport.ReconnectMax {
		return fmt.Errorf("transport.reconnect_min (%s) exceeds transport.reconnect_max (%s)",
			c.Transport.ReconnectMin, c.Transport.ReconnectMax)
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format %q is not one of text, json", c.Logging.Format)
	}

	return nil
}

func checkURL(field, raw string, schemes ...string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			if u.Host == "" {
				return fmt.Errorf("%s %q has no host", field, raw)
			}
			return nil
		}
	}
	return fmt.Errorf("%s %q must use one of %s", field, raw, strings.Join(schemes, ", "))
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"server.request_timeout", cfg.Server.RequestTimeoutRaw, &cfg.Server.RequestTimeout},
		{"chat.dedupe_ttl", cfg.Chat.DedupeTTLRaw, &cfg.Chat.DedupeTTL},
		{"transport.reconnect_min", cfg.Transport.ReconnectMinRaw, &cfg.Transport.ReconnectMin},
		{"transport.reconnect_max", cfg.Transport.ReconnectMaxRaw, &cfg.Transport.ReconnectMax},
	}

	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}
	return nil
}
