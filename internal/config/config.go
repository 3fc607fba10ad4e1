package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Auth         AuthConfig         `yaml:"auth"`
	Session      SessionConfig      `yaml:"session"`
	Notification NotificationConfig `yaml:"notification"`
	Storage      StorageConfig      `yaml:"storage"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port            int            `yaml:"port"`
	Host            string         `yaml:"host"`
	BaseURL         string         `yaml:"base_url"` // Optional: public URL (e.g., https://sho.rt)
	ReadTimeout     time.Duration  `yaml:"read_timeout"`
	WriteTimeout    time.Duration  `yaml:"write_timeout"`
	IdleTimeout     time.Duration  `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration  `yaml:"shutdown_timeout"`
	Security        SecurityConfig `yaml:"security"`
}

// SecurityConfig contains security-related settings
type SecurityConfig struct {
	CSRFEnabled     bool                  `yaml:"csrf_enabled"`
	CSRFFieldName   string                `yaml:"csrf_field_name"`
	MaxRequestBytes int64                 `yaml:"max_request_bytes"`
	Headers         SecurityHeadersConfig `yaml:"headers"`
}

// SecurityHeadersConfig contains HTTP security header settings
type SecurityHeadersConfig struct {
	XFrameOptions           string `yaml:"x_frame_options"`
	XContentTypeOptions     string `yaml:"x_content_type_options"`
	ReferrerPolicy          string `yaml:"referrer_policy"`
	ContentSecurityPolicy   string `yaml:"content_security_policy"`
	StrictTransportSecurity string `yaml:"strict_transport_security"`
	CacheControl            string `yaml:"cache_control"` // pages only, not /static/
}

// AuthConfig points at the upstream authentication endpoint
type AuthConfig struct {
	Endpoint  string        `yaml:"endpoint"`
	Timeout   time.Duration `yaml:"timeout"` // 0 disables the client timeout
	UserAgent string        `yaml:"user_agent"`
}

// SessionConfig controls the browser session cookie
type SessionConfig struct {
	Secret         string `yaml:"secret"`
	MaxAge         int    `yaml:"max_age"`
	CookieSecure   string `yaml:"cookie_secure"`   // "auto", "true", "false"
	CookieSameSite string `yaml:"cookie_samesite"` // "strict", "lax", "none"
}

// NotificationConfig controls how long notifications stay up
type NotificationConfig struct {
	Duration time.Duration `yaml:"duration"`
}

// StorageConfig locates the terminal client's database
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// LoggingConfig selects the zap configuration
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
	File        string `yaml:"file"` // terminal client only; empty discards
}

// Default returns a configuration that passes Validate once a session
// secret is supplied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "localhost",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Security: SecurityConfig{
				CSRFEnabled:     true,
				CSRFFieldName:   "csrf_token",
				MaxRequestBytes: 1 << 20,
				Headers: SecurityHeadersConfig{
					XFrameOptions:           "DENY",
					XContentTypeOptions:     "nosniff",
					ReferrerPolicy:          "strict-origin-when-cross-origin",
					ContentSecurityPolicy:   "default-src 'self'; style-src 'self'; script-src 'self'; img-src 'self' data:",
					StrictTransportSecurity: "max-age=31536000; includeSubDomains",
					CacheControl:            "no-store",
				},
			},
		},
		Auth: AuthConfig{
			Endpoint:  "http://localhost:4000/api/auth/login",
			Timeout:   10 * time.Second,
			UserAgent: "urlshort-login",
		},
		Session: SessionConfig{
			MaxAge:         86400 * 7,
			CookieSecure:   "auto",
			CookieSameSite: "lax",
		},
		Notification: NotificationConfig{
			Duration: 2 * time.Second,
		},
		Storage: StorageConfig{
			DBPath: "./data/urlshort.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the specified file path and validates it
// for serving. A missing file yields the defaults; environment overrides and
// validation still apply.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadClient is Load for the terminal commands, which never touch the
// session cookie and so do not need a session secret.
func LoadClient(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.ValidateClient(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Read parses the file over the defaults and applies environment overrides
// without validating
func Read(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		// Expand environment variables in the config
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// Override with environment variables if set
func (c *Config) applyEnv() {
	if v := os.Getenv("AUTH_ENDPOINT"); v != "" {
		c.Auth.Endpoint = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		c.Session.Secret = v
	}
	if v := os.Getenv("BASE_URL"); v != "" {
		c.Server.BaseURL = v
	}
}

// Validate checks that all required configuration fields are set
func (c *Config) Validate() error {
	// Session validation
	if c.Session.Secret == "" || strings.Contains(c.Session.Secret, "${") {
		return fmt.Errorf("session.secret is required (set SESSION_SECRET environment variable)")
	}
	if len(c.Session.Secret) < 32 {
		return fmt.Errorf("session.secret must be at least 32 characters")
	}
	if c.Session.MaxAge < 0 {
		return fmt.Errorf("session.max_age must not be negative")
	}
	switch strings.ToLower(c.Session.CookieSecure) {
	case "auto", "true", "false":
	default:
		return fmt.Errorf("session.cookie_secure must be one of auto, true, false")
	}
	switch strings.ToLower(c.Session.CookieSameSite) {
	case "strict", "lax", "none":
	default:
		return fmt.Errorf("session.cookie_samesite must be one of strict, lax, none")
	}

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Server.Security.MaxRequestBytes < 0 {
		return fmt.Errorf("server.security.max_request_bytes must not be negative")
	}

	return c.ValidateClient()
}

// ValidateClient checks the settings shared by the server and the terminal
// commands
func (c *Config) ValidateClient() error {
	// Auth validation
	u, err := url.Parse(c.Auth.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("auth.endpoint must be an absolute http(s) URL")
	}
	if c.Auth.Timeout < 0 {
		return fmt.Errorf("auth.timeout must not be negative")
	}

	if c.Notification.Duration <= 0 {
		return fmt.Errorf("notification.duration must be positive")
	}

	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required")
	}

	return nil
}

// GetAddr returns the full server address (host:port)
func (c *Config) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetBaseURL returns the public base URL
// Uses base_url if set, otherwise constructs from host:port
func (c *Config) GetBaseURL() string {
	if c.Server.BaseURL != "" {
		return c.Server.BaseURL
	}
	return fmt.Sprintf("http://%s", c.GetAddr())
}

// IsHTTPS returns true if the base URL uses HTTPS
func (c *Config) IsHTTPS() bool {
	return strings.HasPrefix(strings.ToLower(c.GetBaseURL()), "https://")
}

// SecureCookies resolves session.cookie_secure, deferring to the base URL
// scheme when set to "auto".
func (c *Config) SecureCookies() bool {
	switch strings.ToLower(c.Session.CookieSecure) {
	case "true":
		return true
	case "false":
		return false
	default:
		return c.IsHTTPS()
	}
}
