// Package config loads the server configuration from environment variables.
// Defaults suit a single-store install with the workbook and its side files
// under ./data; Validate reports every problem at once so a bad deployment
// fails on startup with the full list.
package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Workbook WorkbookConfig
	Lock     LockConfig
	Settings SettingsConfig
	Photos   PhotoConfig
	Backup   BackupConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"90s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout must leave room for LOCK_WAIT_TIMEOUT plus the work itself.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`

	// MaxBodyBytes bounds POST bodies; photos arrive inline as data URLs.
	MaxBodyBytes int64 `env:"SERVER_MAX_BODY_BYTES" default:"20971520"`

	// Version is reported by the ping action.
	Version string `env:"APP_VERSION" default:"TBMS 2.0"`
}

// WorkbookConfig locates the spreadsheet that holds every table.
type WorkbookConfig struct {
	Path string `env:"WORKBOOK_PATH" default:"data/tbms.xlsx"`

	// Timezone is used to render date and time cells (IANA name).
	Timezone string `env:"WORKBOOK_TIMEZONE" default:"Europe/London"`

	// Watch reloads the workbook after it is edited outside the server.
	Watch bool `env:"WORKBOOK_WATCH" default:"true"`
}

// LockConfig bounds how long a request waits for the store.
type LockConfig struct {
	WaitTimeout time.Duration `env:"LOCK_WAIT_TIMEOUT" default:"30s"`
}

// SettingsConfig selects the settings backend.
type SettingsConfig struct {
	// DSN is file://path, memory:// or a postgres:// URL.
	DSN string `env:"SETTINGS_DSN" envAlt:"DATABASE_URL" default:"file://data/settings.json"`
}

// PhotoConfig controls clock-in photo storage.
type PhotoConfig struct {
	Dir          string `env:"PHOTO_DIR" default:"data/photos"`
	MaxDimension int    `env:"PHOTO_MAX_DIMENSION" default:"1024"`
}

// BackupConfig controls the periodic workbook snapshot.
type BackupConfig struct {
	Enabled  bool          `env:"BACKUP_ENABLED" default:"true"`
	Dir      string        `env:"BACKUP_DIR" default:"data/backups"`
	Interval time.Duration `env:"BACKUP_INTERVAL" default:"24h"`
	Keep     int           `env:"BACKUP_KEEP" default:"14"`
}

// RateLimitConfig holds per-IP rate limits.
type RateLimitConfig struct {
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute applies to every route.
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// WritesPerMinute additionally applies to POST actions.
	WritesPerMinute int `env:"RATE_LIMIT_WRITES_PER_MINUTE" default:"30"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// X-Real-IP and X-Forwarded-For headers are believed.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey rejects API requests without a valid X-API-Key header.
	RequireAPIKey bool     `env:"REQUIRE_API_KEY" default:"false"`
	APIKeys       []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" default:"info"`
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// Location resolves Timezone.
func (c *WorkbookConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// String returns a representation safe for logs: API keys and the
// settings DSN password are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Addr: %q, RequestTimeout: %s}, ", c.Server.Addr(), c.Server.RequestTimeout)
	fmt.Fprintf(&b, "Workbook: {Path: %q, Timezone: %q, Watch: %v}, ", c.Workbook.Path, c.Workbook.Timezone, c.Workbook.Watch)
	fmt.Fprintf(&b, "Lock: {WaitTimeout: %s}, ", c.Lock.WaitTimeout)
	fmt.Fprintf(&b, "Settings: {DSN: %q}, ", maskDSN(c.Settings.DSN))
	fmt.Fprintf(&b, "Backup: {Enabled: %v, Interval: %s, Keep: %d}, ", c.Backup.Enabled, c.Backup.Interval, c.Backup.Keep)
	fmt.Fprintf(&b, "Rate: {Enabled: %v, RequestsPerMinute: %d}, ", c.Rate.Enabled, c.Rate.RequestsPerMinute)
	fmt.Fprintf(&b, "Security: {RequireAPIKey: %v, APIKeys: %d}, ", c.Security.RequireAPIKey, len(c.Security.APIKeys))
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}

func maskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	if _, has := u.User.Password(); has {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
