package config

import (
	"strings"
	"testing"
	"time"
)

// env builds a LookupFunc from pairs.
func env(pairs ...string) LookupFunc {
	m := make(map[string]string, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		m[pairs[i]] = pairs[i+1]
	}
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadFrom(env())
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.Version != "TBMS 2.0" {
		t.Errorf("Server.Version = %q, want TBMS 2.0", cfg.Server.Version)
	}
	if cfg.Workbook.Path != "data/tbms.xlsx" {
		t.Errorf("Workbook.Path = %q", cfg.Workbook.Path)
	}
	if cfg.Workbook.Timezone != "Europe/London" || !cfg.Workbook.Watch {
		t.Errorf("Workbook = %+v", cfg.Workbook)
	}
	if cfg.Lock.WaitTimeout != 30*time.Second {
		t.Errorf("Lock.WaitTimeout = %s, want 30s", cfg.Lock.WaitTimeout)
	}
	if cfg.Settings.DSN != "file://data/settings.json" {
		t.Errorf("Settings.DSN = %q", cfg.Settings.DSN)
	}
	if cfg.Photos.MaxDimension != 1024 {
		t.Errorf("Photos.MaxDimension = %d, want 1024", cfg.Photos.MaxDimension)
	}
	if !cfg.Backup.Enabled || cfg.Backup.Keep != 14 || cfg.Backup.Interval != 24*time.Hour {
		t.Errorf("Backup = %+v", cfg.Backup)
	}
	if !cfg.Rate.Enabled || cfg.Rate.RequestsPerMinute != 100 {
		t.Errorf("Rate = %+v", cfg.Rate)
	}
	if cfg.Security.RequireAPIKey {
		t.Error("Security.RequireAPIKey should default to false")
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	cfg, err := LoadFrom(env(
		"SERVER_PORT", "9090",
		"WORKBOOK_PATH", "/srv/tbms/store.xlsx",
		"WORKBOOK_WATCH", "false",
		"LOCK_WAIT_TIMEOUT", "5s",
		"LOG_LEVEL", "debug",
	))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Workbook.Path != "/srv/tbms/store.xlsx" || cfg.Workbook.Watch {
		t.Errorf("Workbook = %+v", cfg.Workbook)
	}
	if cfg.Lock.WaitTimeout != 5*time.Second {
		t.Errorf("Lock.WaitTimeout = %s, want 5s", cfg.Lock.WaitTimeout)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoad_AltEnvVar(t *testing.T) {
	cfg, err := LoadFrom(env("DATABASE_URL", "postgres://tbms:secret@db/tbms", "PORT", "3000"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Settings.DSN != "postgres://tbms:secret@db/tbms" {
		t.Errorf("Settings.DSN = %q", cfg.Settings.DSN)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000", cfg.Server.Port)
	}

	cfg, _ = LoadFrom(env("SETTINGS_DSN", "memory://", "DATABASE_URL", "postgres://db/tbms"))
	if cfg.Settings.DSN != "memory://" {
		t.Errorf("primary variable should win, got %q", cfg.Settings.DSN)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  LookupFunc
	}{
		{"bad duration", env("LOCK_WAIT_TIMEOUT", "soon")},
		{"bad int", env("SERVER_PORT", "eighty")},
		{"bad bool", env("WORKBOOK_WATCH", "maybe")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFrom(tt.env); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoad_CommaSeparatedSlice(t *testing.T) {
	cfg, err := LoadFrom(env(
		"TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.0/12 , 192.168.0.0/16",
		"REQUIRE_API_KEY", "true",
		"API_KEYS", "k1,,k2",
	))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	want := []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}
	if strings.Join(cfg.Security.TrustedProxies, "|") != strings.Join(want, "|") {
		t.Errorf("TrustedProxies = %v, want %v", cfg.Security.TrustedProxies, want)
	}
	if len(cfg.Security.APIKeys) != 2 {
		t.Errorf("APIKeys = %v, want 2 keys", cfg.Security.APIKeys)
	}
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := LoadFrom(env())
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"invalid port", func(c *Config) { c.Server.Port = 0 }, "SERVER_PORT"},
		{"request timeout below lock wait", func(c *Config) { c.Server.RequestTimeout = 10 * time.Second }, "SERVER_REQUEST_TIMEOUT"},
		{"not xlsx", func(c *Config) { c.Workbook.Path = "data/tbms.csv" }, "WORKBOOK_PATH"},
		{"unknown zone", func(c *Config) { c.Workbook.Timezone = "Mars/Olympus" }, "WORKBOOK_TIMEZONE"},
		{"tiny photos", func(c *Config) { c.Photos.MaxDimension = 8 }, "PHOTO_MAX_DIMENSION"},
		{"backup interval", func(c *Config) { c.Backup.Interval = time.Second }, "BACKUP_INTERVAL"},
		{"api key required", func(c *Config) { c.Security.RequireAPIKey = true }, "API_KEYS"},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %s", err, tt.wantMsg)
			}
		})
	}
}

func TestValidate_DisabledBackupSkipsChecks(t *testing.T) {
	cfg := validConfig(t)
	cfg.Backup.Enabled = false
	cfg.Backup.Dir = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig(t)
	cfg.Server.Port = -1
	cfg.Logging.Level = "loud"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "SERVER_PORT") || !strings.Contains(err.Error(), "LOG_LEVEL") {
		t.Errorf("Validate = %v, want both failures", err)
	}
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"0.0.0.0", 8080, "0.0.0.0:8080"},
		{"", 9000, ":9000"},
		{"localhost", 443, "localhost:443"},
	}
	for _, tt := range tests {
		c := ServerConfig{Host: tt.host, Port: tt.port}
		if got := c.Addr(); got != tt.want {
			t.Errorf("Addr() = %q, want %q", got, tt.want)
		}
	}
}

func TestConfigString_MasksSecrets(t *testing.T) {
	cfg := validConfig(t)
	cfg.Settings.DSN = "postgres://tbms:hunter2@db:5432/tbms"
	cfg.Security.APIKeys = []string{"topsecret"}

	s := cfg.String()
	if strings.Contains(s, "hunter2") || strings.Contains(s, "topsecret") {
		t.Errorf("String() leaks a secret: %s", s)
	}
	if !strings.Contains(s, "tbms:xxxxx@db:5432") {
		t.Errorf("String() = %s, want masked DSN", s)
	}
}
