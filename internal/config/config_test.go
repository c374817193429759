package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/dippy/internal/errors"
	"github.com/vango-dev/dippy/pkg/registry"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Server.URL != DefaultServerURL {
		t.Errorf("Server.URL = %q, want %q", cfg.Server.URL, DefaultServerURL)
	}
	if cfg.Cache.Backend != BackendMemory {
		t.Errorf("Cache.Backend = %q, want %q", cfg.Cache.Backend, BackendMemory)
	}
	if cfg.Cache.Table != DefaultCacheTable {
		t.Errorf("Cache.Table = %q, want %q", cfg.Cache.Table, DefaultCacheTable)
	}
	if cfg.Transport.Heartbeat.Std() != 30*time.Second {
		t.Errorf("Transport.Heartbeat = %s, want 30s", cfg.Transport.Heartbeat)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	// Test loading non-existent config
	_, err := Load(tmpDir)
	if err == nil {
		t.Fatal("Expected error for missing config")
	}
	if code := errors.CodeOf(err); code != "E120" {
		t.Errorf("error code = %q, want E120", code)
	}

	configJSON := `{
  "server": {
    "url": "wss://games.example.com/ws",
    "headers": {"Authorization": "Bearer abc"}
  },
  "cache": {
    "backend": "sqlite",
    "path": "cache.db",
    "timeout": "500ms"
  },
  "registry": {"resend": "owner-change"}
}`
	if err := os.WriteFile(filepath.Join(tmpDir, JSONFileName), []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.URL != "wss://games.example.com/ws" {
		t.Errorf("Server.URL = %q", cfg.Server.URL)
	}
	if cfg.Cache.Backend != BackendSQLite || cfg.Cache.Path != "cache.db" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Cache.Timeout.Std() != 500*time.Millisecond {
		t.Errorf("Cache.Timeout = %s, want 500ms", cfg.Cache.Timeout)
	}
	if cfg.ResendPolicy() != registry.ResendOnOwnerChange {
		t.Errorf("ResendPolicy = %s", cfg.ResendPolicy())
	}

	// Unset fields keep their defaults
	if cfg.Cache.Table != DefaultCacheTable {
		t.Errorf("Cache.Table = %q, want default", cfg.Cache.Table)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}

	tc := cfg.TransportConfig()
	if got := tc.Header.Get("Authorization"); got != "Bearer abc" {
		t.Errorf("Header Authorization = %q", got)
	}
	if cfg.Path() != filepath.Join(tmpDir, JSONFileName) {
		t.Errorf("Path() = %q", cfg.Path())
	}
}

func TestLoadTOML(t *testing.T) {
	tmpDir := t.TempDir()
	configTOML := `
[server]
url = "ws://127.0.0.1:9000/ws"

[cache]
backend = "s3"
bucket = "dippy"
prefix = "cache/"

[transport]
read_timeout = "20s"
heartbeat = "5s"

[log]
level = "debug"
format = "json"
`
	if err := os.WriteFile(filepath.Join(tmpDir, TOMLFileName), []byte(configTOML), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Cache.Backend != BackendS3 || cfg.Cache.Bucket != "dippy" || cfg.Cache.Prefix != "cache/" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Transport.ReadTimeout.Std() != 20*time.Second {
		t.Errorf("ReadTimeout = %s", cfg.Transport.ReadTimeout)
	}
	if cfg.SlogLevel().String() != "DEBUG" {
		t.Errorf("SlogLevel = %s", cfg.SlogLevel())
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q", cfg.Log.Format)
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, JSONFileName)
	if err := os.WriteFile(path, []byte("{invalid json}"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(path)
	if err == nil {
		t.Fatal("Expected error for invalid JSON")
	}
	if code := errors.CodeOf(err); code != "E122" {
		t.Errorf("error code = %q, want E122", code)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DIPPY_SERVER_URL", "wss://env.example.com/ws")
	t.Setenv("DIPPY_CACHE_TIMEOUT", "3s")
	t.Setenv("DIPPY_LOG_LEVEL", "warn")
	t.Setenv("DIPPY_REGISTRY_RESEND", "owner-change")

	tmpDir := t.TempDir()
	configJSON := `{"server": {"url": "ws://file.example.com/ws"}, "log": {"level": "debug"}}`
	if err := os.WriteFile(filepath.Join(tmpDir, JSONFileName), []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.URL != "wss://env.example.com/ws" {
		t.Errorf("Server.URL = %q, want env override", cfg.Server.URL)
	}
	if cfg.Cache.Timeout.Std() != 3*time.Second {
		t.Errorf("Cache.Timeout = %s, want 3s", cfg.Cache.Timeout)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
	}
	if cfg.ResendPolicy() != registry.ResendOnOwnerChange {
		t.Errorf("ResendPolicy = %s", cfg.ResendPolicy())
	}
}

func TestEnvOverrideInvalid(t *testing.T) {
	t.Setenv("DIPPY_CACHE_TIMEOUT", "soon")

	_, err := FromEnv()
	if err == nil {
		t.Fatal("Expected error for invalid duration")
	}
	if code := errors.CodeOf(err); code != "E123" {
		t.Errorf("error code = %q, want E123", code)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()

	for _, name := range []string{JSONFileName, TOMLFileName} {
		t.Run(name, func(t *testing.T) {
			cfg := New()
			cfg.Server.URL = "wss://saved.example.com/ws"
			cfg.Cache.Backend = BackendSQLite
			cfg.Cache.Path = "saved.db"
			cfg.Transport.Heartbeat = Duration(15 * time.Second)

			path := filepath.Join(tmpDir, name)
			if err := cfg.SaveTo(path); err != nil {
				t.Fatalf("SaveTo failed: %v", err)
			}

			loaded, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile failed: %v", err)
			}
			if loaded.Server.URL != cfg.Server.URL {
				t.Errorf("Server.URL = %q, want %q", loaded.Server.URL, cfg.Server.URL)
			}
			if loaded.Cache.Path != "saved.db" {
				t.Errorf("Cache.Path = %q", loaded.Cache.Path)
			}
			if loaded.Transport.Heartbeat != cfg.Transport.Heartbeat {
				t.Errorf("Heartbeat = %s, want %s", loaded.Transport.Heartbeat, cfg.Transport.Heartbeat)
			}
		})
	}

	data, err := os.ReadFile(filepath.Join(tmpDir, JSONFileName))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"heartbeat": "15s"`) {
		t.Errorf("durations should be written as strings:\n%s", data)
	}
}

func TestSaveWithoutPath(t *testing.T) {
	if err := New().Save(); err == nil {
		t.Error("Save() without a path should fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		detail string
	}{
		{"http scheme", func(c *Config) { c.Server.URL = "http://example.com" }, "server.url"},
		{"sqlite without path", func(c *Config) { c.Cache.Backend = BackendSQLite }, "cache.path"},
		{"s3 without bucket", func(c *Config) { c.Cache.Backend = BackendS3 }, "cache.bucket"},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "redis" }, "cache.backend"},
		{"heartbeat too long", func(c *Config) { c.Transport.Heartbeat = c.Transport.ReadTimeout }, "transport.heartbeat"},
		{"unknown resend", func(c *Config) { c.Registry.Resend = "never" }, "registry.resend"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.modify(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if code := errors.CodeOf(err); code != "E121" {
				t.Errorf("error code = %q, want E121", code)
			}
			if detail := errors.FromError(err, "").Detail; !strings.Contains(detail, tt.detail) {
				t.Errorf("detail %q should mention %q", detail, tt.detail)
			}
		})
	}
}

func TestExists(t *testing.T) {
	tmpDir := t.TempDir()

	if Exists(tmpDir) {
		t.Error("Exists() should be false for empty directory")
	}
	if err := os.WriteFile(filepath.Join(tmpDir, TOMLFileName), []byte(""), 0644); err != nil {
		t.Fatal(err)
	}
	if !Exists(tmpDir) {
		t.Error("Exists() should be true after creating dippy.toml")
	}
}
