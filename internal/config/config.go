package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/vango-dev/dippy/internal/errors"
	"github.com/vango-dev/dippy/pkg/protocol"
	"github.com/vango-dev/dippy/pkg/registry"
	"github.com/vango-dev/dippy/pkg/transport"
)

const (
	// JSONFileName is the JSON configuration file name.
	JSONFileName = "dippy.json"

	// TOMLFileName is the TOML configuration file name.
	TOMLFileName = "dippy.toml"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "DIPPY_"

	// DefaultServerURL is the default game server endpoint.
	DefaultServerURL = "ws://localhost:8080/ws"

	// DefaultCacheTable is the default SQL cache table.
	DefaultCacheTable = "dippy_cache"
)

// Cache backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendS3     = "s3"
)

// Config represents the complete dippy configuration.
type Config struct {
	// Server contains the game server connection settings.
	Server ServerConfig `json:"server" toml:"server" envPrefix:"SERVER_"`

	// Cache contains the local cache backend settings.
	Cache CacheConfig `json:"cache" toml:"cache" envPrefix:"CACHE_"`

	// Transport contains WebSocket timing and size limits.
	Transport TransportConfig `json:"transport" toml:"transport" envPrefix:"TRANSPORT_"`

	// Registry contains subscription registry settings.
	Registry RegistryConfig `json:"registry" toml:"registry" envPrefix:"REGISTRY_"`

	// Log contains logging settings.
	Log LogConfig `json:"log" toml:"log" envPrefix:"LOG_"`

	// Metrics contains the debug HTTP server settings.
	Metrics MetricsConfig `json:"metrics" toml:"metrics" envPrefix:"METRICS_"`

	// configPath is the path the config was loaded from.
	configPath string
}

// ServerConfig contains the game server connection settings.
type ServerConfig struct {
	// URL is the WebSocket endpoint (ws:// or wss://).
	URL string `json:"url" toml:"url" env:"URL"`

	// Headers are sent with the WebSocket handshake.
	Headers map[string]string `json:"headers,omitempty" toml:"headers,omitempty" env:"HEADERS"`
}

// CacheConfig contains the local cache backend settings.
type CacheConfig struct {
	// Backend is one of "memory", "sqlite" or "s3".
	Backend string `json:"backend" toml:"backend" env:"BACKEND"`

	// Path is the SQLite database file.
	Path string `json:"path,omitempty" toml:"path,omitempty" env:"PATH"`

	// Table is the SQL table holding cache entries.
	Table string `json:"table,omitempty" toml:"table,omitempty" env:"TABLE"`

	// Bucket is the S3 bucket.
	Bucket string `json:"bucket,omitempty" toml:"bucket,omitempty" env:"BUCKET"`

	// Prefix is prepended to S3 object keys.
	Prefix string `json:"prefix,omitempty" toml:"prefix,omitempty" env:"PREFIX"`

	// Region is the S3 region.
	Region string `json:"region,omitempty" toml:"region,omitempty" env:"REGION"`

	// Endpoint overrides the S3 endpoint (for S3-compatible stores).
	Endpoint string `json:"endpoint,omitempty" toml:"endpoint,omitempty" env:"ENDPOINT"`

	// PathStyle forces path-style S3 addressing.
	PathStyle bool `json:"path_style,omitempty" toml:"path_style,omitempty" env:"PATH_STYLE"`

	// Timeout bounds each cache operation.
	Timeout Duration `json:"timeout" toml:"timeout" env:"TIMEOUT"`
}

// TransportConfig contains WebSocket timing and size limits.
type TransportConfig struct {
	HandshakeTimeout Duration `json:"handshake_timeout" toml:"handshake_timeout" env:"HANDSHAKE_TIMEOUT"`
	ReadTimeout      Duration `json:"read_timeout" toml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout     Duration `json:"write_timeout" toml:"write_timeout" env:"WRITE_TIMEOUT"`
	Heartbeat        Duration `json:"heartbeat" toml:"heartbeat" env:"HEARTBEAT"`
	MaxFrameSize     int64    `json:"max_frame_size" toml:"max_frame_size" env:"MAX_FRAME_SIZE"`

	// QueueSize is the run loop dispatch queue capacity.
	QueueSize int `json:"queue_size" toml:"queue_size" env:"QUEUE_SIZE"`
}

// RegistryConfig contains subscription registry settings.
type RegistryConfig struct {
	// Resend is "always" or "owner-change".
	Resend string `json:"resend" toml:"resend" env:"RESEND"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `json:"level" toml:"level" env:"LEVEL"`

	// Format is "text" or "json".
	Format string `json:"format" toml:"format" env:"FORMAT"`
}

// MetricsConfig contains the debug HTTP server settings.
type MetricsConfig struct {
	// Addr is the listen address; empty disables the server.
	Addr string `json:"addr,omitempty" toml:"addr,omitempty" env:"ADDR"`

	// Namespace prefixes every metric name.
	Namespace string `json:"namespace" toml:"namespace" env:"NAMESPACE"`
}

// New creates a new Config with default values.
func New() *Config {
	tc := transport.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			URL: DefaultServerURL,
		},
		Cache: CacheConfig{
			Backend: BackendMemory,
			Table:   DefaultCacheTable,
			Timeout: Duration(2 * time.Second),
		},
		Transport: TransportConfig{
			HandshakeTimeout: Duration(tc.HandshakeTimeout),
			ReadTimeout:      Duration(tc.ReadTimeout),
			WriteTimeout:     Duration(tc.WriteTimeout),
			Heartbeat:        Duration(tc.HeartbeatInterval),
			MaxFrameSize:     protocol.MaxFrameSize,
			QueueSize:        256,
		},
		Registry: RegistryConfig{
			Resend: registry.ResendAlways.String(),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Namespace: "dippy",
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for dippy.json, then dippy.toml.
func Load(dir string) (*Config, error) {
	for _, name := range []string{JSONFileName, TOMLFileName} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("E120").
		WithDetail("No " + JSONFileName + " or " + TOMLFileName + " found in " + dir)
}

// LoadFile reads configuration from the specified file path. The format is
// chosen by extension (.toml or JSON otherwise).
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E120").
				WithDetail("No configuration file at " + path)
		}
		return nil, errors.New("E122").Wrap(err)
	}

	cfg := New()
	if isTOML(path) {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, errors.New("E122").
				WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
				WithSuggestion("Check that the file is valid TOML")
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E122").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check that the file is valid JSON")
	}

	cfg.configPath = path
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv returns the defaults with environment overrides applied.
func FromEnv() (*Config, error) {
	cfg := New()
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) finish() error {
	if err := c.applyEnv(); err != nil {
		return err
	}
	c.applyDefaults()
	return c.Validate()
}

// applyEnv overrides fields from DIPPY_* environment variables.
func (c *Config) applyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return errors.New("E123").Wrap(fmt.Errorf("parse env: %w", err))
	}
	return nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path, as TOML when the
// path ends in .toml and as JSON otherwise.
func (c *Config) SaveTo(path string) error {
	var data []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return errors.New("E124").Wrap(err)
		}
		data = buf.Bytes()
	} else {
		var err error
		data, err = json.MarshalIndent(c, "", "  ")
		if err != nil {
			return errors.New("E124").Wrap(err)
		}
		// Add newline at end of file
		data = append(data, '\n')
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E124").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	d := New()

	if c.Server.URL == "" {
		c.Server.URL = d.Server.URL
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = d.Cache.Backend
	}
	if c.Cache.Table == "" {
		c.Cache.Table = d.Cache.Table
	}
	if c.Cache.Timeout == 0 {
		c.Cache.Timeout = d.Cache.Timeout
	}
	if c.Transport.HandshakeTimeout == 0 {
		c.Transport.HandshakeTimeout = d.Transport.HandshakeTimeout
	}
	if c.Transport.WriteTimeout == 0 {
		c.Transport.WriteTimeout = d.Transport.WriteTimeout
	}
	if c.Transport.MaxFrameSize == 0 {
		c.Transport.MaxFrameSize = d.Transport.MaxFrameSize
	}
	if c.Transport.QueueSize == 0 {
		c.Transport.QueueSize = d.Transport.QueueSize
	}
	if c.Registry.Resend == "" {
		c.Registry.Resend = d.Registry.Resend
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = d.Metrics.Namespace
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) *errors.Error {
		return errors.New("E121").WithDetailf(format, args...)
	}

	if u, err := url.Parse(c.Server.URL); err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
		return invalid("server.url %q must be a ws:// or wss:// URL", c.Server.URL).
			WithSuggestion("Set server.url or DIPPY_SERVER_URL")
	}

	switch c.Cache.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Cache.Path == "" {
			return invalid("cache.path is required for the sqlite backend")
		}
	case BackendS3:
		if c.Cache.Bucket == "" {
			return invalid("cache.bucket is required for the s3 backend")
		}
	default:
		return invalid("cache.backend %q is not supported", c.Cache.Backend).
			WithSuggestion("Use one of: memory, sqlite, s3")
	}

	if c.Transport.MaxFrameSize < 0 {
		return invalid("transport.max_frame_size must not be negative")
	}
	if c.Transport.QueueSize < 0 {
		return invalid("transport.queue_size must not be negative")
	}
	if c.Transport.ReadTimeout > 0 && c.Transport.Heartbeat >= c.Transport.ReadTimeout {
		return invalid("transport.heartbeat (%s) must be shorter than transport.read_timeout (%s)",
			c.Transport.Heartbeat, c.Transport.ReadTimeout)
	}

	if _, ok := registry.ParseResendPolicy(c.Registry.Resend); !ok {
		return invalid("registry.resend %q is not supported", c.Registry.Resend).
			WithSuggestion("Use \"always\" or \"owner-change\"")
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return invalid("log.level %q is not a valid level", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return invalid("log.format %q must be text or json", c.Log.Format)
	}
	return nil
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// ResendPolicy returns the configured registry resend policy.
func (c *Config) ResendPolicy() registry.ResendPolicy {
	p, _ := registry.ParseResendPolicy(c.Registry.Resend)
	return p
}

// TransportConfig returns the connection settings for pkg/transport.
func (c *Config) TransportConfig() transport.Config {
	var header http.Header
	if len(c.Server.Headers) > 0 {
		header = make(http.Header, len(c.Server.Headers))
		for k, v := range c.Server.Headers {
			header.Set(k, v)
		}
	}
	return transport.Config{
		HandshakeTimeout:  c.Transport.HandshakeTimeout.Std(),
		ReadTimeout:       c.Transport.ReadTimeout.Std(),
		WriteTimeout:      c.Transport.WriteTimeout.Std(),
		HeartbeatInterval: c.Transport.Heartbeat.Std(),
		MaxFrameSize:      c.Transport.MaxFrameSize,
		Header:            header,
	}
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range []string{JSONFileName, TOMLFileName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}
