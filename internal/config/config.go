// Package config loads the leadflow binary configuration from a YAML file,
// a .env file, LEADFLOW_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/aretw0/leadflow/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// AppName is used for the config file name and search directory.
	AppName = "leadflow"

	// EnvPrefix is the prefix of environment variables (LEADFLOW_STORE_BACKEND).
	EnvPrefix = "LEADFLOW"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Config holds the application configuration.
type Config struct {
	LogLevel   string `mapstructure:"log_level"`
	LogFormat  string `mapstructure:"log_format"`
	Flow       string `mapstructure:"flow"`        // Flow file; empty uses the built-in flow
	JumpPolicy string `mapstructure:"jump_policy"` // visited or free

	Store StoreConfig `mapstructure:"store"`
	OTP   OTPConfig   `mapstructure:"otp"`
	HTTP  HTTPConfig  `mapstructure:"http"`
	MCP   MCPConfig   `mapstructure:"mcp"`
}

// OTPConfig selects how codes are delivered and checked.
type OTPConfig struct {
	// Hooks is a file of send/verify commands. Empty uses the stub backend,
	// which sends nothing and accepts any well-formed code.
	Hooks   string        `mapstructure:"hooks"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// StoreConfig selects and tunes the session store.
type StoreConfig struct {
	Backend string      `mapstructure:"backend"`
	Dir     string      `mapstructure:"dir"`
	Redis   RedisConfig `mapstructure:"redis"`

	// Scrub lists regular expressions of auth field paths masked before saving.
	Scrub []string `mapstructure:"scrub"`

	// EncryptionKey is a hex-encoded 32-byte AES key. Empty disables encryption.
	EncryptionKey string `mapstructure:"encryption_key"`
	// FallbackKeys are older hex keys still accepted for reading.
	FallbackKeys []string `mapstructure:"fallback_keys"`
}

// RedisConfig configures the Redis store and lock.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

// HTTPConfig configures the serve command.
type HTTPConfig struct {
	Addr        string `mapstructure:"addr"`
	Metrics     bool   `mapstructure:"metrics"`
	MetricsPath string `mapstructure:"metrics_path"`
}

// MCPConfig configures the mcp command.
type MCPConfig struct {
	Transport string `mapstructure:"transport"` // stdio or sse
	Addr      string `mapstructure:"addr"`
	BaseURL   string `mapstructure:"base_url"`
}

// Loader reads a Config. Flags bound with BindFlag override every other source.
type Loader struct {
	v          *viper.Viper
	configFile string
	envFile    string
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithConfigFile reads path instead of searching for leadflow.yaml.
func WithConfigFile(path string) LoaderOption {
	return func(l *Loader) {
		l.configFile = path
	}
}

// WithEnvFile loads path as a .env file. A missing file is ignored.
func WithEnvFile(path string) LoaderOption {
	return func(l *Loader) {
		l.envFile = path
	}
}

// NewLoader creates a Loader with defaults applied.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{v: viper.New(), envFile: ".env"}
	for _, opt := range opts {
		opt(l)
	}
	setDefaults(l.v)
	return l
}

// BindFlag makes flag override key when it is set on the command line.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("bind %s: nil flag", key)
	}
	return l.v.BindPFlag(key, flag)
}

// Load reads every source and validates the result.
func (l *Loader) Load() (*Config, error) {
	if l.envFile != "" {
		if err := godotenv.Load(l.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error reading env file: %w", err)
		}
	}

	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	} else {
		l.v.SetConfigName(AppName)
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			l.v.AddConfigPath(filepath.Join(dir, AppName))
		}
	}

	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	l.v.AutomaticEnv()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ConfigFileUsed returns the file that was read, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", logging.FormatText)
	v.SetDefault("flow", "")
	v.SetDefault("jump_policy", "visited")

	v.SetDefault("store.backend", BackendMemory)
	v.SetDefault("store.dir", filepath.Join(".leadflow", "sessions"))
	v.SetDefault("store.scrub", []string{`^auth\.otp$`})
	v.SetDefault("store.encryption_key", "")
	v.SetDefault("store.fallback_keys", []string{})
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.prefix", "leadflow:session:")
	v.SetDefault("store.redis.ttl", 24*time.Hour)
	v.SetDefault("store.redis.lock_ttl", 30*time.Second)

	v.SetDefault("otp.hooks", "")
	v.SetDefault("otp.timeout", 15*time.Second)

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.metrics", true)
	v.SetDefault("http.metrics_path", "/metrics")

	v.SetDefault("mcp.transport", "stdio")
	v.SetDefault("mcp.addr", ":8081")
	v.SetDefault("mcp.base_url", "http://localhost:8081")
}

// Validate checks enumerations and keys.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	switch c.JumpPolicy {
	case "visited", "free":
	default:
		return fmt.Errorf("unknown jump policy %q", c.JumpPolicy)
	}
	switch c.Store.Backend {
	case BackendMemory, BackendFile, BackendRedis:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	switch c.MCP.Transport {
	case "stdio", "sse":
	default:
		return fmt.Errorf("unknown mcp transport %q", c.MCP.Transport)
	}
	for i, p := range c.Store.Scrub {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("store.scrub[%d]: %w", i, err)
		}
	}
	if _, _, err := c.Store.Keys(); err != nil {
		return err
	}
	return nil
}

// Keys decodes the encryption keys. A nil active key means encryption is off.
func (s StoreConfig) Keys() (active []byte, fallback [][]byte, err error) {
	if s.EncryptionKey == "" {
		return nil, nil, nil
	}
	active, err = decodeKey(s.EncryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("store.encryption_key: %w", err)
	}
	for i, k := range s.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("store.fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must be 32 bytes, got %d", len(key))
	}
	return key, nil
}
