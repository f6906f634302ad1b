// Package config builds the immutable service configuration from defaults,
// an optional TOML file and NKLINK_* environment variables, in increasing
// precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Duration is a time.Duration written as a Go duration string ("30s").
type Duration time.Duration

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText writes the duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr              string   `toml:"addr" validate:"required"`
	ReadHeaderTimeout Duration `toml:"read_header_timeout" validate:"gt=0"`
	ShutdownTimeout   Duration `toml:"shutdown_timeout" validate:"gt=0"`
	AllowedOrigins    []string `toml:"allowed_origins"`
}

// Log configures structured logging.
type Log struct {
	Level  string `toml:"level" validate:"oneof=debug info warn warning error"`
	Format string `toml:"format" validate:"oneof=json text"`
}

// Cache backend names.
const (
	CacheBackendRedis  = "redis"
	CacheBackendBadger = "badger"
	CacheBackendMemory = "memory"
	CacheBackendNone   = "none"
)

// Cache configures the record cache.
type Cache struct {
	Backend          string   `toml:"backend" validate:"oneof=redis badger memory none"`
	KeyPrefix        string   `toml:"key_prefix"`
	TTL              Duration `toml:"ttl" validate:"gt=0"`
	EmptyTTL         Duration `toml:"empty_ttl" validate:"gt=0"`
	RedisURL         string   `toml:"redis_url" validate:"required_if=Backend redis"`
	RedisPoolSize    int      `toml:"redis_pool_size" validate:"gte=0"`
	RedisDialTimeout Duration `toml:"redis_dial_timeout" validate:"gte=0"`
	// BadgerPath empty keeps the badger store in memory.
	BadgerPath string `toml:"badger_path"`
}

// Upstream configures the SPARQL endpoint.
type Upstream struct {
	Endpoint          string   `toml:"endpoint" validate:"required,url"`
	Timeout           Duration `toml:"timeout" validate:"gt=0"`
	UserAgent         string   `toml:"user_agent" validate:"required"`
	From              string   `toml:"from"`
	Languages         []string `toml:"languages" validate:"min=1,dive,required"`
	RatePerSecond     float64  `toml:"rate_per_second" validate:"gte=0"`
	Burst             int      `toml:"burst" validate:"gte=0"`
	AuthorityProperty string   `toml:"authority_property" validate:"required"`
}

// Client configures what is sent back to HTTP clients.
type Client struct {
	MaxCachingTime   Duration `toml:"max_caching_time" validate:"gte=0"`
	AuthorityBaseURL string   `toml:"authority_base_url" validate:"required"`
	DocumentationURL string   `toml:"documentation_url"`
	APIURL           string   `toml:"api_url"`
	SourceURL        string   `toml:"source_url"`
	FaviconURL       string   `toml:"favicon_url"`
}

// Config is the whole service configuration. It is built once at startup
// and passed to constructors; nothing modifies it afterwards.
type Config struct {
	Server   Server   `toml:"server"`
	Log      Log      `toml:"log"`
	Cache    Cache    `toml:"cache"`
	Upstream Upstream `toml:"upstream"`
	Client   Client   `toml:"client"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: Server{
			Addr:              ":8080",
			ReadHeaderTimeout: Duration(5 * time.Second),
			ShutdownTimeout:   Duration(10 * time.Second),
			AllowedOrigins:    []string{"*"},
		},
		Log: Log{
			Level:  "info",
			Format: "json",
		},
		Cache: Cache{
			Backend:          CacheBackendRedis,
			KeyPrefix:        "gBV0mSIgaC1mSQ:",
			TTL:              Duration(24 * time.Hour),
			EmptyTTL:         Duration(30 * time.Minute),
			RedisURL:         "redis://localhost:6379/0",
			RedisPoolSize:    10,
			RedisDialTimeout: Duration(2 * time.Second),
		},
		Upstream: Upstream{
			Endpoint:          "https://query.wikidata.org/sparql",
			Timeout:           Duration(30 * time.Second),
			UserAgent:         "nklink/1.0 (nklink.toolforge.org service, https://github.com/mormegil-cz/nklink)",
			From:              "nklink.maintainers@toolforge.org",
			Languages:         []string{"cs", "en", "sk", "de", "fr", "pl"},
			RatePerSecond:     5,
			Burst:             5,
			AuthorityProperty: "P691",
		},
		Client: Client{
			MaxCachingTime:   Duration(24 * time.Hour),
			AuthorityBaseURL: "http://aut.nkp.cz/",
			DocumentationURL: "https://github.com/mormegil-cz/nklink#readme",
			APIURL:           "https://github.com/mormegil-cz/nklink#api",
			SourceURL:        "https://github.com/mormegil-cz/nklink",
			FaviconURL:       "https://www.wikidata.org/static/favicon/wikidata.ico",
		},
	}
}

// Load builds the configuration. A missing file at path is not an error;
// an empty path skips the file entirely.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s fails %q", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// envBinding maps one environment variable onto a field.
type envBinding struct {
	name string
	set  func(cfg *Config, value string) error
}

var envBindings = []envBinding{
	{"NKLINK_ADDR", setString(func(c *Config) *string { return &c.Server.Addr })},
	{"NKLINK_ALLOWED_ORIGINS", setList(func(c *Config) *[]string { return &c.Server.AllowedOrigins })},
	{"NKLINK_LOG_LEVEL", setString(func(c *Config) *string { return &c.Log.Level })},
	{"NKLINK_LOG_FORMAT", setString(func(c *Config) *string { return &c.Log.Format })},
	{"NKLINK_CACHE_BACKEND", setString(func(c *Config) *string { return &c.Cache.Backend })},
	{"NKLINK_CACHE_KEY_PREFIX", setString(func(c *Config) *string { return &c.Cache.KeyPrefix })},
	{"NKLINK_CACHE_TTL", setDuration(func(c *Config) *Duration { return &c.Cache.TTL })},
	{"NKLINK_CACHE_EMPTY_TTL", setDuration(func(c *Config) *Duration { return &c.Cache.EmptyTTL })},
	{"NKLINK_REDIS_URL", setString(func(c *Config) *string { return &c.Cache.RedisURL })},
	{"NKLINK_BADGER_PATH", setString(func(c *Config) *string { return &c.Cache.BadgerPath })},
	{"NKLINK_UPSTREAM_ENDPOINT", setString(func(c *Config) *string { return &c.Upstream.Endpoint })},
	{"NKLINK_UPSTREAM_TIMEOUT", setDuration(func(c *Config) *Duration { return &c.Upstream.Timeout })},
	{"NKLINK_UPSTREAM_USER_AGENT", setString(func(c *Config) *string { return &c.Upstream.UserAgent })},
	{"NKLINK_UPSTREAM_FROM", setString(func(c *Config) *string { return &c.Upstream.From })},
	{"NKLINK_UPSTREAM_LANGUAGES", setList(func(c *Config) *[]string { return &c.Upstream.Languages })},
	{"NKLINK_AUTHORITY_BASE_URL", setString(func(c *Config) *string { return &c.Client.AuthorityBaseURL })},
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	for _, b := range envBindings {
		value, ok := lookup(b.name)
		if !ok {
			continue
		}
		if err := b.set(cfg, value); err != nil {
			return fmt.Errorf("%s: %w", b.name, err)
		}
	}
	return nil
}

func setString(field func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*field(c) = strings.TrimSpace(v)
		return nil
	}
}

func setList(field func(*Config) *[]string) func(*Config, string) error {
	return func(c *Config, v string) error {
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		*field(c) = out
		return nil
	}
}

func setDuration(field func(*Config) *Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		return field(c).UnmarshalText([]byte(strings.TrimSpace(v)))
	}
}
