// Package config loads the emulator's runtime configuration once per process.
package config

import (
	"strconv"
	"sync"

	"github.com/caarlos0/env/v6"
)

// OnUnimplemented controls what the stubbed RPCs do when invoked.
type OnUnimplemented string

const (
	OnUnimplementedWarn  OnUnimplemented = "warn"
	OnUnimplementedThrow OnUnimplemented = "throw"
)

// LogsConfig groups the logging-related knobs.
type LogsConfig struct {
	VerboseGRPCLogs bool            `env:"LOGS_VERBOSE_GRPC_LOGS" envDefault:"false"`
	OnUnimplemented OnUnimplemented `env:"LOGS_ON_UNIMPLEMENTED" envDefault:"warn"`
}

// AuthConfig groups the Identity Toolkit collaborator's bind settings.
type AuthConfig struct {
	Port int    `env:"AUTH_PORT" envDefault:"9099"`
	Host string `env:"AUTH_HOST" envDefault:"localhost"`
}

// RedisConfig is the optional distributed backing described in spec.md §6:
// when URL is empty (the default), the document-change event bus and the
// Identity Toolkit token revocation cache both fall back to in-process,
// single-instance implementations.
type RedisConfig struct {
	URL string `env:"REDIS_URL" envDefault:""`
}

// Enabled reports whether a Redis backend was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != ""
}

// Config is the single immutable runtime configuration object described in
// spec.md §6. It is initialized at most once; Init, if called before the
// first Get, wins, otherwise Get lazily loads from the environment.
type Config struct {
	Port      int    `env:"PORT" envDefault:"3333"`
	Host      string `env:"HOST" envDefault:"localhost"`
	ProjectID string `env:"PROJECT_ID" envDefault:"demo-project"`

	Logs  LogsConfig
	Auth  AuthConfig
	Redis RedisConfig
}

var (
	once     sync.Once
	instance *Config
)

// Init seeds the process-wide Config explicitly. It must be called before
// the first Get call to have any effect; subsequent calls (and calls after
// Get has already lazily initialized the singleton) are no-ops.
func Init(cfg *Config) {
	once.Do(func() {
		instance = cfg
	})
}

// Get returns the process-wide Config, loading it from the environment on
// first access if Init was never called.
func Get() *Config {
	once.Do(func() {
		instance = load()
	})
	return instance
}

func load() *Config {
	cfg := &Config{}
	// Defaults come from the envDefault tags on Config and apply even when
	// the corresponding variable is unset; parse errors fall back to defaults
	// rather than failing process startup, since every field has one.
	_ = env.Parse(cfg)
	if cfg.Logs.OnUnimplemented != OnUnimplementedWarn && cfg.Logs.OnUnimplemented != OnUnimplementedThrow {
		cfg.Logs.OnUnimplemented = OnUnimplementedWarn
	}
	return cfg
}

// BindAddress returns the address the Firestore gRPC listener should bind.
// "localhost" is special-cased to "[::]" so the server accepts both IPv4
// and IPv6 clients on the same port (spec.md §6).
func (c *Config) BindAddress() string {
	if c.Host == "localhost" {
		return "[::]"
	}
	return c.Host
}

// ListenAddr returns the full "host:port" string for net.Listen.
func (c *Config) ListenAddr() string {
	return c.BindAddress() + ":" + strconv.Itoa(c.Port)
}

// AuthListenAddr returns the full "host:port" string for the Identity
// Toolkit HTTP listener.
func (c *Config) AuthListenAddr() string {
	host := c.Auth.Host
	if host == "localhost" {
		host = "[::]"
	}
	return host + ":" + strconv.Itoa(c.Auth.Port)
}
