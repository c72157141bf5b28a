// Package models - Service configuration and operational settings.
//
// Configuration Philosophy:
// - Hierarchical configuration with logical grouping (server, store, policy, ...)
// - Environment-friendly defaults that work out of the box
// - Comprehensive validation to catch misconfigurations early
// - The policy tables (tiers, overrides) are loaded once at process start and
//   treated as immutable afterwards; limit changes are a config reload, never
//   a data-plane operation
package models

import (
	"errors"
	"fmt"
	"time"
)

// Counter store backend types.
const (
	StoreTypeMemory = "memory"
	StoreTypeRedis  = "redis"
)

// Decision stats backend types.
const (
	StatsTypeMemory   = "memory"
	StatsTypeSQLite   = "sqlite"
	StatsTypePostgres = "postgres"
)

// Gate failure modes for counter store outages.
const (
	FailureModeClosed = "closed"
	FailureModeOpen   = "open"
)

// Config is the root configuration structure containing all service settings.
type Config struct {
	Server        ServerConfig        `yaml:"server" json:"server"`               // HTTP server configuration
	Store         StoreConfig         `yaml:"store" json:"store"`                 // Shared counter store
	Policy        PolicyConfig        `yaml:"policy" json:"policy"`               // Tiers, overrides, failure mode
	Stats         StatsConfig         `yaml:"stats" json:"stats"`                 // Decision audit sink
	Logging       LoggingConfig       `yaml:"logging" json:"logging"`             // Logging and output configuration
	Metrics       MetricsConfig       `yaml:"metrics" json:"metrics"`             // Monitoring and metrics
	Observability ObservabilityConfig `yaml:"observability" json:"observability"` // Tracing and service identity
}

type ServerConfig struct {
	Port         int           `yaml:"port" json:"port"`
	Host         string        `yaml:"host" json:"host"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	TLSEnabled   bool          `yaml:"tls_enabled" json:"tls_enabled"`
	TLSCertFile  string        `yaml:"tls_cert_file" json:"tls_cert_file"`
	TLSKeyFile   string        `yaml:"tls_key_file" json:"tls_key_file"`
}

// StoreConfig selects and configures the shared counter store. The redis
// backend is the production choice: limits are enforced consistently across
// every gate instance pointing at the same server. The memory backend keeps
// the same semantics within a single process.
type StoreConfig struct {
	Type string `yaml:"type" json:"type"`

	// OpTimeout bounds a single store round trip. Keep it well below the
	// server's request timeouts so a slow store cannot stall every
	// protected request.
	OpTimeout time.Duration `yaml:"op_timeout" json:"op_timeout"`

	Redis RedisConfig `yaml:"redis" json:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
	PoolSize int    `yaml:"pool_size" json:"pool_size"`
}

// TierLimit is one (request limit, window) pair as it appears in config.
type TierLimit struct {
	Requests int           `yaml:"requests" json:"requests"`
	Window   time.Duration `yaml:"window" json:"window"`
}

// PolicyConfig holds the static tier table and per-route overrides.
type PolicyConfig struct {
	// DefaultTier is assigned to requests whose identity carries no tier.
	DefaultTier string `yaml:"default_tier" json:"default_tier"`

	// FailureMode is "closed" (reject when the store is unreachable) or
	// "open" (admit with best-effort headers). Closed is the default.
	FailureMode string `yaml:"failure_mode" json:"failure_mode"`

	// Tiers maps tier names to their default limits.
	Tiers map[string]TierLimit `yaml:"tiers" json:"tiers"`

	// Overrides maps a route to a limit that replaces the tier default
	// entirely for that route.
	Overrides map[string]TierLimit `yaml:"overrides" json:"overrides"`
}

// StatsConfig configures the best-effort decision audit sink.
type StatsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Type    string `yaml:"type" json:"type"`
	DSN     string `yaml:"dsn" json:"dsn"`

	// MaxEntries caps the memory backend's ring buffer.
	MaxEntries int `yaml:"max_entries" json:"max_entries"`
}

type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	Format   string `yaml:"format" json:"format"`
	Output   string `yaml:"output" json:"output"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
	Port    int    `yaml:"port" json:"port"`
}

type ObservabilityConfig struct {
	ServiceName string        `yaml:"service_name" json:"service_name"`
	Tracing     TracingConfig `yaml:"tracing" json:"tracing"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Exporter     string  `yaml:"exporter" json:"exporter"` // "stdout" or "otlp"
	OTLPEndpoint string  `yaml:"otlp_endpoint" json:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate" json:"sample_rate"`
}

// NewDefaultConfig creates a configuration with production-ready defaults.
//
// Default Values Rationale:
// - Port 8080: standard non-privileged HTTP port
// - Memory store: works out of the box; deployments sharing limits across
//   instances switch to redis
// - 500ms store op timeout: generous for a healthy Redis, short enough that
//   a sick one degrades checks instead of stalling them
// - Fail-closed: an unenforced limit is a silent outage of the one guarantee
//   this service exists to provide
// - Four tiers matching common pricing plans; callers override per deployment
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
			TLSEnabled:   false,
		},
		Store: StoreConfig{
			Type:      StoreTypeMemory,
			OpTimeout: 500 * time.Millisecond,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				DB:       0,
				PoolSize: 10,
			},
		},
		Policy: PolicyConfig{
			DefaultTier: "free",
			FailureMode: FailureModeClosed,
			Tiers: map[string]TierLimit{
				"free":       {Requests: 60, Window: time.Minute},
				"starter":    {Requests: 300, Window: time.Minute},
				"pro":        {Requests: 1000, Window: time.Minute},
				"enterprise": {Requests: 5000, Window: time.Minute},
			},
			Overrides: map[string]TierLimit{},
		},
		Stats: StatsConfig{
			Enabled:    true,
			Type:       StatsTypeMemory,
			MaxEntries: 1024,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
			Port:    9090,
		},
		Observability: ObservabilityConfig{
			ServiceName: "limitgate",
			Tracing: TracingConfig{
				Enabled:      false,
				Exporter:     "stdout",
				OTLPEndpoint: "localhost:4317",
				SampleRate:   1.0,
			},
		},
	}
}

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}

	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("invalid store config: %w", err)
	}

	if err := c.Policy.Validate(); err != nil {
		return fmt.Errorf("invalid policy config: %w", err)
	}

	if err := c.Stats.Validate(); err != nil {
		return fmt.Errorf("invalid stats config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("invalid metrics config: %w", err)
	}

	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("invalid observability config: %w", err)
	}

	return nil
}

func (sc *ServerConfig) Validate() error {
	if sc.Port <= 0 || sc.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}

	if sc.Host == "" {
		return errors.New("host cannot be empty")
	}

	if sc.ReadTimeout < 0 {
		return errors.New("read timeout cannot be negative")
	}

	if sc.WriteTimeout < 0 {
		return errors.New("write timeout cannot be negative")
	}

	if sc.IdleTimeout < 0 {
		return errors.New("idle timeout cannot be negative")
	}

	if sc.TLSEnabled {
		if sc.TLSCertFile == "" {
			return errors.New("TLS cert file is required when TLS is enabled")
		}
		if sc.TLSKeyFile == "" {
			return errors.New("TLS key file is required when TLS is enabled")
		}
	}

	return nil
}

func (stc *StoreConfig) Validate() error {
	switch stc.Type {
	case StoreTypeMemory:
		// No additional configuration required.
	case StoreTypeRedis:
		if stc.Redis.Addr == "" {
			return errors.New("redis address is required for redis store")
		}
		if stc.Redis.DB < 0 {
			return errors.New("redis db cannot be negative")
		}
	default:
		return fmt.Errorf("invalid store type: %s", stc.Type)
	}

	if stc.OpTimeout <= 0 {
		return errors.New("store op timeout must be positive")
	}

	return nil
}

func (pc *PolicyConfig) Validate() error {
	if len(pc.Tiers) == 0 {
		return errors.New("at least one tier is required")
	}

	if pc.DefaultTier == "" {
		return errors.New("default tier cannot be empty")
	}

	if _, ok := pc.Tiers[pc.DefaultTier]; !ok {
		return fmt.Errorf("default tier %q is not defined in tiers", pc.DefaultTier)
	}

	if pc.FailureMode != FailureModeClosed && pc.FailureMode != FailureModeOpen {
		return fmt.Errorf("failure mode must be %q or %q", FailureModeClosed, FailureModeOpen)
	}

	for name, tl := range pc.Tiers {
		if tl.Requests <= 0 {
			return fmt.Errorf("tier %q: requests must be positive", name)
		}
		if tl.Window <= 0 {
			return fmt.Errorf("tier %q: window must be positive", name)
		}
	}

	for route, tl := range pc.Overrides {
		if route == "" {
			return errors.New("override route cannot be empty")
		}
		if tl.Requests <= 0 {
			return fmt.Errorf("override %q: requests must be positive", route)
		}
		if tl.Window <= 0 {
			return fmt.Errorf("override %q: window must be positive", route)
		}
	}

	return nil
}

func (sc *StatsConfig) Validate() error {
	if !sc.Enabled {
		return nil
	}

	switch sc.Type {
	case StatsTypeMemory:
		if sc.MaxEntries < 0 {
			return errors.New("max entries cannot be negative")
		}
	case StatsTypeSQLite, StatsTypePostgres:
		if sc.DSN == "" {
			return fmt.Errorf("dsn is required for %s stats", sc.Type)
		}
	default:
		return fmt.Errorf("invalid stats type: %s", sc.Type)
	}

	return nil
}

func (lc *LoggingConfig) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[lc.Level] {
		return fmt.Errorf("invalid log level: %s", lc.Level)
	}

	if lc.Format != "json" && lc.Format != "text" {
		return fmt.Errorf("invalid log format: %s", lc.Format)
	}

	validOutputs := map[string]bool{"stdout": true, "stderr": true, "file": true}
	if !validOutputs[lc.Output] {
		return fmt.Errorf("invalid log output: %s", lc.Output)
	}

	if lc.Output == "file" && lc.FilePath == "" {
		return errors.New("file path is required when output is file")
	}

	return nil
}

func (mc *MetricsConfig) Validate() error {
	if !mc.Enabled {
		return nil
	}

	if mc.Port <= 0 || mc.Port > 65535 {
		return errors.New("metrics port must be between 1 and 65535")
	}

	if mc.Path == "" {
		return errors.New("metrics path cannot be empty")
	}

	return nil
}

func (oc *ObservabilityConfig) Validate() error {
	if oc.ServiceName == "" {
		return errors.New("service name cannot be empty")
	}

	if oc.Tracing.Enabled {
		if oc.Tracing.Exporter != "stdout" && oc.Tracing.Exporter != "otlp" {
			return fmt.Errorf("invalid trace exporter: %s", oc.Tracing.Exporter)
		}
		if oc.Tracing.Exporter == "otlp" && oc.Tracing.OTLPEndpoint == "" {
			return errors.New("otlp endpoint is required for otlp exporter")
		}
		if oc.Tracing.SampleRate < 0 || oc.Tracing.SampleRate > 1 {
			return errors.New("sample rate must be between 0 and 1")
		}
	}

	return nil
}
