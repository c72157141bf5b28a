// Package config loads service configuration from a YAML file and the
// environment. File values override defaults, environment variables override
// the file, and the merged result is validated before the service starts.
// The policy tables loaded here are handed to the limiter once and never
// mutated afterwards.
package config

import (
	"fmt"
	"limitgate/internal/models"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from file and environment variables.
func Load(configPath string) (*models.Config, error) {
	// Start with default configuration
	config := models.NewDefaultConfig()

	// Load from file if provided and exists
	if configPath != "" {
		if err := loadFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Override with environment variables
	loadFromEnvironment(config)

	// Validate the final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(config *models.Config, filePath string) error {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", filePath)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return nil
}

// loadFromEnvironment loads configuration from environment variables.
// Only scalar settings are overridable here; the tier and override tables
// are file-only because flattening maps into env vars invites typos that
// validation cannot catch.
func loadFromEnvironment(config *models.Config) {
	// Server configuration
	if port := os.Getenv("LIMITGATE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if host := os.Getenv("LIMITGATE_HOST"); host != "" {
		config.Server.Host = host
	}

	if timeout := os.Getenv("LIMITGATE_READ_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.ReadTimeout = d
		}
	}

	if timeout := os.Getenv("LIMITGATE_WRITE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.WriteTimeout = d
		}
	}

	if timeout := os.Getenv("LIMITGATE_IDLE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.IdleTimeout = d
		}
	}

	if tls := os.Getenv("LIMITGATE_TLS_ENABLED"); tls != "" {
		config.Server.TLSEnabled = strings.ToLower(tls) == "true"
	}

	if certFile := os.Getenv("LIMITGATE_TLS_CERT_FILE"); certFile != "" {
		config.Server.TLSCertFile = certFile
	}

	if keyFile := os.Getenv("LIMITGATE_TLS_KEY_FILE"); keyFile != "" {
		config.Server.TLSKeyFile = keyFile
	}

	// Counter store configuration
	if storeType := os.Getenv("LIMITGATE_STORE_TYPE"); storeType != "" {
		config.Store.Type = storeType
	}

	if opTimeout := os.Getenv("LIMITGATE_STORE_OP_TIMEOUT"); opTimeout != "" {
		if d, err := time.ParseDuration(opTimeout); err == nil {
			config.Store.OpTimeout = d
		}
	}

	if addr := os.Getenv("LIMITGATE_REDIS_ADDR"); addr != "" {
		config.Store.Redis.Addr = addr
	}

	if password := os.Getenv("LIMITGATE_REDIS_PASSWORD"); password != "" {
		config.Store.Redis.Password = password
	}

	if db := os.Getenv("LIMITGATE_REDIS_DB"); db != "" {
		if dbNum, err := strconv.Atoi(db); err == nil {
			config.Store.Redis.DB = dbNum
		}
	}

	if poolSize := os.Getenv("LIMITGATE_REDIS_POOL_SIZE"); poolSize != "" {
		if size, err := strconv.Atoi(poolSize); err == nil {
			config.Store.Redis.PoolSize = size
		}
	}

	// Policy configuration
	if tier := os.Getenv("LIMITGATE_DEFAULT_TIER"); tier != "" {
		config.Policy.DefaultTier = tier
	}

	if mode := os.Getenv("LIMITGATE_FAILURE_MODE"); mode != "" {
		config.Policy.FailureMode = strings.ToLower(mode)
	}

	// Stats configuration
	if stats := os.Getenv("LIMITGATE_STATS_ENABLED"); stats != "" {
		config.Stats.Enabled = strings.ToLower(stats) == "true"
	}

	if statsType := os.Getenv("LIMITGATE_STATS_TYPE"); statsType != "" {
		config.Stats.Type = statsType
	}

	if dsn := os.Getenv("LIMITGATE_STATS_DSN"); dsn != "" {
		config.Stats.DSN = dsn
	}

	if maxEntries := os.Getenv("LIMITGATE_STATS_MAX_ENTRIES"); maxEntries != "" {
		if n, err := strconv.Atoi(maxEntries); err == nil {
			config.Stats.MaxEntries = n
		}
	}

	// Logging configuration
	if level := os.Getenv("LIMITGATE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if format := os.Getenv("LIMITGATE_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}

	if output := os.Getenv("LIMITGATE_LOG_OUTPUT"); output != "" {
		config.Logging.Output = output
	}

	if filePath := os.Getenv("LIMITGATE_LOG_FILE_PATH"); filePath != "" {
		config.Logging.FilePath = filePath
	}

	// Metrics configuration
	if metrics := os.Getenv("LIMITGATE_METRICS_ENABLED"); metrics != "" {
		config.Metrics.Enabled = strings.ToLower(metrics) == "true"
	}

	if path := os.Getenv("LIMITGATE_METRICS_PATH"); path != "" {
		config.Metrics.Path = path
	}

	if port := os.Getenv("LIMITGATE_METRICS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Metrics.Port = p
		}
	}

	// Observability configuration
	if name := os.Getenv("LIMITGATE_SERVICE_NAME"); name != "" {
		config.Observability.ServiceName = name
	}

	if tracing := os.Getenv("LIMITGATE_TRACING_ENABLED"); tracing != "" {
		config.Observability.Tracing.Enabled = strings.ToLower(tracing) == "true"
	}

	if exporter := os.Getenv("LIMITGATE_TRACE_EXPORTER"); exporter != "" {
		config.Observability.Tracing.Exporter = exporter
	}

	if endpoint := os.Getenv("LIMITGATE_OTLP_ENDPOINT"); endpoint != "" {
		config.Observability.Tracing.OTLPEndpoint = endpoint
	}

	if rate := os.Getenv("LIMITGATE_TRACE_SAMPLE_RATE"); rate != "" {
		if r, err := strconv.ParseFloat(rate, 64); err == nil {
			config.Observability.Tracing.SampleRate = r
		}
	}
}

// SaveExample saves an example configuration file.
func SaveExample(filePath string) error {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Get default config with some example values
	config := models.NewDefaultConfig()

	// Point at a real Redis so the example is copy-paste usable for a
	// multi-instance deployment.
	config.Store.Type = models.StoreTypeRedis
	config.Store.Redis.Addr = "localhost:6379"

	// Example per-route override: brute-force protection on login.
	config.Policy.Overrides = map[string]models.TierLimit{
		"/api/v1/login": {Requests: 5, Window: 15 * time.Minute},
	}

	// Example TLS configuration
	config.Server.TLSEnabled = false
	config.Server.TLSCertFile = "/path/to/cert.pem"
	config.Server.TLSKeyFile = "/path/to/key.pem"

	// Marshal to YAML
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// Write to file
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
