package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, StoreTypeMemory, cfg.Store.Type)
	assert.Equal(t, FailureModeClosed, cfg.Policy.FailureMode)
	assert.Equal(t, "free", cfg.Policy.DefaultTier)
	assert.Contains(t, cfg.Policy.Tiers, "free")
	assert.Contains(t, cfg.Policy.Tiers, "enterprise")
	assert.True(t, cfg.Stats.Enabled)
	assert.Equal(t, 500*time.Millisecond, cfg.Store.OpTimeout)
}

func TestServerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*ServerConfig)
		wantErr string
	}{
		{"valid", func(sc *ServerConfig) {}, ""},
		{"zero port", func(sc *ServerConfig) { sc.Port = 0 }, "port"},
		{"port too high", func(sc *ServerConfig) { sc.Port = 70000 }, "port"},
		{"empty host", func(sc *ServerConfig) { sc.Host = "" }, "host"},
		{"negative read timeout", func(sc *ServerConfig) { sc.ReadTimeout = -time.Second }, "read timeout"},
		{"tls without cert", func(sc *ServerConfig) { sc.TLSEnabled = true }, "cert"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.modify(&cfg.Server)
			err := cfg.Server.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, strings.Contains(err.Error(), tt.wantErr), "error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestStoreConfig_Validate(t *testing.T) {
	cfg := NewDefaultConfig()

	cfg.Store.Type = "etcd"
	assert.Error(t, cfg.Store.Validate())

	cfg.Store.Type = StoreTypeRedis
	cfg.Store.Redis.Addr = ""
	assert.Error(t, cfg.Store.Validate())

	cfg.Store.Redis.Addr = "localhost:6379"
	assert.NoError(t, cfg.Store.Validate())

	cfg.Store.OpTimeout = 0
	assert.Error(t, cfg.Store.Validate())
}

func TestPolicyConfig_Validate(t *testing.T) {
	t.Run("no tiers", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Policy.Tiers = nil
		assert.Error(t, cfg.Policy.Validate())
	})

	t.Run("default tier not defined", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Policy.DefaultTier = "platinum"
		assert.Error(t, cfg.Policy.Validate())
	})

	t.Run("bad failure mode", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Policy.FailureMode = "maybe"
		assert.Error(t, cfg.Policy.Validate())
	})

	t.Run("non-positive tier limit", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Policy.Tiers["free"] = TierLimit{Requests: 0, Window: time.Minute}
		assert.Error(t, cfg.Policy.Validate())
	})

	t.Run("non-positive override window", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Policy.Overrides["/login"] = TierLimit{Requests: 1, Window: 0}
		assert.Error(t, cfg.Policy.Validate())
	})

	t.Run("open mode is accepted", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Policy.FailureMode = FailureModeOpen
		assert.NoError(t, cfg.Policy.Validate())
	})
}

func TestStatsConfig_Validate(t *testing.T) {
	cfg := NewDefaultConfig()

	cfg.Stats.Type = "mongodb"
	assert.Error(t, cfg.Stats.Validate())

	// Disabled stats skip backend validation entirely.
	cfg.Stats.Enabled = false
	assert.NoError(t, cfg.Stats.Validate())

	cfg.Stats.Enabled = true
	cfg.Stats.Type = StatsTypeSQLite
	cfg.Stats.DSN = ""
	assert.Error(t, cfg.Stats.Validate())

	cfg.Stats.DSN = "file:decisions.db"
	assert.NoError(t, cfg.Stats.Validate())
}

func TestLoggingConfig_Validate(t *testing.T) {
	cfg := NewDefaultConfig()

	cfg.Logging.Level = "verbose"
	assert.Error(t, cfg.Logging.Validate())

	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "xml"
	assert.Error(t, cfg.Logging.Validate())

	cfg.Logging.Format = "text"
	cfg.Logging.Output = "file"
	assert.Error(t, cfg.Logging.Validate())

	cfg.Logging.FilePath = "/var/log/limitgate.log"
	assert.NoError(t, cfg.Logging.Validate())
}

func TestObservabilityConfig_Validate(t *testing.T) {
	cfg := NewDefaultConfig()

	cfg.Observability.Tracing.Enabled = true
	cfg.Observability.Tracing.Exporter = "jaeger"
	assert.Error(t, cfg.Observability.Validate())

	cfg.Observability.Tracing.Exporter = "otlp"
	cfg.Observability.Tracing.OTLPEndpoint = ""
	assert.Error(t, cfg.Observability.Validate())

	cfg.Observability.Tracing.OTLPEndpoint = "collector:4317"
	cfg.Observability.Tracing.SampleRate = 1.5
	assert.Error(t, cfg.Observability.Validate())

	cfg.Observability.Tracing.SampleRate = 0.25
	assert.NoError(t, cfg.Observability.Validate())
}
