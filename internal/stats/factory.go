package stats

import (
	"fmt"
	"limitgate/internal/models"
)

// Factory provides a centralized way to create stats stores based on
// configuration. This allows for easy extensibility and backend swapping
// without code changes.
type Factory struct{}

// NewFactory creates a new stats store factory
func NewFactory() *Factory {
	return &Factory{}
}

// Create instantiates a stats backend based on the provided configuration.
// Supported backends:
//   - memory: in-process ring buffer (single instance, default)
//   - sqlite: SQLite database (durable single node)
//   - postgres: PostgreSQL database (shared across instances)
//
// When stats are disabled a NopStore is returned so callers never need a
// nil check.
func (f *Factory) Create(config models.StatsConfig) (Store, error) {
	if !config.Enabled {
		return NewNopStore(), nil
	}

	switch config.Type {
	case models.StatsTypeMemory:
		return NewMemoryStore(config.MaxEntries), nil
	case models.StatsTypeSQLite:
		return NewSQLiteStore(config.DSN)
	case models.StatsTypePostgres:
		return NewPostgresStore(config.DSN)
	default:
		return nil, fmt.Errorf("unsupported stats type: %s", config.Type)
	}
}

// GetSupportedBackends returns a list of all supported stats backend types
func (f *Factory) GetSupportedBackends() []string {
	return []string{models.StatsTypeMemory, models.StatsTypeSQLite, models.StatsTypePostgres}
}
