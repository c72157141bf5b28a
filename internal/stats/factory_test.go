package stats

import (
	"context"
	"path/filepath"
	"testing"

	"limitgate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactory_CreateMemory(t *testing.T) {
	factory := NewFactory()

	store, err := factory.Create(models.StatsConfig{
		Enabled:    true,
		Type:       models.StatsTypeMemory,
		MaxEntries: 16,
	})
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &MemoryStore{}, store)
}

func TestFactory_CreateSQLite(t *testing.T) {
	factory := NewFactory()

	store, err := factory.Create(models.StatsConfig{
		Enabled: true,
		Type:    models.StatsTypeSQLite,
		DSN:     filepath.Join(t.TempDir(), "stats.db"),
	})
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &SQLiteStore{}, store)
}

func TestFactory_CreateDisabled(t *testing.T) {
	factory := NewFactory()

	store, err := factory.Create(models.StatsConfig{Enabled: false})
	require.NoError(t, err)

	assert.IsType(t, &NopStore{}, store)
	assert.NoError(t, store.RecordDecision(context.Background(), Event{}))
	events, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestFactory_CreateUnsupported(t *testing.T) {
	factory := NewFactory()

	_, err := factory.Create(models.StatsConfig{Enabled: true, Type: "mongodb"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported stats type")
}

func TestFactory_GetSupportedBackends(t *testing.T) {
	factory := NewFactory()

	backends := factory.GetSupportedBackends()
	assert.Contains(t, backends, models.StatsTypeMemory)
	assert.Contains(t, backends, models.StatsTypeSQLite)
	assert.Contains(t, backends, models.StatsTypePostgres)
}
