package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Asia/Tokyo", cfg.Inventory.Timezone)
	assert.Equal(t, 10, cfg.Inventory.RecentLimit)
	assert.Equal(t, StorageDriverPostgres, cfg.App.StorageDriver)
	assert.True(t, cfg.DB.AutoMigrate)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("INVENTORY_TIMEZONE", "America/Bogota")
	t.Setenv("STORAGE_DRIVER", "MEMORY")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("RECENT_MOVEMENTS_LIMIT", "25")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "America/Bogota", cfg.Inventory.Timezone)
	assert.Equal(t, StorageDriverMemory, cfg.App.StorageDriver)
	assert.Equal(t, "0.0.0.0:9090", cfg.HTTP.Addr())
	assert.Equal(t, 25, cfg.Inventory.RecentLimit)
}

func TestLoad_DriverDesconocido(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")

	_, err := Load()
	assert.Error(t, err)
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss/word", DBName: "stock", SSLMode: "disable"}

	assert.Equal(t, "postgres://app:p%40ss%2Fword@db:5432/stock?sslmode=disable", c.DSN())
	assert.Equal(t, c.DSN(), c.ConnectionString())

	c.DatabaseURL = "postgres://x@y/z"
	assert.Equal(t, "postgres://x@y/z", c.ConnectionString())
}
