package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"manaforge/internal/config"
	"manaforge/internal/persist"
)

func TestLoadConfig_MissingFileFallsBackToDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", t.TempDir()+"/absent.yml")
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", t.TempDir()+"/absent.yml")
	t.Setenv("ADDR", ":1234")
	t.Setenv("DB_DIALECT", "memory")
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":1234", cfg.Server.Addr)
	assert.Equal(t, "memory", cfg.Database.Dialect)
}

func TestOpenService_Memory(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Dialect = "memory"
	svc, err := openService(cfg)
	require.NoError(t, err)
	defer svc.Close()
	_, ok := svc.(*persist.MemoryService)
	assert.True(t, ok)
}

func TestOpenService_SQLiteInTempDir(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Dialect = "sqlite"
	cfg.Database.SQLitePath = t.TempDir() + "/game.sqlite"
	svc, err := openService(cfg)
	require.NoError(t, err)
	defer svc.Close()
	_, ok := svc.(*persist.SQLService)
	assert.True(t, ok)
}
