package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	t.Setenv("GAME_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
simulation:
  tick_rate: 30
  spawner:
    max_zombies: 3
cache:
  enabled: true
  ttl_seconds: 5
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Simulation.TickRate)
	assert.Equal(t, 3, cfg.Simulation.Spawner.MaxZombies)
	assert.Equal(t, 2, cfg.Simulation.Spawner.Batch, "Незаданные поля берутся из значений по умолчанию")
	assert.Equal(t, "testing", cfg.Simulation.Map)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 5*time.Second, cfg.Cache.TTL())
	assert.Equal(t, time.Second/30, cfg.Simulation.TickInterval())
}

func TestLoad_FromEnv(t *testing.T) {
	path := writeConfig(t, "simulation:\n  map: arena\n")
	t.Setenv("GAME_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "arena", cfg.Simulation.Map)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "simulation: [broken"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "simulation:\n  tick_rate: 0\n  map: ''\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tick_rate")
	assert.Contains(t, err.Error(), "simulation.map")
}

func TestServerConfig_PortFallback(t *testing.T) {
	s := ServerConfig{RESTPort: 9000}
	assert.Equal(t, 9000, s.GetRESTPort())

	t.Setenv("GAME_WS_PORT", "7001")
	assert.Equal(t, 7001, s.GetWSPort())

	t.Setenv("GAME_WS_PORT", "oops")
	assert.Equal(t, 7777, s.GetWSPort())
}

func TestDurations(t *testing.T) {
	assert.Equal(t, 48*time.Hour, EventBusConfig{Retention: 48}.RetentionDuration())
	assert.Equal(t, time.Second/20, SimulationConfig{}.TickInterval())
}
