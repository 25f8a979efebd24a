package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
simulation:
  sl_pct: 3.5
  hold_days: 10
`)
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "memory", c.Storage.Backend)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, 24, c.Training.MinTrainMonths)
	assert.Equal(t, 3.5, c.Simulation.StopLossPct)
}

func TestDefaultTrainingScaledToFixtureDepth(t *testing.T) {
	c := Default()

	// Fixtures cover one year of sessions; the production 24-month
	// warm-up would leave no usable folds.
	assert.Equal(t, "memory", c.Storage.Backend)
	assert.Less(t, c.Training.MinTrainMonths, 12)
	require.NoError(t, c.Training.Validate())
	require.NoError(t, c.Validate())
}

func TestLoadNormalizesTrailingRules(t *testing.T) {
	path := writeConfig(t, `
simulation:
  sl_pct: 3.5
  hold_days: 10
  trailing_rules:
    - gain_threshold_pct: 5
      new_stop_pct: 1
    - gain_threshold_pct: 10
      new_stop_pct: 5
`)
	c, err := Load(path)
	require.NoError(t, err)

	require.Len(t, c.Simulation.TrailingRules, 2)
	assert.Equal(t, 10.0, c.Simulation.TrailingRules[0].GainThresholdPct)
	assert.Equal(t, 5.0, c.Simulation.TrailingRules[1].GainThresholdPct)
}

func TestLoadRejectsBadSimulation(t *testing.T) {
	path := writeConfig(t, `
simulation:
  sl_pct: -1
  hold_days: 10
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadDBBackendRequiresDSNs(t *testing.T) {
	path := writeConfig(t, `
storage:
  backend: db
simulation:
  sl_pct: 3.5
  hold_days: 10
`)
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("CLICKHOUSE_DSN", "")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverridesDSN(t *testing.T) {
	path := writeConfig(t, `
storage:
  backend: db
  postgres_dsn: postgres://file/db
  clickhouse_dsn: clickhouse://file/db
simulation:
  sl_pct: 3.5
  hold_days: 10
`)
	t.Setenv("POSTGRES_DSN", "postgres://env/db")
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env/db", c.Storage.PostgresDSN)
	assert.Equal(t, "clickhouse://file/db", c.Storage.ClickhouseDSN)
}
