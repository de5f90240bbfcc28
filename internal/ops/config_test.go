package ops

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"ibgw/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, service.DefaultTimeouts(), cfg.Timeouts.Service())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `{
		"gateway": {"url": "ws://gw:9000/ws", "queue_size": 64},
		"timeouts": {"current_time": 250, "mkt_depth": 3000},
		"accounts": {"account": "DU1"},
		"journal": {"enabled": true, "database": "ibgw", "user": "trader"},
		"profiling": {"enabled": true, "tags": {"env": "test"}}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ws://gw:9000/ws", cfg.Gateway.URL)
	assert.Equal(t, 64, cfg.Gateway.QueueSize)
	assert.Equal(t, uint64(1), cfg.Gateway.FirstID)
	assert.Equal(t, "DU1", cfg.Accounts.Account)
	assert.Equal(t, "All", cfg.Accounts.Group)

	timeouts := cfg.Timeouts.Service()
	assert.Equal(t, 250*time.Millisecond, timeouts.CurrentTime)
	assert.Equal(t, 3*time.Second, timeouts.MktDepth)
	assert.Equal(t, 10*time.Second, timeouts.HistoricalData)

	assert.True(t, cfg.Journal.Enabled)
	opt := cfg.Journal.Option()
	assert.Equal(t, "ibgw", opt.Database)
	assert.Equal(t, "trader", opt.User)
	assert.Equal(t, 5432, opt.Port)

	assert.True(t, cfg.Profiling.Enabled)
	assert.Equal(t, map[string]string{"env": "test"}, cfg.Profiling.Tags)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("IBGW_GATEWAY_URL", "ws://env:1/ws")
	t.Setenv("IBGW_TIMEOUTS_POSITIONS", "0")
	t.Setenv("IBGW_JOURNAL_HOST", "db")

	path := writeConfig(t, `{"gateway": {"url": "ws://file:1/ws"}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ws://env:1/ws", cfg.Gateway.URL)
	assert.Equal(t, 0, cfg.Timeouts.Positions)
	assert.Equal(t, "db", cfg.Journal.Host)
}

func TestLoadInvalid(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, `{"gateway": {"queue_size": 0}}`))
	require.Error(t, err)

	_, err = Load(writeConfig(t, `{"chaos": {"enabled": true, "drop_rate": 1.5}}`))
	require.Error(t, err)

	_, err = Load(writeConfig(t, `{"timeouts": {"current_time": -1}}`))
	require.Error(t, err)

	_, err = Load(writeConfig(t, `{not json`))
	require.Error(t, err)
}

func TestLoadChaos(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{"chaos": {"enabled": true, "seed": 7, "duplicate_rate": 0.25, "reorder_window": 4}}`))
	require.NoError(t, err)
	assert.True(t, cfg.Chaos.Enabled)

	c := cfg.Chaos.Config()
	assert.Equal(t, int64(7), c.Seed)
	assert.Equal(t, 0.25, c.DuplicateRate)
	assert.Equal(t, 4, c.ReorderWindow)
	require.NoError(t, c.Validate())
}
