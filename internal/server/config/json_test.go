package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_LoadsValues(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, map[string]any{
		"endpoint_addr_http": "localhost:9000",
		"data_dir":           "/tmp/authkeeper",
		"database_dsn":       "postgres://localhost/auth",
		"secret_key":         "my_secret_key",
		"admin_password":     "bootpass",
		"allowed_origin":     "https://app.example.com",
		"sweep_interval":     "5m",
	})

	os.Args = []string{"testbin", "-config", path}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	assert.Equal(t, "localhost:9000", cfg.EndpointAddrHTTP)
	assert.Equal(t, "/tmp/authkeeper", cfg.DataDir)
	assert.Equal(t, "postgres://localhost/auth", cfg.DatabaseDSN)
	assert.Equal(t, "my_secret_key", cfg.SecretKey)
	assert.Equal(t, "bootpass", cfg.AdminPassword)
	assert.Equal(t, "https://app.example.com", cfg.AllowedOrigin)
	assert.Equal(t, 5*time.Minute, cfg.SweepInterval)
}

func Test_parseJson_PartialFileKeepsDefaults(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, map[string]any{
		"endpoint_addr_http": "localhost:7000",
	})

	os.Args = []string{"testbin", "-c", path}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	assert.Equal(t, "localhost:7000", cfg.EndpointAddrHTTP)
	assert.Equal(t, "*", cfg.AllowedOrigin)
	assert.Equal(t, 15*time.Minute, cfg.SweepInterval)
}

func Test_parseJson_NoFlagLoadsNothing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"testbin"}

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)

	assert.Equal(t, ":8085", cfg.EndpointAddrHTTP)
}

func Test_parseJson_BadFilePanics(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{oops"), 0o600))

	os.Args = []string{"testbin", "-config", path}

	cfg := &Config{}
	cfg.LoadDefaults()
	assert.Panics(t, func() { parseJson(cfg) })
}
