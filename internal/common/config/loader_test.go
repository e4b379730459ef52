package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
camunda:
  broker_address: localhost:26500
backend:
  base_url: http://localhost:8000/api/v1
database:
  redis:
    address: localhost:6379
workers:
  lock-university:
    enabled: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, StoreBackendRedis, cfg.Store.Backend)
	assert.Equal(t, DiscoverySourceAPI, cfg.Discovery.Source)
	assert.Equal(t, 60000.0, cfg.Discovery.DefaultBudget)
	assert.Equal(t, []string{"USA", "UK", "Canada", "Germany"}, cfg.Discovery.Regions)
	assert.Equal(t, 30000, cfg.Backend.Timeout)
	assert.Equal(t, 5, cfg.Workers["lock-university"].MaxJobsActive)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("TEST_BACKEND_URL", "https://api.example.test")
	path := writeConfig(t, `
camunda:
  broker_address: localhost:26500
backend:
  base_url: ${TEST_BACKEND_URL}
store:
  backend: memory
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.test", cfg.Backend.BaseURL)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing broker",
			body:    "backend:\n  base_url: http://x\nstore:\n  backend: memory\n",
			wantErr: "camunda.broker_address",
		},
		{
			name:    "missing backend url",
			body:    "camunda:\n  broker_address: b:1\nstore:\n  backend: memory\n",
			wantErr: "backend.base_url",
		},
		{
			name:    "unknown store",
			body:    "camunda:\n  broker_address: b:1\nbackend:\n  base_url: http://x\nstore:\n  backend: sqlite\n",
			wantErr: "store.backend",
		},
		{
			name:    "postgres store without host",
			body:    "camunda:\n  broker_address: b:1\nbackend:\n  base_url: http://x\nstore:\n  backend: postgres\n",
			wantErr: "postgres",
		},
		{
			name: "elasticsearch source without address",
			body: "camunda:\n  broker_address: b:1\nbackend:\n  base_url: http://x\nstore:\n  backend: memory\n" +
				"discovery:\n  source: elasticsearch\n",
			wantErr: "elasticsearch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetWorkerConfig_DefaultsWhenMissing(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{
		"update-profile": {Enabled: false, MaxJobsActive: 2, Timeout: 1000},
	}}

	assert.False(t, IsWorkerEnabled(cfg, "update-profile"))
	assert.True(t, IsWorkerEnabled(cfg, "filter-universities"))
	assert.Equal(t, 5, GetWorkerConfig(cfg, "filter-universities").MaxJobsActive)
}
