package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))

	require.NoError(t, err)
	assert.Equal(t, DefaultAppConfig(), cfg)
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend:
  kind: rest
  base_url: https://portal.example.com
checkin:
  follow_up_after: 30m
  categories: [pendingMaintenance, sentInvoices]
`), 0o644))

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, "https://portal.example.com", cfg.Backend.BaseURL)
	assert.Equal(t, 30*time.Minute, cfg.CheckIn.FollowUpAfter)
	assert.Equal(t, 45*time.Minute, cfg.CheckIn.SuppressFor)
	assert.Equal(t, 200, cfg.Backend.PageSize)
	assert.True(t, cfg.CheckIn.ClearOnResolve)
	assert.Equal(t, []string{"pendingMaintenance", "sentInvoices"}, cfg.CheckIn.Categories)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: [unclosed"), 0o644))

	_, err := LoadConfig(path)

	assert.Error(t, err)
}

func TestSaveConfig_RoundTripWithoutSecrets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultAppConfig()
	cfg.Backend.BaseURL = "https://portal.example.com"
	cfg.Backend.Token = "top-secret"
	cfg.State.RedisPassword = "hunter2"
	cfg.CheckIn.FollowUpAfter = 20 * time.Minute

	require.NoError(t, SaveConfig(path, cfg))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "top-secret")
	assert.NotContains(t, string(raw), "hunter2")

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Backend.BaseURL, loaded.Backend.BaseURL)
	assert.Equal(t, 20*time.Minute, loaded.CheckIn.FollowUpAfter)
	assert.Empty(t, loaded.Backend.Token)
}

func TestValidate(t *testing.T) {
	valid := func() *AppConfig {
		cfg := DefaultAppConfig()
		cfg.Backend.BaseURL = "https://portal.example.com"
		return cfg
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*AppConfig)
		want   string
	}{
		{"rest needs url", func(c *AppConfig) { c.Backend.BaseURL = "" }, "backend.base_url"},
		{"mongo needs uri", func(c *AppConfig) { c.Backend.Kind = BackendMongo }, "backend.mongo_uri"},
		{"mysql needs dsn", func(c *AppConfig) { c.Backend.Kind = BackendMySQL }, "backend.mysql_dsn"},
		{"unknown backend", func(c *AppConfig) { c.Backend.Kind = "ftp" }, `unknown backend.kind "ftp"`},
		{"unknown state", func(c *AppConfig) { c.State.Backend = "etcd" }, `unknown state.backend "etcd"`},
		{"zero duration", func(c *AppConfig) { c.CheckIn.FollowUpAfter = 0 }, "checkin.follow_up_after must be positive"},
		{"unknown category", func(c *AppConfig) { c.CheckIn.Categories = []string{"tenants"} }, `unknown category "tenants"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
