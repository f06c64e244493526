package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/stowgate/config"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	// Load with no config files should use defaults
	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 5001, cfg.Server.Port)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxBodyBytes)
	assert.Empty(t, cfg.Server.StaticDir)
	assert.Equal(t, "https://api.backblazeb2.com/b2api/v2/b2_authorize_account", cfg.Upstream.AuthorizeURL)
	assert.Equal(t, "api", cfg.Upstream.PathPrefix)
	assert.Equal(t, 30, cfg.Upstream.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Upstream.TimeoutDuration())
	assert.True(t, cfg.CORS.Enabled)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, []string{"GET", "POST", "OPTIONS"}, cfg.CORS.AllowedMethods)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_ConfigFile(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
server:
  port: 8080
  max_body_bytes: 4096
  static_dir: ./public
upstream:
  authorize_url: http://localhost:9000/b2api/v2/b2_authorize_account
  path_prefix: b2api
  timeout: 5
metrics:
  enabled: false
  path: /internal/metrics
log:
  level: debug
  format: json
`)

	cfg, err := config.Load([]string{configPath}, nil)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int64(4096), cfg.Server.MaxBodyBytes)
	assert.Equal(t, "./public", cfg.Server.StaticDir)
	assert.Equal(t, "http://localhost:9000/b2api/v2/b2_authorize_account", cfg.Upstream.AuthorizeURL)
	assert.Equal(t, "b2api", cfg.Upstream.PathPrefix)
	assert.Equal(t, 5*time.Second, cfg.Upstream.TimeoutDuration())
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/internal/metrics", cfg.Metrics.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_ConfigFileMerge(t *testing.T) {
	basePath := writeConfig(t, "base.yaml", `
server:
  port: 5001
upstream:
  path_prefix: b2api
  timeout: 10
log:
  level: info
`)
	overridePath := writeConfig(t, "override.yaml", `
server:
  port: 9000
log:
  level: warn
`)

	// Load with merge (later files override earlier)
	cfg, err := config.Load([]string{basePath, overridePath}, nil)
	require.NoError(t, err)

	// Overridden values
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Log.Level)

	// Preserved values from base
	assert.Equal(t, "b2api", cfg.Upstream.PathPrefix)
	assert.Equal(t, 10, cfg.Upstream.Timeout)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "port out of range", content: "server:\n  port: 99999\n"},
		{name: "zero body limit", content: "server:\n  max_body_bytes: 0\n"},
		{name: "authorize url not a url", content: "upstream:\n  authorize_url: not-a-url\n"},
		{name: "empty path prefix", content: "upstream:\n  path_prefix: \"\"\n"},
		{name: "zero timeout", content: "upstream:\n  timeout: 0\n"},
		{name: "relative metrics path", content: "metrics:\n  path: metrics\n"},
		{name: "unknown log level", content: "log:\n  level: verbose\n"},
		{name: "unknown log format", content: "log:\n  format: xml\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := writeConfig(t, "config.yaml", tt.content)

			_, err := config.Load([]string{configPath}, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validate config")
		})
	}
}

func TestLoad_WithCORS(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
cors:
  enabled: true
  allowed_origins:
    - https://example.com
    - https://app.example.com
  allowed_methods:
    - POST
  allowed_headers:
    - Content-Type
  max_age: 600
`)

	cfg, err := config.Load([]string{configPath}, nil)
	require.NoError(t, err)

	assert.True(t, cfg.CORS.Enabled)
	assert.Equal(t, []string{"https://example.com", "https://app.example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, []string{"POST"}, cfg.CORS.AllowedMethods)
	assert.Equal(t, []string{"Content-Type"}, cfg.CORS.AllowedHeaders)
	assert.Equal(t, 600, cfg.CORS.MaxAge)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("STOWGATE_SERVER_PORT", "9090")
	t.Setenv("STOWGATE_UPSTREAM_PATH_PREFIX", "b2api")
	t.Setenv("STOWGATE_LOG_FORMAT", "json")

	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "b2api", cfg.Upstream.PathPrefix)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("STOWGATE_SERVER_PORT", "9090")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 0, "")
	flags.String("path-prefix", "", "")
	flags.Int("timeout", 0, "")
	require.NoError(t, flags.Parse([]string{"--port", "7000", "--path-prefix", "b2api"}))

	cfg, err := config.Load(nil, flags)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "b2api", cfg.Upstream.PathPrefix)
	// unset flags do not clobber defaults
	assert.Equal(t, 30, cfg.Upstream.Timeout)
}

func TestFromContext_Missing(t *testing.T) {
	_, err := config.FromContext(context.Background())
	assert.Error(t, err)
}
