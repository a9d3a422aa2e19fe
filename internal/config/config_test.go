package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingDefaultFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ExampleConfigMatchesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diffbot", "config.toml")
	require.NoError(t, Default().CreateExampleConfig(path))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[api]
base_url = "http://localhost:9000"
version = 2
profile = "work"

[output]
default_format = "markdown"

[parallel]
max_concurrency = 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv("DIFFBOT_API_TIMEOUT", "5")
	t.Setenv("DIFFBOT_LOGGING_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", cfg.API.BaseURL)
	assert.Equal(t, 2, cfg.API.Version)
	assert.Equal(t, "work", cfg.API.Profile)
	assert.Equal(t, 5, cfg.API.Timeout)
	assert.Equal(t, "markdown", cfg.Output.DefaultFormat)
	assert.Equal(t, 2, cfg.Parallel.MaxConcurrency)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 80, cfg.Output.LineWidth, "unset keys keep defaults")

	opts := cfg.ClientOptions(nil)
	assert.Equal(t, "work", opts.Profile)
	assert.Equal(t, 5*time.Second, opts.Timeout)
	assert.Equal(t, 2, opts.Version)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err, "an explicit file must exist")

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[output]\ndefault_format = \"pdf\"\n"), 0644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "unknown format")
}

func TestCredentialsFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	cfg := Default()
	assert.Equal(t, "/xdg/diffbot/credentials.toml", cfg.CredentialsFile())

	cfg.Credentials.File = "/etc/diffbot.toml"
	assert.Equal(t, "/etc/diffbot.toml", cfg.CredentialsFile())
}
