package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Paths, cfg.Paths)

	_, err = os.Stat(path)
	assert.NoError(t, err, "default config file should be written")
}

func TestLoadConfigJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"paths": {"uploads_dir": "/srv/uploads"}, "pipeline": {"force": true}}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/uploads", cfg.Paths.UploadsDir)
	assert.True(t, cfg.Pipeline.Force)
	// Untouched sections keep their defaults
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
}

func TestLoadConfigYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "paths:\n  data_dir: /srv/data\nserver:\n  port: \"9090\"\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/data", cfg.Paths.DataDir)
	assert.Equal(t, "9090", cfg.Server.Port)
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode config")
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("REALM_UPLOADS_DIR", "/env/uploads")
	t.Setenv("REALM_LOG_EXTENSIONS", ".a,.b")
	t.Setenv("OPENAI_API_KEY", "secret")

	cfg := DefaultConfig()
	require.NoError(t, ApplyEnv(&cfg))
	assert.Equal(t, "/env/uploads", cfg.Paths.UploadsDir)
	assert.Equal(t, []string{".a", ".b"}, cfg.Pipeline.LogExtensions)
	assert.Equal(t, "secret", cfg.Title.OpenAIAPIKey)
	// Unset variables leave values alone
	assert.Equal(t, "./data/sessions", cfg.Paths.DataDir)
}

func TestApplyEnvError(t *testing.T) {
	t.Setenv("REALM_FORCE", "not-a-bool")

	cfg := DefaultConfig()
	err := ApplyEnv(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse env")
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	cfg := DefaultConfig()
	cfg.Server.Port = "7000"

	require.NoError(t, SaveConfig(cfg, path))
	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "7000", loaded.Server.Port)
}
