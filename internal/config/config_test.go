package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig drops a config.yaml into a fresh dir and resets viper's
// global state so tests do not see each other's search paths.
func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	viper.Reset()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := writeConfig(t, "SOURCE_BASE_URL: https://forum.example.com/prompts\n")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "http", cfg.Fetcher)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, time.Second, cfg.FetchDelay)
	assert.Equal(t, 3, cfg.PageCount)
	assert.Equal(t, "https://forum.example.com/prompts?page=%d", cfg.PageURLPattern)
}

func TestLoadConfig_FetchDelayOverride(t *testing.T) {
	dir := writeConfig(t, `SOURCE_BASE_URL: https://forum.example.com/prompts
FETCH_DELAY: 250ms
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.FetchDelay)
}

func TestLoadConfig_MissingBaseURL(t *testing.T) {
	viper.Reset()

	_, err := LoadConfig(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SOURCE_BASE_URL")
}
