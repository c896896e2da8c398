package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(Options{Paths: []string{t.TempDir()}})
	require.NoError(t, err)

	assert.Equal(t, 200*time.Millisecond, cfg.Sync.DebounceWindow)
	assert.Equal(t, "html", cfg.Sync.DefaultView)
	assert.Equal(t, TransportStdin, cfg.Sync.Transport)
	assert.Equal(t, []string{SinkStdout}, cfg.Sync.Sinks)
	assert.Equal(t, "surveysync:commands", cfg.Redis.CommandChannel)
	assert.Equal(t, "surveysync:events", cfg.Redis.EventChannel)
	assert.False(t, cfg.Hooks.Scripts)
	assert.Equal(t, 250*time.Millisecond, cfg.Hooks.ScriptTimeout)
	assert.False(t, cfg.UsesRedis())
}

func TestLoadFileAndEnvironmentOverlay(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "surveysync.yaml", `
app:
  environment: staging
sync:
  debounce_window: 350ms
  transport: redis
  sinks: [redis, stdout]
redis:
  address: cache:6379
themes:
  - name: flat-light
    version: 1.0.0
    variables:
      primary: "#19b394"
    variants:
      dark:
        primary: "#0d6e5a"
`)
	writeFile(t, dir, "surveysync.staging.yaml", `
logging:
  level: debug
`)

	cfg, err := Load(Options{Paths: []string{dir}})
	require.NoError(t, err)

	assert.Equal(t, 350*time.Millisecond, cfg.Sync.DebounceWindow)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.UsesRedis())
	assert.True(t, cfg.HasSink(SinkStdout))
	require.Len(t, cfg.Themes, 1)
	assert.Equal(t, "#0d6e5a", cfg.Themes[0].Variants["dark"]["primary"])

	catalog, err := cfg.ThemeCatalog()
	require.NoError(t, err)
	assert.Equal(t, []string{"flat-light"}, catalog.Names())
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	envFile := writeFile(t, dir, ".env", "SURVEYSYNC_SNS_TOPIC_ARN=arn:aws:sns:eu-west-1:1:events\n")
	t.Setenv("SURVEYSYNC_SYNC_SINKS", "stdout,sns")
	t.Setenv("SURVEYSYNC_SNS_REGION", "eu-west-1")
	t.Setenv("SURVEYSYNC_SYNC_DEBOUNCE_WINDOW", "1s")
	t.Cleanup(func() { _ = os.Unsetenv("SURVEYSYNC_SNS_TOPIC_ARN") })

	cfg, err := Load(Options{Paths: []string{dir}, EnvFiles: []string{envFile}})
	require.NoError(t, err)

	assert.Equal(t, []string{SinkStdout, SinkSNS}, cfg.Sync.Sinks)
	assert.Equal(t, "arn:aws:sns:eu-west-1:1:events", cfg.SNS.TopicARN)
	assert.Equal(t, time.Second, cfg.Sync.DebounceWindow)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := map[string]string{
		"transport":  "sync:\n  transport: carrier-pigeon\n",
		"sink":       "sync:\n  sinks: [fax]\n",
		"debounce":   "sync:\n  debounce_window: 0s\n",
		"sns":        "sync:\n  sinks: [sns]\n",
		"theme name": "themes:\n  - variables: {a: b}\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "surveysync.yaml", content)
			_, err := Load(Options{File: path})
			assert.ErrorContains(t, err, "invalid configuration")
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(Options{File: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}
