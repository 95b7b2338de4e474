package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/todo/internal/model"
)

// isolate runs the test in an empty directory with no user config and no
// TODO_* variables.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	for _, key := range []string{
		"CONFIG", "DATABASE_URL", "LOG_LEVEL", "LOG_FORMAT", "LOG_FILE",
		"THEME", "FILTER", "GROUP", "ENSURE_SCHEMA", "TIMEOUT",
	} {
		t.Setenv(EnvPrefix+key, "")
		os.Unsetenv(EnvPrefix + key)
	}
	return dir
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func load(t *testing.T, args ...string) (*Config, []string, error) {
	t.Helper()
	return Load(flag.NewFlagSet("todo", flag.ContinueOnError), args)
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, rest, err := load(t, "ls")
	require.NoError(t, err)
	assert.Equal(t, []string{"ls"}, rest)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultTheme, cfg.Theme)
	assert.Equal(t, DefaultTimeout, cfg.Timeout.Duration)
	assert.Equal(t, model.FilterAll, cfg.Filter())
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoadProjectFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`
database_url = "postgres://localhost/todo"
theme = "neon"
default_filter = "completed"
timeout = "3s"
`), 0o644))

	cfg, _, err := load(t)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/todo", cfg.DatabaseURL)
	assert.Equal(t, "neon", cfg.Theme)
	assert.Equal(t, model.FilterCompleted, cfg.Filter())
	assert.Equal(t, 3*time.Second, cfg.Timeout.Duration)
	assert.Equal(t, FileName, cfg.ConfigFile)
}

func TestEnvOverridesFileAndFlagsOverrideEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
database_url = "postgres://file/todo"
log_level = "warn"
theme = "neon"
`), 0o644))
	t.Setenv("TODO_CONFIG", path)
	t.Setenv("TODO_DATABASE_URL", "postgres://env/todo")
	t.Setenv("TODO_LOG_LEVEL", "debug")
	t.Setenv("TODO_GROUP", "true")

	cfg, rest, err := load(t, "-db", "postgres://flag/todo", "-theme", "mono", "ui")
	require.NoError(t, err)
	assert.Equal(t, []string{"ui"}, rest)
	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, "postgres://flag/todo", cfg.DatabaseURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "mono", cfg.Theme)
	assert.True(t, cfg.Group)
}

func TestDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(
		"TODO_DATABASE_URL=postgres://dotenv/todo\nTODO_THEME=neon\n"), 0o644))
	t.Setenv("TODO_THEME", "mono")

	cfg, _, err := load(t)
	require.NoError(t, err)
	assert.Equal(t, "postgres://dotenv/todo", cfg.DatabaseURL)
	assert.Equal(t, "mono", cfg.Theme)
}

func TestLoadAcceptsAnyCase(t *testing.T) {
	isolate(t)
	t.Setenv("TODO_LOG_LEVEL", "DEBUG")
	t.Setenv("TODO_LOG_FORMAT", "JSON")

	cfg, _, err := load(t, "-theme", "Neon")
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, "Neon", cfg.Theme)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Run("filter", func(t *testing.T) {
		isolate(t)
		_, _, err := load(t, "-filter", "someday")
		require.Error(t, err)
	})

	t.Run("env bool", func(t *testing.T) {
		isolate(t)
		t.Setenv("TODO_ENSURE_SCHEMA", "perhaps")
		_, _, err := load(t)
		require.Error(t, err)
	})

	t.Run("timeout", func(t *testing.T) {
		isolate(t)
		_, _, err := load(t, "-timeout", "0s")
		require.Error(t, err)
	})

	t.Run("theme", func(t *testing.T) {
		isolate(t)
		_, _, err := load(t, "-theme", "sepia")
		require.ErrorContains(t, err, "theme")
	})

	t.Run("log format", func(t *testing.T) {
		isolate(t)
		t.Setenv("TODO_LOG_FORMAT", "yaml")
		_, _, err := load(t)
		require.ErrorContains(t, err, "log_format")
	})

	t.Run("log level", func(t *testing.T) {
		isolate(t)
		_, _, err := load(t, "-log-level", "verbose")
		require.ErrorContains(t, err, "log_level")
	})

	t.Run("explicit file missing", func(t *testing.T) {
		isolate(t)
		_, _, err := load(t, "-config", "nope.toml")
		require.Error(t, err)
	})
}
