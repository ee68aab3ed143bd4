package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/whenever-systemd/internal/app"
)

func TestParse_Flags(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	args := []string{
		"-f", "schedules",
		"--install-path", "/opt/units",
		"--temp-path", "/tmp/ws",
		"-s", "environment=staging",
		"-r", "web,db",
		"--update", "--dry", "--sudo",
		"--log-format", "JSON",
		"--log-level", "debug",
	}

	// --- Act ---
	cfg, shouldExit, err := Parse(args, &bytes.Buffer{})

	// --- Assert ---
	require.NoError(t, err)
	require.False(t, shouldExit)
	assert.Equal(t, "schedules", cfg.File)
	assert.Equal(t, "/opt/units", cfg.InstallPath)
	assert.Equal(t, "/tmp/ws", cfg.TempPath)
	assert.Equal(t, "environment=staging", cfg.Set)
	assert.Equal(t, []string{"web", "db"}, cfg.Roles)
	assert.True(t, cfg.Update)
	assert.True(t, cfg.Dry)
	assert.True(t, cfg.Sudo)
	assert.Equal(t, app.ModeUpdate, cfg.Mode())
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestParse_Defaults(t *testing.T) {
	t.Parallel()

	cfg, shouldExit, err := Parse([]string{"--temp-path", "/tmp/ws"}, &bytes.Buffer{})

	require.NoError(t, err)
	require.False(t, shouldExit)
	assert.Equal(t, app.DefaultFile, cfg.File)
	assert.Equal(t, app.DefaultInstallPath, cfg.InstallPath)
	assert.Equal(t, app.ModeShow, cfg.Mode())
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	abs, err := filepath.Abs(app.DefaultFile)
	require.NoError(t, err)
	assert.Equal(t, abs, cfg.Identifier)
}

func TestParse_PositionalFile(t *testing.T) {
	t.Parallel()

	cfg, _, err := Parse([]string{"--temp-path", "/tmp/ws", "jobs.hcl"}, &bytes.Buffer{})

	require.NoError(t, err)
	assert.Equal(t, "jobs.hcl", cfg.File)
}

func TestParse_ConfigFile(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	path := filepath.Join(t.TempDir(), "whenever.yaml")
	content := "install-path: /from/file\nroles: web,db\nlog-level: warn\nlist: true\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	// --- Act ---
	cfg, _, err := Parse([]string{"--config", path, "--temp-path", "/tmp/ws", "--log-level", "error"}, &bytes.Buffer{})

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "/from/file", cfg.InstallPath)
	assert.Equal(t, []string{"web", "db"}, cfg.Roles)
	assert.Equal(t, "error", cfg.LogLevel, "flags win over the config file")
	assert.Equal(t, app.ModeList, cfg.Mode())
}

func TestParse_Environment(t *testing.T) {
	// --- Arrange ---
	t.Setenv("WHENEVER_INSTALL_PATH", "/from/env")
	t.Setenv("WHENEVER_SUDO", "true")

	// --- Act ---
	cfg, _, err := Parse([]string{"--temp-path", "/tmp/ws"}, &bytes.Buffer{})

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.InstallPath)
	assert.True(t, cfg.Sudo)
}

func TestParse_Help(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}

	cfg, shouldExit, err := Parse([]string{"--help"}, out)

	require.NoError(t, err)
	assert.True(t, shouldExit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
	assert.Contains(t, out.String(), "--install-path")
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		args     []string
		contains string
	}{
		{name: "unknown flag", args: []string{"--no-such-flag"}, contains: "unknown flag: --no-such-flag"},
		{name: "invalid log format", args: []string{"--log-format", "xml"}, contains: "invalid log-format"},
		{name: "invalid log level", args: []string{"--log-level", "trace"}, contains: "invalid log-level"},
		{name: "update and clear", args: []string{"--temp-path", "/tmp/ws", "-w", "-c"}, contains: "cannot be combined"},
		{name: "too many arguments", args: []string{"a.hcl", "b.hcl"}, contains: "accepts at most 1 arg"},
		{name: "missing config file", args: []string{"--config", "/nonexistent/whenever.yaml"}, contains: "failed to read config file"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, shouldExit, err := Parse(tc.args, &bytes.Buffer{})

			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.contains)
			assert.Nil(t, cfg)
			assert.False(t, shouldExit)
		})
	}
}

func TestFromRunError(t *testing.T) {
	t.Parallel()

	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, FromRunError(nil))
	})

	t.Run("script failure keeps the status", func(t *testing.T) {
		err := fmt.Errorf("update failed: %w", &app.ScriptError{Command: "bash x.sh", Code: 5})

		var exitErr *ExitError
		require.ErrorAs(t, FromRunError(err), &exitErr)
		assert.Equal(t, 5, exitErr.Code)
		assert.Contains(t, exitErr.Message, "bash x.sh exited with status 5")
	})

	t.Run("other errors pass through", func(t *testing.T) {
		err := errors.New("boom")
		assert.Same(t, err, FromRunError(err))
	})
}
