package app

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/whenever-systemd/internal/config"
)

func TestNewConfig_Defaults(t *testing.T) {
	t.Parallel()

	// --- Act ---
	cfg, err := NewConfig(Config{WorkDir: "/srv/app"})

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, DefaultFile, cfg.File)
	assert.Equal(t, DefaultInstallPath, cfg.InstallPath)
	assert.Contains(t, cfg.TempPath, filepath.Join("tmp", "whenever-"))
	assert.True(t, filepath.IsAbs(cfg.Identifier))
	assert.Equal(t, ModeShow, cfg.Mode())
}

func TestNewConfig_Validation(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		cfg  Config
	}{
		{name: "update and clear", cfg: Config{Update: true, Clear: true}},
		{name: "list and watch", cfg: Config{List: true, Watch: true}},
		{name: "list and update", cfg: Config{List: true, Update: true}},
		{name: "watch and clear", cfg: Config{Watch: true, Clear: true}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.TempPath = "/tmp/x"
			tc.cfg.WorkDir = "/srv/app"

			_, err := NewConfig(tc.cfg)

			var cfgErr *config.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestConfig_Mode(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		cfg      Config
		expected Mode
	}{
		{name: "default", cfg: Config{}, expected: ModeShow},
		{name: "dry alone shows", cfg: Config{Dry: true}, expected: ModeShow},
		{name: "update", cfg: Config{Update: true}, expected: ModeUpdate},
		{name: "dry update", cfg: Config{Update: true, Dry: true}, expected: ModeUpdate},
		{name: "clear", cfg: Config{Clear: true}, expected: ModeClear},
		{name: "list", cfg: Config{List: true}, expected: ModeList},
		{name: "watch", cfg: Config{Watch: true}, expected: ModeWatch},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.cfg.Mode())
		})
	}
}
