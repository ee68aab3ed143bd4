package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		files    []string
		expected map[string]string
	}{
		{
			name:     "empty directory",
			expected: map[string]string{RunnerCommand: "script/runner", BundleCommand: ""},
		},
		{
			name:     "modern rails with bundler",
			files:    []string{"bin/rails", "Gemfile"},
			expected: map[string]string{RunnerCommand: "bin/rails runner", BundleCommand: "bundle exec"},
		},
		{
			name:     "legacy rails",
			files:    []string{"script/rails"},
			expected: map[string]string{RunnerCommand: "script/rails runner", BundleCommand: ""},
		},
		{
			name:     "bin wins over script",
			files:    []string{"bin/rails", "script/rails"},
			expected: map[string]string{RunnerCommand: "bin/rails runner", BundleCommand: ""},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			dir := t.TempDir()
			for _, f := range tc.files {
				path := filepath.Join(dir, f)
				require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
				require.NoError(t, os.WriteFile(path, nil, 0o600))
			}

			// --- Act ---
			info := Detect(dir)

			// --- Assert ---
			assert.Equal(t, dir, info.Dir)
			assert.Equal(t, tc.expected, info.Defaults())
		})
	}
}
