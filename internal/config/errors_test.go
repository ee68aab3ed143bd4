package config

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigurationError(t *testing.T) {
	t.Parallel()

	err := error(&ConfigurationError{Path: "config/schedule.hcl", Err: fs.ErrNotExist})

	assert.Equal(t, "configuration error in config/schedule.hcl: file does not exist", err.Error())
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "config/schedule.hcl", cfgErr.Path)

	assert.Equal(t, "configuration error: boom", (&ConfigurationError{Err: errors.New("boom")}).Error())
}

func TestScript(t *testing.T) {
	t.Parallel()

	var nilScript *Script
	assert.True(t, nilScript.Empty())
	assert.True(t, (&Script{}).Empty())

	s := &Script{Files: []*File{{Name: "a.hcl", Source: []byte("x = 1")}}}
	assert.False(t, s.Empty())
	sources := s.Sources()
	require.Contains(t, sources, "a.hcl")
	assert.Equal(t, []byte("x = 1"), sources["a.hcl"].Bytes)
	assert.Nil(t, nilScript.Sources())
}
