package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vk/whenever-systemd/internal/config"
)

// Defaults of the corresponding Config fields.
const (
	DefaultFile        = "config/schedule.hcl"
	DefaultInstallPath = "/etc/systemd/system"
)

// Mode is what a run does with the evaluated schedule.
type Mode string

// Run modes.
const (
	ModeShow   Mode = "show"
	ModeUpdate Mode = "update"
	ModeClear  Mode = "clear"
	ModeList   Mode = "list"
	ModeWatch  Mode = "watch"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	File        string // schedule file or directory
	InstallPath string // where units are installed
	TempPath    string // staging, backups and generated scripts
	WorkDir     string // default working directory of jobs

	Set        string   // "name=value&other=value" presets
	SetFile    string   // dotenv file of presets
	Roles      []string // restrict output to jobs of these roles
	Identifier string

	Update bool
	Clear  bool
	Dry    bool
	Sudo   bool
	List   bool
	Watch  bool

	LogFormat string
	LogLevel  string
}

// NewConfig validates cfg and fills in defaults for the fields left empty.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.File == "" {
		cfg.File = DefaultFile
	}
	if cfg.InstallPath == "" {
		cfg.InstallPath = DefaultInstallPath
	}

	if cfg.Update && cfg.Clear {
		return nil, &config.ConfigurationError{Err: errors.New("update and clear cannot be combined")}
	}
	if cfg.List && cfg.Watch {
		return nil, &config.ConfigurationError{Err: errors.New("list and watch cannot be combined")}
	}
	if (cfg.List || cfg.Watch) && (cfg.Update || cfg.Clear) {
		return nil, &config.ConfigurationError{Err: errors.New("list and watch only show the schedule and cannot be combined with update or clear")}
	}

	if cfg.TempPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, &config.ConfigurationError{Err: fmt.Errorf("cannot derive temp path: %w", err)}
		}
		cfg.TempPath = filepath.Join(home, "tmp", fmt.Sprintf("whenever-%d", time.Now().Unix()))
	}
	if cfg.WorkDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, &config.ConfigurationError{Err: fmt.Errorf("cannot determine working directory: %w", err)}
		}
		cfg.WorkDir = wd
	}
	if cfg.Identifier == "" {
		abs, err := filepath.Abs(cfg.File)
		if err != nil {
			return nil, &config.ConfigurationError{Path: cfg.File, Err: err}
		}
		cfg.Identifier = abs
	}

	return &cfg, nil
}

// Mode returns the run mode selected by the flags. Dry is not a mode of its
// own: it turns update and clear into printing their script.
func (c *Config) Mode() Mode {
	switch {
	case c.Watch:
		return ModeWatch
	case c.List:
		return ModeList
	case c.Clear:
		return ModeClear
	case c.Update:
		return ModeUpdate
	default:
		return ModeShow
	}
}
