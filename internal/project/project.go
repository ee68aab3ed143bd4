// Package project inspects the directory a schedule belongs to and derives
// the command defaults the built-in job kinds rely on.
package project

import (
	"os"
	"path/filepath"
)

// Variable names of the derived defaults.
const (
	RunnerCommand = "runner_command"
	BundleCommand = "bundle_command"
)

// Info records which build tooling a project directory contains.
type Info struct {
	Dir         string
	BinRails    bool
	ScriptRails bool
	Bundler     bool
}

// Detect reports the tooling present in dir.
func Detect(dir string) Info {
	return Info{
		Dir:         dir,
		BinRails:    exists(filepath.Join(dir, "bin", "rails")),
		ScriptRails: exists(filepath.Join(dir, "script", "rails")),
		Bundler:     exists(filepath.Join(dir, "Gemfile")),
	}
}

// Defaults returns the runner and bundle commands for the project.
func (i Info) Defaults() map[string]string {
	runner := "script/runner"
	switch {
	case i.BinRails:
		runner = "bin/rails runner"
	case i.ScriptRails:
		runner = "script/rails runner"
	}

	bundle := ""
	if i.Bundler {
		bundle = "bundle exec"
	}

	return map[string]string{
		RunnerCommand: runner,
		BundleCommand: bundle,
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
