package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/joho/godotenv"
	"github.com/vk/whenever-systemd/internal/config"
	"github.com/vk/whenever-systemd/internal/ctxlog"
	ihcl "github.com/vk/whenever-systemd/internal/hcl"
	"github.com/vk/whenever-systemd/internal/project"
	"github.com/vk/whenever-systemd/internal/schedule"
)

// identifierVar exposes the schedule identifier to templates.
const identifierVar = "identifier"

// loadScript loads the schedule. In clear mode a missing schedule is not an
// error: everything under the prefix is removed either way.
func (a *App) loadScript(ctx context.Context) (*config.Script, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading schedule...", "path", a.config.File)

	script, err := a.loader.Load(ctx, a.config.File)
	if err != nil {
		if a.config.Mode() == ModeClear && ihcl.IsNotExist(err) {
			logger.Warn("Schedule not found, clearing with an empty schedule.", "path", a.config.File)
			return &config.Script{}, nil
		}
		var diags hcl.Diagnostics
		if errors.As(err, &diags) {
			a.writeDiagnostics(diags, nil)
			return nil, &schedule.EvaluationError{Diags: diags}
		}
		return nil, err
	}

	logger.Debug("Schedule loaded.", "files", len(script.Files))
	return script, nil
}

// presetVars reads the dotenv file given with --set-file.
func (a *App) presetVars() (map[string]string, error) {
	if a.config.SetFile == "" {
		return nil, nil
	}
	vars, err := godotenv.Read(a.config.SetFile)
	if err != nil {
		return nil, &config.ConfigurationError{Path: a.config.SetFile, Err: fmt.Errorf("failed to read presets: %w", err)}
	}
	return vars, nil
}

// defaults returns the script-level variables derived from the project
// directory and the run configuration.
func (a *App) defaults() map[string]any {
	info := project.Detect(a.config.WorkDir)
	out := map[string]any{identifierVar: a.config.Identifier}
	for k, v := range info.Defaults() {
		out[k] = v
	}
	return out
}

// jobList loads and evaluates the schedule.
func (a *App) jobList(ctx context.Context) (*schedule.JobList, error) {
	script, err := a.loadScript(ctx)
	if err != nil {
		return nil, err
	}
	presets, err := a.presetVars()
	if err != nil {
		return nil, err
	}

	list, err := schedule.Evaluate(ctx, schedule.Config{
		Presets:    a.config.Set,
		PresetVars: presets,
		Defaults:   a.defaults(),
		Roles:      a.config.Roles,
		TempPath:   a.config.TempPath,
		WorkDir:    a.config.WorkDir,
	}, script)
	if err != nil {
		var diags hcl.Diagnostics
		if errors.As(err, &diags) {
			a.writeDiagnostics(diags, script)
		}
		return nil, err
	}

	ctxlog.FromContext(ctx).Info("Schedule evaluated.", "jobs", len(list.Jobs()), "prefix", list.Prefix())
	return list, nil
}

// writeDiagnostics renders diags with source snippets to the log writer.
// Files missing from script are reported without a snippet.
func (a *App) writeDiagnostics(diags hcl.Diagnostics, script *config.Script) {
	wr := hcl.NewDiagnosticTextWriter(a.logW, script.Sources(), 0, false)
	if err := wr.WriteDiagnostics(diags); err != nil {
		a.logger.Warn("Failed to write diagnostics.", "error", err)
	}
}
