package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vk/whenever-systemd/internal/config"
	"github.com/vk/whenever-systemd/internal/ctxlog"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logW   io.Writer
	logger *slog.Logger
	config *Config
	loader config.Loader
	runner ScriptRunner
}

// Option customizes an App.
type Option func(*App)

// WithLogWriter sends log output to w instead of stderr.
func WithLogWriter(w io.Writer) Option {
	return func(a *App) { a.logW = w }
}

// WithScriptRunner replaces the runner used for update and clear scripts.
func WithScriptRunner(r ScriptRunner) Option {
	return func(a *App) { a.runner = r }
}

// NewApp is the constructor for the main application. Generated units and
// scripts are written to outW, logs to stderr unless WithLogWriter is given.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, opts ...Option) *App {
	a := &App{
		outW:   outW,
		logW:   os.Stderr,
		config: cfg,
		loader: loader,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.runner == nil {
		a.runner = &ExecRunner{Stdin: os.Stdin, Stdout: outW, Stderr: a.logW}
	}
	a.logger = newLogger(cfg.LogLevel, cfg.LogFormat, a.logW)
	a.logger.Debug("Logger configured successfully.")
	return a
}

// Run executes the mode selected by the configuration.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	mode := a.config.Mode()
	a.logger.Debug("App.Run method started.", "mode", mode, "file", a.config.File, "dry", a.config.Dry)

	var err error
	switch mode {
	case ModeWatch:
		err = a.watch(ctx)
	case ModeList:
		err = a.list(ctx)
	case ModeUpdate, ModeClear:
		err = a.apply(ctx, mode)
	default:
		err = a.show(ctx)
	}
	if err != nil {
		return fmt.Errorf("%s failed: %w", mode, err)
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}
