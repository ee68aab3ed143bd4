package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/vk/whenever-systemd/internal/ctxlog"
	"github.com/vk/whenever-systemd/internal/schedule"
)

// Trailer printed after the units in show mode.
var showMessages = []string{
	"## [message] Above is your schedule file converted to systemd units.",
	"## [message] Your active units was not updated.",
	"## [message] Run `whenever-systemd --help' for more options.",
}

// ScriptRunner runs a generated shell script.
type ScriptRunner interface {
	RunScript(ctx context.Context, argv []string) error
}

// ScriptError reports a script that exited with a non-zero status.
type ScriptError struct {
	Command string
	Code    int
}

// Error implements the error interface.
func (e *ScriptError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Command, e.Code)
}

// ExecRunner runs scripts as subprocesses and waits for them. Interrupting
// the context kills the subprocess.
type ExecRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// RunScript implements ScriptRunner.
func (r *ExecRunner) RunScript(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return errors.New("empty command")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
			return &ScriptError{Command: shellquote.Join(argv...), Code: exitErr.ExitCode()}
		}
		return fmt.Errorf("failed to run %s: %w", shellquote.Join(argv...), err)
	}
	return nil
}

// show prints the units of the schedule followed by the show trailer.
func (a *App) show(ctx context.Context) error {
	list, err := a.jobList(ctx)
	if err != nil {
		return err
	}
	return a.printUnits(list)
}

func (a *App) printUnits(list *schedule.JobList) error {
	var b strings.Builder
	if units := list.DryUnits(a.config.InstallPath); units != "" {
		b.WriteString(strings.TrimSuffix(units, "\n"))
		b.WriteByte('\n')
	}
	for _, m := range showMessages {
		b.WriteString(m)
		b.WriteByte('\n')
	}
	_, err := io.WriteString(a.outW, b.String())
	return err
}

// apply generates the update or clear script and prints it (dry) or runs
// it.
func (a *App) apply(ctx context.Context, mode Mode) error {
	logger := ctxlog.FromContext(ctx)

	list, err := a.jobList(ctx)
	if err != nil {
		return err
	}

	name := "update_units"
	script := list.GenerateUpdateScript(a.config.InstallPath)
	if mode == ModeClear {
		name = "clear_units"
		script = list.GenerateClearScript(a.config.InstallPath)
	}

	if a.config.Dry {
		logger.Debug("Dry run, printing script.", "script", name)
		_, err := io.WriteString(a.outW, script)
		return err
	}

	path, err := a.writeScript(name, script)
	if err != nil {
		return err
	}

	argv := a.scriptCommand(path)
	logger.Info("Running script.", "command", shellquote.Join(argv...))
	if err := a.runner.RunScript(ctx, argv); err != nil {
		return err
	}
	logger.Info("Units updated.", "mode", mode, "jobs", len(list.Jobs()))
	return nil
}

// writeScript stores script as <temp>/<name>.sh and returns its path.
func (a *App) writeScript(name, script string) (string, error) {
	if err := os.MkdirAll(a.config.TempPath, 0o755); err != nil {
		return "", fmt.Errorf("failed to create temp path: %w", err)
	}
	path := filepath.Join(a.config.TempPath, name+".sh")
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

func (a *App) scriptCommand(path string) []string {
	if a.config.Sudo {
		return []string{"sudo", "bash", path}
	}
	return []string{"bash", path}
}
