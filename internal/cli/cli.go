package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/vk/whenever-systemd/internal/app"
)

const (
	appName        = "whenever-systemd"
	configName     = ".whenever-systemd"
	envPrefix      = "WHENEVER"
	usageErrorCode = 2
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// FromRunError maps errors of a finished run to exit codes: a failed
// script exits with the script's status, everything else with 1.
func FromRunError(err error) error {
	if err == nil {
		return nil
	}
	var scriptErr *app.ScriptError
	if errors.As(err, &scriptErr) {
		return &ExitError{Code: scriptErr.Code, Message: err.Error()}
	}
	return err
}

func defineFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Config file (default is ./"+configName+".yaml, then $HOME/"+configName+".yaml).")
	fs.StringP("file", "f", app.DefaultFile, "Path to the schedule file or a directory of .hcl files.")
	fs.String("install-path", app.DefaultInstallPath, "Directory units are installed into.")
	fs.String("temp-path", "", "Directory for staged units, backups and scripts (default $HOME/tmp/whenever-<unix time>).")
	fs.StringP("set", "s", "", "Preset variables, e.g. 'environment=staging&path=/srv/app'.")
	fs.String("set-file", "", "Dotenv file of preset variables.")
	fs.StringSliceP("roles", "r", nil, "Only handle jobs of these roles (comma separated).")
	fs.String("identifier", "", "Schedule identifier (default is the absolute schedule path).")
	fs.BoolP("update", "w", false, "Install the units and enable their timers.")
	fs.BoolP("clear", "c", false, "Disable and remove every unit under the prefix.")
	fs.BoolP("dry", "d", false, "Print the update or clear script instead of running it.")
	fs.Bool("sudo", false, "Run the update or clear script with sudo.")
	fs.Bool("list", false, "Print a YAML summary of the jobs.")
	fs.Bool("watch", false, "Show the units and show them again whenever the schedule changes.")
	fs.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	fs.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
}

// newViper layers the config file and the environment under the flags.
func newViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}

	explicit, _ := fs.GetString("config")
	if explicit == "" {
		explicit = os.Getenv(envPrefix + "_CONFIG")
	}
	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		slog.Debug("No config file found.")
	} else {
		slog.Debug("Config file loaded.", "path", v.ConfigFileUsed())
	}
	return v, nil
}

// roles splits comma lists, which environment variables and config files
// may carry as a single string.
func roles(values []string) []string {
	var out []string
	for _, v := range values {
		for _, r := range strings.Split(v, ",") {
			if r = strings.TrimSpace(r); r != "" {
				out = append(out, r)
			}
		}
	}
	return out
}

func configFrom(v *viper.Viper, args []string) (*app.Config, error) {
	logFormat := strings.ToLower(v.GetString("log-format"))
	if logFormat != "text" && logFormat != "json" {
		return nil, &ExitError{Code: usageErrorCode, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(v.GetString("log-level"))
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, &ExitError{Code: usageErrorCode, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	file := v.GetString("file")
	if len(args) > 0 {
		file = args[0]
	}

	cfg, err := app.NewConfig(app.Config{
		File:        file,
		InstallPath: v.GetString("install-path"),
		TempPath:    v.GetString("temp-path"),
		Set:         v.GetString("set"),
		SetFile:     v.GetString("set-file"),
		Roles:       roles(v.GetStringSlice("roles")),
		Identifier:  v.GetString("identifier"),
		Update:      v.GetBool("update"),
		Clear:       v.GetBool("clear"),
		Dry:         v.GetBool("dry"),
		Sudo:        v.GetBool("sudo"),
		List:        v.GetBool("list"),
		Watch:       v.GetBool("watch"),
		LogFormat:   logFormat,
		LogLevel:    logLevel,
	})
	if err != nil {
		return nil, &ExitError{Code: usageErrorCode, Message: err.Error()}
	}
	return cfg, nil
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	var cfg *app.Config
	cmd := &cobra.Command{
		Use:   appName + " [flags] [FILE]",
		Short: "Convert a schedule into systemd service and timer units.",
		Long: `whenever-systemd reads an HCL schedule and turns every job into a systemd
.service/.timer pair. Without flags it prints the units; --update installs
them and enables their timers, --clear removes them.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := newViper(cmd.Flags())
			if err != nil {
				return &ExitError{Code: usageErrorCode, Message: err.Error()}
			}
			cfg, err = configFrom(v, args)
			return err
		},
	}
	if args == nil {
		// cobra falls back to os.Args for a nil slice.
		args = []string{}
	}
	cmd.SetArgs(args)
	cmd.SetOut(output)
	cmd.SetErr(output)
	defineFlags(cmd.Flags())

	if err := cmd.Execute(); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return nil, false, exitErr
		}
		return nil, false, &ExitError{Code: usageErrorCode, Message: err.Error()}
	}
	if cfg == nil {
		// Help was requested.
		return nil, true, nil
	}

	slog.Debug("CLI parser finished successfully.", "mode", cfg.Mode(), "file", cfg.File)
	return cfg, false, nil
}
