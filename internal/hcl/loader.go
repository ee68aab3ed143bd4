package hcl

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/whenever-systemd/internal/config"
	"github.com/vk/whenever-systemd/internal/ctxlog"
	"github.com/vk/whenever-systemd/internal/fsutil"
)

// Extension of schedule files searched for in directories.
const Extension = ".hcl"

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL schedule loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads a schedule file, or every schedule file of a directory in
// lexical order. A missing or unreadable path is a *config.ConfigurationError;
// syntax errors are returned as hcl.Diagnostics.
func (l *Loader) Load(ctx context.Context, path string) (*config.Script, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path", path)

	files, err := fsutil.FindFilesByExtension(path, Extension)
	if err != nil {
		return nil, &config.ConfigurationError{Path: path, Err: err}
	}
	if len(files) == 0 {
		return nil, &config.ConfigurationError{Path: path, Err: fmt.Errorf("no %s files found", Extension)}
	}
	logger.Debug("Discovered schedule files.", "count", len(files))

	parser := hclparse.NewParser()
	script := &config.Script{}
	for _, name := range files {
		src, err := os.ReadFile(name)
		if err != nil {
			return nil, &config.ConfigurationError{Path: name, Err: err}
		}
		file, err := parse(parser, name, src)
		if err != nil {
			return nil, err
		}
		script.Files = append(script.Files, file)
	}

	logger.Debug("HCL loading complete.", "files", len(script.Files))
	return script, nil
}

// Parse parses schedule source held in memory.
func Parse(name string, src []byte) (*config.File, error) {
	return parse(hclparse.NewParser(), name, src)
}

func parse(parser *hclparse.Parser, name string, src []byte) (*config.File, error) {
	f, diags := parser.ParseHCL(src, name)
	if diags.HasErrors() {
		return nil, diags
	}
	return &config.File{Name: name, Body: f.Body, Source: src}, nil
}

// IsNotExist reports whether err is a configuration error for a path that
// does not exist.
func IsNotExist(err error) bool {
	var cfgErr *config.ConfigurationError
	return errors.As(err, &cfgErr) && errors.Is(cfgErr.Err, fs.ErrNotExist)
}

var _ config.Loader = (*Loader)(nil)
