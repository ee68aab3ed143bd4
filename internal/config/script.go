package config

import "github.com/hashicorp/hcl/v2"

// Script is a parsed schedule, made of one or more files evaluated in order.
type Script struct {
	Files []*File
}

// File is one parsed schedule file.
type File struct {
	// Name is the path the file was read from, or a synthetic name for
	// embedded sources.
	Name string
	Body hcl.Body
	// Source keeps the raw bytes for diagnostics rendering.
	Source []byte
}

// Empty reports whether the script has no files.
func (s *Script) Empty() bool {
	return s == nil || len(s.Files) == 0
}

// Sources returns the parsed files keyed by name, in the shape
// hcl.NewDiagnosticTextWriter expects.
func (s *Script) Sources() map[string]*hcl.File {
	if s.Empty() {
		return nil
	}
	out := make(map[string]*hcl.File, len(s.Files))
	for _, f := range s.Files {
		out[f.Name] = &hcl.File{Body: f.Body, Bytes: f.Source}
	}
	return out
}
