package config

import "fmt"

// ConfigurationError reports missing or invalid schedule input. It is raised
// before any evaluation starts.
type ConfigurationError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("configuration error: %v", e.Err)
	}
	return fmt.Sprintf("configuration error in %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
