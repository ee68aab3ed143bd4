package config

import "context"

// Loader is the interface for a format-specific schedule loader.
type Loader interface {
	// Load reads the schedule found at path (a file or a directory) and
	// returns its parsed files in evaluation order.
	Load(ctx context.Context, path string) (*Script, error)
}
