// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It
// layers flags over a config file and WHENEVER_* environment variables and
// translates the result into the application's internal configuration.
package cli
