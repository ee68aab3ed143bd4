// Package app contains the core application logic. It loads a schedule,
// evaluates it and, depending on the configured mode, prints the resulting
// units, prints or runs the install scripts, lists the jobs or keeps
// re-rendering while the schedule changes. It is decoupled from any
// specific entrypoint like a CLI.
package app
