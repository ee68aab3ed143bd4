// Package job models one scheduled task and renders it into a systemd
// service unit and the timer unit that triggers it.
//
// A Job is built once from its merged options with New and is read-only
// afterwards.
package job
