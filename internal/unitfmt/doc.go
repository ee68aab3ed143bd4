// Package unitfmt renders option sections into systemd unit files and wraps
// rendered units into shell fragments that write or preview them.
//
// Everything in this package is pure: no function touches the filesystem.
package unitfmt
