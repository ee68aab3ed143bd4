// Package config defines the format-agnostic representation of a schedule
// source, the Loader interface that produces it, and the error reported
// when schedule input is missing or invalid.
//
// Concrete loaders, such as the HCL one, live in separate packages.
package config
