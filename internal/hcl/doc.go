// Package hcl provides the concrete HCL implementation of config.Loader and
// the conversions between cty values and plain Go values used when schedule
// values leave the HCL world.
package hcl
