package schedule

import (
	"strings"

	ihcl "github.com/vk/whenever-systemd/internal/hcl"
	"github.com/zclconf/go-cty/cty"
)

// Variables is the two-tier variable store of an evaluation. Preset values
// are supplied before the script runs and cannot be changed by it; script
// values are assigned by set statements.
type Variables struct {
	values map[string]cty.Value
	preset map[string]bool
}

// NewVariables returns an empty store.
func NewVariables() *Variables {
	return &Variables{
		values: make(map[string]cty.Value),
		preset: make(map[string]bool),
	}
}

// Preset records a preset value. The first preset of a name wins; later
// ones are ignored.
func (v *Variables) Preset(name string, value cty.Value) {
	if v.preset[name] {
		return
	}
	v.values[name] = value
	v.preset[name] = true
}

// Set assigns a script value. It reports false, leaving the store
// unchanged, when name holds a preset.
func (v *Variables) Set(name string, value cty.Value) bool {
	if v.preset[name] {
		return false
	}
	v.values[name] = value
	return true
}

// Lookup returns the value of name.
func (v *Variables) Lookup(name string) (cty.Value, bool) {
	val, ok := v.values[name]
	return val, ok
}

// IsPreset reports whether name was preset.
func (v *Variables) IsPreset(name string) bool {
	return v.preset[name]
}

// String returns the value of name converted to a string, or "".
func (v *Variables) String(name string) string {
	val, ok := v.values[name]
	if !ok {
		return ""
	}
	s, err := ihcl.ToString(val)
	if err != nil {
		return ""
	}
	return s
}

// Values returns the variables as expression scope.
func (v *Variables) Values() map[string]cty.Value {
	out := make(map[string]cty.Value, len(v.values))
	for name, val := range v.values {
		out[name] = val
	}
	return out
}

// Options returns the variables converted into plain Go values.
func (v *Variables) Options() (Options, error) {
	out := make(Options, len(v.values))
	for name, val := range v.values {
		gv, err := ihcl.ToGo(val)
		if err != nil {
			return nil, err
		}
		out[name] = gv
	}
	return out, nil
}

// Preset is one name/value pair parsed from a preset string.
type Preset struct {
	Name  string
	Value string
}

// ParsePresets parses "name=value&other=value" strings. Each pair is split
// at its first "="; names and values are trimmed and pairs with a blank
// side are dropped.
func ParsePresets(s string) []Preset {
	var out []Preset
	for _, pair := range strings.Split(s, "&") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name, value = strings.TrimSpace(name), strings.TrimSpace(value)
		if name == "" || value == "" {
			continue
		}
		out = append(out, Preset{Name: name, Value: value})
	}
	return out
}
