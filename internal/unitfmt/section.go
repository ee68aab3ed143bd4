package unitfmt

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Section names of a unit option map.
const (
	SectionUnit    = "unit"
	SectionService = "service"
	SectionTimer   = "timer"
	SectionInstall = "install"
)

var (
	lowerWord  = regexp.MustCompile(`^[a-z][a-z0-9]+$`)
	lineBreaks = regexp.MustCompile(`[ \t]*[\r\n]+[ \t]*`)
)

// Entry is one option of a section, keyed in snake_case.
type Entry struct {
	Key   string
	Value any
}

// Section is an ordered list of options. Rendering keeps the entry order.
type Section []Entry

// Lookup returns the value stored under key.
func (s Section) Lookup(key string) (any, bool) {
	for _, e := range s {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// With returns a copy of the section where key holds value. An existing
// entry keeps its position; a new one is appended.
func (s Section) With(key string, value any) Section {
	out := make(Section, len(s), len(s)+1)
	copy(out, s)
	for i := range out {
		if out[i].Key == key {
			out[i].Value = value
			return out
		}
	}
	return append(out, Entry{Key: key, Value: value})
}

// Unit maps section names (SectionUnit, SectionService, ...) to their options.
type Unit map[string]Section

// ParamKey converts a snake_case option name into the PascalCase key systemd
// expects. Only lowercase word segments are capitalised, so keys that are
// already written in systemd's spelling pass through unchanged.
//
//	on_calendar         -> OnCalendar
//	RandomizedDelaySec  -> RandomizedDelaySec
func ParamKey(key string) string {
	parts := strings.Split(key, "_")
	for i, p := range parts {
		if lowerWord.MatchString(p) {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, "")
}

// FormatValue renders an option value. Lists are joined with spaces, which is
// how systemd reads list-valued settings. Line breaks become single spaces so
// a value always stays on its own Key=Value line.
func FormatValue(v any) string {
	return lineBreaks.ReplaceAllString(formatValue(v), " ")
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []string:
		return strings.Join(val, " ")
	case []any:
		items := make([]string, len(val))
		for i, item := range val {
			items[i] = formatValue(item)
		}
		return strings.Join(items, " ")
	default:
		return fmt.Sprint(val)
	}
}

// RenderSection renders a section as newline separated Key=Value lines, the
// same lines RenderService and friends write for it.
func RenderSection(s Section) string {
	lines := make([]string, 0, len(s))
	for _, e := range entries(s) {
		lines = append(lines, e.Name+"="+e.Value)
	}
	return strings.Join(lines, "\n")
}

// RenderUnitMap renders every section of u independently.
func RenderUnitMap(u Unit) map[string]string {
	out := make(map[string]string, len(u))
	for name, s := range u {
		out[name] = RenderSection(s)
	}
	return out
}
