// Package output builds the shell redirection appended to job commands.
package output

import (
	"fmt"

	"github.com/kballard/go-shellquote"
)

const devNull = "/dev/null"

// Map keys of an output setting.
const (
	KeyStandard = "standard"
	KeyError    = "error"
)

// Redirection turns an output setting into a shell fragment.
//
//	nil                          >> /dev/null 2>&1
//	"log/cron.log"               >> log/cron.log 2>&1
//	{standard = "a", error = "b"} >> a 2>> b
//
// In a map a nil member means /dev/null and a missing member leaves that
// stream alone.
func Redirection(spec any) (string, error) {
	switch v := spec.(type) {
	case nil:
		return ">> " + devNull + " 2>&1", nil
	case string:
		return ">> " + shellquote.Join(v) + " 2>&1", nil
	case map[string]any:
		return fromMap(v)
	default:
		return "", fmt.Errorf("unsupported output redirection of type %T", spec)
	}
}

func fromMap(m map[string]any) (string, error) {
	for k := range m {
		if k != KeyStandard && k != KeyError {
			return "", fmt.Errorf("unsupported output redirection key %q", k)
		}
	}

	stdout, hasOut, err := stream(m, KeyStandard)
	if err != nil {
		return "", err
	}
	stderr, hasErr, err := stream(m, KeyError)
	if err != nil {
		return "", err
	}

	switch {
	case hasOut && hasErr && stdout == stderr:
		if stdout == devNull {
			return "> " + devNull + " 2>&1", nil
		}
		return ">> " + shellquote.Join(stdout) + " 2>&1", nil
	case hasOut && hasErr:
		return appendTo(">", stdout) + " " + appendTo("2>", stderr), nil
	case hasOut:
		return appendTo(">", stdout), nil
	case hasErr:
		return appendTo("2>", stderr), nil
	default:
		return "", nil
	}
}

// stream returns the target of one stream. A present nil value is /dev/null.
func stream(m map[string]any, key string) (string, bool, error) {
	v, ok := m[key]
	if !ok {
		return "", false, nil
	}
	switch target := v.(type) {
	case nil:
		return devNull, true, nil
	case string:
		return target, true, nil
	default:
		return "", false, fmt.Errorf("output %s must be a file name, got %T", key, v)
	}
}

// appendTo appends to files and truncates into /dev/null.
func appendTo(op, target string) string {
	if target == devNull {
		return op + " " + devNull
	}
	return op + "> " + shellquote.Join(target)
}
