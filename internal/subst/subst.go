// Package subst resolves ":name" placeholders in command templates.
package subst

import (
	"regexp"
	"strings"
)

var (
	placeholder = regexp.MustCompile(`:\w+`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// Substitute replaces every ":name" placeholder in template with the value of
// name in options. Placeholders without an entry are left as they are.
//
// A placeholder wrapped in single quotes (':name') has the single quotes of
// its value escaped as '\'' so the value cannot close the outer quote. A
// placeholder wrapped in double quotes has its double quotes escaped as \".
//
// Whitespace runs in the result collapse to a single space and the result is
// trimmed, so a rendered command always fits on one line.
func Substitute(template string, options map[string]string) string {
	var b strings.Builder
	last := 0

	for _, loc := range placeholder.FindAllStringIndex(template, -1) {
		start, end := loc[0], loc[1]
		value, ok := options[template[start+1:end]]
		if !ok {
			continue
		}

		b.WriteString(template[last:start])
		b.WriteString(escape(value, enclosing(template, start, end)))
		last = end
	}
	b.WriteString(template[last:])

	return strings.TrimSpace(whitespace.ReplaceAllString(b.String(), " "))
}

// enclosing returns the quote character found on both sides of the
// placeholder at template[start:end], or 0.
func enclosing(template string, start, end int) byte {
	if start == 0 || end >= len(template) {
		return 0
	}
	before, after := template[start-1], template[end]
	if before != after {
		return 0
	}
	if before == '\'' || before == '"' {
		return before
	}
	return 0
}

func escape(value string, quote byte) string {
	switch quote {
	case '\'':
		return strings.ReplaceAll(value, `'`, `'\''`)
	case '"':
		return strings.ReplaceAll(value, `"`, `\"`)
	default:
		return value
	}
}

// Expand runs the two-level expansion used for job commands. The task
// template is resolved first; its result is injected as the "job" option
// into the job template. Every "%" of the final command is doubled since
// systemd treats it as a specifier prefix.
func Expand(taskTemplate, jobTemplate string, options map[string]string) string {
	inner := make(map[string]string, len(options)+1)
	for k, v := range options {
		inner[k] = v
	}
	inner["job"] = Substitute(taskTemplate, options)

	return strings.ReplaceAll(Substitute(jobTemplate, inner), "%", "%%")
}
