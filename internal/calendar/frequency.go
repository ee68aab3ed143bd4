package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinInterval is the shortest interval a timer can be encoded with.
const MinInterval = time.Minute

// Symbolic frequencies systemd understands on its own.
var Symbolic = []string{
	"minutely", "hourly", "daily", "weekly", "monthly", "yearly", "quarterly", "semiannually",
}

var units = map[string]time.Duration{
	"second": time.Second,
	"minute": time.Minute,
	"hour":   time.Hour,
	"day":    day,
	"week":   7 * day,
}

// ParseFrequency interprets a frequency label. It accepts, in order:
//
//   - cron expressions (five fields or an "@" descriptor),
//   - Go durations ("90m"), "N.unit" forms ("2.days") and bare seconds ("3600"),
//   - anything else as a symbolic name or raw calendar expression.
func ParseFrequency(label string) (Frequency, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return Frequency{}, fmt.Errorf("empty frequency")
	}

	if looksLikeCron(label) {
		return FromCron(label)
	}

	d, ok, err := parseInterval(label)
	if err != nil {
		return Frequency{}, err
	}
	if !ok {
		return Frequency{Name: label}, nil
	}
	if d < MinInterval {
		return Frequency{}, fmt.Errorf("frequency %q is shorter than %s", label, MinInterval)
	}
	return Frequency{Duration: d}, nil
}

// parseInterval reports ok=false when the label is not an interval at all.
func parseInterval(label string) (time.Duration, bool, error) {
	if n, err := strconv.ParseInt(label, 10, 64); err == nil {
		return time.Duration(n) * time.Second, true, nil
	}
	if d, err := time.ParseDuration(label); err == nil {
		return d, true, nil
	}

	count, unit, found := strings.Cut(label, ".")
	if !found {
		return 0, false, nil
	}
	n, err := strconv.ParseInt(count, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	size, ok := units[strings.TrimSuffix(unit, "s")]
	if !ok {
		return 0, false, fmt.Errorf("unknown interval unit %q in %q", unit, label)
	}
	return time.Duration(n) * size, true, nil
}

func looksLikeCron(label string) bool {
	if strings.HasPrefix(label, "@") || strings.HasPrefix(label, "CRON_TZ=") || strings.HasPrefix(label, "TZ=") {
		return true
	}
	return len(strings.Fields(label)) == 5
}
