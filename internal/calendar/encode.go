package calendar

import (
	"fmt"
	"strings"
	"time"
)

const day = 24 * time.Hour

// normalized maps symbolic frequencies to the date part they stand for once
// an explicit time of day is attached to them.
var normalized = map[string]string{
	"daily": "*-*-*",
}

// Frequency is the recurrence of a scheduling block.
type Frequency struct {
	// Duration is set for interval frequencies ("1h", "2.days").
	Duration time.Duration
	// Name holds a symbolic frequency ("daily") or a raw calendar expression.
	Name string
	// Complete marks calendar expressions that already carry a time of day,
	// as produced from cron expressions.
	Complete bool
}

// IsDuration reports whether the frequency is an interval.
func (f Frequency) IsDuration() bool {
	return f.Name == "" && f.Duration > 0
}

// String returns the encoded calendar expression.
func (f Frequency) String() string {
	return Encode(f)
}

// Encode returns the calendar expression for a frequency. Intervals are
// encoded with EncodeDuration, names are returned unchanged.
func Encode(f Frequency) string {
	if f.IsDuration() {
		return EncodeDuration(f.Duration)
	}
	return f.Name
}

// EncodeDuration selects a repetition pattern by magnitude:
//
//	d < 1h         *:0/<minutes>
//	1h <= d < 1d   0/<hours>:0/<minutes>  (a trailing "/0" is dropped)
//	d >= 1d        0:0:0/<seconds>
//
// Components are whole numbers; sub-unit remainders are truncated.
func EncodeDuration(d time.Duration) string {
	switch {
	case d < time.Hour:
		return fmt.Sprintf("*:0/%d", int64(d/time.Minute))
	case d < day:
		hours := int64(d / time.Hour)
		minutes := int64((d % time.Hour) / time.Minute)
		return strings.TrimSuffix(fmt.Sprintf("0/%d:0/%d", hours, minutes), "/0")
	default:
		return fmt.Sprintf("0:0:0/%d", int64(d/time.Second))
	}
}

// Compose joins an interval and an at-time into one calendar expression.
// Empty parts are skipped. When both are present, symbolic intervals with a
// date equivalent ("daily") are replaced by it so that the time of day
// attaches to a date pattern.
func Compose(interval, at string) string {
	var parts []string
	for _, p := range []string{interval, at} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 1 {
		if date, ok := normalized[parts[0]]; ok {
			parts[0] = date
		}
	}
	return strings.Join(parts, " ")
}

// Weekdays returns the calendar date pattern for the given days of week,
// e.g. "Mon,Fri *-*-*".
func Weekdays(days ...string) string {
	return strings.Join(days, ",") + " *-*-*"
}
