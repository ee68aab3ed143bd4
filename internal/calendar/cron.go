package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

var weekdayNames = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// FromCron converts a standard cron expression into a frequency.
//
// "@every <duration>" becomes an interval; every other expression becomes
// a complete calendar expression of the form
// "[Dow ]*-MM-DD HH:MM:SS[ TZ]". Cron ORs day-of-month and day-of-week when
// both are restricted while systemd ANDs them, so such expressions match
// fewer days once converted.
func FromCron(expr string) (Frequency, error) {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return Frequency{}, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}

	switch s := sched.(type) {
	case cron.ConstantDelaySchedule:
		if s.Delay < MinInterval {
			return Frequency{}, fmt.Errorf("frequency %q is shorter than %s", expr, MinInterval)
		}
		return Frequency{Duration: s.Delay}, nil
	case *cron.SpecSchedule:
		return Frequency{Name: specCalendar(s), Complete: true}, nil
	default:
		return Frequency{}, fmt.Errorf("unsupported cron schedule %T", sched)
	}
}

func specCalendar(s *cron.SpecSchedule) string {
	var b strings.Builder

	if dow := cronField(s.Dow, 0, 6, weekdayNames); dow != "*" {
		b.WriteString(dow)
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "*-%s-%s %s:%s:%s",
		cronField(s.Month, 1, 12, nil),
		cronField(s.Dom, 1, 31, nil),
		cronField(s.Hour, 0, 23, nil),
		cronField(s.Minute, 0, 59, nil),
		cronField(s.Second, 0, 59, nil),
	)

	if loc := s.Location; loc != nil && loc != time.Local && loc.String() != "Local" {
		b.WriteByte(' ')
		b.WriteString(loc.String())
	}
	return b.String()
}

// cronField renders the set bits of a cron field as a comma list, or "*"
// when every value in [lo, hi] is set.
func cronField(bits uint64, lo, hi uint, names []string) string {
	var values []string
	all := true
	for i := lo; i <= hi; i++ {
		if bits&(1<<i) == 0 {
			all = false
			continue
		}
		if names != nil {
			values = append(values, names[i])
		} else {
			values = append(values, fmt.Sprintf("%02d", i))
		}
	}
	if all {
		return "*"
	}
	return strings.Join(values, ",")
}
