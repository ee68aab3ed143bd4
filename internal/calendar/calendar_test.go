package calendar

import (
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDuration_UnderAnHour(t *testing.T) {
	t.Parallel()

	pattern := regexp.MustCompile(`^\*:0/(\d+)$`)
	for d := time.Duration(0); d < time.Hour; d += 7 * time.Second {
		got := EncodeDuration(d)
		m := pattern.FindStringSubmatch(got)
		require.NotNil(t, m, "duration %s encoded as %q", d, got)
		assert.Equal(t, fmt.Sprint(int64(d/time.Minute)), m[1], "duration %s", d)
	}
}

func TestEncodeDuration_HoursRange(t *testing.T) {
	t.Parallel()

	pattern := regexp.MustCompile(`^0/(\d+):0(/\d+)?$`)
	for d := time.Hour; d < 24*time.Hour; d += 13 * time.Minute {
		got := EncodeDuration(d)
		m := pattern.FindStringSubmatch(got)
		require.NotNil(t, m, "duration %s encoded as %q", d, got)
		assert.Equal(t, fmt.Sprint(int64(d/time.Hour)), m[1])
		assert.NotContains(t, got[len(got)-2:], "/0", "trailing minute repeat of zero must be stripped")
	}
}

func TestEncodeDuration(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		in       time.Duration
		expected string
	}{
		{name: "quarter hour", in: 15 * time.Minute, expected: "*:0/15"},
		{name: "exact hour", in: time.Hour, expected: "0/1:0"},
		{name: "hour and a half", in: 90 * time.Minute, expected: "0/1:0/30"},
		{name: "six hours", in: 6 * time.Hour, expected: "0/6:0"},
		{name: "one day", in: 24 * time.Hour, expected: "0:0:0/86400"},
		{name: "two days", in: 48 * time.Hour, expected: "0:0:0/172800"},
		{name: "seconds truncated", in: 10*time.Minute + 59*time.Second, expected: "*:0/10"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, EncodeDuration(tc.in))
		})
	}
}

func TestEncode_IsDeterministic(t *testing.T) {
	t.Parallel()

	f := Frequency{Duration: 95 * time.Minute}
	assert.Equal(t, Encode(f), Encode(f))
	assert.Equal(t, "daily", Encode(Frequency{Name: "daily"}))
}

func TestCompose(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		interval string
		at       string
		expected string
	}{
		{name: "daily at time is normalized", interval: "daily", at: "04:30:00", expected: "*-*-* 04:30:00"},
		{name: "daily alone stays symbolic", interval: "daily", expected: "daily"},
		{name: "hourly is not normalized", interval: "hourly", at: "00:05", expected: "hourly 00:05"},
		{name: "weekdays with time", interval: Weekdays("Mon", "Fri"), at: "10:00", expected: "Mon,Fri *-*-* 10:00"},
		{name: "at only", at: "04:30", expected: "04:30"},
		{name: "encoded interval with at", interval: EncodeDuration(time.Hour), at: "00:05", expected: "0/1:0 00:05"},
		{name: "nothing", expected: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Compose(tc.interval, tc.at))
		})
	}
}

func TestParseFrequency(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		label     string
		expected  Frequency
		expectErr bool
	}{
		{name: "go duration", label: "90m", expected: Frequency{Duration: 90 * time.Minute}},
		{name: "dotted unit", label: "2.days", expected: Frequency{Duration: 48 * time.Hour}},
		{name: "dotted singular unit", label: "1.hour", expected: Frequency{Duration: time.Hour}},
		{name: "bare seconds", label: "3600", expected: Frequency{Duration: time.Hour}},
		{name: "symbolic", label: "daily", expected: Frequency{Name: "daily"}},
		{name: "raw calendar", label: "Mon *-*-* 10:00", expected: Frequency{Name: "Mon *-*-* 10:00"}},
		{name: "cron every", label: "@every 2h", expected: Frequency{Duration: 2 * time.Hour}},
		{name: "cron daily", label: "0 4 * * *", expected: Frequency{Name: "*-*-* 04:00:00", Complete: true}},
		{name: "error - empty", label: "  ", expectErr: true},
		{name: "error - too short", label: "30s", expectErr: true},
		{name: "error - unknown unit", label: "3.fortnights", expectErr: true},
		{name: "error - bad cron", label: "99 * * * *", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseFrequency(tc.label)
			if tc.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestFromCron(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		expr     string
		expected string
	}{
		{expr: "@daily", expected: "*-*-* 00:00:00"},
		{expr: "@monthly", expected: "*-*-01 00:00:00"},
		{expr: "30 2 * * *", expected: "*-*-* 02:30:00"},
		{expr: "*/15 * * * *", expected: "*-*-* *:00,15,30,45:00"},
		{expr: "0 9 * * 1-5", expected: "Mon,Tue,Wed,Thu,Fri *-*-* 09:00:00"},
		{expr: "0 0 1 1,7 *", expected: "*-01,07-01 00:00:00"},
		{expr: "CRON_TZ=UTC 0 6 * * *", expected: "*-*-* 06:00:00 UTC"},
	}

	for _, tc := range testCases {
		t.Run(tc.expr, func(t *testing.T) {
			got, err := FromCron(tc.expr)
			require.NoError(t, err)
			assert.True(t, got.Complete)
			assert.Equal(t, tc.expected, got.Name)
		})
	}
}
