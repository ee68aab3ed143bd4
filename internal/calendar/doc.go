// Package calendar turns schedule frequencies into systemd calendar
// expressions, the recurrence format understood by OnCalendar= in timer
// units.
//
// A frequency is either a duration, which is encoded into a repetition
// pattern by magnitude, or a symbolic name such as "daily" which is kept
// as-is. Cron expressions are accepted as input and converted to an
// equivalent calendar expression.
package calendar
