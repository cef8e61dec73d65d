package fiscal

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// civil strips the time of day and reinterprets the wall-clock date in UTC,
// so day arithmetic is never shifted by DST transitions.
func civil(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(civil(to).Sub(civil(from)).Hours() / 24)
}

func addDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// onOrAfter returns the first day on or after d falling on wd.
func onOrAfter(d time.Time, wd time.Weekday) time.Time {
	offset := (int(wd) - int(d.Weekday()) + daysPerWeek) % daysPerWeek
	return addDays(d, offset)
}

// withinDays reports whether t's calendar day lies in [start, end].
func withinDays(t, start, end time.Time) bool {
	d := civil(t)
	return !d.Before(civil(start)) && !d.After(civil(end))
}

func sameDay(a, b time.Time) bool {
	return civil(a).Equal(civil(b))
}

func (s Settings) anchor() (start, end time.Time) {
	start, end = civil(s.Week1Start), civil(s.Week1End)
	if end.Before(start) {
		start, end = end, start
	}
	return start, end
}

// firstRegularWeekStart is the first day strictly after the anchor's end that
// falls on the configured week start day.
func (s Settings) firstRegularWeekStart() time.Time {
	_, end := s.anchor()
	return onOrAfter(addDays(end, 1), s.weekStartDay())
}

// CustomWeekNumber returns the organization week number of ts. The year only
// matters when no calibration anchor is configured, in which case week 1 starts
// on the first configured week start day of that year and earlier days are
// week 0.
func CustomWeekNumber(ts time.Time, year int, s Settings) int {
	d := civil(ts)
	start := s.startWeek()

	if !s.Calibrated() {
		first := onOrAfter(time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), s.weekStartDay())
		if d.Before(first) {
			return 0
		}
		return daysBetween(first, d)/daysPerWeek + 1
	}

	anchorStart, anchorEnd := s.anchor()
	switch {
	case !d.Before(anchorStart) && !d.After(anchorEnd):
		return start

	case d.After(anchorEnd):
		first := s.firstRegularWeekStart()
		if d.Before(first) {
			return start
		}
		return start + 1 + daysBetween(first, d)/daysPerWeek

	default:
		diffWeeks := (daysBetween(d, anchorStart) + daysPerWeek - 1) / daysPerWeek
		week := start - diffWeeks
		for week <= 0 {
			week += weeksPerYear
		}
		return week
	}
}

// WeekStart returns the first day of the week containing ts, as a UTC
// midnight. With calibration the anchor interval is one week regardless of its
// length, days before it fall into seven-day blocks ending the day before the
// anchor, and later days into seven-day blocks from the first regular week.
func WeekStart(ts time.Time, s Settings) time.Time {
	d := civil(ts)
	if !s.Calibrated() {
		back := (int(d.Weekday()) - int(s.weekStartDay()) + daysPerWeek) % daysPerWeek
		return addDays(d, -back)
	}

	anchorStart, _ := s.anchor()
	if d.Before(anchorStart) {
		blocks := (daysBetween(d, anchorStart) + daysPerWeek - 1) / daysPerWeek
		return addDays(anchorStart, -blocks*daysPerWeek)
	}
	first := s.firstRegularWeekStart()
	if d.Before(first) {
		return anchorStart
	}
	return addDays(first, daysBetween(first, d)/daysPerWeek*daysPerWeek)
}

// NextWeekStart returns the first day of the week following the one that
// contains ts.
func NextWeekStart(ts time.Time, s Settings) time.Time {
	start := WeekStart(ts, s)
	if s.Calibrated() {
		if anchorStart, _ := s.anchor(); start.Equal(anchorStart) {
			return s.firstRegularWeekStart()
		}
	}
	return addDays(start, daysPerWeek)
}

// PreviousWeekStart returns the first day of the week preceding the one that
// contains ts.
func PreviousWeekStart(ts time.Time, s Settings) time.Time {
	return WeekStart(addDays(WeekStart(ts, s), -1), s)
}

// WeekBounds returns the first and last calendar day of the week containing ts.
func WeekBounds(ts time.Time, s Settings) (start, end time.Time) {
	return WeekStart(ts, s), addDays(NextWeekStart(ts, s), -1)
}

// WeekKeyOf returns the bucket ts belongs to. The key's year is taken from the
// week's first day so a week spanning New Year has a single key. More than a
// year before the anchor two weeks of one year can wrap to the same number and
// so share a key.
func WeekKeyOf(ts time.Time, s Settings) WeekKey {
	start := WeekStart(ts, s)
	return WeekKey{Year: start.Year(), Week: CustomWeekNumber(start, start.Year(), s)}
}

// WeekPeriodOf describes the week containing ts.
func WeekPeriodOf(ts time.Time, s Settings) WeekPeriod {
	start, end := WeekBounds(ts, s)
	key := WeekKeyOf(ts, s)
	return WeekPeriod{
		Year:  key.Year,
		Week:  key.Week,
		Key:   key.String(),
		Label: fmt.Sprintf("Week %d, %d (%s to %s)", key.Week, key.Year, start.Format(dateLayout), end.Format(dateLayout)),
		Start: start,
		End:   end,
	}
}
