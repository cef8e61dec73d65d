package fiscal

import (
	"slices"
	"time"

	"github.com/samber/lo"
)

// FilterByWeek keeps records whose week, keyed by the year of the week's
// first day, equals key.
func FilterByWeek(records []Record, key WeekKey, s Settings) []Record {
	return lo.Filter(records, func(r Record, _ int) bool {
		if r.Timestamp.IsZero() {
			return false
		}
		return WeekKeyOf(r.Timestamp, s) == key
	})
}

// FilterByMonth keeps records falling inside the month range at index. An
// index outside the configured ranges matches nothing.
func FilterByMonth(records []Record, index int, s Settings) []Record {
	if index < 0 || index >= len(s.MonthRanges) {
		return []Record{}
	}
	r := s.MonthRanges[index]
	return lo.Filter(records, func(rec Record, _ int) bool {
		return !rec.Timestamp.IsZero() && withinDays(rec.Timestamp, r.Start, r.End)
	})
}

// FilterByDateRange keeps records between the first instant of start's day and
// the last instant of end's day. A missing bound returns every record.
func FilterByDateRange(records []Record, start, end time.Time) []Record {
	if start.IsZero() || end.IsZero() {
		return slices.Clone(records)
	}
	return lo.Filter(records, func(r Record, _ int) bool {
		return !r.Timestamp.IsZero() && withinDays(r.Timestamp, start, end)
	})
}
