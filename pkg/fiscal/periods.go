package fiscal

import (
	"slices"
	"time"
)

// WeekPeriod describes one custom week.
type WeekPeriod struct {
	Year  int       `json:"year"`
	Week  int       `json:"week"`
	Key   string    `json:"key"`
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// WeekKey returns the structured key of the period.
func (p WeekPeriod) WeekKey() WeekKey {
	return WeekKey{Year: p.Year, Week: p.Week}
}

// MonthPeriod describes one configured month range. Month is the 1-based
// position of the range in Settings.MonthRanges.
type MonthPeriod struct {
	Year  int       `json:"year"`
	Month int       `json:"month"`
	Key   string    `json:"key"`
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Index returns the position of the range in Settings.MonthRanges.
func (p MonthPeriod) Index() int {
	return p.Month - 1
}

// AvailableWeeks lists every week that holds at least one record, plus the
// week containing now, newest first.
func AvailableWeeks(records []Record, now time.Time, s Settings) []WeekPeriod {
	seen := make(map[WeekKey]WeekPeriod)
	add := func(ts time.Time) {
		key := WeekKeyOf(ts, s)
		if _, ok := seen[key]; !ok {
			seen[key] = WeekPeriodOf(ts, s)
		}
	}

	for _, r := range records {
		if r.Timestamp.IsZero() {
			continue
		}
		add(r.Timestamp)
	}
	add(now)

	out := make([]WeekPeriod, 0, len(seen))
	for _, p := range seen {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b WeekPeriod) int {
		return b.WeekKey().Compare(a.WeekKey())
	})
	return out
}

// AvailableMonths lists every configured month range in configuration order,
// including ranges no record falls into.
func AvailableMonths(s Settings) []MonthPeriod {
	out := make([]MonthPeriod, 0, len(s.MonthRanges))
	for i := range s.MonthRanges {
		out = append(out, monthPeriod(i, s))
	}
	return out
}

func monthPeriod(index int, s Settings) MonthPeriod {
	r := s.MonthRanges[index]
	start, end := civil(r.Start), civil(r.End)
	label := r.Label
	if label == "" {
		label = MonthKey(index)
	}
	mid := addDays(start, daysBetween(start, end)/2)
	return MonthPeriod{
		Year:  mid.Year(),
		Month: index + 1,
		Key:   MonthKey(index),
		Label: label,
		Start: start,
		End:   end,
	}
}

// MonthIndexOf returns the index of the first month range containing ts, or
// -1 when none does.
func MonthIndexOf(ts time.Time, s Settings) int {
	if ts.IsZero() {
		return -1
	}
	for i, r := range s.MonthRanges {
		if withinDays(ts, r.Start, r.End) {
			return i
		}
	}
	return -1
}

// GenerateMonthRanges derives twelve reporting months for year from the week
// calendar: a month holds every custom week whose first day falls in that
// calendar month.
func GenerateMonthRanges(year int, s Settings) []MonthRange {
	firstWeekIn := func(y int, m time.Month) time.Time {
		first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
		start := WeekStart(first, s)
		if start.Before(first) {
			start = NextWeekStart(first, s)
		}
		return start
	}

	out := make([]MonthRange, 0, 12)
	for m := time.January; m <= time.December; m++ {
		start := firstWeekIn(year, m)
		next := firstWeekIn(year, m+1)
		out = append(out, MonthRange{
			Start: start,
			End:   addDays(next, -1),
			Label: time.Date(year, m, 1, 0, 0, 0, 0, time.UTC).Format("January 2006"),
		})
	}
	return out
}

// RecentWeeks returns the n consecutive weeks ending with the week containing
// now, oldest first.
func RecentWeeks(now time.Time, n int, s Settings) []WeekPeriod {
	if n <= 0 {
		return nil
	}
	n = min(n, maxEnumeratedPeriods)
	out := make([]WeekPeriod, n)
	cursor := WeekStart(now, s)
	for i := n - 1; i >= 0; i-- {
		out[i] = WeekPeriodOf(cursor, s)
		cursor = PreviousWeekStart(cursor, s)
	}
	return out
}

// WeeksInRange returns every week whose first day lies in [start, end],
// oldest first.
func WeeksInRange(start, end time.Time, s Settings) []WeekPeriod {
	if start.IsZero() || end.IsZero() || civil(end).Before(civil(start)) {
		return nil
	}
	var out []WeekPeriod
	cursor := WeekStart(start, s)
	for i := 0; i < maxEnumeratedPeriods && !cursor.After(civil(end)); i++ {
		if !cursor.Before(civil(start)) {
			out = append(out, WeekPeriodOf(cursor, s))
		}
		cursor = NextWeekStart(cursor, s)
	}
	return out
}

// RecentMonths returns up to n configured months ending with the one that
// contains now, oldest first. When no range contains now the latest range
// starting on or before now is used.
func RecentMonths(now time.Time, n int, s Settings) []MonthPeriod {
	if n <= 0 || len(s.MonthRanges) == 0 {
		return nil
	}
	last := MonthIndexOf(now, s)
	if last < 0 {
		for i, r := range s.MonthRanges {
			if !civil(r.Start).After(civil(now)) {
				last = i
			}
		}
	}
	if last < 0 {
		return nil
	}
	first := max(0, last-n+1)
	out := make([]MonthPeriod, 0, last-first+1)
	for i := first; i <= last; i++ {
		out = append(out, monthPeriod(i, s))
	}
	return out
}

// MonthsInRange returns every configured month whose first day lies in
// [start, end], sorted by start.
func MonthsInRange(start, end time.Time, s Settings) []MonthPeriod {
	if start.IsZero() || end.IsZero() {
		return nil
	}
	var out []MonthPeriod
	for i, r := range s.MonthRanges {
		if withinDays(r.Start, start, end) {
			out = append(out, monthPeriod(i, s))
		}
	}
	slices.SortStableFunc(out, func(a, b MonthPeriod) int {
		return a.Start.Compare(b.Start)
	})
	return out
}

// WeekStarts maps every week between start and end (inclusive, by first day)
// to its first day. The result feeds range-mode sample aggregation.
func WeekStarts(start, end time.Time, s Settings) map[WeekKey]time.Time {
	out := make(map[WeekKey]time.Time)
	if start.IsZero() || end.IsZero() {
		return out
	}
	cursor := WeekStart(start, s)
	for i := 0; i < maxEnumeratedPeriods && !cursor.After(civil(end)); i++ {
		out[WeekKeyOf(cursor, s)] = cursor
		cursor = NextWeekStart(cursor, s)
	}
	return out
}
