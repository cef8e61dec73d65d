package fiscal

import (
	"time"

	"github.com/samber/lo"
)

// SampleMode selects how AggregateSamples matches entries.
type SampleMode int

const (
	SampleModeAll SampleMode = iota
	SampleModeWeek
	SampleModeMonth
	SampleModeRange
)

// SampleQuery describes the period samples are summed for. Only the fields of
// the selected mode are read.
type SampleQuery struct {
	Mode SampleMode

	// SampleModeWeek
	Week      WeekKey
	WeekStart time.Time

	// SampleModeMonth
	MonthIndex int

	// SampleModeRange
	RangeStart time.Time
	RangeEnd   time.Time
	WeekStarts map[WeekKey]time.Time
}

// WeekSampleQuery builds a week-mode query for the week containing ts.
func WeekSampleQuery(ts time.Time, s Settings) SampleQuery {
	return SampleQuery{Mode: SampleModeWeek, Week: WeekKeyOf(ts, s), WeekStart: WeekStart(ts, s)}
}

// RangeSampleQuery builds a range-mode query with the week starts it needs.
func RangeSampleQuery(start, end time.Time, s Settings) SampleQuery {
	return SampleQuery{
		Mode:       SampleModeRange,
		RangeStart: start,
		RangeEnd:   end,
		WeekStarts: WeekStarts(start, end, s),
	}
}

type verdict int

const (
	abstain verdict = iota
	accept
	reject
)

// matchStrategy inspects one signal of a sample. Strategies abstain when the
// sample does not carry their signal.
type matchStrategy func(SampleEntry) verdict

// AggregateSamples sums the sample sizes of entries matching q. Strategies of
// the mode run in priority order and the first one that does not abstain
// decides; a sample nobody decides on is excluded.
func AggregateSamples(samples []SampleEntry, q SampleQuery, s Settings) int {
	strategies := strategiesFor(q, s)
	return lo.SumBy(samples, func(e SampleEntry) int {
		if q.Mode != SampleModeAll && !matches(e, strategies) {
			return 0
		}
		return max(e.SampleSize, 0)
	})
}

func matches(e SampleEntry, strategies []matchStrategy) bool {
	for _, strategy := range strategies {
		switch strategy(e) {
		case accept:
			return true
		case reject:
			return false
		}
	}
	return false
}

func strategiesFor(q SampleQuery, s Settings) []matchStrategy {
	switch q.Mode {
	case SampleModeWeek:
		return []matchStrategy{
			exactStartDate(q.WeekStart),
			weekAndYear(q.Week),
		}
	case SampleModeMonth:
		if q.MonthIndex < 0 || q.MonthIndex >= len(s.MonthRanges) {
			return nil
		}
		r := s.MonthRanges[q.MonthIndex]
		return []matchStrategy{
			startDateWithin(r.Start, r.End),
			anchorOffsetWithin(s, r.Start, r.End),
		}
	case SampleModeRange:
		if q.RangeStart.IsZero() || q.RangeEnd.IsZero() {
			return nil
		}
		return []matchStrategy{
			startDateWithin(q.RangeStart, q.RangeEnd),
			impliedWeekOverlaps(q.WeekStarts, q.RangeStart, q.RangeEnd),
		}
	default:
		return nil
	}
}

// exactStartDate accepts samples whose own start date is the week's first day.
// Other dated samples are left to the week/year check.
func exactStartDate(weekStart time.Time) matchStrategy {
	return func(e SampleEntry) verdict {
		if e.StartDate.IsZero() || weekStart.IsZero() {
			return abstain
		}
		if sameDay(e.StartDate, weekStart) {
			return accept
		}
		return abstain
	}
}

func weekAndYear(key WeekKey) matchStrategy {
	return func(e SampleEntry) verdict {
		if e.WeekNumber <= 0 || e.Year <= 0 {
			return abstain
		}
		if e.WeekNumber == key.Week && e.Year == key.Year {
			return accept
		}
		return reject
	}
}

func startDateWithin(start, end time.Time) matchStrategy {
	return func(e SampleEntry) verdict {
		if e.StartDate.IsZero() {
			return abstain
		}
		if withinDays(e.StartDate, start, end) {
			return accept
		}
		return reject
	}
}

// anchorOffsetWithin estimates a sample's week start as Week1Start plus
// (weekNumber-1) weeks.
func anchorOffsetWithin(s Settings, start, end time.Time) matchStrategy {
	return func(e SampleEntry) verdict {
		if !s.Calibrated() || e.WeekNumber <= 0 {
			return abstain
		}
		anchorStart, _ := s.anchor()
		estimated := addDays(anchorStart, (e.WeekNumber-1)*daysPerWeek)
		if withinDays(estimated, start, end) {
			return accept
		}
		return reject
	}
}

func impliedWeekOverlaps(weekStarts map[WeekKey]time.Time, start, end time.Time) matchStrategy {
	return func(e SampleEntry) verdict {
		weekStart, ok := weekStarts[WeekKey{Year: e.Year, Week: e.WeekNumber}]
		if !ok {
			return abstain
		}
		weekEnd := addDays(civil(weekStart), daysPerWeek-1)
		if !weekEnd.Before(civil(start)) && !civil(weekStart).After(civil(end)) {
			return accept
		}
		return reject
	}
}
