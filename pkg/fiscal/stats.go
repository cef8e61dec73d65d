package fiscal

import (
	"math"
	"slices"
	"time"
)

// TargetStatus tells whether a period meets the NPS targets.
type TargetStatus struct {
	PromotersMet  bool `json:"promotersMet"`
	DetractorsMet bool `json:"detractorsMet"`
}

// PeriodStats is the NPS breakdown of one period. Promoters are inferred as
// the reported sample size minus detractors and neutrals.
type PeriodStats struct {
	SampleSize    int          `json:"sampleSize"`
	Detractors    int          `json:"detractors"`
	Neutrals      int          `json:"neutrals"`
	Promoters     int          `json:"promoters"`
	DetractorsPct int          `json:"detractorsPct"`
	NeutralsPct   int          `json:"neutralsPct"`
	PromotersPct  int          `json:"promotersPct"`
	NPS           int          `json:"nps"`
	Targets       TargetStatus `json:"targets"`
}

// percentage rounds half away from zero and clamps to [0, 100]. Each category
// is rounded on its own, so the three shares may not add up to 100.
func percentage(count, sampleSize int) int {
	if sampleSize <= 0 || count <= 0 {
		return 0
	}
	pct := int(math.Round(float64(count) / float64(sampleSize) * 100))
	return min(pct, 100)
}

// ComputeStats turns raw counts into a PeriodStats.
func ComputeStats(detractors, neutrals, sampleSize int, targets NPSTargets) PeriodStats {
	sampleSize = max(sampleSize, 0)
	promoters := max(0, sampleSize-detractors-neutrals)
	st := PeriodStats{
		SampleSize:    sampleSize,
		Detractors:    detractors,
		Neutrals:      neutrals,
		Promoters:     promoters,
		DetractorsPct: percentage(detractors, sampleSize),
		NeutralsPct:   percentage(neutrals, sampleSize),
		PromotersPct:  percentage(promoters, sampleSize),
	}
	st.NPS = st.PromotersPct - st.DetractorsPct
	if sampleSize > 0 {
		st.Targets = TargetStatus{
			PromotersMet:  float64(st.PromotersPct) >= targets.Promoters,
			DetractorsMet: float64(st.DetractorsPct) <= targets.Detractors,
		}
	}
	return st
}

// Tally counts detractors and neutrals among records. Promoters and
// unscored records are not counted.
func Tally(records []Record) (detractors, neutrals int) {
	for _, r := range records {
		switch Classify(r.Score) {
		case Detractor:
			detractors++
		case Neutral:
			neutrals++
		}
	}
	return detractors, neutrals
}

// StatsForWeek computes the stats of one week.
func StatsForWeek(records []Record, samples []SampleEntry, key WeekKey, s Settings) PeriodStats {
	return GroupByPeriod(records, []PeriodKey{WeekPeriodKey(key)}, s, samples)[WeekPeriodKey(key)]
}

// StatsForMonth computes the stats of the month range at index.
func StatsForMonth(records []Record, samples []SampleEntry, index int, s Settings) PeriodStats {
	return GroupByPeriod(records, []PeriodKey{MonthPeriodKey(index)}, s, samples)[MonthPeriodKey(index)]
}

// StatsForRange computes the stats of an arbitrary date range.
func StatsForRange(records []Record, samples []SampleEntry, start, end time.Time, s Settings) PeriodStats {
	d, n := Tally(FilterByDateRange(records, start, end))
	size := AggregateSamples(samples, RangeSampleQuery(start, end, s), s)
	return ComputeStats(d, n, size, s.EffectiveTargets())
}

// GroupByPeriod computes stats for every requested key. Requested keys are
// always present in the result, even when nothing falls into them.
func GroupByPeriod(records []Record, keys []PeriodKey, s Settings, samples []SampleEntry) map[PeriodKey]PeriodStats {
	type counts struct{ detractors, neutrals, sampleSize int }
	acc := make(map[PeriodKey]*counts, len(keys))
	for _, k := range keys {
		acc[k] = &counts{}
	}

	for _, r := range records {
		if r.Timestamp.IsZero() {
			continue
		}
		for _, k := range resolveKeys(r, s, func(k PeriodKey) bool { _, ok := acc[k]; return ok }) {
			switch Classify(r.Score) {
			case Detractor:
				acc[k].detractors++
			case Neutral:
				acc[k].neutrals++
			}
		}
	}

	for k, c := range acc {
		c.sampleSize = AggregateSamples(samples, sampleQueryFor(k, s), s)
	}

	targets := s.EffectiveTargets()
	out := make(map[PeriodKey]PeriodStats, len(acc))
	for k, c := range acc {
		out[k] = ComputeStats(c.detractors, c.neutrals, c.sampleSize, targets)
	}
	return out
}

// resolveKeys returns the requested keys r falls into: at most one week and
// at most one month.
func resolveKeys(r Record, s Settings, requested func(PeriodKey) bool) []PeriodKey {
	var out []PeriodKey
	if week := WeekPeriodKey(WeekKeyOf(r.Timestamp, s)); requested(week) {
		out = append(out, week)
	}
	if idx := MonthIndexOf(r.Timestamp, s); idx >= 0 {
		if month := MonthPeriodKey(idx); requested(month) {
			out = append(out, month)
		}
	}
	return out
}

func sampleQueryFor(k PeriodKey, s Settings) SampleQuery {
	if k.Kind == MonthPeriodKind {
		return SampleQuery{Mode: SampleModeMonth, MonthIndex: k.Month}
	}
	return SampleQuery{Mode: SampleModeWeek, Week: k.Week, WeekStart: WeekStartOf(k.Week, s)}
}

// WeekStartOf finds the first day of the week identified by key by searching
// the weeks whose first day lies in key.Year. A key that no such week carries
// yields the zero time.
func WeekStartOf(key WeekKey, s Settings) time.Time {
	jan1 := time.Date(key.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
	cursor := WeekStart(jan1, s)
	if cursor.Before(jan1) {
		cursor = NextWeekStart(jan1, s)
	}
	for cursor.Year() == key.Year {
		if CustomWeekNumber(cursor, key.Year, s) == key.Week {
			return cursor
		}
		cursor = NextWeekStart(cursor, s)
	}
	return time.Time{}
}

// SortedKeys returns the keys of a GroupByPeriod result in chronological
// order.
func SortedKeys(stats map[PeriodKey]PeriodStats) []PeriodKey {
	keys := make([]PeriodKey, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, PeriodKey.Compare)
	return keys
}
