package fiscal

import (
	"cmp"
	"slices"
	"time"
)

// TrendGroupBy selects the record field trend series are split by.
type TrendGroupBy int

const (
	GroupByTeam TrendGroupBy = iota
	GroupByReason
)

func (g TrendGroupBy) String() string {
	if g == GroupByReason {
		return "reason"
	}
	return "team"
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Complete reports whether both bounds are set.
func (r DateRange) Complete() bool {
	return !r.Start.IsZero() && !r.End.IsZero()
}

// TrendRequest selects the periods and grouping of a trend. A complete Range
// takes precedence over Span.
type TrendRequest struct {
	Period  PeriodKind
	Span    int
	GroupBy TrendGroupBy
	Range   *DateRange
	Now     time.Time
}

// TrendPeriod is one analyzed period, in chronological order.
type TrendPeriod struct {
	Key   string    `json:"key"`
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ReasonCount is one row of a reason frequency table.
type ReasonCount struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

// GroupTrend holds the series of one group key. Every series has one entry per
// analyzed period.
type GroupTrend struct {
	Periods              []string      `json:"periods"`
	Detractors           []int         `json:"detractors"`
	Neutrals             []int         `json:"neutrals"`
	TotalViolations      []int         `json:"totalViolations"`
	EquivalentDetractors []int         `json:"equivalentDetractors"`
	TopReason            string        `json:"topReason"`
	TopReasonCount       int           `json:"topReasonCount"`
	AllReasons           []ReasonCount `json:"allReasons"`
}

// Trend is the result of BuildTrend.
type Trend struct {
	Periods []TrendPeriod         `json:"periods"`
	Groups  map[string]GroupTrend `json:"groups"`
}

// BuildTrend splits detractor and neutral counts by group key across the
// requested periods. Promoters are not part of trend series, but a group
// whose records in the window are all promoters is still listed, with zero
// series and TopReason "None".
func BuildTrend(records []Record, req TrendRequest, s Settings) Trend {
	periods := TrendPeriods(req, s)
	if req.Range != nil && req.Range.Complete() {
		records = FilterByDateRange(records, req.Range.Start, req.Range.End)
	}

	labels := make([]string, len(periods))
	for i, p := range periods {
		labels[i] = p.Label
	}

	type builder struct {
		detractors []int
		neutrals   []int
		reasons    map[string]int
	}
	builders := make(map[string]*builder)

	for _, r := range records {
		i := periodIndex(r.Timestamp, periods)
		if i < 0 {
			continue
		}
		key := groupValue(r, req.GroupBy)
		b, ok := builders[key]
		if !ok {
			b = &builder{
				detractors: make([]int, len(periods)),
				neutrals:   make([]int, len(periods)),
				reasons:    make(map[string]int),
			}
			builders[key] = b
		}
		switch Classify(r.Score) {
		case Detractor:
			b.detractors[i]++
		case Neutral:
			b.neutrals[i]++
		default:
			continue
		}
		b.reasons[orUnspecified(r.Reason)]++
	}

	groups := make(map[string]GroupTrend, len(builders))
	for key, b := range builders {
		g := GroupTrend{
			Periods:              slices.Clone(labels),
			Detractors:           b.detractors,
			Neutrals:             b.neutrals,
			TotalViolations:      make([]int, len(periods)),
			EquivalentDetractors: make([]int, len(periods)),
			TopReason:            noReason,
			AllReasons:           rankReasons(b.reasons),
		}
		for i := range periods {
			g.TotalViolations[i] = b.detractors[i] + b.neutrals[i]
			g.EquivalentDetractors[i] = b.detractors[i] + b.neutrals[i]/detractorsPerEquivalence
		}
		if len(g.AllReasons) > 0 {
			g.TopReason = g.AllReasons[0].Reason
			g.TopReasonCount = g.AllReasons[0].Count
		}
		groups[key] = g
	}

	return Trend{Periods: periods, Groups: groups}
}

// TrendPeriods resolves the chronological list of periods a trend covers.
func TrendPeriods(req TrendRequest, s Settings) []TrendPeriod {
	useRange := req.Range != nil && req.Range.Complete()
	var out []TrendPeriod

	if req.Period == MonthPeriodKind {
		var months []MonthPeriod
		if useRange {
			months = MonthsInRange(req.Range.Start, req.Range.End, s)
		} else {
			months = RecentMonths(req.Now, req.Span, s)
		}
		for _, m := range months {
			out = append(out, TrendPeriod{Key: m.Key, Label: m.Label, Start: m.Start, End: m.End})
		}
		return out
	}

	var weeks []WeekPeriod
	if useRange {
		weeks = WeeksInRange(req.Range.Start, req.Range.End, s)
	} else {
		weeks = RecentWeeks(req.Now, req.Span, s)
	}
	for _, w := range weeks {
		out = append(out, TrendPeriod{Key: w.Key, Label: w.Key, Start: w.Start, End: w.End})
	}
	return out
}

func periodIndex(ts time.Time, periods []TrendPeriod) int {
	if ts.IsZero() {
		return -1
	}
	for i, p := range periods {
		if withinDays(ts, p.Start, p.End) {
			return i
		}
	}
	return -1
}

func groupValue(r Record, by TrendGroupBy) string {
	if by == GroupByReason {
		return orUnspecified(r.Reason)
	}
	return orUnspecified(r.Team)
}

func orUnspecified(v string) string {
	if v == "" {
		return unspecifiedGroup
	}
	return v
}

// rankReasons sorts by count descending, then by reason.
func rankReasons(freq map[string]int) []ReasonCount {
	out := make([]ReasonCount, 0, len(freq))
	for reason, n := range freq {
		out = append(out, ReasonCount{Reason: reason, Count: n})
	}
	slices.SortFunc(out, func(a, b ReasonCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Reason, b.Reason)
	})
	return out
}
