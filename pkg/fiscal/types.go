// Package fiscal assigns feedback records to organization-defined weeks and
// months and aggregates them into NPS statistics and trend series.
//
// Every function in this package is a pure computation over its arguments.
// Nothing is cached between calls and no function returns an error: records
// or samples that cannot be placed in a period are skipped.
package fiscal

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
)

const (
	defaultStartWeekNumber   = 1
	defaultPromotersTarget   = 75
	defaultDetractorsTarget  = 8
	weeksPerYear             = 52
	daysPerWeek              = 7
	unspecifiedGroup         = "Unspecified"
	noReason                 = "None"
	maxEnumeratedPeriods     = 1000
	detractorsPerEquivalence = 3
)

// NPSTargets are the percentage goals a period is judged against.
type NPSTargets struct {
	Promoters  float64 `json:"promoters" yaml:"promoters"`
	Detractors float64 `json:"detractors" yaml:"detractors"`
}

// MonthRange is one configured reporting month. Boundaries are inclusive
// calendar days and need not align with calendar months.
type MonthRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Label string    `json:"label"`
}

// Settings is the organization calendar. The zero value is usable: weeks start
// on Sunday, numbering is annual and targets fall back to 75/8.
type Settings struct {
	WeekStartDay    time.Weekday
	Week1Start      time.Time
	Week1End        time.Time
	StartWeekNumber int
	Targets         NPSTargets
	MonthRanges     []MonthRange
}

// Calibrated reports whether both ends of the week-1 anchor are configured.
func (s Settings) Calibrated() bool {
	return !s.Week1Start.IsZero() && !s.Week1End.IsZero()
}

func (s Settings) startWeek() int {
	if s.StartWeekNumber <= 0 {
		return defaultStartWeekNumber
	}
	return s.StartWeekNumber
}

func (s Settings) weekStartDay() time.Weekday {
	if s.WeekStartDay < time.Sunday || s.WeekStartDay > time.Saturday {
		return time.Sunday
	}
	return s.WeekStartDay
}

// EffectiveTargets returns the configured targets with defaults applied.
func (s Settings) EffectiveTargets() NPSTargets {
	t := s.Targets
	if t.Promoters <= 0 && t.Detractors <= 0 {
		return NPSTargets{Promoters: defaultPromotersTarget, Detractors: defaultDetractorsTarget}
	}
	return t
}

// Fingerprint hashes every field that influences period assignment. Callers
// use it as part of memoization keys.
func (s Settings) Fingerprint() uint64 {
	h := xxhash.New()
	var buf [8]byte
	writeInt := func(v int64) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		_, _ = h.Write(buf[:])
	}
	writeDay := func(t time.Time) {
		if t.IsZero() {
			writeInt(0)
			return
		}
		writeInt(civil(t).Unix())
	}

	writeInt(int64(s.weekStartDay()))
	if s.Calibrated() {
		writeDay(s.Week1Start)
		writeDay(s.Week1End)
	} else {
		writeInt(0)
		writeInt(0)
	}
	writeInt(int64(s.startWeek()))
	t := s.EffectiveTargets()
	_, _ = h.WriteString(fmt.Sprintf("%g/%g", t.Promoters, t.Detractors))
	for _, r := range s.MonthRanges {
		writeDay(r.Start)
		writeDay(r.End)
		_, _ = h.WriteString(r.Label)
	}
	return h.Sum64()
}

// Record is a single scored piece of feedback.
type Record struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Score     int       `json:"score"`
	Team      string    `json:"team,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	SubReason string    `json:"subReason,omitempty"`
	RootCause string    `json:"rootCause,omitempty"`
	Owner     string    `json:"owner,omitempty"`
}

// SampleEntry is an externally reported respondent count for one week.
type SampleEntry struct {
	WeekNumber int       `json:"weekNumber"`
	Year       int       `json:"year"`
	SampleSize int       `json:"sampleSize"`
	StartDate  time.Time `json:"startDate,omitempty"`
}

// Category is the NPS partition of an evaluation score.
type Category int

const (
	Unscored Category = iota
	Detractor
	Neutral
	Promoter
)

func (c Category) String() string {
	switch c {
	case Detractor:
		return "detractor"
	case Neutral:
		return "neutral"
	case Promoter:
		return "promoter"
	default:
		return "unscored"
	}
}

// Classify maps a 1–10 score onto its category.
func Classify(score int) Category {
	switch {
	case score >= 1 && score <= 6:
		return Detractor
	case score == 7 || score == 8:
		return Neutral
	case score == 9 || score == 10:
		return Promoter
	default:
		return Unscored
	}
}

// WeekKey identifies a custom week. Year is the calendar year of the week's
// first day.
type WeekKey struct {
	Year int `json:"year"`
	Week int `json:"week"`
}

// Compare orders keys chronologically.
func (k WeekKey) Compare(o WeekKey) int {
	if k.Year != o.Year {
		return cmp.Compare(k.Year, o.Year)
	}
	return cmp.Compare(k.Week, o.Week)
}

func (k WeekKey) String() string {
	return fmt.Sprintf("%d-W%02d", k.Year, k.Week)
}

// MonthKey is the key of the month range at index.
func MonthKey(index int) string {
	return fmt.Sprintf("Month-%d", index+1)
}

// PeriodKind distinguishes week and month periods.
type PeriodKind int

const (
	WeekPeriodKind PeriodKind = iota
	MonthPeriodKind
)

func (k PeriodKind) String() string {
	if k == MonthPeriodKind {
		return "month"
	}
	return "week"
}

// PeriodKey identifies either a week or a month range.
type PeriodKey struct {
	Kind  PeriodKind
	Week  WeekKey
	Month int
}

// WeekPeriodKey wraps a week key.
func WeekPeriodKey(k WeekKey) PeriodKey {
	return PeriodKey{Kind: WeekPeriodKind, Week: k}
}

// MonthPeriodKey wraps a month range index.
func MonthPeriodKey(index int) PeriodKey {
	return PeriodKey{Kind: MonthPeriodKind, Month: index}
}

// Compare orders weeks before months, then chronologically.
func (k PeriodKey) Compare(o PeriodKey) int {
	if k.Kind != o.Kind {
		return cmp.Compare(int(k.Kind), int(o.Kind))
	}
	if k.Kind == MonthPeriodKind {
		return cmp.Compare(k.Month, o.Month)
	}
	return k.Week.Compare(o.Week)
}

func (k PeriodKey) String() string {
	if k.Kind == MonthPeriodKind {
		return MonthKey(k.Month)
	}
	return k.Week.String()
}
