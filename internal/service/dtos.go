package service

import (
	"time"

	"github.com/godilite/nps-insights/pkg/fiscal"
)

type WeekReport struct {
	Period fiscal.WeekPeriod  `json:"period"`
	Stats  fiscal.PeriodStats `json:"stats"`
}

type MonthReport struct {
	Period fiscal.MonthPeriod `json:"period"`
	Stats  fiscal.PeriodStats `json:"stats"`
}

type RangeReport struct {
	Start time.Time          `json:"start"`
	End   time.Time          `json:"end"`
	Stats fiscal.PeriodStats `json:"stats"`
}

// TrendQuery selects a trend. Span <= 0 falls back to the default span of the
// period kind; a complete Range takes precedence over Span.
type TrendQuery struct {
	Period  fiscal.PeriodKind
	Span    int
	GroupBy fiscal.TrendGroupBy
	Range   *fiscal.DateRange
}
