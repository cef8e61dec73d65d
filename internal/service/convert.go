package service

import (
	"strconv"
	"time"

	"github.com/samber/lo"

	"github.com/godilite/nps-insights/internal/repository/models"
	"github.com/godilite/nps-insights/pkg/fiscal"
)

func toRecords(rows []models.FeedbackRecord) []fiscal.Record {
	return lo.Map(rows, func(r models.FeedbackRecord, _ int) fiscal.Record {
		id := r.ExternalID
		if id == "" {
			id = strconv.FormatInt(r.ID, 10)
		}
		return fiscal.Record{
			ID:        id,
			Timestamp: r.CreatedAt,
			Score:     r.Score,
			Team:      r.Team,
			Reason:    r.Reason,
			SubReason: r.SubReason,
			RootCause: r.RootCause,
			Owner:     r.Owner,
		}
	})
}

func toSamples(rows []models.SampleEntry) []fiscal.SampleEntry {
	return lo.Map(rows, func(e models.SampleEntry, _ int) fiscal.SampleEntry {
		return fiscal.SampleEntry{
			WeekNumber: e.WeekNumber,
			Year:       e.Year,
			SampleSize: max(e.SampleSize, 0),
			StartDate:  e.StartDate,
		}
	})
}

// toSettings converts stored settings. When no month ranges are stored they
// are generated for the years around now.
func toSettings(m models.ReportSettings, found bool, now time.Time) fiscal.Settings {
	s := fiscal.Settings{}
	if found {
		s = fiscal.Settings{
			WeekStartDay:    time.Weekday(((m.WeekStartDay % 7) + 7) % 7),
			Week1Start:      m.Week1Start,
			Week1End:        m.Week1End,
			StartWeekNumber: m.StartWeekNumber,
			Targets:         fiscal.NPSTargets{Promoters: m.PromotersTarget, Detractors: m.DetractorsTarget},
			MonthRanges: lo.Map(m.MonthRanges, func(r models.MonthRange, _ int) fiscal.MonthRange {
				return fiscal.MonthRange{Start: r.Start, End: r.End, Label: r.Label}
			}),
		}
	}

	if len(s.MonthRanges) == 0 {
		for year := now.Year() - 1; year <= now.Year()+1; year++ {
			s.MonthRanges = append(s.MonthRanges, fiscal.GenerateMonthRanges(year, s)...)
		}
	}
	return s
}

// SettingsModel converts engine settings into their stored form.
func SettingsModel(s fiscal.Settings) models.ReportSettings {
	return models.ReportSettings{
		WeekStartDay:     int(s.WeekStartDay),
		Week1Start:       s.Week1Start,
		Week1End:         s.Week1End,
		StartWeekNumber:  s.StartWeekNumber,
		PromotersTarget:  s.Targets.Promoters,
		DetractorsTarget: s.Targets.Detractors,
		MonthRanges: lo.Map(s.MonthRanges, func(r fiscal.MonthRange, _ int) models.MonthRange {
			return models.MonthRange{Start: r.Start, End: r.End, Label: r.Label}
		}),
	}
}
