package mocks

import (
	"context"
	"errors"
	"time"

	"github.com/godilite/nps-insights/internal/service"
	"github.com/godilite/nps-insights/pkg/fiscal"
)

// MockReportService is a function-field implementation of the handler's
// ReportService. DatasetKey defaults to a fixed key so cached reads work
// without extra setup.
type MockReportService struct {
	ListWeeksFunc     func(ctx context.Context) ([]fiscal.WeekPeriod, error)
	ListMonthsFunc    func(ctx context.Context) ([]fiscal.MonthPeriod, error)
	GetWeekStatsFunc  func(ctx context.Context, key fiscal.WeekKey) (service.WeekReport, error)
	GetMonthStatsFunc func(ctx context.Context, index int) (service.MonthReport, error)
	GetRangeStatsFunc func(ctx context.Context, start, end time.Time) (service.RangeReport, error)
	GetTrendFunc      func(ctx context.Context, q service.TrendQuery) (fiscal.Trend, error)
	ResolveWeekFunc   func(ctx context.Context, t time.Time) (fiscal.WeekPeriod, error)
	DatasetKeyFunc    func(ctx context.Context) (string, error)
}

func (m *MockReportService) ListWeeks(ctx context.Context) ([]fiscal.WeekPeriod, error) {
	if m.ListWeeksFunc != nil {
		return m.ListWeeksFunc(ctx)
	}
	return nil, errors.New("ListWeeksFunc not implemented")
}

func (m *MockReportService) ListMonths(ctx context.Context) ([]fiscal.MonthPeriod, error) {
	if m.ListMonthsFunc != nil {
		return m.ListMonthsFunc(ctx)
	}
	return nil, errors.New("ListMonthsFunc not implemented")
}

func (m *MockReportService) GetWeekStats(ctx context.Context, key fiscal.WeekKey) (service.WeekReport, error) {
	if m.GetWeekStatsFunc != nil {
		return m.GetWeekStatsFunc(ctx, key)
	}
	return service.WeekReport{}, errors.New("GetWeekStatsFunc not implemented")
}

func (m *MockReportService) GetMonthStats(ctx context.Context, index int) (service.MonthReport, error) {
	if m.GetMonthStatsFunc != nil {
		return m.GetMonthStatsFunc(ctx, index)
	}
	return service.MonthReport{}, errors.New("GetMonthStatsFunc not implemented")
}

func (m *MockReportService) GetRangeStats(ctx context.Context, start, end time.Time) (service.RangeReport, error) {
	if m.GetRangeStatsFunc != nil {
		return m.GetRangeStatsFunc(ctx, start, end)
	}
	return service.RangeReport{}, errors.New("GetRangeStatsFunc not implemented")
}

func (m *MockReportService) GetTrend(ctx context.Context, q service.TrendQuery) (fiscal.Trend, error) {
	if m.GetTrendFunc != nil {
		return m.GetTrendFunc(ctx, q)
	}
	return fiscal.Trend{}, errors.New("GetTrendFunc not implemented")
}

func (m *MockReportService) ResolveWeek(ctx context.Context, t time.Time) (fiscal.WeekPeriod, error) {
	if m.ResolveWeekFunc != nil {
		return m.ResolveWeekFunc(ctx, t)
	}
	return fiscal.WeekPeriod{}, errors.New("ResolveWeekFunc not implemented")
}

func (m *MockReportService) DatasetKey(ctx context.Context) (string, error) {
	if m.DatasetKeyFunc != nil {
		return m.DatasetKeyFunc(ctx)
	}
	return "dataset", nil
}
