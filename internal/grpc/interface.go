package grpc

import (
	"context"
	"time"

	"github.com/godilite/nps-insights/internal/service"
	"github.com/godilite/nps-insights/pkg/fiscal"
)

// Cacher defines the interface for cache operations. Misses are reported as
// redis.Nil.
type Cacher interface {
	Close() error
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

type ReportService interface {
	ListWeeks(ctx context.Context) ([]fiscal.WeekPeriod, error)
	ListMonths(ctx context.Context) ([]fiscal.MonthPeriod, error)
	GetWeekStats(ctx context.Context, key fiscal.WeekKey) (service.WeekReport, error)
	GetMonthStats(ctx context.Context, index int) (service.MonthReport, error)
	GetRangeStats(ctx context.Context, start, end time.Time) (service.RangeReport, error)
	GetTrend(ctx context.Context, q service.TrendQuery) (fiscal.Trend, error)
	ResolveWeek(ctx context.Context, t time.Time) (fiscal.WeekPeriod, error)
	DatasetKey(ctx context.Context) (string, error)
}
