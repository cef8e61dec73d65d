package grpc

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/godilite/nps-insights/internal/service"
	"github.com/godilite/nps-insights/pkg/fiscal"
)

const (
	defaultCacheDuration = 10 * time.Minute
	defaultGRPCTimeout   = 10 * time.Second
	cacheKeyPrefix       = "grpc"
)

// GRPCHandlers serves FeedbackReportingServer on top of a ReportService.
type GRPCHandlers struct {
	reports ReportService
	cache   *ReadThrough
	logger  *zap.Logger
}

var _ FeedbackReportingServer = (*GRPCHandlers)(nil)

// NewGRPCHandlers initializes the gRPC handlers. cache may be nil.
func NewGRPCHandlers(reports ReportService, cache Cacher, logger *zap.Logger, ttl time.Duration) *GRPCHandlers {
	if reports == nil {
		panic("nil ReportService provided to NewGRPCHandlers")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = defaultCacheDuration
	}
	logger = logger.Named("grpc-handler")
	return &GRPCHandlers{
		reports: reports,
		cache:   NewReadThrough(cache, ttl, logger),
		logger:  logger,
	}
}

// Wait blocks until background cache work has finished.
func (s *GRPCHandlers) Wait() {
	s.cache.Wait()
}

// normalizeKey builds "grpc:<method>:<args>@<dataset>". The dataset key makes
// entries of a changed dataset unreachable.
func normalizeKey(method, args, dataset string) string {
	key := cacheKeyPrefix + ":" + method
	if args != "" {
		key += ":" + args
	}
	return key + "@" + dataset
}

// cachedRead serves fn through the cache. When the dataset key cannot be read
// the cache is bypassed.
func cachedRead[T any](ctx context.Context, s *GRPCHandlers, method, args string, fn FetchFunc[T]) (T, error) {
	dataset, err := s.reports.DatasetKey(ctx)
	if err != nil {
		s.logger.Warn("dataset key unavailable, bypassing cache", zap.String("op", method), zap.Error(err))
		return fn(ctx)
	}
	return FindAndCache(ctx, s.cache, normalizeKey(method, args, dataset), fn)
}

func (s *GRPCHandlers) handleError(ctx context.Context, op string, err error) error {
	switch ctx.Err() {
	case context.Canceled:
		s.logger.Warn("request canceled", zap.String("op", op))
		return status.Error(codes.Canceled, "request canceled")
	case context.DeadlineExceeded:
		s.logger.Warn("request timeout", zap.String("op", op))
		return status.Error(codes.DeadlineExceeded, "request timed out")
	}

	switch {
	case errors.Is(err, service.ErrInvalidPeriod):
		s.logger.Info("invalid period", zap.String("op", op), zap.Error(err))
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrNoRecords):
		s.logger.Info("no records found", zap.String("op", op))
		return status.Error(codes.NotFound, "no feedback records found for the given period")
	case errors.Is(err, service.ErrStorageFailure):
		s.logger.Error("storage failure", zap.String("op", op), zap.Error(err))
		return status.Error(codes.Internal, "database error")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")
	default:
		s.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		return status.Errorf(codes.Internal, "%s failed: %v", op, err)
	}
}

func (s *GRPCHandlers) respond(ctx context.Context, op string, v any, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, s.handleError(ctx, op, err)
	}
	out, err := encode(v)
	if err != nil {
		return nil, s.handleError(ctx, op, err)
	}
	return out, nil
}

func (s *GRPCHandlers) ListWeeks(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	weeks, err := cachedRead(ctx, s, MethodListWeeks, cacheArgs(s.today()), func(fetchCtx context.Context) ([]fiscal.WeekPeriod, error) {
		return s.reports.ListWeeks(fetchCtx)
	})
	return s.respond(ctx, MethodListWeeks, map[string]any{"weeks": weeks}, err)
}

func (s *GRPCHandlers) ListMonths(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	months, err := cachedRead(ctx, s, MethodListMonths, "", func(fetchCtx context.Context) ([]fiscal.MonthPeriod, error) {
		return s.reports.ListMonths(fetchCtx)
	})
	return s.respond(ctx, MethodListMonths, map[string]any{"months": months}, err)
}

func (s *GRPCHandlers) GetWeekStats(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	key, err := parseWeekKey(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	report, err := cachedRead(ctx, s, MethodGetWeekStats, cacheArgs(key), func(fetchCtx context.Context) (service.WeekReport, error) {
		return s.reports.GetWeekStats(fetchCtx, key)
	})
	return s.respond(ctx, MethodGetWeekStats, report, err)
}

func (s *GRPCHandlers) GetMonthStats(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	index, err := requiredInt(req, "index")
	if err != nil {
		return nil, err
	}
	if index < 0 {
		return nil, invalidArgument("index must not be negative")
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	report, err := cachedRead(ctx, s, MethodGetMonthStats, cacheArgs(index), func(fetchCtx context.Context) (service.MonthReport, error) {
		return s.reports.GetMonthStats(fetchCtx, index)
	})
	return s.respond(ctx, MethodGetMonthStats, report, err)
}

func (s *GRPCHandlers) GetRangeStats(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	start, end, err := parseRange(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	report, err := cachedRead(ctx, s, MethodGetRangeStats, cacheArgs(start, end), func(fetchCtx context.Context) (service.RangeReport, error) {
		return s.reports.GetRangeStats(fetchCtx, start, end)
	})
	return s.respond(ctx, MethodGetRangeStats, report, err)
}

func (s *GRPCHandlers) GetTrend(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	q, err := parseTrendQuery(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	args := cacheArgs(q.Period, q.GroupBy, q.Span, q.Range)
	if q.Range == nil {
		// Span-based trends end at the current week.
		args = cacheArgs(q.Period, q.GroupBy, q.Span, s.today())
	}

	trend, err := cachedRead(ctx, s, MethodGetTrend, args, func(fetchCtx context.Context) (fiscal.Trend, error) {
		return s.reports.GetTrend(fetchCtx, q)
	})
	return s.respond(ctx, MethodGetTrend, trend, err)
}

// ResolveWeek is not cached; it only needs the settings row.
func (s *GRPCHandlers) ResolveWeek(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	date, err := dateField(req, "date")
	if err != nil {
		return nil, err
	}
	if date.IsZero() {
		return nil, invalidArgument("date is required")
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	week, err := s.reports.ResolveWeek(ctx, date)
	return s.respond(ctx, MethodResolveWeek, week, err)
}

func (s *GRPCHandlers) today() time.Time {
	return time.Now()
}
