package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/godilite/nps-insights/internal/repository/models"
	"github.com/godilite/nps-insights/pkg/fiscal"
)

const (
	dbTimeout = 2 * time.Second

	defaultWeekSpan  = 12
	defaultMonthSpan = 6
	maxSpan          = 104
)

var (
	ErrNoRecords      = errors.New("no feedback records found")
	ErrInvalidPeriod  = errors.New("invalid period")
	ErrStorageFailure = errors.New("storage failure")
)

// ReportService answers period and trend questions against the stored
// feedback dataset.
type ReportService struct {
	storage FeedbackRepository
	logger  *zap.Logger
	now     func() time.Time
}

type Option func(*ReportService)

// WithClock replaces the wall clock used for "current week" decisions.
func WithClock(now func() time.Time) Option {
	return func(s *ReportService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewReportService creates a new ReportService instance.
func NewReportService(storage FeedbackRepository, logger *zap.Logger, opts ...Option) *ReportService {
	if storage == nil {
		panic("storage must not be nil")
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}
	s := &ReportService{
		storage: storage,
		logger:  logger.Named("report-service"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type snapshot struct {
	records  []fiscal.Record
	samples  []fiscal.SampleEntry
	settings fiscal.Settings
}

type loadPlan struct {
	records bool
	samples bool
	window  *fiscal.DateRange
}

// load reads the parts of the dataset the plan asks for concurrently.
func (s *ReportService) load(ctx context.Context, plan loadPlan) (snapshot, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var (
		stored  models.ReportSettings
		found   bool
		records []models.FeedbackRecord
		samples []models.SampleEntry
	)
	now := s.now()
	g, gctx := errgroup.WithContext(dbCtx)

	g.Go(func() error {
		var err error
		stored, found, err = s.storage.GetSettings(gctx)
		return err
	})
	if plan.records {
		g.Go(func() error {
			var err error
			if plan.window != nil {
				records, err = s.storage.ListRecordsBetween(gctx, plan.window.Start, plan.window.End)
			} else {
				records, err = s.storage.ListRecords(gctx)
			}
			return err
		})
	}
	if plan.samples {
		g.Go(func() error {
			var err error
			samples, err = s.storage.ListSamples(gctx)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return snapshot{}, ctxErr
		}
		return snapshot{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	return snapshot{
		records:  toRecords(records),
		samples:  toSamples(samples),
		settings: toSettings(stored, found, now),
	}, nil
}

// ListWeeks returns every week that has feedback plus the current week, newest
// first.
func (s *ReportService) ListWeeks(ctx context.Context) ([]fiscal.WeekPeriod, error) {
	snap, err := s.load(ctx, loadPlan{records: true})
	if err != nil {
		return nil, err
	}
	weeks := fiscal.AvailableWeeks(snap.records, s.now(), snap.settings)

	s.logger.Debug("listed weeks", zap.Int("weeks", len(weeks)), zap.Int("records", len(snap.records)))
	return weeks, nil
}

// ListMonths returns the configured (or generated) month ranges.
func (s *ReportService) ListMonths(ctx context.Context) ([]fiscal.MonthPeriod, error) {
	snap, err := s.load(ctx, loadPlan{})
	if err != nil {
		return nil, err
	}
	return fiscal.AvailableMonths(snap.settings), nil
}

// GetWeekStats computes the NPS breakdown of one custom week.
func (s *ReportService) GetWeekStats(ctx context.Context, key fiscal.WeekKey) (WeekReport, error) {
	if key.Year <= 0 || key.Week <= 0 {
		return WeekReport{}, fmt.Errorf("%w: week %s", ErrInvalidPeriod, key)
	}

	snap, err := s.load(ctx, loadPlan{records: true, samples: true})
	if err != nil {
		return WeekReport{}, err
	}

	start := fiscal.WeekStartOf(key, snap.settings)
	if start.IsZero() {
		return WeekReport{}, fmt.Errorf("%w: week %s does not exist", ErrInvalidPeriod, key)
	}

	report := WeekReport{
		Period: fiscal.WeekPeriodOf(start, snap.settings),
		Stats:  fiscal.StatsForWeek(snap.records, snap.samples, key, snap.settings),
	}

	s.logger.Info("computed week stats",
		zap.String("week", key.String()),
		zap.Int("sample_size", report.Stats.SampleSize),
		zap.Int("nps", report.Stats.NPS))

	return report, nil
}

// GetMonthStats computes the NPS breakdown of the month range at index.
func (s *ReportService) GetMonthStats(ctx context.Context, index int) (MonthReport, error) {
	snap, err := s.load(ctx, loadPlan{records: true, samples: true})
	if err != nil {
		return MonthReport{}, err
	}

	months := fiscal.AvailableMonths(snap.settings)
	if index < 0 || index >= len(months) {
		return MonthReport{}, fmt.Errorf("%w: month index %d out of range [0, %d)", ErrInvalidPeriod, index, len(months))
	}

	report := MonthReport{
		Period: months[index],
		Stats:  fiscal.StatsForMonth(snap.records, snap.samples, index, snap.settings),
	}

	s.logger.Info("computed month stats",
		zap.String("month", report.Period.Key),
		zap.Int("sample_size", report.Stats.SampleSize),
		zap.Int("nps", report.Stats.NPS))

	return report, nil
}

// GetRangeStats computes the NPS breakdown of an inclusive date range.
func (s *ReportService) GetRangeStats(ctx context.Context, start, end time.Time) (RangeReport, error) {
	if err := validateRange(start, end); err != nil {
		return RangeReport{}, err
	}

	snap, err := s.load(ctx, loadPlan{records: true, samples: true, window: &fiscal.DateRange{Start: start, End: end}})
	if err != nil {
		return RangeReport{}, err
	}

	report := RangeReport{
		Start: start,
		End:   end,
		Stats: fiscal.StatsForRange(snap.records, snap.samples, start, end, snap.settings),
	}

	s.logger.Info("computed range stats",
		zap.Time("start", start),
		zap.Time("end", end),
		zap.Int("sample_size", report.Stats.SampleSize))

	return report, nil
}

// GetTrend builds per-group detractor and neutral series. ErrNoRecords is
// returned when no record falls inside the requested window.
func (s *ReportService) GetTrend(ctx context.Context, q TrendQuery) (fiscal.Trend, error) {
	var window *fiscal.DateRange
	if q.Range != nil && (!q.Range.Start.IsZero() || !q.Range.End.IsZero()) {
		if err := validateRange(q.Range.Start, q.Range.End); err != nil {
			return fiscal.Trend{}, err
		}
		window = q.Range
	}
	if q.Span > maxSpan {
		return fiscal.Trend{}, fmt.Errorf("%w: span %d exceeds %d", ErrInvalidPeriod, q.Span, maxSpan)
	}

	snap, err := s.load(ctx, loadPlan{records: true, window: window})
	if err != nil {
		return fiscal.Trend{}, err
	}
	if len(snap.records) == 0 {
		return fiscal.Trend{}, ErrNoRecords
	}

	req := fiscal.TrendRequest{
		Period:  q.Period,
		Span:    q.Span,
		GroupBy: q.GroupBy,
		Range:   window,
		Now:     s.now(),
	}
	if req.Span <= 0 {
		req.Span = defaultWeekSpan
		if q.Period == fiscal.MonthPeriodKind {
			req.Span = defaultMonthSpan
		}
	}

	trend := fiscal.BuildTrend(snap.records, req, snap.settings)

	s.logger.Info("built trend",
		zap.String("period", q.Period.String()),
		zap.String("group_by", q.GroupBy.String()),
		zap.Int("periods", len(trend.Periods)),
		zap.Int("groups", len(trend.Groups)))

	return trend, nil
}

// ResolveWeek reports the custom week containing t.
func (s *ReportService) ResolveWeek(ctx context.Context, t time.Time) (fiscal.WeekPeriod, error) {
	if t.IsZero() {
		return fiscal.WeekPeriod{}, fmt.Errorf("%w: date is required", ErrInvalidPeriod)
	}

	snap, err := s.load(ctx, loadPlan{})
	if err != nil {
		return fiscal.WeekPeriod{}, err
	}
	return fiscal.WeekPeriodOf(t, snap.settings), nil
}

// DatasetKey identifies the current state of the dataset and settings. It
// changes whenever either changes, which makes it usable as a cache suffix.
func (s *ReportService) DatasetKey(ctx context.Context) (string, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var (
		stamp  models.DatasetStamp
		stored models.ReportSettings
		found  bool
	)
	now := s.now()
	g, gctx := errgroup.WithContext(dbCtx)
	g.Go(func() error {
		var err error
		stamp, err = s.storage.DatasetStamp(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stored, found, err = s.storage.GetSettings(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	settings := toSettings(stored, found, now)

	h := xxhash.New()
	fmt.Fprintf(h, "%d/%d/%d/%d/%s",
		stamp.RecordCount, stamp.MaxRecordID, stamp.SampleCount, stamp.MaxSampleID, stamp.SettingsUpdatedAt)
	return fmt.Sprintf("%016x%016x", h.Sum64(), settings.Fingerprint()), nil
}

func validateRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidPeriod)
	}
	if civilDate(end).Before(civilDate(start)) {
		return fmt.Errorf("%w: end date must not be before start date", ErrInvalidPeriod)
	}
	return nil
}

func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
