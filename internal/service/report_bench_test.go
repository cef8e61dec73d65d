package service

import (
	"context"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/godilite/nps-insights/internal/repository"
	"github.com/godilite/nps-insights/internal/repository/models"
	dbbuilder "github.com/godilite/nps-insights/pkg/database"
	"github.com/godilite/nps-insights/pkg/fiscal"
)

func setupRealDB(tb testing.TB) *repository.FeedbackRepository {
	tb.Helper()
	ctx := context.Background()

	db, err := dbbuilder.New(ctx,
		dbbuilder.WithDriver("sqlite3"),
		dbbuilder.WithDataSource(":memory:"),
		dbbuilder.WithMigrations(repository.Schema...),
	)
	if err != nil {
		tb.Fatalf("failed to create db pool via builder: %v", err)
	}
	tb.Cleanup(func() { db.Close() })

	repo := repository.NewFeedbackRepository(db)
	if err := repo.SaveSettings(ctx, storedSettings()); err != nil {
		tb.Fatalf("failed to seed settings: %v", err)
	}

	teams := []string{"Billing", "Support", "Onboarding"}
	reasons := []string{"Late", "Rude", "Price", ""}
	for i := range 2000 {
		_, err := repo.InsertRecord(ctx, models.FeedbackRecord{
			CreatedAt: day(2024, time.July, 1).Add(time.Duration(i) * 2 * time.Hour),
			Score:     i%10 + 1,
			Team:      teams[i%len(teams)],
			Reason:    reasons[i%len(reasons)],
		})
		if err != nil {
			tb.Fatalf("failed to seed record: %v", err)
		}
	}
	for week := 1; week <= 52; week++ {
		if _, err := repo.InsertSample(ctx, models.SampleEntry{WeekNumber: week, Year: 2024, SampleSize: 120}); err != nil {
			tb.Fatalf("failed to seed sample: %v", err)
		}
	}
	return repo
}

func BenchmarkGetWeekStats(b *testing.B) {
	svc := NewReportService(setupRealDB(b), zap.NewNop(), fixedClock())
	ctx := context.Background()
	key := fiscal.WeekKey{Year: 2024, Week: 40}

	for b.Loop() {
		if _, err := svc.GetWeekStats(ctx, key); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkGetTrend(b *testing.B) {
	svc := NewReportService(setupRealDB(b), zap.NewNop(), fixedClock())
	ctx := context.Background()
	q := TrendQuery{Period: fiscal.WeekPeriodKind, Span: 26, GroupBy: fiscal.GroupByTeam}

	for b.Loop() {
		if _, err := svc.GetTrend(ctx, q); err != nil {
			b.Fatal(err)
		}
	}
}
