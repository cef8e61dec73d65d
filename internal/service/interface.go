package service

import (
	"context"
	"time"

	"github.com/godilite/nps-insights/internal/repository/models"
)

// FeedbackRepository defines the storage operations the report service reads.
type FeedbackRepository interface {
	ListRecords(ctx context.Context) ([]models.FeedbackRecord, error)
	ListRecordsBetween(ctx context.Context, start, end time.Time) ([]models.FeedbackRecord, error)
	ListSamples(ctx context.Context) ([]models.SampleEntry, error)
	GetSettings(ctx context.Context) (models.ReportSettings, bool, error)
	DatasetStamp(ctx context.Context) (models.DatasetStamp, error)
}
