package mocks

import (
	"context"
	"errors"
	"time"

	"github.com/godilite/nps-insights/internal/repository/models"
)

// MockFeedbackRepository is a mock implementation of the FeedbackRepository
// interface for testing the service layer.
type MockFeedbackRepository struct {
	ListRecordsFunc        func(ctx context.Context) ([]models.FeedbackRecord, error)
	ListRecordsBetweenFunc func(ctx context.Context, start, end time.Time) ([]models.FeedbackRecord, error)
	ListSamplesFunc        func(ctx context.Context) ([]models.SampleEntry, error)
	GetSettingsFunc        func(ctx context.Context) (models.ReportSettings, bool, error)
	DatasetStampFunc       func(ctx context.Context) (models.DatasetStamp, error)
}

func (m *MockFeedbackRepository) ListRecords(ctx context.Context) ([]models.FeedbackRecord, error) {
	if m.ListRecordsFunc != nil {
		return m.ListRecordsFunc(ctx)
	}
	return nil, errors.New("ListRecordsFunc not implemented")
}

func (m *MockFeedbackRepository) ListRecordsBetween(ctx context.Context, start, end time.Time) ([]models.FeedbackRecord, error) {
	if m.ListRecordsBetweenFunc != nil {
		return m.ListRecordsBetweenFunc(ctx, start, end)
	}
	return nil, errors.New("ListRecordsBetweenFunc not implemented")
}

func (m *MockFeedbackRepository) ListSamples(ctx context.Context) ([]models.SampleEntry, error) {
	if m.ListSamplesFunc != nil {
		return m.ListSamplesFunc(ctx)
	}
	return nil, errors.New("ListSamplesFunc not implemented")
}

// GetSettings reports "not found" when no func is set.
func (m *MockFeedbackRepository) GetSettings(ctx context.Context) (models.ReportSettings, bool, error) {
	if m.GetSettingsFunc != nil {
		return m.GetSettingsFunc(ctx)
	}
	return models.ReportSettings{}, false, nil
}

func (m *MockFeedbackRepository) DatasetStamp(ctx context.Context) (models.DatasetStamp, error) {
	if m.DatasetStampFunc != nil {
		return m.DatasetStampFunc(ctx)
	}
	return models.DatasetStamp{}, errors.New("DatasetStampFunc not implemented")
}
