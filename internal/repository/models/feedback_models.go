package models

import "time"

// FeedbackRecord is one stored survey response. A zero CreatedAt means the
// stored timestamp was missing or unreadable.
type FeedbackRecord struct {
	ID         int64
	ExternalID string
	CreatedAt  time.Time
	Score      int
	Team       string
	Reason     string
	SubReason  string
	RootCause  string
	Owner      string
}

type SampleEntry struct {
	ID         int64
	WeekNumber int
	Year       int
	SampleSize int
	StartDate  time.Time
}

type MonthRange struct {
	Start time.Time
	End   time.Time
	Label string
}

// ReportSettings mirrors the single row of report_settings plus its ordered
// month ranges.
type ReportSettings struct {
	WeekStartDay     int
	Week1Start       time.Time
	Week1End         time.Time
	StartWeekNumber  int
	PromotersTarget  float64
	DetractorsTarget float64
	MonthRanges      []MonthRange
	UpdatedAt        time.Time
}

// DatasetStamp changes whenever records, samples or settings change.
type DatasetStamp struct {
	RecordCount       int64
	MaxRecordID       int64
	SampleCount       int64
	MaxSampleID       int64
	SettingsUpdatedAt string
}
