package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/godilite/nps-insights/internal/repository/models"
)

const dateLayout = "2006-01-02"

// Schema is the DDL applied at startup.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS feedback_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		external_id TEXT NOT NULL DEFAULT '',
		created_at TEXT,
		score INTEGER,
		team TEXT NOT NULL DEFAULT '',
		reason TEXT NOT NULL DEFAULT '',
		sub_reason TEXT NOT NULL DEFAULT '',
		root_cause TEXT NOT NULL DEFAULT '',
		owner TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_feedback_records_created_at ON feedback_records (created_at)`,
	`CREATE TABLE IF NOT EXISTS sample_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		week_number INTEGER NOT NULL DEFAULT 0,
		year INTEGER NOT NULL DEFAULT 0,
		sample_size TEXT,
		start_date TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS report_settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		week_start_day INTEGER NOT NULL DEFAULT 0,
		week1_start TEXT,
		week1_end TEXT,
		start_week_number INTEGER NOT NULL DEFAULT 1,
		promoters_target REAL NOT NULL DEFAULT 0,
		detractors_target REAL NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS month_ranges (
		position INTEGER PRIMARY KEY,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		label TEXT NOT NULL DEFAULT ''
	)`,
}

type FeedbackRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db, now: time.Now}
}

const recordColumns = `id, external_id, created_at, score, team, reason, sub_reason, root_cause, owner`

// ListRecords returns every stored record in insertion order.
func (r *FeedbackRepository) ListRecords(ctx context.Context) ([]models.FeedbackRecord, error) {
	const query = `SELECT ` + recordColumns + ` FROM feedback_records ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query ListRecords: %w", err)
	}
	return scanRecords(rows, "ListRecords")
}

// ListRecordsBetween returns the records whose wall-clock date lies in
// [start, end]. Only the date part of the bounds is used.
func (r *FeedbackRepository) ListRecordsBetween(ctx context.Context, start, end time.Time) ([]models.FeedbackRecord, error) {
	const query = `
		SELECT ` + recordColumns + `
		FROM feedback_records
		WHERE created_at IS NOT NULL
			AND substr(created_at, 1, 10) BETWEEN ? AND ?
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, start.Format(dateLayout), end.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("query ListRecordsBetween: %w", err)
	}
	return scanRecords(rows, "ListRecordsBetween")
}

func scanRecords(rows *sql.Rows, op string) ([]models.FeedbackRecord, error) {
	defer rows.Close()

	var out []models.FeedbackRecord
	for rows.Next() {
		var (
			rec       models.FeedbackRecord
			createdAt sql.NullString
			score     sql.NullInt64
		)
		if err := rows.Scan(&rec.ID, &rec.ExternalID, &createdAt, &score,
			&rec.Team, &rec.Reason, &rec.SubReason, &rec.RootCause, &rec.Owner); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", op, err)
		}
		rec.CreatedAt = parseTimestamp(createdAt)
		if score.Valid {
			rec.Score = int(score.Int64)
		}
		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", op, err)
	}
	return out, nil
}

// ListSamples returns every sample entry. A sample size that is not an integer
// reads as 0.
func (r *FeedbackRepository) ListSamples(ctx context.Context) ([]models.SampleEntry, error) {
	const query = `SELECT id, week_number, year, sample_size, start_date FROM sample_entries ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query ListSamples: %w", err)
	}
	defer rows.Close()

	var out []models.SampleEntry
	for rows.Next() {
		var (
			e         models.SampleEntry
			size      sql.NullString
			startDate sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.WeekNumber, &e.Year, &size, &startDate); err != nil {
			return nil, fmt.Errorf("scan ListSamples row: %w", err)
		}
		e.SampleSize = parseSize(size)
		e.StartDate = parseTimestamp(startDate)
		out = append(out, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ListSamples: %w", err)
	}
	return out, nil
}

// GetSettings loads the settings row and its month ranges. found is false when
// no settings were ever saved.
func (r *FeedbackRepository) GetSettings(ctx context.Context) (settings models.ReportSettings, found bool, err error) {
	const query = `
		SELECT week_start_day, week1_start, week1_end, start_week_number,
			promoters_target, detractors_target, updated_at
		FROM report_settings
		WHERE id = 1
	`

	var week1Start, week1End, updatedAt sql.NullString
	err = r.db.QueryRowContext(ctx, query).Scan(
		&settings.WeekStartDay, &week1Start, &week1End, &settings.StartWeekNumber,
		&settings.PromotersTarget, &settings.DetractorsTarget, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ReportSettings{}, false, nil
	}
	if err != nil {
		return models.ReportSettings{}, false, fmt.Errorf("query GetSettings: %w", err)
	}
	settings.Week1Start = parseTimestamp(week1Start)
	settings.Week1End = parseTimestamp(week1End)
	settings.UpdatedAt = parseTimestamp(updatedAt)

	rows, err := r.db.QueryContext(ctx, `SELECT start_date, end_date, label FROM month_ranges ORDER BY position`)
	if err != nil {
		return models.ReportSettings{}, false, fmt.Errorf("query month ranges: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var start, end sql.NullString
		var mr models.MonthRange
		if err := rows.Scan(&start, &end, &mr.Label); err != nil {
			return models.ReportSettings{}, false, fmt.Errorf("scan month range row: %w", err)
		}
		mr.Start = parseTimestamp(start)
		mr.End = parseTimestamp(end)
		settings.MonthRanges = append(settings.MonthRanges, mr)
	}
	if err := rows.Err(); err != nil {
		return models.ReportSettings{}, false, fmt.Errorf("iterate month ranges: %w", err)
	}

	return settings, true, nil
}

// SaveSettings upserts the settings row and replaces all month ranges in one
// transaction.
func (r *FeedbackRepository) SaveSettings(ctx context.Context, s models.ReportSettings) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin SaveSettings: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const upsert = `
		INSERT INTO report_settings (id, week_start_day, week1_start, week1_end, start_week_number,
			promoters_target, detractors_target, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			week_start_day = excluded.week_start_day,
			week1_start = excluded.week1_start,
			week1_end = excluded.week1_end,
			start_week_number = excluded.start_week_number,
			promoters_target = excluded.promoters_target,
			detractors_target = excluded.detractors_target,
			updated_at = excluded.updated_at
	`
	if _, err := tx.ExecContext(ctx, upsert,
		s.WeekStartDay, nullDate(s.Week1Start), nullDate(s.Week1End), s.StartWeekNumber,
		s.PromotersTarget, s.DetractorsTarget, r.now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM month_ranges`); err != nil {
		return fmt.Errorf("clear month ranges: %w", err)
	}
	for i, mr := range s.MonthRanges {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO month_ranges (position, start_date, end_date, label) VALUES (?, ?, ?, ?)`,
			i, mr.Start.Format(dateLayout), mr.End.Format(dateLayout), mr.Label,
		); err != nil {
			return fmt.Errorf("insert month range %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit SaveSettings: %w", err)
	}
	return nil
}

// InsertRecord stores rec and returns its row id. A zero CreatedAt is stored
// as NULL.
func (r *FeedbackRepository) InsertRecord(ctx context.Context, rec models.FeedbackRecord) (int64, error) {
	const query = `
		INSERT INTO feedback_records (external_id, created_at, score, team, reason, sub_reason, root_cause, owner)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := r.db.ExecContext(ctx, query,
		rec.ExternalID, nullTimestamp(rec.CreatedAt), rec.Score,
		rec.Team, rec.Reason, rec.SubReason, rec.RootCause, rec.Owner,
	)
	if err != nil {
		return 0, fmt.Errorf("insert record: %w", err)
	}
	return res.LastInsertId()
}

func (r *FeedbackRepository) InsertSample(ctx context.Context, e models.SampleEntry) (int64, error) {
	const query = `INSERT INTO sample_entries (week_number, year, sample_size, start_date) VALUES (?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query,
		e.WeekNumber, e.Year, strconv.Itoa(e.SampleSize), nullDate(e.StartDate),
	)
	if err != nil {
		return 0, fmt.Errorf("insert sample: %w", err)
	}
	return res.LastInsertId()
}

// DatasetStamp summarizes the store so that any insert or settings change
// yields a different stamp.
func (r *FeedbackRepository) DatasetStamp(ctx context.Context) (models.DatasetStamp, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM feedback_records),
			(SELECT COALESCE(MAX(id), 0) FROM feedback_records),
			(SELECT COUNT(*) FROM sample_entries),
			(SELECT COALESCE(MAX(id), 0) FROM sample_entries),
			(SELECT COALESCE(MAX(updated_at), '') FROM report_settings)
	`

	var st models.DatasetStamp
	if err := r.db.QueryRowContext(ctx, query).Scan(
		&st.RecordCount, &st.MaxRecordID, &st.SampleCount, &st.MaxSampleID, &st.SettingsUpdatedAt,
	); err != nil {
		return models.DatasetStamp{}, fmt.Errorf("query DatasetStamp: %w", err)
	}
	return st, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	dateLayout,
}

// parseTimestamp keeps the stored offset so the wall-clock date is preserved.
// Unreadable values yield the zero time.
func parseTimestamp(v sql.NullString) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	s := strings.TrimSpace(v.String)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parseSize(v sql.NullString) int {
	if !v.Valid {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(v.String))
	if err != nil {
		if f, ferr := strconv.ParseFloat(strings.TrimSpace(v.String), 64); ferr == nil {
			return int(f)
		}
		return 0
	}
	return n
}

func nullTimestamp(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}

func nullDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(dateLayout)
}
