package fiscal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d, hour, minute int) time.Time {
	return time.Date(y, m, d, hour, minute, 0, 0, time.UTC)
}

// sundayCalendar anchors week 1 on Sunday 2025-01-05 through Saturday 2025-01-11.
func sundayCalendar() Settings {
	return Settings{
		WeekStartDay:    time.Sunday,
		Week1Start:      day(2025, time.January, 5),
		Week1End:        day(2025, time.January, 11),
		StartWeekNumber: 1,
	}
}

func TestCustomWeekNumber_Calibrated(t *testing.T) {
	s := sundayCalendar()

	cases := []struct {
		name     string
		ts       time.Time
		expected int
	}{
		{name: "inside calibration week", ts: day(2025, time.January, 8), expected: 1},
		{name: "calibration start day", ts: day(2025, time.January, 5), expected: 1},
		{name: "calibration end day late evening", ts: at(2025, time.January, 11, 23, 59), expected: 1},
		{name: "first regular week", ts: day(2025, time.January, 12), expected: 2},
		{name: "last day of second week", ts: day(2025, time.January, 18), expected: 2},
		{name: "third week", ts: day(2025, time.January, 19), expected: 3},
		{name: "one week before anchor wraps", ts: day(2024, time.December, 29), expected: 52},
		{name: "day before anchor wraps", ts: day(2025, time.January, 4), expected: 52},
		{name: "eight days before anchor", ts: day(2024, time.December, 28), expected: 51},
		{name: "fifty two weeks before anchor", ts: day(2024, time.January, 7), expected: 1},
		{name: "fifty three weeks before anchor", ts: day(2023, time.December, 31), expected: 52},
		{name: "year after anchor keeps counting", ts: day(2026, time.January, 11), expected: 54},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, CustomWeekNumber(tc.ts, tc.ts.Year(), s))
		})
	}
}

func TestCustomWeekNumber_LongCalibrationInterval(t *testing.T) {
	s := Settings{
		WeekStartDay: time.Monday,
		Week1Start:   day(2025, time.January, 1),
		Week1End:     day(2025, time.January, 8),
	}

	assert.Equal(t, 1, CustomWeekNumber(day(2025, time.January, 1), 2025, s))
	assert.Equal(t, 1, CustomWeekNumber(day(2025, time.January, 8), 2025, s))
	assert.Equal(t, 1, CustomWeekNumber(day(2025, time.January, 12), 2025, s), "days before the first Monday after the anchor stay in week 1")
	assert.Equal(t, 2, CustomWeekNumber(day(2025, time.January, 13), 2025, s))
	assert.Equal(t, 3, CustomWeekNumber(day(2025, time.January, 20), 2025, s))
}

func TestCustomWeekNumber_StartWeekNumber(t *testing.T) {
	s := sundayCalendar()
	s.StartWeekNumber = 40

	assert.Equal(t, 40, CustomWeekNumber(day(2025, time.January, 7), 2025, s))
	assert.Equal(t, 41, CustomWeekNumber(day(2025, time.January, 12), 2025, s))
	assert.Equal(t, 39, CustomWeekNumber(day(2024, time.December, 29), 2024, s))
}

func TestCustomWeekNumber_Uncalibrated(t *testing.T) {
	t.Run("partial calibration is ignored", func(t *testing.T) {
		s := Settings{WeekStartDay: time.Monday, Week1Start: day(2025, time.March, 3)}

		assert.False(t, s.Calibrated())
		assert.Equal(t, 0, CustomWeekNumber(day(2025, time.January, 3), 2025, s))
		assert.Equal(t, 1, CustomWeekNumber(day(2025, time.January, 6), 2025, s))
		assert.Equal(t, 2, CustomWeekNumber(day(2025, time.January, 13), 2025, s))
	})

	t.Run("year starting on the week start day", func(t *testing.T) {
		s := Settings{WeekStartDay: time.Wednesday}

		assert.Equal(t, 1, CustomWeekNumber(day(2025, time.January, 1), 2025, s))
		assert.Equal(t, 1, CustomWeekNumber(day(2025, time.January, 7), 2025, s))
		assert.Equal(t, 2, CustomWeekNumber(day(2025, time.January, 8), 2025, s))
	})

	t.Run("monotonic across a year", func(t *testing.T) {
		for wd := time.Sunday; wd <= time.Saturday; wd++ {
			s := Settings{WeekStartDay: wd}
			prev := CustomWeekNumber(day(2025, time.January, 1), 2025, s)
			for d := day(2025, time.January, 2); d.Year() == 2025; d = d.AddDate(0, 0, 1) {
				got := CustomWeekNumber(d, 2025, s)
				assert.GreaterOrEqual(t, got, prev, "weekday %s, %s", wd, d.Format(dateLayout))
				assert.LessOrEqual(t, got-prev, 1, "weekday %s, %s", wd, d.Format(dateLayout))
				prev = got
			}
		}
	})
}

func TestCustomWeekNumber_InsideCalibrationIsStartWeek(t *testing.T) {
	s := Settings{
		WeekStartDay:    time.Thursday,
		Week1Start:      day(2025, time.March, 10),
		Week1End:        day(2025, time.March, 24),
		StartWeekNumber: 12,
	}
	for d := s.Week1Start.AddDate(0, 0, 1); d.Before(s.Week1End); d = d.AddDate(0, 0, 1) {
		assert.Equal(t, 12, CustomWeekNumber(d.Add(13*time.Hour), d.Year(), s))
	}
}

func TestCustomWeekNumber_IgnoresTimeZoneOffset(t *testing.T) {
	s := sundayCalendar()
	eastern := time.FixedZone("UTC-5", -5*60*60)

	// 23:30 local is already the next day in UTC.
	ts := time.Date(2025, time.January, 11, 23, 30, 0, 0, eastern)

	assert.Equal(t, 1, CustomWeekNumber(ts, 2025, s))
}

func TestWeekStart(t *testing.T) {
	t.Run("calibrated", func(t *testing.T) {
		s := sundayCalendar()

		assert.Equal(t, day(2025, time.January, 5), WeekStart(day(2025, time.January, 8), s))
		assert.Equal(t, day(2025, time.January, 12), WeekStart(day(2025, time.January, 14), s))
		assert.Equal(t, day(2024, time.December, 29), WeekStart(day(2025, time.January, 1), s))
		assert.Equal(t, day(2024, time.December, 22), WeekStart(day(2024, time.December, 28), s))
	})

	t.Run("uncalibrated", func(t *testing.T) {
		s := Settings{WeekStartDay: time.Monday}

		assert.Equal(t, day(2024, time.December, 30), WeekStart(day(2025, time.January, 1), s))
		assert.Equal(t, day(2025, time.January, 6), WeekStart(at(2025, time.January, 6, 18, 0), s))
	})

	t.Run("long calibration interval", func(t *testing.T) {
		s := Settings{
			WeekStartDay: time.Monday,
			Week1Start:   day(2025, time.January, 1),
			Week1End:     day(2025, time.January, 8),
		}

		start, end := WeekBounds(day(2025, time.January, 10), s)
		assert.Equal(t, day(2025, time.January, 1), start)
		assert.Equal(t, day(2025, time.January, 12), end)

		start, end = WeekBounds(day(2025, time.January, 15), s)
		assert.Equal(t, day(2025, time.January, 13), start)
		assert.Equal(t, day(2025, time.January, 19), end)
	})
}

func TestNextAndPreviousWeekStart(t *testing.T) {
	s := sundayCalendar()

	assert.Equal(t, day(2025, time.January, 12), NextWeekStart(day(2025, time.January, 8), s))
	assert.Equal(t, day(2025, time.January, 5), PreviousWeekStart(day(2025, time.January, 12), s))
	assert.Equal(t, day(2024, time.December, 29), PreviousWeekStart(day(2025, time.January, 5), s))
	assert.Equal(t, day(2025, time.January, 5), NextWeekStart(day(2024, time.December, 30), s))
}

func TestWeekKeyOf_UsesYearOfWeekStart(t *testing.T) {
	t.Run("uncalibrated week spanning new year", func(t *testing.T) {
		s := Settings{WeekStartDay: time.Sunday}

		expected := WeekKey{Year: 2024, Week: 52}
		assert.Equal(t, expected, WeekKeyOf(day(2024, time.December, 30), s))
		assert.Equal(t, expected, WeekKeyOf(day(2025, time.January, 1), s))
		assert.Equal(t, expected, WeekKeyOf(day(2025, time.January, 4), s))
		assert.Equal(t, WeekKey{Year: 2025, Week: 1}, WeekKeyOf(day(2025, time.January, 5), s))
	})

	t.Run("calibrated week before the anchor", func(t *testing.T) {
		s := sundayCalendar()

		assert.Equal(t, WeekKey{Year: 2024, Week: 52}, WeekKeyOf(day(2025, time.January, 2), s))
		assert.Equal(t, WeekKey{Year: 2025, Week: 1}, WeekKeyOf(day(2025, time.January, 11), s))
	})
}

func TestWeekKeyOf_WrapCollisionBeforeAnchor(t *testing.T) {
	s := sundayCalendar()

	// 105 and 53 weeks back both wrap to week 52 of 2023.
	expected := WeekKey{Year: 2023, Week: 52}
	assert.Equal(t, expected, WeekKeyOf(day(2023, time.January, 1), s))
	assert.Equal(t, expected, WeekKeyOf(day(2023, time.December, 31), s))
	assert.NotEqual(t, WeekStart(day(2023, time.January, 1), s), WeekStart(day(2023, time.December, 31), s))

	records := []Record{
		{ID: "early", Timestamp: day(2023, time.January, 3), Score: 9},
		{ID: "late", Timestamp: day(2024, time.January, 2), Score: 4},
	}
	assert.Equal(t, []string{"early", "late"}, ids(FilterByWeek(records, expected, s)))

	weeks := AvailableWeeks(records, day(2025, time.January, 20), s)
	assert.Len(t, weeks, 2, "the colliding weeks are listed once")
}

func TestWeekStartOf(t *testing.T) {
	s := sundayCalendar()

	assert.Equal(t, day(2025, time.January, 5), WeekStartOf(WeekKey{Year: 2025, Week: 1}, s))
	assert.Equal(t, day(2025, time.February, 2), WeekStartOf(WeekKey{Year: 2025, Week: 5}, s))
	assert.True(t, WeekStartOf(WeekKey{Year: 2025, Week: 99}, s).IsZero())
}

func TestSettingsFingerprint(t *testing.T) {
	a := sundayCalendar()
	b := sundayCalendar()
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	b.StartWeekNumber = 2
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())

	withDefaults := Settings{}
	explicit := Settings{StartWeekNumber: 1, Targets: NPSTargets{Promoters: 75, Detractors: 8}}
	assert.Equal(t, withDefaults.Fingerprint(), explicit.Fingerprint())
}
