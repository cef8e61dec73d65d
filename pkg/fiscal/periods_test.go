package fiscal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailableWeeks(t *testing.T) {
	s := sundayCalendar()
	records := []Record{
		{ID: "1", Timestamp: day(2025, time.January, 8), Score: 4},
		{ID: "2", Timestamp: day(2025, time.January, 9), Score: 9},
		{ID: "3", Timestamp: day(2025, time.January, 14), Score: 7},
		{ID: "4", Score: 2},
	}

	t.Run("distinct weeks plus current, newest first", func(t *testing.T) {
		weeks := AvailableWeeks(records, day(2025, time.February, 3), s)

		require.Len(t, weeks, 3)
		assert.Equal(t, WeekKey{Year: 2025, Week: 5}, weeks[0].WeekKey())
		assert.Equal(t, WeekKey{Year: 2025, Week: 2}, weeks[1].WeekKey())
		assert.Equal(t, WeekKey{Year: 2025, Week: 1}, weeks[2].WeekKey())

		assert.Equal(t, "2025-W05", weeks[0].Key)
		assert.Equal(t, day(2025, time.February, 2), weeks[0].Start)
		assert.Equal(t, day(2025, time.February, 8), weeks[0].End)
		assert.Contains(t, weeks[0].Label, "Week 5, 2025")
	})

	t.Run("current week already present is not duplicated", func(t *testing.T) {
		weeks := AvailableWeeks(records, day(2025, time.January, 10), s)

		require.Len(t, weeks, 2)
		assert.Equal(t, WeekKey{Year: 2025, Week: 2}, weeks[0].WeekKey())
	})

	t.Run("no records still yields the current week", func(t *testing.T) {
		weeks := AvailableWeeks(nil, day(2025, time.January, 10), s)

		require.Len(t, weeks, 1)
		assert.Equal(t, WeekKey{Year: 2025, Week: 1}, weeks[0].WeekKey())
	})

	t.Run("week spanning new year is one bucket", func(t *testing.T) {
		plain := Settings{WeekStartDay: time.Sunday}
		boundary := []Record{
			{Timestamp: day(2024, time.December, 30)},
			{Timestamp: day(2025, time.January, 1)},
		}

		weeks := AvailableWeeks(boundary, day(2025, time.January, 2), plain)

		require.Len(t, weeks, 1)
		assert.Equal(t, WeekKey{Year: 2024, Week: 52}, weeks[0].WeekKey())
	})
}

func TestAvailableMonths(t *testing.T) {
	s := Settings{MonthRanges: []MonthRange{
		{Start: day(2025, time.January, 5), End: day(2025, time.February, 1), Label: "January"},
		{Start: day(2025, time.February, 2), End: day(2025, time.March, 1)},
	}}

	months := AvailableMonths(s)

	require.Len(t, months, 2)
	assert.Equal(t, "Month-1", months[0].Key)
	assert.Equal(t, 1, months[0].Month)
	assert.Equal(t, 2025, months[0].Year)
	assert.Equal(t, "January", months[0].Label)
	assert.Equal(t, "Month-2", months[1].Key, "empty range is still listed")
	assert.Equal(t, "Month-2", months[1].Label)
	assert.Equal(t, 1, months[1].Index())

	assert.Empty(t, AvailableMonths(Settings{}))
}

func TestGenerateMonthRanges(t *testing.T) {
	s := Settings{WeekStartDay: time.Sunday}

	ranges := GenerateMonthRanges(2025, s)

	require.Len(t, ranges, 12)
	assert.Equal(t, day(2025, time.January, 5), ranges[0].Start)
	assert.Equal(t, day(2025, time.February, 1), ranges[0].End)
	assert.Equal(t, "January 2025", ranges[0].Label)
	assert.Equal(t, day(2025, time.February, 2), ranges[1].Start)
	assert.Equal(t, day(2025, time.March, 1), ranges[1].End)
	assert.Equal(t, day(2025, time.December, 7), ranges[11].Start)
	assert.Equal(t, day(2026, time.January, 3), ranges[11].End)

	for i := 1; i < len(ranges); i++ {
		assert.Equal(t, ranges[i-1].End.AddDate(0, 0, 1), ranges[i].Start, "months are contiguous")
		assert.Equal(t, time.Sunday, ranges[i].Start.Weekday())
	}
}

func TestMonthIndexOf(t *testing.T) {
	s := Settings{MonthRanges: GenerateMonthRanges(2025, Settings{})}

	assert.Equal(t, 0, MonthIndexOf(at(2025, time.February, 1, 22, 0), s))
	assert.Equal(t, 1, MonthIndexOf(day(2025, time.February, 2), s))
	assert.Equal(t, -1, MonthIndexOf(day(2025, time.January, 2), s))
	assert.Equal(t, -1, MonthIndexOf(time.Time{}, s))
}

func TestRecentWeeks(t *testing.T) {
	s := sundayCalendar()

	weeks := RecentWeeks(day(2025, time.January, 20), 3, s)

	require.Len(t, weeks, 3)
	assert.Equal(t, "2025-W01", weeks[0].Key)
	assert.Equal(t, "2025-W02", weeks[1].Key)
	assert.Equal(t, "2025-W03", weeks[2].Key)
	assert.Equal(t, day(2025, time.January, 5), weeks[0].Start)
	assert.Equal(t, day(2025, time.January, 11), weeks[0].End)

	assert.Nil(t, RecentWeeks(day(2025, time.January, 20), 0, s))
}

func TestWeeksInRange(t *testing.T) {
	s := sundayCalendar()

	weeks := WeeksInRange(day(2025, time.January, 6), day(2025, time.January, 25), s)

	require.Len(t, weeks, 2)
	assert.Equal(t, "2025-W02", weeks[0].Key)
	assert.Equal(t, "2025-W03", weeks[1].Key)

	assert.Nil(t, WeeksInRange(time.Time{}, day(2025, time.January, 25), s))
	assert.Nil(t, WeeksInRange(day(2025, time.January, 25), day(2025, time.January, 6), s))
}

func TestRecentMonths(t *testing.T) {
	s := Settings{MonthRanges: GenerateMonthRanges(2025, Settings{})}

	t.Run("ending with the month containing now", func(t *testing.T) {
		months := RecentMonths(day(2025, time.March, 15), 2, s)

		require.Len(t, months, 2)
		assert.Equal(t, "February 2025", months[0].Label)
		assert.Equal(t, "March 2025", months[1].Label)
	})

	t.Run("span larger than history", func(t *testing.T) {
		months := RecentMonths(day(2025, time.February, 10), 6, s)

		require.Len(t, months, 2)
		assert.Equal(t, "Month-1", months[0].Key)
	})

	t.Run("now after the last range", func(t *testing.T) {
		months := RecentMonths(day(2027, time.June, 1), 1, s)

		require.Len(t, months, 1)
		assert.Equal(t, "December 2025", months[0].Label)
	})

	t.Run("now before every range", func(t *testing.T) {
		assert.Nil(t, RecentMonths(day(2020, time.June, 1), 3, s))
	})
}

func TestMonthsInRange(t *testing.T) {
	s := Settings{MonthRanges: GenerateMonthRanges(2025, Settings{})}

	months := MonthsInRange(day(2025, time.February, 1), day(2025, time.April, 30), s)

	require.Len(t, months, 3)
	assert.Equal(t, "February 2025", months[0].Label)
	assert.Equal(t, "April 2025", months[2].Label)
}

func TestWeekStarts(t *testing.T) {
	s := sundayCalendar()

	starts := WeekStarts(day(2025, time.January, 10), day(2025, time.January, 13), s)

	assert.Equal(t, map[WeekKey]time.Time{
		{Year: 2025, Week: 1}: day(2025, time.January, 5),
		{Year: 2025, Week: 2}: day(2025, time.January, 12),
	}, starts)
}
