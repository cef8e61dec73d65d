package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/godilite/nps-insights/pkg/fiscal"
)

const calendarDateLayout = "2006-01-02"

// CalendarFile is the YAML form of the organization calendar:
//
//	week_start_day: monday
//	week1_start: 2025-01-06
//	week1_end: 2025-01-12
//	start_week_number: 1
//	targets: {promoters: 75, detractors: 8}
//	month_ranges:
//	  - {start: 2025-01-06, end: 2025-02-02, label: January 2025}
type CalendarFile struct {
	WeekStartDay    string              `yaml:"week_start_day"`
	Week1Start      string              `yaml:"week1_start"`
	Week1End        string              `yaml:"week1_end"`
	StartWeekNumber int                 `yaml:"start_week_number"`
	Targets         fiscal.NPSTargets   `yaml:"targets"`
	MonthRanges     []CalendarMonthFile `yaml:"month_ranges"`
}

type CalendarMonthFile struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
	Label string `yaml:"label"`
}

// LoadCalendar reads a calendar file.
func LoadCalendar(path string) (fiscal.Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fiscal.Settings{}, fmt.Errorf("read calendar %s: %w", path, err)
	}
	return ParseCalendar(data)
}

// ParseCalendar decodes calendar YAML. Empty dates are left unset.
func ParseCalendar(data []byte) (fiscal.Settings, error) {
	var file CalendarFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fiscal.Settings{}, fmt.Errorf("decode calendar: %w", err)
	}

	weekday, err := parseWeekday(file.WeekStartDay)
	if err != nil {
		return fiscal.Settings{}, err
	}

	s := fiscal.Settings{
		WeekStartDay:    weekday,
		StartWeekNumber: file.StartWeekNumber,
		Targets:         file.Targets,
	}
	if s.Week1Start, err = parseCalendarDate("week1_start", file.Week1Start); err != nil {
		return fiscal.Settings{}, err
	}
	if s.Week1End, err = parseCalendarDate("week1_end", file.Week1End); err != nil {
		return fiscal.Settings{}, err
	}

	for i, m := range file.MonthRanges {
		start, err := parseCalendarDate(fmt.Sprintf("month_ranges[%d].start", i), m.Start)
		if err != nil {
			return fiscal.Settings{}, err
		}
		end, err := parseCalendarDate(fmt.Sprintf("month_ranges[%d].end", i), m.End)
		if err != nil {
			return fiscal.Settings{}, err
		}
		if start.IsZero() || end.IsZero() || end.Before(start) {
			return fiscal.Settings{}, fmt.Errorf("month_ranges[%d]: invalid range %q..%q", i, m.Start, m.End)
		}
		s.MonthRanges = append(s.MonthRanges, fiscal.MonthRange{Start: start, End: end, Label: m.Label})
	}
	return s, nil
}

// parseWeekday accepts English day names, three-letter abbreviations and 0-6.
func parseWeekday(v string) (time.Weekday, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return time.Sunday, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		if n < 0 || n > 6 {
			return 0, fmt.Errorf("week_start_day %d out of range 0-6", n)
		}
		return time.Weekday(n), nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if v == name || v == name[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown week_start_day %q", v)
}

func parseCalendarDate(field, v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(calendarDateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", field, err)
	}
	return t, nil
}
