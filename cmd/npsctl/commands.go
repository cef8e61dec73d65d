package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/godilite/nps-insights/internal/config"
	"github.com/godilite/nps-insights/pkg/fiscal"
)

const dateLayout = "2006-01-02"

func newRootCmd() *cobra.Command {
	var calendarPath string

	root := &cobra.Command{
		Use:           "npsctl",
		Short:         "Custom week and reporting month calculator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&calendarPath, "calendar", "", "calendar YAML file (defaults to Sunday weeks, no anchor)")

	loadSettings := func() (fiscal.Settings, error) {
		if calendarPath == "" {
			return fiscal.Settings{}, nil
		}
		return config.LoadCalendar(calendarPath)
	}

	root.AddCommand(newWeekCmd(loadSettings), newWeeksCmd(loadSettings), newMonthsCmd(loadSettings))
	return root
}

type settingsLoader func() (fiscal.Settings, error)

func newWeekCmd(load settingsLoader) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "week",
		Short: "Show the custom week containing a date",
		Example: `  npsctl week --date 2025-01-15
  npsctl week --date 2025-01-15 --calendar calendar.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := load()
			if err != nil {
				return err
			}
			t := time.Now()
			if date != "" {
				if t, err = time.Parse(dateLayout, date); err != nil {
					return fmt.Errorf("invalid --date %q: %w", date, err)
				}
			}
			w := fiscal.WeekPeriodOf(t, s)
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", w.Key, w.Start.Format(dateLayout), w.End.Format(dateLayout))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD (defaults to today)")
	return cmd
}

func newWeeksCmd(load settingsLoader) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "weeks",
		Short: "List the custom weeks starting between two dates",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := load()
			if err != nil {
				return err
			}
			start, err := time.Parse(dateLayout, from)
			if err != nil {
				return fmt.Errorf("invalid --from %q: %w", from, err)
			}
			end, err := time.Parse(dateLayout, to)
			if err != nil {
				return fmt.Errorf("invalid --to %q: %w", to, err)
			}
			if end.Before(start) {
				return fmt.Errorf("--to %s is before --from %s", to, from)
			}
			for _, w := range fiscal.WeeksInRange(start, end, s) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", w.Key, w.Start.Format(dateLayout), w.End.Format(dateLayout))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first date as YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last date as YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newMonthsCmd(load settingsLoader) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "months",
		Short: "List the reporting months of a year",
		Long: `List the reporting months of a year. Months configured in the calendar
file are printed when present; otherwise months are derived from the week
calendar, each holding the weeks that start in that calendar month.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := load()
			if err != nil {
				return err
			}
			if year <= 0 {
				year = time.Now().Year()
			}

			months := configuredMonths(s, year)
			if len(months) == 0 {
				months = fiscal.GenerateMonthRanges(year, s)
			}
			for _, m := range months {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", m.Label, m.Start.Format(dateLayout), m.End.Format(dateLayout))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "calendar year (defaults to the current year)")
	return cmd
}

// configuredMonths returns the calendar's month ranges whose midpoint falls in
// year.
func configuredMonths(s fiscal.Settings, year int) []fiscal.MonthRange {
	var out []fiscal.MonthRange
	for _, m := range s.MonthRanges {
		if m.Start.Add(m.End.Sub(m.Start)/2).Year() == year {
			out = append(out, m)
		}
	}
	return out
}
