// Package console implements the catering-console command tree on top of
// the calendar and dashboard controllers.
package console

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"catering/internal/calendar"
	"catering/internal/client"
	"catering/internal/core"
	"catering/internal/dashboard"
	"catering/internal/log"
	"catering/internal/ports"
)

// Repository is what the console reads from and writes to.
type Repository interface {
	ports.MealRepository
	ports.CompanyRepository
	ports.EmployeeRepository
}

// App carries the collaborators a command tree needs. Zero fields get
// defaults: an HTTP client repository and the wall clock.
type App struct {
	APIURL  string
	NewRepo func(apiURL string, logger *log.Logger) (Repository, error)
	Now     func() time.Time
}

func defaultRepo(apiURL string, logger *log.Logger) (Repository, error) {
	return client.New(apiURL, client.WithLogger(logger))
}

type session struct {
	app    App
	apiURL string
	level  string
	logger *log.Logger
}

func NewRootCmd(app App) *cobra.Command {
	if app.NewRepo == nil {
		app.NewRepo = defaultRepo
	}
	if app.Now == nil {
		app.Now = time.Now
	}
	s := &session{app: app}

	cmd := &cobra.Command{
		Use:           "catering-console",
		Short:         "Browse and plan catered meals",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			lc := log.DefaultConfig()
			lc.Level = log.ParseLevel(s.level)
			lc.Output = cmd.ErrOrStderr()
			lc.Component = log.ComponentApp
			s.logger = log.New(lc)
		},
	}
	cmd.PersistentFlags().StringVar(&s.apiURL, "api-url", app.APIURL, "Catering API base URL")
	cmd.PersistentFlags().StringVar(&s.level, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(s.calendarCmd(), s.mealCmd(), s.dashboardCmd())
	return cmd
}

func (s *session) repo() (Repository, error) {
	return s.app.NewRepo(s.apiURL, s.logger)
}

func (s *session) calendarController(repo ports.MealRepository) *calendar.Controller {
	return calendar.New(repo,
		calendar.WithClock(s.app.Now),
		calendar.WithLogger(s.logger),
	)
}

func (s *session) calendarCmd() *cobra.Command {
	var year, month, day, prev, next int

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show a month with its meals",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := s.repo()
			if err != nil {
				return err
			}
			ym, err := s.month(year, month)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			ctrl := s.calendarController(repo)
			if err := ctrl.GoTo(ctx, ym); err != nil {
				return err
			}
			for range prev {
				if err := ctrl.Navigate(ctx, calendar.Prev); err != nil {
					return err
				}
			}
			for range next {
				if err := ctrl.Navigate(ctx, calendar.Next); err != nil {
					return err
				}
			}
			if day != 0 && !ctrl.SelectDay(day) {
				return fmt.Errorf("day %d is not in %s", day, ctrl.State().Month)
			}
			RenderCalendar(cmd.OutOrStdout(), ctrl.State(), s.app.Now())
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "Year to show (default current)")
	cmd.Flags().IntVar(&month, "month", 0, "Month to show, 1-12 (default current)")
	cmd.Flags().IntVar(&day, "day", 0, "Day to select")
	cmd.Flags().IntVar(&prev, "prev", 0, "Step back this many months")
	cmd.Flags().IntVar(&next, "next", 0, "Step forward this many months")
	return cmd
}

func (s *session) month(year, month int) (core.YearMonth, error) {
	ym := core.YearMonthOf(s.app.Now())
	if year != 0 {
		ym.Year = year
	}
	if month != 0 {
		ym.Month = month
	}
	if err := ym.Validate(); err != nil {
		return core.YearMonth{}, core.NewValidationError("month", err)
	}
	return ym, nil
}

func (s *session) mealCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meal",
		Short: "Manage meals",
	}

	var (
		mc       core.MealCreate
		mealType string
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Plan a meal and show its day",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := s.repo()
			if err != nil {
				return err
			}
			mc.Type = core.MealType(mealType)
			ym, err := s.month(mc.Year, mc.Month)
			if err != nil {
				return err
			}
			mc.Year, mc.Month = ym.Year, ym.Month

			ctx := cmd.Context()
			ctrl := s.calendarController(repo)
			if err := ctrl.GoTo(ctx, ym); err != nil {
				return err
			}
			meal, err := ctrl.SubmitMeal(ctx, mc)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created meal %s\n\n", meal.ID)
			ctrl.SelectDay(meal.Day)
			RenderCalendar(cmd.OutOrStdout(), ctrl.State(), s.app.Now())
			return nil
		},
	}
	add.Flags().IntVar(&mc.Year, "year", 0, "Year (default current)")
	add.Flags().IntVar(&mc.Month, "month", 0, "Month, 1-12 (default current)")
	add.Flags().IntVar(&mc.Day, "day", 0, "Day of month")
	add.Flags().StringVar(&mealType, "type", string(core.Lunch), "Meal type (Breakfast, Lunch, Dinner)")
	add.Flags().StringVar(&mc.Menu, "menu", "", "Menu description")
	add.Flags().IntVar(&mc.Count, "count", 0, "Number of servings")
	_ = add.MarkFlagRequired("day")
	_ = add.MarkFlagRequired("menu")
	_ = add.MarkFlagRequired("count")

	cmd.AddCommand(add)
	return cmd
}

func (s *session) dashboardCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show today's totals and the weekday and type distributions",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := s.repo()
			if err != nil {
				return err
			}
			ctrl := dashboard.New(repo, repo, repo,
				dashboard.WithClock(s.app.Now),
				dashboard.WithLogger(s.logger),
			)
			if err := ctrl.Refresh(cmd.Context()); err != nil {
				return err
			}
			v := ctrl.View()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(v.Stats)
			}
			RenderDashboard(cmd.OutOrStdout(), v)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the statistics as JSON")
	return cmd
}

// ExitCode maps an error from Execute to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case core.IsValidation(err):
		return 2
	case errors.Is(err, core.ErrNotFound):
		return 3
	default:
		return 1
	}
}
