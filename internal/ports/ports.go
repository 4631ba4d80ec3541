package ports

import (
	"context"

	"catering/internal/core"
)

// Ports for repositories consumed by the console and the HTTP server.
type (
	// MealReader lists meals for the calendar and the dashboard.
	MealReader interface {
		// ListByMonth returns the meals stored for year/month in insertion order.
		ListByMonth(ctx context.Context, year, month int) ([]core.Meal, error)
		// ListAll returns every stored meal.
		ListAll(ctx context.Context) ([]core.Meal, error)
	}

	// MealWriter creates meals; the repository assigns the identity.
	MealWriter interface {
		Create(ctx context.Context, mc core.MealCreate) (core.Meal, error)
	}

	// MealEditor covers single-record access.
	MealEditor interface {
		Get(ctx context.Context, id string) (core.Meal, error)
		Update(ctx context.Context, id string, u core.MealUpdate) (core.Meal, error)
		Delete(ctx context.Context, id string) error
	}

	MealRepository interface {
		MealReader
		MealWriter
	}

	CompanyRepository interface {
		ListCompanies(ctx context.Context) ([]core.Company, error)
		CreateCompany(ctx context.Context, c core.CompanyCreate) (core.Company, error)
	}

	EmployeeRepository interface {
		ListEmployees(ctx context.Context) ([]core.Employee, error)
		CreateEmployee(ctx context.Context, e core.EmployeeCreate) (core.Employee, error)
	}

	// Notifier surfaces failures to the user.
	Notifier interface {
		Notify(ctx context.Context, err error)
	}

	// MealExporter mirrors meals into an external spreadsheet, one row per meal id.
	MealExporter interface {
		UpsertMeal(ctx context.Context, m core.Meal) (rowRef string, err error)
		RemoveMeal(ctx context.Context, year int, id string) error
	}
)

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, err error)

func (f NotifierFunc) Notify(ctx context.Context, err error) { f(ctx, err) }
