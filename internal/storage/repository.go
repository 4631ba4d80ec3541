package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"catering/internal/core"
	"catering/internal/log"
	"catering/internal/ports"

	_ "modernc.org/sqlite"
)

var (
	_ ports.MealRepository     = (*SQLiteRepository)(nil)
	_ ports.MealEditor         = (*SQLiteRepository)(nil)
	_ ports.CompanyRepository  = (*SQLiteRepository)(nil)
	_ ports.EmployeeRepository = (*SQLiteRepository)(nil)
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *log.Logger
}

// PendingSyncMeal is the minimal data a sync message needs.
type PendingSyncMeal struct {
	ID        int64
	Version   int64
	CreatedAt time.Time
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		logger:  logger.WithComponent(log.ComponentStorage),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping is used by the readiness probe.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Create(ctx context.Context, mc core.MealCreate) (core.Meal, error) {
	if err := mc.Validate(); err != nil {
		return core.Meal{}, err
	}
	draft := mc.Meal("")
	row, err := r.queries.CreateMeal(ctx, CreateMealParams{
		Year:  int64(draft.Year),
		Month: int64(draft.Month),
		Day:   int64(draft.Day),
		Type:  string(draft.Type),
		Menu:  draft.Menu,
		Count: int64(draft.Count),
	})
	if err != nil {
		return core.Meal{}, fmt.Errorf("create meal: %w", err)
	}
	meal := toMeal(row)
	r.logger.InfoContext(ctx, "Meal saved to SQLite", log.NewFields().
		WithMeal(meal.ID, meal.Year, meal.Month, meal.Day, string(meal.Type), meal.Menu, meal.Count).
		ToSlice()...)
	return meal, nil
}

func (r *SQLiteRepository) ListByMonth(ctx context.Context, year, month int) ([]core.Meal, error) {
	rows, err := r.queries.ListMealsByMonth(ctx, ListMealsByMonthParams{Year: int64(year), Month: int64(month)})
	if err != nil {
		return nil, fmt.Errorf("list meals for %d-%02d: %w", year, month, err)
	}
	return toMeals(rows), nil
}

func (r *SQLiteRepository) ListAll(ctx context.Context) ([]core.Meal, error) {
	rows, err := r.queries.ListMeals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	return toMeals(rows), nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.Meal, error) {
	n, err := parseID(id)
	if err != nil {
		return core.Meal{}, err
	}
	row, err := r.queries.GetMeal(ctx, n)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Meal{}, fmt.Errorf("meal %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Meal{}, fmt.Errorf("get meal: %w", err)
	}
	return toMeal(row), nil
}

// Update applies the set fields inside one transaction and bumps the version.
func (r *SQLiteRepository) Update(ctx context.Context, id string, u core.MealUpdate) (core.Meal, error) {
	if err := u.Validate(); err != nil {
		return core.Meal{}, err
	}
	n, err := parseID(id)
	if err != nil {
		return core.Meal{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Meal{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()
	q := r.queries.WithTx(tx)

	current, err := q.GetMeal(ctx, n)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Meal{}, fmt.Errorf("meal %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Meal{}, fmt.Errorf("get meal: %w", err)
	}
	next := u.Apply(toMeal(current))
	row, err := q.UpdateMeal(ctx, UpdateMealParams{
		Type:  string(next.Type),
		Menu:  next.Menu,
		Count: int64(next.Count),
		ID:    n,
	})
	if err != nil {
		return core.Meal{}, fmt.Errorf("update meal: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Meal{}, fmt.Errorf("commit meal update: %w", err)
	}
	return toMeal(row), nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	n, err := parseID(id)
	if err != nil {
		return err
	}
	affected, err := r.queries.DeleteMeal(ctx, n)
	if err != nil {
		return fmt.Errorf("delete meal: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("meal %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// GetMealByID is used by the sync worker, which carries numeric ids.
func (r *SQLiteRepository) GetMealByID(ctx context.Context, id int64) (core.Meal, int64, error) {
	row, err := r.queries.GetMeal(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Meal{}, 0, fmt.Errorf("meal %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Meal{}, 0, fmt.Errorf("get meal by id: %w", err)
	}
	return toMeal(row), row.Version, nil
}

// GetPendingSyncMeals returns meals not yet exported, oldest first.
func (r *SQLiteRepository) GetPendingSyncMeals(ctx context.Context, limit int) ([]PendingSyncMeal, error) {
	rows, err := r.queries.GetPendingSyncMeals(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending sync meals: %w", err)
	}
	out := make([]PendingSyncMeal, len(rows))
	for i, row := range rows {
		out[i] = PendingSyncMeal{ID: row.ID, Version: row.Version, CreatedAt: time.Unix(row.CreatedAt, 0).UTC()}
	}
	return out, nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if err := r.queries.MarkMealSynced(ctx, id); err != nil {
		return fmt.Errorf("mark meal synced: %w", err)
	}
	r.logger.InfoContext(ctx, "Meal marked as synced", log.FieldMealID, id)
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if err := r.queries.MarkMealSyncError(ctx, id); err != nil {
		return fmt.Errorf("mark meal sync error: %w", err)
	}
	r.logger.WarnContext(ctx, "Meal marked with sync error", log.FieldMealID, id)
	return nil
}

func (r *SQLiteRepository) ListCompanies(ctx context.Context) ([]core.Company, error) {
	rows, err := r.queries.ListCompanies(ctx)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	out := make([]core.Company, len(rows))
	for i, row := range rows {
		out[i] = toCompany(row)
	}
	return out, nil
}

func (r *SQLiteRepository) CreateCompany(ctx context.Context, c core.CompanyCreate) (core.Company, error) {
	if err := c.Validate(); err != nil {
		return core.Company{}, err
	}
	draft := c.Company("")
	row, err := r.queries.CreateCompany(ctx, CreateCompanyParams{Name: draft.Name, Email: draft.Email, Address: draft.Address})
	if err != nil {
		return core.Company{}, fmt.Errorf("create company: %w", err)
	}
	return toCompany(row), nil
}

func (r *SQLiteRepository) ListEmployees(ctx context.Context) ([]core.Employee, error) {
	rows, err := r.queries.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	out := make([]core.Employee, len(rows))
	for i, row := range rows {
		out[i] = toEmployee(row)
	}
	return out, nil
}

// CreateEmployee links the employee to its company, if any, in one transaction.
func (r *SQLiteRepository) CreateEmployee(ctx context.Context, e core.EmployeeCreate) (core.Employee, error) {
	if err := e.Validate(); err != nil {
		return core.Employee{}, err
	}
	draft := e.Employee("")
	var companyID sql.NullInt64
	if draft.CompanyID != "" {
		n, err := strconv.ParseInt(draft.CompanyID, 10, 64)
		if err != nil {
			return core.Employee{}, core.NewValidationError("company_id", core.ErrUnknownCompany)
		}
		companyID = sql.NullInt64{Int64: n, Valid: true}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Employee{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()
	q := r.queries.WithTx(tx)

	if companyID.Valid {
		affected, err := q.IncrementCompanyEmployees(ctx, companyID.Int64)
		if err != nil {
			return core.Employee{}, fmt.Errorf("update company headcount: %w", err)
		}
		if affected == 0 {
			return core.Employee{}, core.NewValidationError("company_id", core.ErrUnknownCompany)
		}
	}
	row, err := q.CreateEmployee(ctx, CreateEmployeeParams{
		Name:      draft.Name,
		Email:     draft.Email,
		Position:  draft.Position,
		CompanyID: companyID,
	})
	if err != nil {
		return core.Employee{}, fmt.Errorf("create employee: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Employee{}, fmt.Errorf("commit employee: %w", err)
	}
	return toEmployee(row), nil
}

func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("meal %s: %w", id, core.ErrNotFound)
	}
	return n, nil
}

func toMeal(row Meal) core.Meal {
	return core.Meal{
		ID:    strconv.FormatInt(row.ID, 10),
		Year:  int(row.Year),
		Month: int(row.Month),
		Day:   int(row.Day),
		Type:  core.MealType(row.Type),
		Menu:  row.Menu,
		Count: int(row.Count),
	}
}

func toMeals(rows []Meal) []core.Meal {
	out := make([]core.Meal, len(rows))
	for i, row := range rows {
		out[i] = toMeal(row)
	}
	return out
}

func toCompany(row Company) core.Company {
	return core.Company{
		ID:             strconv.FormatInt(row.ID, 10),
		Name:           row.Name,
		Email:          row.Email,
		Address:        row.Address,
		Status:         row.Status,
		EmployeesCount: int(row.EmployeesCount),
	}
}

func toEmployee(row Employee) core.Employee {
	e := core.Employee{
		ID:       strconv.FormatInt(row.ID, 10),
		Name:     row.Name,
		Email:    row.Email,
		Position: row.Position,
		Shift:    row.Shift,
	}
	if row.CompanyID.Valid {
		e.CompanyID = strconv.FormatInt(row.CompanyID.Int64, 10)
	}
	return e
}
