package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"catering/internal/core"
)

func TestStoreCreateAndList(t *testing.T) {
	ctx := context.Background()
	s := New()

	m, err := s.Create(ctx, core.MealCreate{Year: 2024, Month: 3, Day: 5, Type: core.Breakfast, Menu: "Pancakes", Count: 45})
	if err != nil || m.ID == "" {
		t.Fatalf("unexpected create: meal=%+v err=%v", m, err)
	}
	if _, err := s.Create(ctx, core.MealCreate{Year: 2024, Month: 4, Day: 1, Type: core.Lunch, Menu: "Soup", Count: 10}); err != nil {
		t.Fatalf("create: %v", err)
	}

	march, err := s.ListByMonth(ctx, 2024, 3)
	if err != nil || len(march) != 1 || march[0].Menu != "Pancakes" {
		t.Fatalf("unexpected march list: %v err=%v", march, err)
	}
	all, _ := s.ListAll(ctx)
	if len(all) != 2 {
		t.Fatalf("expected 2 meals, got %d", len(all))
	}

	if _, err := s.Create(ctx, core.MealCreate{Year: 2024, Month: 3, Day: 5, Type: core.Lunch, Menu: "", Count: 1}); !core.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStoreUpdateDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	m, _ := s.Create(ctx, core.MealCreate{Year: 2024, Month: 3, Day: 5, Type: core.Dinner, Menu: "Fish", Count: 4})

	count := 9
	got, err := s.Update(ctx, m.ID, core.MealUpdate{Count: &count})
	if err != nil || got.Count != 9 {
		t.Fatalf("unexpected update: %+v err=%v", got, err)
	}
	if _, err := s.Update(ctx, "missing", core.MealUpdate{Count: &count}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := s.Delete(ctx, m.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, m.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestNewFromFileSeeds(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFromFile(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("missing seed should not fail: %v", err)
	}
	if all, _ := s.ListAll(context.Background()); len(all) != 0 {
		t.Fatalf("expected empty store")
	}

	seed := `
meals:
  - {year: 2024, month: 3, day: 12, type: Lunch, menu: Pasta Primavera, count: 95}
  - {year: 2024, month: 3, day: 12, type: Dinner, menu: Fish & Chips, count: 67}
companies:
  - {name: Acme, email: ops@acme.io, address: Main St 1}
employees:
  - {name: Ada, email: ada@acme.io, position: Chef}
`
	path := filepath.Join(dir, "seed.yaml")
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s, err = NewFromFile(path)
	if err != nil {
		t.Fatalf("load seed: %v", err)
	}
	ctx := context.Background()
	meals, _ := s.ListByMonth(ctx, 2024, 3)
	if len(meals) != 2 || meals[0].Type != core.Lunch || meals[0].ID == "" {
		t.Fatalf("unexpected seeded meals: %+v", meals)
	}
	companies, _ := s.ListCompanies(ctx)
	if len(companies) != 1 || companies[0].Status != core.CompanyActive {
		t.Fatalf("unexpected companies: %+v", companies)
	}
	employees, _ := s.ListEmployees(ctx)
	if len(employees) != 1 || employees[0].Shift != core.DefaultShift {
		t.Fatalf("unexpected employees: %+v", employees)
	}

	bad := filepath.Join(dir, "bad.yaml")
	_ = os.WriteFile(bad, []byte("meals: [unterminated"), 0o644)
	if _, err := NewFromFile(bad); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestCreateEmployeeLinksCompany(t *testing.T) {
	ctx := context.Background()
	s := New()
	c, err := s.CreateCompany(ctx, core.CompanyCreate{Name: "Acme", Email: "ops@acme.io"})
	if err != nil {
		t.Fatalf("create company: %v", err)
	}
	if _, err := s.CreateEmployee(ctx, core.EmployeeCreate{Name: "Ada", Email: "ada@acme.io", Position: "Chef", CompanyID: c.ID}); err != nil {
		t.Fatalf("create employee: %v", err)
	}
	companies, _ := s.ListCompanies(ctx)
	if companies[0].EmployeesCount != 1 {
		t.Fatalf("expected employee count 1, got %d", companies[0].EmployeesCount)
	}
	_, err = s.CreateEmployee(ctx, core.EmployeeCreate{Name: "Bob", Email: "bob@acme.io", Position: "Driver", CompanyID: "nope"})
	if !errors.Is(err, core.ErrUnknownCompany) {
		t.Fatalf("expected unknown company, got %v", err)
	}
}
