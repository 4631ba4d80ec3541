package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"catering/internal/core"
	"catering/internal/ports"
)

var (
	_ ports.MealRepository     = (*Store)(nil)
	_ ports.MealEditor         = (*Store)(nil)
	_ ports.CompanyRepository  = (*Store)(nil)
	_ ports.EmployeeRepository = (*Store)(nil)
)

// Store keeps every record in process memory, in insertion order.
type Store struct {
	mu        sync.Mutex
	meals     []core.Meal
	companies []core.Company
	employees []core.Employee
	newID     func() string
}

// Seed is the on-disk shape of a seed file.
type Seed struct {
	Meals     []core.Meal     `yaml:"meals"`
	Companies []core.Company  `yaml:"companies"`
	Employees []core.Employee `yaml:"employees"`
}

func New() *Store {
	return &Store{newID: uuid.NewString}
}

// NewFromFile loads a YAML seed. A missing file yields an empty store.
func NewFromFile(path string) (*Store, error) {
	s := New()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	s.load(seed)
	return s, nil
}

func (s *Store) load(seed Seed) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range seed.Meals {
		if m.ID == "" {
			m.ID = s.newID()
		}
		s.meals = append(s.meals, m)
	}
	for _, c := range seed.Companies {
		if c.ID == "" {
			c.ID = s.newID()
		}
		if c.Status == "" {
			c.Status = core.CompanyActive
		}
		s.companies = append(s.companies, c)
	}
	for _, e := range seed.Employees {
		if e.ID == "" {
			e.ID = s.newID()
		}
		if e.Shift == "" {
			e.Shift = core.DefaultShift
		}
		s.employees = append(s.employees, e)
	}
}

func (s *Store) ListByMonth(_ context.Context, year, month int) ([]core.Meal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Meal, 0)
	for _, m := range s.meals {
		if m.Year == year && m.Month == month {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Store) ListAll(_ context.Context) ([]core.Meal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Meal{}, s.meals...), nil
}

func (s *Store) Create(_ context.Context, mc core.MealCreate) (core.Meal, error) {
	if err := mc.Validate(); err != nil {
		return core.Meal{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m := mc.Meal(s.newID())
	s.meals = append(s.meals, m)
	return m, nil
}

func (s *Store) Get(_ context.Context, id string) (core.Meal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.Meal{}, fmt.Errorf("meal %s: %w", id, core.ErrNotFound)
	}
	return s.meals[i], nil
}

func (s *Store) Update(_ context.Context, id string, u core.MealUpdate) (core.Meal, error) {
	if err := u.Validate(); err != nil {
		return core.Meal{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.Meal{}, fmt.Errorf("meal %s: %w", id, core.ErrNotFound)
	}
	s.meals[i] = u.Apply(s.meals[i])
	return s.meals[i], nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("meal %s: %w", id, core.ErrNotFound)
	}
	s.meals = append(s.meals[:i], s.meals[i+1:]...)
	return nil
}

func (s *Store) indexOf(id string) int {
	for i, m := range s.meals {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) ListCompanies(_ context.Context) ([]core.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Company{}, s.companies...), nil
}

func (s *Store) CreateCompany(_ context.Context, c core.CompanyCreate) (core.Company, error) {
	if err := c.Validate(); err != nil {
		return core.Company{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	company := c.Company(s.newID())
	s.companies = append(s.companies, company)
	return company, nil
}

func (s *Store) ListEmployees(_ context.Context) ([]core.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Employee{}, s.employees...), nil
}

func (s *Store) CreateEmployee(_ context.Context, e core.EmployeeCreate) (core.Employee, error) {
	if err := e.Validate(); err != nil {
		return core.Employee{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.CompanyID != "" {
		i := s.companyIndex(e.CompanyID)
		if i < 0 {
			return core.Employee{}, core.NewValidationError("company_id", core.ErrUnknownCompany)
		}
		s.companies[i].EmployeesCount++
	}
	employee := e.Employee(s.newID())
	s.employees = append(s.employees, employee)
	return employee, nil
}

func (s *Store) companyIndex(id string) int {
	for i, c := range s.companies {
		if c.ID == id {
			return i
		}
	}
	return -1
}
