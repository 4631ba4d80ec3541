package core

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

const (
	Breakfast MealType = "Breakfast"
	Lunch     MealType = "Lunch"
	Dinner    MealType = "Dinner"
)

const (
	CompanyActive = "Active"
	DefaultShift  = "N/A"
)

type (
	// MealType is an open string; only the canonical values take part in
	// type distribution and colour mapping.
	MealType string

	YearMonth struct {
		Year  int
		Month int // 1-12
	}

	Meal struct {
		ID    string   `json:"_id" yaml:"id"`
		Year  int      `json:"year" yaml:"year"`
		Month int      `json:"month" yaml:"month"`
		Day   int      `json:"day" yaml:"day"`
		Type  MealType `json:"type" yaml:"type"`
		Menu  string   `json:"menu" yaml:"menu"`
		Count int      `json:"count" yaml:"count"`
	}

	// MealCreate is a meal without identity, as submitted by a form.
	MealCreate struct {
		Year  int      `json:"year"`
		Month int      `json:"month"`
		Day   int      `json:"day"`
		Type  MealType `json:"type"`
		Menu  string   `json:"menu"`
		Count int      `json:"count"`
	}

	// MealUpdate carries only the fields to change.
	MealUpdate struct {
		Type  *MealType `json:"type,omitempty"`
		Menu  *string   `json:"menu,omitempty"`
		Count *int      `json:"count,omitempty"`
	}

	Company struct {
		ID             string `json:"_id" yaml:"id"`
		Name           string `json:"name" yaml:"name"`
		Email          string `json:"email" yaml:"email"`
		Address        string `json:"address" yaml:"address"`
		Status         string `json:"status" yaml:"status"`
		EmployeesCount int    `json:"employeesCount" yaml:"employees_count"`
	}

	CompanyCreate struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Address string `json:"address"`
	}

	Employee struct {
		ID        string `json:"_id" yaml:"id"`
		Name      string `json:"name" yaml:"name"`
		Email     string `json:"email" yaml:"email"`
		Position  string `json:"position" yaml:"position"`
		Shift     string `json:"shift" yaml:"shift"`
		CompanyID string `json:"company_id,omitempty" yaml:"company_id"`
	}

	EmployeeCreate struct {
		Name      string `json:"name"`
		Email     string `json:"email"`
		Position  string `json:"position"`
		CompanyID string `json:"company_id,omitempty"`
	}
)

var (
	ErrInvalidYear    = errors.New("invalid year")
	ErrInvalidMonth   = errors.New("invalid month")
	ErrInvalidDay     = errors.New("invalid day")
	ErrEmptyMenu      = errors.New("empty menu")
	ErrInvalidCount   = errors.New("count must be greater than zero")
	ErrEmptyType      = errors.New("empty meal type")
	ErrEmptyName      = errors.New("empty name")
	ErrInvalidEmail   = errors.New("invalid email")
	ErrEmptyUpdate    = errors.New("no fields to update")
	ErrEmptyPosition  = errors.New("empty position")
	ErrUnknownCompany = errors.New("unknown company")
)

// Canonical reports whether t is Breakfast, Lunch or Dinner.
func (t MealType) Canonical() bool {
	switch t {
	case Breakfast, Lunch, Dinner:
		return true
	}
	return false
}

// Color returns the badge colour used for the type in calendar views.
func (t MealType) Color() string {
	switch t {
	case Breakfast:
		return "blue"
	case Lunch:
		return "green"
	case Dinner:
		return "orange"
	default:
		return "gray"
	}
}

// NewYearMonth normalizes month overflow, so (2024, 13) is January 2025.
func NewYearMonth(year, month int) YearMonth {
	t := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return YearMonth{Year: t.Year(), Month: int(t.Month())}
}

// YearMonthOf returns the month containing t.
func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: int(t.Month())}
}

// Add moves n months forward (or back when negative).
func (ym YearMonth) Add(n int) YearMonth {
	return NewYearMonth(ym.Year, ym.Month+n)
}

// DaysIn returns the number of days in the month.
func (ym YearMonth) DaysIn() int {
	return time.Date(ym.Year, time.Month(ym.Month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FirstWeekday is the weekday of day 1, Sunday = 0.
func (ym YearMonth) FirstWeekday() time.Weekday {
	return time.Date(ym.Year, time.Month(ym.Month), 1, 0, 0, 0, 0, time.UTC).Weekday()
}

func (ym YearMonth) String() string {
	return time.Month(ym.Month).String() + " " + strconv.Itoa(ym.Year)
}

func (ym YearMonth) Validate() error {
	if ym.Year < 1 || ym.Year > 9999 {
		return ErrInvalidYear
	}
	if ym.Month < 1 || ym.Month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Date returns the calendar date the meal's fields construct. Out of range
// days roll over into the following month the way time.Date does.
func (m Meal) Date() time.Time {
	return time.Date(m.Year, time.Month(m.Month), m.Day, 0, 0, 0, 0, time.UTC)
}

func (m Meal) YearMonth() YearMonth {
	return YearMonth{Year: m.Year, Month: m.Month}
}

func (mc MealCreate) Validate() error {
	if len(strings.TrimSpace(mc.Menu)) == 0 {
		return NewValidationError("menu", ErrEmptyMenu)
	}
	if len(mc.Menu) > 200 {
		return NewValidationError("menu", errors.New("menu too long (max 200 characters)"))
	}
	if mc.Count <= 0 {
		return NewValidationError("count", ErrInvalidCount)
	}
	if strings.TrimSpace(string(mc.Type)) == "" {
		return NewValidationError("type", ErrEmptyType)
	}
	if err := (YearMonth{Year: mc.Year, Month: mc.Month}).Validate(); err != nil {
		return NewValidationError("date", err)
	}
	if mc.Day < 1 || mc.Day > 31 {
		return NewValidationError("day", ErrInvalidDay)
	}
	return nil
}

// Meal attaches an identity to the submitted fields.
func (mc MealCreate) Meal(id string) Meal {
	return Meal{
		ID:    id,
		Year:  mc.Year,
		Month: mc.Month,
		Day:   mc.Day,
		Type:  mc.Type,
		Menu:  strings.TrimSpace(mc.Menu),
		Count: mc.Count,
	}
}

// Empty reports whether the update sets no field.
func (u MealUpdate) Empty() bool {
	return u.Type == nil && u.Menu == nil && u.Count == nil
}

func (u MealUpdate) Validate() error {
	if u.Empty() {
		return NewValidationError("update", ErrEmptyUpdate)
	}
	if u.Menu != nil && strings.TrimSpace(*u.Menu) == "" {
		return NewValidationError("menu", ErrEmptyMenu)
	}
	if u.Count != nil && *u.Count <= 0 {
		return NewValidationError("count", ErrInvalidCount)
	}
	if u.Type != nil && strings.TrimSpace(string(*u.Type)) == "" {
		return NewValidationError("type", ErrEmptyType)
	}
	return nil
}

// Apply returns a copy of m with the set fields replaced.
func (u MealUpdate) Apply(m Meal) Meal {
	if u.Type != nil {
		m.Type = *u.Type
	}
	if u.Menu != nil {
		m.Menu = strings.TrimSpace(*u.Menu)
	}
	if u.Count != nil {
		m.Count = *u.Count
	}
	return m
}

func (c CompanyCreate) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return NewValidationError("name", ErrEmptyName)
	}
	if !validEmail(c.Email) {
		return NewValidationError("email", ErrInvalidEmail)
	}
	return nil
}

// Company fills the server-side defaults.
func (c CompanyCreate) Company(id string) Company {
	return Company{
		ID:      id,
		Name:    strings.TrimSpace(c.Name),
		Email:   strings.TrimSpace(c.Email),
		Address: strings.TrimSpace(c.Address),
		Status:  CompanyActive,
	}
}

func (e EmployeeCreate) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return NewValidationError("name", ErrEmptyName)
	}
	if !validEmail(e.Email) {
		return NewValidationError("email", ErrInvalidEmail)
	}
	if strings.TrimSpace(e.Position) == "" {
		return NewValidationError("position", ErrEmptyPosition)
	}
	return nil
}

func (e EmployeeCreate) Employee(id string) Employee {
	return Employee{
		ID:        id,
		Name:      strings.TrimSpace(e.Name),
		Email:     strings.TrimSpace(e.Email),
		Position:  strings.TrimSpace(e.Position),
		Shift:     DefaultShift,
		CompanyID: e.CompanyID,
	}
}

func validEmail(s string) bool {
	s = strings.TrimSpace(s)
	at := strings.Index(s, "@")
	if at <= 0 || at != strings.LastIndex(s, "@") {
		return false
	}
	domain := s[at+1:]
	dot := strings.LastIndex(domain, ".")
	return dot > 0 && dot < len(domain)-1 && !strings.ContainsAny(s, " \t\n")
}
