// Package dashboard keeps the full meal list, the company and employee
// directories and the statistics derived from them.
package dashboard

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"catering/internal/core"
	"catering/internal/log"
	"catering/internal/metrics"
	"catering/internal/ports"
)

// View is recomputed in full after every successful refresh.
type View struct {
	Stats           core.DashboardStats
	Meals           []core.Meal
	Companies       []core.Company
	Employees       []core.Employee
	ActiveCompanies int
	Loaded          bool
	Loading         bool
	Err             error
	UpdatedAt       time.Time
}

// TeamSize is the number of employees.
func (v View) TeamSize() int { return len(v.Employees) }

type Option func(*Controller)

func WithNotifier(n ports.Notifier) Option { return func(c *Controller) { c.notifier = n } }

func WithLogger(l *log.Logger) Option { return func(c *Controller) { c.logger = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(c *Controller) { c.metrics = m } }

func WithClock(now func() time.Time) Option { return func(c *Controller) { c.now = now } }

type Controller struct {
	meals     ports.MealReader
	companies ports.CompanyRepository
	employees ports.EmployeeRepository
	notifier  ports.Notifier
	logger    *log.Logger
	metrics   *metrics.Metrics
	now       func() time.Time

	mu        sync.Mutex
	view      View
	token     uint64
	listeners []func(View)
}

func New(meals ports.MealReader, companies ports.CompanyRepository, employees ports.EmployeeRepository, opts ...Option) *Controller {
	c := &Controller{
		meals:     meals,
		companies: companies,
		employees: employees,
		logger:    log.Discard(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithComponent(log.ComponentDashboard)
	return c
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// OnStateChange registers fn; it runs with the controller unlocked.
func (c *Controller) OnStateChange(fn func(View)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Refresh loads meals, companies and employees concurrently. On failure the
// previous data is kept. A refresh overtaken by a newer one is dropped.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.token++
	token := c.token
	c.view.Loading = true
	c.mu.Unlock()

	var (
		meals     []core.Meal
		companies []core.Company
		employees []core.Employee
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		meals, err = c.meals.ListAll(gctx)
		return wrap("list meals", err)
	})
	g.Go(func() error {
		var err error
		companies, err = c.companies.ListCompanies(gctx)
		return wrap("list companies", err)
	})
	g.Go(func() error {
		var err error
		employees, err = c.employees.ListEmployees(gctx)
		return wrap("list employees", err)
	})
	err := g.Wait()

	c.mu.Lock()
	if token != c.token {
		c.mu.Unlock()
		c.metrics.StaleDiscarded(log.ComponentDashboard)
		c.logger.DebugContext(ctx, "Discarded stale dashboard refresh", log.FieldToken, token)
		return nil
	}
	c.view.Loading = false
	if err != nil {
		c.view.Err = err
	} else {
		c.view = build(meals, companies, employees, c.now())
	}
	snap := c.view
	fns := append([]func(View){}, c.listeners...)
	c.mu.Unlock()

	if err != nil {
		c.metrics.FetchFailed(log.ComponentDashboard)
		c.logger.LogError(ctx, "Dashboard refresh failed", err, log.OpFetch, log.ErrorTypeTransport)
		if c.notifier != nil {
			c.notifier.Notify(ctx, err)
		}
	}
	for _, fn := range fns {
		fn(snap)
	}
	return err
}

func build(meals []core.Meal, companies []core.Company, employees []core.Employee, now time.Time) View {
	active := 0
	for _, co := range companies {
		if co.Status == core.CompanyActive {
			active++
		}
	}
	return View{
		Stats:           core.BuildDashboardStats(meals, now),
		Meals:           meals,
		Companies:       companies,
		Employees:       employees,
		ActiveCompanies: active,
		Loaded:          true,
		UpdatedAt:       now,
	}
}

func wrap(op string, err error) error {
	if err == nil || core.IsTransport(err) {
		return err
	}
	return core.NewTransportError(op, err)
}
