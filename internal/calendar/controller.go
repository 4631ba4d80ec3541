// Package calendar owns the month view state: the displayed month, the
// selected day and the day buckets built from the last successful fetch.
package calendar

import (
	"context"
	"sync"
	"time"

	"catering/internal/core"
	"catering/internal/log"
	"catering/internal/metrics"
	"catering/internal/ports"
)

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

type Direction int

const (
	Prev Direction = -1
	Next Direction = 1
)

// State is a snapshot of the view. Buckets is shared with the controller
// and must be treated as read-only.
type State struct {
	Month       core.YearMonth
	SelectedDay int // 0 means no selection
	Buckets     core.DayBucketMap
	// BucketsMonth is the month Buckets were built for. It lags Month while
	// a fetch is pending or after a failed one.
	BucketsMonth core.YearMonth
	Status       Status
	Err          error
}

type Option func(*Controller)

func WithNotifier(n ports.Notifier) Option { return func(c *Controller) { c.notifier = n } }

func WithLogger(l *log.Logger) Option { return func(c *Controller) { c.logger = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(c *Controller) { c.metrics = m } }

// WithClock overrides the clock used by Mount.
func WithClock(now func() time.Time) Option { return func(c *Controller) { c.now = now } }

// Controller is safe for concurrent use. Every fetch is tagged with a
// token; only the latest token for the current month may replace buckets.
type Controller struct {
	repo     ports.MealRepository
	notifier ports.Notifier
	logger   *log.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	mu        sync.Mutex
	state     State
	token     uint64
	seq       uint64
	listeners map[int]func(State)
	nextID    int

	// emitMu serializes listener calls; emitted is the seq last delivered.
	emitMu  sync.Mutex
	emitted uint64
}

func New(repo ports.MealRepository, opts ...Option) *Controller {
	c := &Controller{
		repo:      repo,
		logger:    log.Discard(),
		now:       time.Now,
		listeners: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithComponent(log.ComponentCalendar)
	c.state = State{Month: core.YearMonthOf(c.now()), Buckets: core.DayBucketMap{}}
	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnStateChange registers fn for every state change and returns a function
// that removes it. Listeners must not call mutating controller methods.
func (c *Controller) OnStateChange(fn func(State)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Mount loads the month containing the current date.
func (c *Controller) Mount(ctx context.Context) error {
	return c.GoTo(ctx, core.YearMonthOf(c.now()))
}

// Navigate moves one month in dir and fetches it. Concurrent calls each
// advance from the month the previous call moved to.
func (c *Controller) Navigate(ctx context.Context, dir Direction) error {
	c.mu.Lock()
	target := c.state.Month.Add(int(dir))
	if err := target.Validate(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.state.Month = target
	c.state.SelectedDay = 0
	token := c.beginLocked()
	c.emitLocked()
	return c.fetch(ctx, token, target)
}

// GoTo shows ym, clearing the selection, and blocks until its fetch
// resolves. A result superseded in the meantime is dropped and nil returned.
func (c *Controller) GoTo(ctx context.Context, ym core.YearMonth) error {
	if err := ym.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.state.Month = ym
	c.state.SelectedDay = 0
	token := c.beginLocked()
	c.emitLocked()
	return c.fetch(ctx, token, ym)
}

// SelectDay applies only while Loaded and only for days of the shown month.
func (c *Controller) SelectDay(day int) bool {
	c.mu.Lock()
	if c.state.Status != StatusLoaded || day < 1 || day > c.state.Month.DaysIn() {
		c.mu.Unlock()
		return false
	}
	c.state.SelectedDay = day
	c.emitLocked()
	return true
}

// ClearSelection drops the selected day.
func (c *Controller) ClearSelection() {
	c.mu.Lock()
	c.state.SelectedDay = 0
	c.emitLocked()
}

// SubmitMeal validates mc locally, creates it and refetches the shown
// month. A local validation failure never reaches the repository. The
// returned error reports validation or create failures; a failed refetch
// is reflected in State and the notifier.
func (c *Controller) SubmitMeal(ctx context.Context, mc core.MealCreate) (core.Meal, error) {
	if err := mc.Validate(); err != nil {
		c.notify(ctx, err)
		return core.Meal{}, err
	}
	meal, err := c.repo.Create(ctx, mc)
	if err != nil {
		err = asTransport("create meal", err)
		c.logger.LogError(ctx, "Failed to create meal", err, log.OpCreate, errorType(err))
		c.notify(ctx, err)
		return core.Meal{}, err
	}
	c.logger.InfoContext(ctx, "Meal submitted", log.NewFields().
		WithMeal(meal.ID, meal.Year, meal.Month, meal.Day, string(meal.Type), meal.Menu, meal.Count).
		ToSlice()...)

	c.mu.Lock()
	ym := c.state.Month
	token := c.beginLocked()
	c.emitLocked()
	_ = c.fetch(ctx, token, ym)
	return meal, nil
}

// Refresh refetches the shown month without touching the selection.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	ym := c.state.Month
	token := c.beginLocked()
	c.emitLocked()
	return c.fetch(ctx, token, ym)
}

func (c *Controller) beginLocked() uint64 {
	c.token++
	c.state.Status = StatusLoading
	c.state.Err = nil
	return c.token
}

func (c *Controller) fetch(ctx context.Context, token uint64, ym core.YearMonth) error {
	meals, err := c.repo.ListByMonth(ctx, ym.Year, ym.Month)

	c.mu.Lock()
	if token != c.token || ym != c.state.Month {
		c.mu.Unlock()
		c.metrics.StaleDiscarded(log.ComponentCalendar)
		c.logger.DebugContext(ctx, "Discarded stale month fetch",
			log.FieldYear, ym.Year, log.FieldMonth, ym.Month, log.FieldToken, token)
		return nil
	}
	if err != nil {
		err = asTransport("list meals by month", err)
		c.state.Status = StatusError
		c.state.Err = err
		c.emitLocked()
		c.metrics.FetchFailed(log.ComponentCalendar)
		c.logger.LogError(ctx, "Failed to fetch month", err, log.OpFetch, errorType(err))
		c.notify(ctx, err)
		return err
	}
	c.state.Buckets = core.BuildDayBuckets(meals)
	c.state.BucketsMonth = ym
	c.state.Status = StatusLoaded
	c.emitLocked()
	return nil
}

// emitLocked must be called with mu held and releases it. A snapshot older
// than one already delivered is skipped, so listeners never go backwards.
func (c *Controller) emitLocked() {
	c.seq++
	seq, snap := c.seq, c.state
	fns := make([]func(State), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	if seq < c.emitted {
		return
	}
	c.emitted = seq
	for _, fn := range fns {
		fn(snap)
	}
}

func (c *Controller) notify(ctx context.Context, err error) {
	if c.notifier != nil {
		c.notifier.Notify(ctx, err)
	}
}

func asTransport(op string, err error) error {
	if core.IsTransport(err) || core.IsValidation(err) {
		return err
	}
	return core.NewTransportError(op, err)
}

func errorType(err error) string {
	if core.IsValidation(err) {
		return log.ErrorTypeValidation
	}
	return log.ErrorTypeTransport
}
