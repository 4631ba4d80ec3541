package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"catering/internal/core"
	"catering/internal/log"
	"catering/internal/metrics"
	"catering/internal/middleware/ratelimit"
	"catering/internal/middleware/security"
	"catering/internal/middleware/trace"
	"catering/internal/ports"
	appweb "catering/web"
)

// MealStore is the meal surface the handlers use.
type MealStore interface {
	ports.MealRepository
	ports.MealEditor
}

// Deps are the collaborators of a Server. Ping, Metrics and Clock are optional.
type Deps struct {
	Meals       MealStore
	Companies   ports.CompanyRepository
	Employees   ports.EmployeeRepository
	Ping        func(ctx context.Context) error
	Logger      *log.Logger
	Metrics     *metrics.Metrics
	CORSOrigins []string
	// TrustedProxies are CIDRs whose X-Forwarded-For is believed.
	TrustedProxies []string
	// RateLimit is requests per client per minute on the API; 0 disables it.
	RateLimit int
	Clock     func() time.Time
}

type Server struct {
	http.Server
	meals     MealStore
	companies ports.CompanyRepository
	employees ports.EmployeeRepository
	ping      func(ctx context.Context) error
	logger    *log.Logger
	metrics   *metrics.Metrics
	templates *template.Template
	limiter   *ratelimit.Limiter
	ips       *security.IPExtractor
	now       func() time.Time
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = log.Discard()
	}
	now := d.Clock
	if now == nil {
		now = time.Now
	}
	s := &Server{
		meals:     d.Meals,
		companies: d.Companies,
		employees: d.Employees,
		ping:      d.Ping,
		logger:    logger.WithComponent(log.ComponentHTTP),
		metrics:   d.Metrics,
		ips:       security.NewIPExtractor(),
		now:       now,
	}
	for _, cidr := range d.TrustedProxies {
		if err := s.ips.AddTrustedProxy(cidr); err != nil {
			s.logger.Warn("Ignoring trusted proxy", "cidr", cidr, log.FieldError, err)
		}
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.LogError(context.Background(), "Failed parsing templates", err, log.OpStartup, log.ErrorTypeConfiguration)
	}
	s.templates = t

	api := http.NewServeMux()
	api.HandleFunc("GET /{$}", s.handleWelcome)
	api.HandleFunc("POST /meals/{$}", s.handleCreateMeal)
	api.HandleFunc("GET /meals/{$}", s.handleListMeals)
	api.HandleFunc("GET /meals/by_month/{year}/{month}", s.handleMealsByMonth)
	api.HandleFunc("GET /meals/{id}", s.handleGetMeal)
	api.HandleFunc("PATCH /meals/{id}", s.handleUpdateMeal)
	api.HandleFunc("DELETE /meals/{id}", s.handleDeleteMeal)
	api.HandleFunc("POST /companies/{$}", s.handleCreateCompany)
	api.HandleFunc("GET /companies/{$}", s.handleListCompanies)
	api.HandleFunc("POST /employees/{$}", s.handleCreateEmployee)
	api.HandleFunc("GET /employees/{$}", s.handleListEmployees)
	api.HandleFunc("GET /calendar", s.handleCalendar)
	api.HandleFunc("POST /calendar/meals", s.handleCalendarSubmit)
	api.HandleFunc("GET /dashboard", s.handleDashboard)

	var apiHandler http.Handler = api
	if d.RateLimit > 0 {
		s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: d.RateLimit})
		apiHandler = s.limiter.Middleware(s.ips.ClientIP)(apiHandler)
	}

	mux := http.NewServeMux()
	mux.Handle("/", apiHandler)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics.Handler())
	}
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	}

	var handler http.Handler = mux
	handler = security.CORS(d.CORSOrigins)(handler)
	handler = security.Headers(security.DefaultHeadersConfig())(handler)
	handler = trace.NewMiddleware(s.ips.ClientIP, d.Metrics).Middleware(handler)
	handler = log.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}
	return s
}

// Shutdown stops background work and then drains the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	return s.Server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ping(ctx); err != nil {
			log.FromContext(r.Context()).LogError(r.Context(), "Readiness check failed", err, log.OpRead, log.ErrorTypeDatabase)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleWelcome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the Catering Management API"})
}

var templateFuncs = template.FuncMap{
	"color":   func(t core.MealType) string { return t.Color() },
	"weekday": func(d time.Weekday) string { return d.String()[:3] },
}
