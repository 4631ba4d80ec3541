package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catering/internal/core"
	"catering/internal/memory"
	"catering/internal/metrics"
)

var fixedNow = time.Date(2024, time.March, 12, 9, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, mutate ...func(*Deps)) (*Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	d := Deps{
		Meals:     store,
		Companies: store,
		Employees: store,
		Metrics:   metrics.New(),
		Clock:     func() time.Time { return fixedNow },
	}
	for _, fn := range mutate {
		fn(&d)
	}
	return NewServer(":0", d), store
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func seed(t *testing.T, store *memory.Store) []core.Meal {
	t.Helper()
	ctx := context.Background()
	var out []core.Meal
	for _, mc := range []core.MealCreate{
		{Year: 2024, Month: 3, Day: 12, Type: core.Lunch, Menu: "Pasta Primavera", Count: 95},
		{Year: 2024, Month: 3, Day: 12, Type: core.Dinner, Menu: "Fish, Chips; Peas", Count: 67},
		{Year: 2024, Month: 4, Day: 1, Type: core.Breakfast, Menu: "Pancakes", Count: 45},
	} {
		m, err := store.Create(ctx, mc)
		require.NoError(t, err)
		out = append(out, m)
	}
	return out
}

func TestWelcomeAndHealth(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Welcome to the Catering Management API"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/readyz", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/nope", "").Code)
}

func TestReadyzReportsPingFailure(t *testing.T) {
	s, _ := newTestServer(t, func(d *Deps) {
		d.Ping = func(context.Context) error { return errors.New("db down") }
	})
	assert.Equal(t, http.StatusServiceUnavailable, do(t, s, http.MethodGet, "/readyz", "").Code)
}

func TestCreateAndListMeals(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/meals/", `{"year":2024,"month":3,"day":5,"type":"Breakfast","menu":"Pancakes","count":45}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created core.Meal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Pancakes", created.Menu)
	assert.Contains(t, rec.Body.String(), `"_id"`)

	rec = do(t, s, http.MethodGet, "/meals/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var all []core.Meal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 1)

	rec = do(t, s, http.MethodGet, "/meals/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateMealValidation(t *testing.T) {
	s, _ := newTestServer(t)
	cases := []struct {
		name  string
		body  string
		field string
	}{
		{"empty menu", `{"year":2024,"month":3,"day":5,"type":"Lunch","menu":"","count":4}`, "menu"},
		{"zero count", `{"year":2024,"month":3,"day":5,"type":"Lunch","menu":"Soup","count":0}`, "count"},
		{"unknown field", `{"year":2024,"month":3,"day":5,"type":"Lunch","menu":"Soup","count":4,"x":1}`, "body"},
		{"malformed", `{"year":`, "body"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/meals/", tc.body)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			var body errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.field, body.Field)
			assert.NotEmpty(t, body.Detail)
		})
	}
}

func TestMealsByMonth(t *testing.T) {
	s, store := newTestServer(t)
	seed(t, store)

	rec := do(t, s, http.MethodGet, "/meals/by_month/2024/3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var march []core.Meal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &march))
	require.Len(t, march, 2)
	assert.Equal(t, core.Lunch, march[0].Type)

	rec = do(t, s, http.MethodGet, "/meals/by_month/2024/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	assert.Equal(t, http.StatusUnprocessableEntity, do(t, s, http.MethodGet, "/meals/by_month/2024/13", "").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(t, s, http.MethodGet, "/meals/by_month/x/3", "").Code)
}

func TestMealsByMonthExports(t *testing.T) {
	s, store := newTestServer(t)
	meals := seed(t, store)

	rec := do(t, s, http.MethodGet, "/meals/by_month/2024/3.ics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "meals-2024-03.ics")
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "BEGIN:VCALENDAR\r\n"))
	assert.Equal(t, 2, strings.Count(body, "BEGIN:VEVENT"))
	assert.Contains(t, body, "UID:"+meals[0].ID+"@catering")
	assert.Contains(t, body, "DTSTART;VALUE=DATE:20240312\r\n")
	assert.Contains(t, body, "DTEND;VALUE=DATE:20240313\r\n")
	assert.Contains(t, body, `SUMMARY:Dinner: Fish\, Chips\; Peas`)
	assert.Contains(t, body, "DTSTAMP:20240312T090000Z")

	rec = do(t, s, http.MethodGet, "/meals/by_month/2024/3.csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,date,weekday,type,menu,count", lines[0])
	assert.Contains(t, lines[1], "2024-03-12,Tuesday,Lunch,Pasta Primavera,95")
}

func TestUpdateAndDeleteMeal(t *testing.T) {
	s, store := newTestServer(t)
	meals := seed(t, store)
	id := meals[0].ID

	rec := do(t, s, http.MethodPatch, "/meals/"+id, `{"count":100}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated core.Meal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, 100, updated.Count)
	assert.Equal(t, "Pasta Primavera", updated.Menu)

	rec = do(t, s, http.MethodPatch, "/meals/"+id, `{}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Meal not found or no new data to update", body.Detail)

	rec = do(t, s, http.MethodPatch, "/meals/missing", `{"count":3}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	body = errorBody{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Meal not found", body.Detail)

	assert.Equal(t, http.StatusNoContent, do(t, s, http.MethodDelete, "/meals/"+id, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodDelete, "/meals/"+id, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/meals/"+id, "").Code)
}

func TestCompaniesAndEmployees(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/companies/", `{"name":"Acme","email":"ops@acme.io","address":"Main St 1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var company core.Company
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &company))
	assert.Equal(t, core.CompanyActive, company.Status)

	assert.Equal(t, http.StatusUnprocessableEntity,
		do(t, s, http.MethodPost, "/companies/", `{"name":"Acme","email":"nope"}`).Code)

	rec = do(t, s, http.MethodPost, "/employees/", `{"name":"Ada","email":"ada@acme.io","position":"Chef","company_id":"`+company.ID+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodPost, "/employees/", `{"name":"Bob","email":"bob@acme.io","position":"Driver","company_id":"ghost"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "company_id")

	rec = do(t, s, http.MethodGet, "/companies/", "")
	var companies []core.Company
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &companies))
	require.Len(t, companies, 1)
	assert.Equal(t, 1, companies[0].EmployeesCount)

	rec = do(t, s, http.MethodGet, "/employees/", "")
	var employees []core.Employee
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &employees))
	require.Len(t, employees, 1)
	assert.Equal(t, core.DefaultShift, employees[0].Shift)
}

func TestCalendarPage(t *testing.T) {
	s, store := newTestServer(t)
	seed(t, store)

	rec := do(t, s, http.MethodGet, "/calendar", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "March 2024")
	assert.Contains(t, body, "Select a Day")
	assert.Contains(t, body, `class="dot green"`)
	assert.Contains(t, body, `class="dot orange"`)

	rec = do(t, s, http.MethodGet, "/calendar?year=2024&month=3&day=12", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = rec.Body.String()
	assert.Contains(t, body, "March 12")
	assert.Contains(t, body, "Pasta Primavera")
	assert.Contains(t, body, "95 servings")
	assert.Contains(t, body, `action="/calendar/meals"`)

	rec = do(t, s, http.MethodGet, "/calendar?year=2024&month=3&day=20", "")
	assert.Contains(t, rec.Body.String(), "No meals planned for this day.")

	rec = do(t, s, http.MethodGet, "/calendar?year=2024&month=4", "")
	assert.Contains(t, rec.Body.String(), "April 2024")
	assert.NotContains(t, rec.Body.String(), "Pasta Primavera")

	assert.Equal(t, http.StatusUnprocessableEntity, do(t, s, http.MethodGet, "/calendar?month=13", "").Code)
}

func postForm(t *testing.T, s *Server, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func TestCalendarSubmit(t *testing.T) {
	s, store := newTestServer(t)

	form := url.Values{
		"year": {"2024"}, "month": {"3"}, "day": {"5"},
		"type": {"Breakfast"}, "menu": {"Pancakes"}, "count": {"45"},
	}
	rec := postForm(t, s, "/calendar/meals", form)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, "/calendar?year=2024&month=3&day=5", rec.Header().Get("Location"))

	meals, _ := store.ListByMonth(context.Background(), 2024, 3)
	require.Len(t, meals, 1)
	assert.Equal(t, core.Breakfast, meals[0].Type)

	form.Set("menu", "  ")
	rec = postForm(t, s, "/calendar/meals", form)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "empty menu")
	assert.Contains(t, rec.Body.String(), "March 5")

	form.Set("menu", "Toast")
	form.Set("count", "lots")
	rec = postForm(t, s, "/calendar/meals", form)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	meals, _ = store.ListByMonth(context.Background(), 2024, 3)
	assert.Len(t, meals, 1)
}

type unlistableStore struct {
	*memory.Store
}

func (unlistableStore) ListByMonth(context.Context, int, int) ([]core.Meal, error) {
	return nil, errors.New("disk offline")
}

func TestCalendarSubmitReportsLoadFailure(t *testing.T) {
	store := unlistableStore{memory.New()}
	s, _ := newTestServer(t, func(d *Deps) { d.Meals = store })

	form := url.Values{
		"year": {"2024"}, "month": {"3"}, "day": {"5"},
		"type": {"Breakfast"}, "menu": {"Pancakes"}, "count": {"45"},
	}
	rec := postForm(t, s, "/calendar/meals", form)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to load meals: ")
	assert.Contains(t, rec.Body.String(), "disk offline")

	all, err := store.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestDashboardPage(t *testing.T) {
	s, store := newTestServer(t)
	seed(t, store)
	_, err := store.CreateCompany(context.Background(), core.CompanyCreate{Name: "Acme", Email: "ops@acme.io"})
	require.NoError(t, err)

	rec := do(t, s, http.MethodGet, "/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<p class="big">162</p>`)
	assert.Contains(t, body, "<th>Tue</th><td>162</td>")
	assert.Contains(t, body, "Acme")
}

func TestMetricsRecordRoutePattern(t *testing.T) {
	s, store := newTestServer(t)
	meals := seed(t, store)
	do(t, s, http.MethodGet, "/meals/"+meals[0].ID, "")

	rec := do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="GET /meals/{id}"`)
}

func TestRateLimitAppliesToAPI(t *testing.T) {
	s, _ := newTestServer(t, func(d *Deps) { d.RateLimit = 2 })
	defer s.Shutdown(context.Background())

	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/", "").Code)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, s, http.MethodGet, "/", "").Code)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/healthz", "").Code)
}

func TestStaticAssets(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/static/style.css", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ".calendar")
}

type failingResponseWriter struct {
	header http.Header
	status int
}

func (w *failingResponseWriter) Header() http.Header       { return w.header }
func (w *failingResponseWriter) WriteHeader(status int)    { w.status = status }
func (w *failingResponseWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestExportWriteErrorsSurface(t *testing.T) {
	meals := []core.Meal{{ID: "1", Year: 2024, Month: 3, Day: 12, Type: core.Lunch, Menu: "Soup", Count: 10}}
	ym := core.YearMonth{Year: 2024, Month: 3}

	w := &failingResponseWriter{header: http.Header{}}
	err := writeCSV(w, ym, meals)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, http.StatusOK, w.status)

	w = &failingResponseWriter{header: http.Header{}}
	assert.Error(t, writeICS(w, ym, meals, fixedNow))

	rec := httptest.NewRecorder()
	require.NoError(t, writeCSV(rec, ym, meals))
	assert.Contains(t, rec.Body.String(), "1,2024-03-12,Tuesday,Lunch,Soup,10")
}
